// Package wire encodes and decodes the command payloads accepted by the
// bundle engine.
//
// Commands form a tagged union: one tag byte selects the variant, followed
// by the variant's little-endian fields. Sequences carry a length prefix
// (u8 for wallet and target lists, u16 for payload bytes). Decoding is
// strict: unknown tags, truncation, and trailing bytes all fail with
// ErrMalformed.
package wire

import (
	"errors"

	"github.com/ledgerkit/bundler/internal/record"
)

// ErrMalformed is wrapped by every decode failure.
var ErrMalformed = errors.New("malformed command payload")

// Command tags, in the order of the command table.
const (
	TagInitialize     = 0
	TagCreateBundle   = 1
	TagAddInstruction = 2
	TagExecuteBundle  = 3
	TagSetPausedState = 4
)

// Command is one decoded command payload.
type Command interface {
	isCommand()
}

// Initialize bootstraps the authority's manager record.
type Initialize struct {
	BundleCapacity uint8
	FeeMultiplier  uint8
}

// CreateBundle declares a bundle's wallet slots and per-wallet instruction
// counts.
type CreateBundle struct {
	WalletIndexes     []uint8
	InstructionCounts []uint8
}

// AddInstruction appends one sub-instruction to a bundle.
type AddInstruction struct {
	BundleID    uint32
	WalletIndex uint8
	Payload     []byte
	Targets     []record.TargetDescriptor
}

// ExecuteBundle requests atomic execution under a compute budget.
type ExecuteBundle struct {
	BundleID        uint32
	MaxComputeUnits uint32
}

// SetPausedState flips the manager's pause flag.
type SetPausedState struct {
	Paused bool
}

func (Initialize) isCommand()     {}
func (CreateBundle) isCommand()   {}
func (AddInstruction) isCommand() {}
func (ExecuteBundle) isCommand()  {}
func (SetPausedState) isCommand() {}
