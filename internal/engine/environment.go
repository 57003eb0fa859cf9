package engine

import (
	"context"

	"github.com/ledgerkit/bundler/internal/record"
)

// Environment is the execution-environment collaborator: it prices
// sub-instructions and applies their effects.
//
// EstimateCost must be side-effect free; the engine calls it for every
// instruction before deciding whether to execute at all. Apply failures
// carry an opaque diagnostic that the engine does not interpret beyond
// routing the bundle to Failed.
type Environment interface {
	EstimateCost(ins record.InstructionRecord) uint32
	Apply(ctx context.Context, ins record.InstructionRecord) error
}

// Default cost model constants. The host's real pricing is out of scope;
// these echo the shape of typical compute-unit pricing (a per-instruction
// floor plus data and account-access components) and sit comfortably under
// a 200k-unit ceiling for small bundles.
const (
	baseInstructionCost = 1500
	payloadByteCost     = 3
	targetCost          = 300
)

// DefaultEnvironment is the reference Environment: it prices instructions
// with the default cost model and applies them as successful no-ops. Hosts
// with real side effects supply their own Environment.
type DefaultEnvironment struct{}

// EstimateCost prices an instruction by size:
// base + payloadByteCost×len(payload) + targetCost×len(targets).
func (DefaultEnvironment) EstimateCost(ins record.InstructionRecord) uint32 {
	return baseInstructionCost +
		payloadByteCost*uint32(len(ins.Payload)) +
		targetCost*uint32(len(ins.Targets))
}

// Apply succeeds without side effects.
func (DefaultEnvironment) Apply(ctx context.Context, ins record.InstructionRecord) error {
	return nil
}
