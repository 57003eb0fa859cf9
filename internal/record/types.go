package record

import "fmt"

// MaxWallets is the hard cap on wallet slots per bundle. The bundle record
// layout reserves exactly two bytes per slot, so this bound also bounds the
// record size.
const MaxWallets = 20

// AuthorityID identifies the capability holder permitted to mutate a manager
// or bundle record. It is an opaque 32-byte digest; see AuthorityFromLabel.
type AuthorityID [32]byte

// Ref is a stored foreign reference to another record, a 32-byte digest of
// the referenced record's key. See RefOf.
type Ref [32]byte

func (a AuthorityID) String() string { return fmt.Sprintf("%x", a[:]) }
func (r Ref) String() string         { return fmt.Sprintf("%x", r[:]) }

// BundleStatus is the bundle lifecycle state.
//
// Legal transitions: Created → Populating → Executing → {Executed | Failed},
// plus Created → Executing for bundles declaring zero instructions.
// Executed and Failed are terminal.
type BundleStatus uint8

const (
	StatusCreated BundleStatus = iota
	StatusPopulating
	StatusExecuting
	StatusExecuted
	StatusFailed
)

// String returns the lower-case status name for logs and CLI output.
func (s BundleStatus) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusPopulating:
		return "populating"
	case StatusExecuting:
		return "executing"
	case StatusExecuted:
		return "executed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Terminal reports whether the status permits no further transitions.
func (s BundleStatus) Terminal() bool {
	return s == StatusExecuted || s == StatusFailed
}

// Accumulating reports whether instructions may still be added.
func (s BundleStatus) Accumulating() bool {
	return s == StatusCreated || s == StatusPopulating
}

// ManagerRecord is the per-authority singleton holding capacity policy, the
// pause flag, and the bundle sequence and aggregate counters.
//
// INVARIANTS:
//   - ActiveBundles equals the number of bundles in a non-terminal state
//     under this manager.
//   - NextSequence never decreases and is unique per issued bundle id.
type ManagerRecord struct {
	Authority      AuthorityID
	BundleCapacity uint8 // max wallet slots per bundle (≤ MaxWallets)
	FeeMultiplier  uint8
	ActiveBundles  uint16
	TotalExecuted  uint32
	Paused         bool
	NextSequence   uint32
}

// BundleRecord is a capacity-bounded group of sub-instructions targeting
// indexed wallets, executed as one atomic unit.
//
// WalletIndexes and InstructionCounts are parallel arrays of length
// WalletCount; entries of WalletIndexes are unique within the bundle.
// Timestamps are unix seconds, 0 = unset.
type BundleRecord struct {
	ManagerRef           Ref
	Authority            AuthorityID
	BundleID             uint32
	CreatedAt            int64
	ExecutionStartedAt   int64
	ExecutionCompletedAt int64
	WalletCount          uint8
	WalletIndexes        []uint8
	InstructionCounts    []uint8
	Status               BundleStatus
	PriorityFee          uint16
}

// DeclaredCount returns the declared instruction count for a wallet index,
// or false if the wallet is not declared in this bundle.
func (b *BundleRecord) DeclaredCount(walletIndex uint8) (uint8, bool) {
	for i, w := range b.WalletIndexes {
		if w == walletIndex {
			return b.InstructionCounts[i], true
		}
	}
	return 0, false
}

// TotalDeclared returns the total number of instructions the bundle declares
// across all wallets.
func (b *BundleRecord) TotalDeclared() int {
	total := 0
	for _, c := range b.InstructionCounts {
		total += int(c)
	}
	return total
}

// TargetDescriptor references one account touched by an instruction,
// tagged with its access mode.
type TargetDescriptor struct {
	Ref      Ref
	Signer   bool
	Writable bool
}

// InstructionRecord is one accumulated sub-instruction of a bundle. Seq is
// its insertion sequence within the bundle (assigned by the accumulator);
// Executed stays false until the owning bundle completes successfully.
type InstructionRecord struct {
	BundleRef   Ref
	WalletIndex uint8
	Seq         uint16
	Payload     []byte
	Targets     []TargetDescriptor
	Executed    bool
}
