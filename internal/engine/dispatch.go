package engine

import (
	"context"

	"github.com/ledgerkit/bundler/internal/record"
	"github.com/ledgerkit/bundler/internal/wire"
)

// Dispatch routes a decoded command to its handler. Exactly one handler
// sees each command. The authority is the caller's claimed identity;
// proofs are the verified signer set presented with the request.
//
// The returned value is the handler's result: a ManagerRecord for
// Initialize and SetPausedState, a BundleRecord for CreateBundle, an
// InstructionRecord for AddInstruction, and an ExecuteResult for
// ExecuteBundle.
func (e *Engine) Dispatch(ctx context.Context, authority record.AuthorityID, proofs Proofs, cmd wire.Command) (any, error) {
	switch c := cmd.(type) {
	case wire.Initialize:
		return e.Initialize(ctx, authority, proofs, c.BundleCapacity, c.FeeMultiplier)
	case wire.CreateBundle:
		// The wire form carries no base fee; fee derivation starts from 0.
		return e.CreateBundle(ctx, authority, proofs, c.WalletIndexes, c.InstructionCounts, 0)
	case wire.AddInstruction:
		return e.AddInstruction(ctx, authority, proofs, c.BundleID, c.WalletIndex, c.Payload, c.Targets)
	case wire.ExecuteBundle:
		return e.ExecuteBundle(ctx, authority, proofs, c.BundleID, c.MaxComputeUnits)
	case wire.SetPausedState:
		return e.SetPausedState(ctx, authority, proofs, c.Paused)
	default:
		return nil, opErr(CodeDeserializationFailure, "unknown command type %T", cmd)
	}
}
