package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ledgerkit/bundler/internal/record"
	"github.com/ledgerkit/bundler/internal/store"
)

// ExecuteResult summarizes a terminal ExecuteBundle outcome.
type ExecuteResult struct {
	BundleID      uint32
	Status        record.BundleStatus
	Applied       int    // sub-operations applied before success or first failure
	EstimatedCost uint64 // total pre-flight cost estimate
	OpToken       string // correlation token for logs and responses
}

// ExecuteBundle validates readiness, enforces the compute budget, and
// commits the bundle as a single all-or-nothing unit.
//
// The operation runs in three phases:
//
//  1. Claim (one transaction): authority and pause guards, completeness
//     check, cost estimation against maxComputeUnits, then the versioned
//     compare-and-set of status into Executing. Every failure here leaves
//     all records untouched. Of two racing calls, the loser either reloads
//     the bundle as Executing or loses the version check; both read as
//     InvalidState.
//  2. Apply: each instruction's sub-operation runs via the environment, in
//     ascending wallet index then insertion order. Once one fails, no later
//     sub-operation is attempted.
//  3. Settle (one transaction): on full success, every instruction flips to
//     executed and the bundle becomes Executed (totalExecuted+1); on any
//     failure the bundle becomes Failed with instructions untouched. Either
//     way the manager's active count decrements exactly once, here.
func (e *Engine) ExecuteBundle(ctx context.Context, authority record.AuthorityID, proofs Proofs, bundleID uint32, maxComputeUnits uint32) (ExecuteResult, error) {
	token := e.tokens.Generate()
	managerKey := record.ManagerKey(authority)
	bundleKey := record.BundleKey(managerKey, bundleID)

	var b record.BundleRecord
	var ordered []record.InstructionRecord
	var estimated uint64

	// Phase 1: validate and claim the bundle.
	err := e.store.Commit(ctx, func(tx *store.Tx) error {
		m, _, err := loadManager(ctx, tx, authority)
		if err != nil {
			return err
		}
		var bundleVersion int64
		b, bundleVersion, err = loadBundle(ctx, tx, managerKey, bundleID)
		if err != nil {
			return err
		}
		if err := guardAuthority(b.Authority, proofs); err != nil {
			return err
		}
		if err := guardUnpaused(m); err != nil {
			return err
		}
		if !b.Status.Accumulating() {
			return opErr(CodeInvalidState, "bundle %d is %s, not executable", bundleID, b.Status)
		}

		instructions, _, err := loadInstructions(ctx, tx, bundleKey)
		if err != nil {
			return err
		}
		if err := checkComplete(&b, instructions); err != nil {
			return err
		}

		ordered = append([]record.InstructionRecord(nil), instructions...)
		sort.SliceStable(ordered, func(i, j int) bool {
			if ordered[i].WalletIndex != ordered[j].WalletIndex {
				return ordered[i].WalletIndex < ordered[j].WalletIndex
			}
			return ordered[i].Seq < ordered[j].Seq
		})

		// Budget check strictly before any side-effecting sub-call.
		estimated = 0
		for _, ins := range ordered {
			estimated += uint64(e.env.EstimateCost(ins))
		}
		if estimated > uint64(maxComputeUnits) {
			oe := opErr(CodeComputeBudgetExceeded, "estimated %d units exceeds budget %d", estimated, maxComputeUnits)
			oe.Details = map[string]string{
				"estimated": fmt.Sprintf("%d", estimated),
				"budget":    fmt.Sprintf("%d", maxComputeUnits),
			}
			return oe
		}

		// Atomic check-and-set into Executing. The version named here is
		// the one this transaction read; a racing executor that committed
		// first makes this update miss and the whole claim rolls back.
		b.Status = record.StatusExecuting
		b.ExecutionStartedAt = e.clock.Now().Unix()
		data, err := record.EncodeBundle(b)
		if err != nil {
			return fmt.Errorf("execute bundle: %w", err)
		}
		if err := tx.Update(ctx, bundleKey, RecordOwner, bundleVersion, data); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				return opErr(CodeInvalidState, "bundle %d claimed by a concurrent execution", bundleID)
			}
			return fmt.Errorf("execute bundle: %w", err)
		}
		return nil
	})
	if err != nil {
		return ExecuteResult{}, err
	}

	e.log.Info("bundle executing",
		"op", token, "bundle_id", bundleID,
		"instructions", len(ordered), "estimated_cost", estimated)

	// Phase 2: apply sub-operations. Stop at the first failure; partial
	// rollback is not possible in the host environment, so nothing after a
	// failed sub-operation may run.
	applied := 0
	var applyErr error
	for _, ins := range ordered {
		if err := e.env.Apply(ctx, ins); err != nil {
			applyErr = fmt.Errorf("instruction %s: %w",
				record.InstructionID(ins.BundleRef, ins.WalletIndex, ins.Seq, ins.Payload), err)
			break
		}
		applied++
	}

	// Phase 3: settle the terminal state.
	now := e.clock.Now().Unix()
	err = e.store.Commit(ctx, func(tx *store.Tx) error {
		m, managerVersion, err := loadManager(ctx, tx, authority)
		if err != nil {
			return err
		}
		_, bundleVersion, err := loadBundle(ctx, tx, managerKey, bundleID)
		if err != nil {
			return err
		}

		if applyErr == nil {
			instructions, recs, err := loadInstructions(ctx, tx, bundleKey)
			if err != nil {
				return err
			}
			for i := range instructions {
				instructions[i].Executed = true
				data, err := record.EncodeInstruction(instructions[i])
				if err != nil {
					return fmt.Errorf("settle bundle: %w", err)
				}
				if err := tx.Update(ctx, recs[i].Key, RecordOwner, recs[i].Version, data); err != nil {
					return fmt.Errorf("settle bundle: %w", err)
				}
			}
			b.Status = record.StatusExecuted
			m.TotalExecuted++
		} else {
			b.Status = record.StatusFailed
		}
		b.ExecutionCompletedAt = now

		data, err := record.EncodeBundle(b)
		if err != nil {
			return fmt.Errorf("settle bundle: %w", err)
		}
		if err := tx.Update(ctx, bundleKey, RecordOwner, bundleVersion, data); err != nil {
			return fmt.Errorf("settle bundle: %w", err)
		}

		// The bundle leaves the active set exactly once, on this first and
		// only transition into a terminal state.
		if m.ActiveBundles > 0 {
			m.ActiveBundles--
		}
		return tx.Update(ctx, managerKey, RecordOwner, managerVersion, record.EncodeManager(m))
	})
	if err != nil {
		return ExecuteResult{}, fmt.Errorf("execute bundle %d: settle: %w", bundleID, err)
	}

	result := ExecuteResult{
		BundleID:      bundleID,
		Status:        b.Status,
		Applied:       applied,
		EstimatedCost: estimated,
		OpToken:       token,
	}
	if applyErr != nil {
		e.log.Info("bundle failed", "op", token, "bundle_id", bundleID, "applied", applied, "error", applyErr)
		return result, wrapOpErr(CodeExecutionFailed, applyErr, "bundle %d failed after %d sub-operations", bundleID, applied)
	}
	e.log.Info("bundle executed", "op", token, "bundle_id", bundleID, "applied", applied)
	return result, nil
}

// checkComplete verifies every declared wallet has exactly its declared
// number of recorded instructions. The accumulator forbids overshoot, so
// only shortfalls are possible.
func checkComplete(b *record.BundleRecord, instructions []record.InstructionRecord) error {
	tally := make(map[uint8]uint8, b.WalletCount)
	for _, ins := range instructions {
		tally[ins.WalletIndex]++
	}
	for i, w := range b.WalletIndexes {
		declared := b.InstructionCounts[i]
		if tally[w] < declared {
			return opErr(CodeIncompleteBundle, "wallet index %d has %d of %d instructions", w, tally[w], declared)
		}
	}
	return nil
}
