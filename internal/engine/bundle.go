package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/ledgerkit/bundler/internal/record"
	"github.com/ledgerkit/bundler/internal/store"
)

// CreateBundle allocates a new bundle under the authority's manager.
//
// The bundle id is taken from the manager's sequence, and the bundle write
// and the manager counter updates (activeBundles+1, nextSequence+1) ride
// one transaction: they land together or not at all, so ids cannot collide
// and the active count cannot drift.
func (e *Engine) CreateBundle(ctx context.Context, authority record.AuthorityID, proofs Proofs, walletIndexes, instructionCounts []uint8, baseFee uint16) (record.BundleRecord, error) {
	var b record.BundleRecord
	managerKey := record.ManagerKey(authority)

	err := e.store.Commit(ctx, func(tx *store.Tx) error {
		m, managerVersion, err := loadManager(ctx, tx, authority)
		if err != nil {
			return err
		}
		if err := guardAuthority(m.Authority, proofs); err != nil {
			return err
		}
		if err := guardUnpaused(m); err != nil {
			return err
		}
		if err := validateDeclaration(m, walletIndexes, instructionCounts); err != nil {
			return err
		}

		bundleID := m.NextSequence
		bundleKey := record.BundleKey(managerKey, bundleID)

		b = record.BundleRecord{
			ManagerRef:        record.RefOf(managerKey),
			Authority:         authority,
			BundleID:          bundleID,
			CreatedAt:         e.clock.Now().Unix(),
			WalletCount:       uint8(len(walletIndexes)),
			WalletIndexes:     append([]uint8(nil), walletIndexes...),
			InstructionCounts: append([]uint8(nil), instructionCounts...),
			Status:            record.StatusCreated,
			PriorityFee:       derivePriorityFee(baseFee, m.FeeMultiplier),
		}
		data, err := record.EncodeBundle(b)
		if err != nil {
			return fmt.Errorf("create bundle: %w", err)
		}

		rec, err := tx.Provision(ctx, bundleKey, int64(len(data)), RecordOwner)
		if err != nil {
			return fmt.Errorf("create bundle: %w", err)
		}
		if rec.Version > 0 {
			return opErr(CodeInvalidState, "bundle record %s already exists", bundleKey)
		}
		if err := tx.Update(ctx, bundleKey, RecordOwner, rec.Version, data); err != nil {
			return fmt.Errorf("create bundle: %w", err)
		}

		m.ActiveBundles++
		m.NextSequence++
		if err := tx.Update(ctx, managerKey, RecordOwner, managerVersion, record.EncodeManager(m)); err != nil {
			return fmt.Errorf("create bundle: manager counters: %w", err)
		}
		return nil
	})
	if err != nil {
		return record.BundleRecord{}, err
	}

	e.log.Info("bundle created",
		"authority", authority.String(),
		"bundle_id", b.BundleID,
		"wallets", b.WalletCount,
		"priority_fee", b.PriorityFee)
	return b, nil
}

// validateDeclaration checks the wallet/count declaration pair: equal
// lengths, hard and per-manager wallet caps, and distinct wallet indexes.
func validateDeclaration(m record.ManagerRecord, walletIndexes, instructionCounts []uint8) error {
	if len(walletIndexes) != len(instructionCounts) {
		return opErr(CodeArityMismatch, "%d wallet indexes but %d instruction counts", len(walletIndexes), len(instructionCounts))
	}
	if len(walletIndexes) > record.MaxWallets {
		return opErr(CodeCapacityExceeded, "%d wallets exceeds cap %d", len(walletIndexes), record.MaxWallets)
	}
	// BundleCapacity 0 means no per-manager cap below the hard one.
	if m.BundleCapacity > 0 && len(walletIndexes) > int(m.BundleCapacity) {
		return opErr(CodeCapacityExceeded, "%d wallets exceeds manager capacity %d", len(walletIndexes), m.BundleCapacity)
	}
	seen := make(map[uint8]bool, len(walletIndexes))
	for _, w := range walletIndexes {
		if seen[w] {
			return opErr(CodeArityMismatch, "duplicate wallet index %d", w)
		}
		seen[w] = true
	}
	return nil
}

// derivePriorityFee applies the manager's multiplier to the caller-supplied
// base fee, saturating at the field's u16 ceiling.
func derivePriorityFee(baseFee uint16, multiplier uint8) uint16 {
	fee := uint32(baseFee) * uint32(multiplier)
	if fee > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(fee)
}

// BundleStatus returns a bundle and its instruction records. Read-only; no
// proof required. The two reads share a transaction so the view is a
// consistent snapshot.
func (e *Engine) BundleStatus(ctx context.Context, authority record.AuthorityID, bundleID uint32) (record.BundleRecord, []record.InstructionRecord, error) {
	var b record.BundleRecord
	var instructions []record.InstructionRecord
	managerKey := record.ManagerKey(authority)

	err := e.store.Commit(ctx, func(tx *store.Tx) error {
		var err error
		b, _, err = loadBundle(ctx, tx, managerKey, bundleID)
		if err != nil {
			return err
		}
		instructions, _, err = loadInstructions(ctx, tx, record.BundleKey(managerKey, bundleID))
		return err
	})
	if err != nil {
		return record.BundleRecord{}, nil, err
	}
	return b, instructions, nil
}
