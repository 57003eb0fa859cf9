package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/ledgerkit/bundler/internal/record"
	"github.com/ledgerkit/bundler/internal/store"
)

// Initialize provisions and writes a fresh manager record for the
// authority. Bootstrap case of the authority guard: any presented proof may
// become the bound authority, so the only requirement is that the caller
// holds a proof for the authority it is binding.
//
// Re-initializing a live manager is rejected with AlreadyInitialized;
// reinitialization would silently discard its counters.
func (e *Engine) Initialize(ctx context.Context, authority record.AuthorityID, proofs Proofs, bundleCapacity, feeMultiplier uint8) (record.ManagerRecord, error) {
	if !proofs.Holds(authority) {
		return record.ManagerRecord{}, opErr(CodeUnauthorized, "bootstrap proof missing for authority %s", authority)
	}
	if bundleCapacity > record.MaxWallets {
		return record.ManagerRecord{}, opErr(CodeCapacityExceeded, "bundle capacity %d exceeds wallet cap %d", bundleCapacity, record.MaxWallets)
	}

	m := record.ManagerRecord{
		Authority:      authority,
		BundleCapacity: bundleCapacity,
		FeeMultiplier:  feeMultiplier,
	}

	key := record.ManagerKey(authority)
	err := e.store.Commit(ctx, func(tx *store.Tx) error {
		rec, err := tx.Provision(ctx, key, record.ManagerRecordSize, RecordOwner)
		if err != nil {
			if errors.Is(err, store.ErrOwnershipMismatch) {
				return wrapOpErr(CodeOwnershipMismatch, err, "manager key %s", key)
			}
			return fmt.Errorf("initialize: %w", err)
		}
		if rec.Version > 0 {
			return opErr(CodeAlreadyInitialized, "manager for authority %s already initialized", authority)
		}
		return tx.Update(ctx, key, RecordOwner, rec.Version, record.EncodeManager(m))
	})
	if err != nil {
		return record.ManagerRecord{}, err
	}

	e.log.Info("manager initialized",
		"authority", authority.String(),
		"bundle_capacity", bundleCapacity,
		"fee_multiplier", feeMultiplier)
	return m, nil
}

// SetPausedState flips the manager's pause flag. It requires a proof for
// the bound authority and changes no other field. It is deliberately exempt
// from the pause gate, otherwise a paused manager could never resume.
func (e *Engine) SetPausedState(ctx context.Context, authority record.AuthorityID, proofs Proofs, paused bool) (record.ManagerRecord, error) {
	var m record.ManagerRecord
	key := record.ManagerKey(authority)
	err := e.store.Commit(ctx, func(tx *store.Tx) error {
		var version int64
		var err error
		m, version, err = loadManager(ctx, tx, authority)
		if err != nil {
			return err
		}
		if err := guardAuthority(m.Authority, proofs); err != nil {
			return err
		}
		m.Paused = paused
		return tx.Update(ctx, key, RecordOwner, version, record.EncodeManager(m))
	})
	if err != nil {
		return record.ManagerRecord{}, err
	}

	e.log.Info("manager pause state changed", "authority", authority.String(), "paused", paused)
	return m, nil
}

// ManagerStatus returns the manager record for an authority. Read-only;
// no proof required.
func (e *Engine) ManagerStatus(ctx context.Context, authority record.AuthorityID) (record.ManagerRecord, error) {
	m, _, err := loadManager(ctx, e.store, authority)
	return m, err
}
