package engine

import (
	"context"
	"fmt"

	"github.com/ledgerkit/bundler/internal/record"
	"github.com/ledgerkit/bundler/internal/store"
)

// AddInstruction appends a sub-instruction record to a bundle.
//
// The bundle must still be accumulating (Created or Populating), the wallet
// index must be declared, and the wallet's recorded count must be strictly
// below its declared count. The first instruction moves the bundle from
// Created to Populating; manager counters do not change.
func (e *Engine) AddInstruction(ctx context.Context, authority record.AuthorityID, proofs Proofs, bundleID uint32, walletIndex uint8, payload []byte, targets []record.TargetDescriptor) (record.InstructionRecord, error) {
	var ins record.InstructionRecord
	managerKey := record.ManagerKey(authority)
	bundleKey := record.BundleKey(managerKey, bundleID)

	err := e.store.Commit(ctx, func(tx *store.Tx) error {
		m, _, err := loadManager(ctx, tx, authority)
		if err != nil {
			return err
		}
		b, bundleVersion, err := loadBundle(ctx, tx, managerKey, bundleID)
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
			return opErr(CodeInvalidState, "bundle %d is %s, not accepting instructions", bundleID, b.Status)
		}

		declared, ok := b.DeclaredCount(walletIndex)
		if !ok {
			// An undeclared wallet has a declared count of zero; adding
			// would exceed it.
			return opErr(CodeCapacityExceeded, "wallet index %d not declared in bundle %d", walletIndex, bundleID)
		}
		if len(payload) > record.MaxPayloadBytes {
			return opErr(CodeCapacityExceeded, "payload %d bytes exceeds cap %d", len(payload), record.MaxPayloadBytes)
		}
		if len(targets) > record.MaxTargets {
			return opErr(CodeCapacityExceeded, "%d targets exceeds cap %d", len(targets), record.MaxTargets)
		}

		existing, _, err := loadInstructions(ctx, tx, bundleKey)
		if err != nil {
			return err
		}
		recorded := uint8(0)
		for _, prev := range existing {
			if prev.WalletIndex == walletIndex {
				recorded++
			}
		}
		if recorded >= declared {
			return opErr(CodeCapacityExceeded, "wallet index %d already has %d of %d instructions", walletIndex, recorded, declared)
		}

		ins = record.InstructionRecord{
			BundleRef:   record.RefOf(bundleKey),
			WalletIndex: walletIndex,
			Seq:         uint16(len(existing)),
			Payload:     append([]byte(nil), payload...),
			Targets:     append([]record.TargetDescriptor(nil), targets...),
		}
		data, err := record.EncodeInstruction(ins)
		if err != nil {
			return fmt.Errorf("add instruction: %w", err)
		}

		key := record.InstructionKey(bundleKey, ins.Seq)
		rec, err := tx.Provision(ctx, key, int64(len(data)), RecordOwner)
		if err != nil {
			return fmt.Errorf("add instruction: %w", err)
		}
		if rec.Version > 0 {
			return opErr(CodeInvalidState, "instruction record %s already exists", key)
		}
		if err := tx.Update(ctx, key, RecordOwner, rec.Version, data); err != nil {
			return fmt.Errorf("add instruction: %w", err)
		}

		if b.Status == record.StatusCreated {
			b.Status = record.StatusPopulating
			bundleData, err := record.EncodeBundle(b)
			if err != nil {
				return fmt.Errorf("add instruction: %w", err)
			}
			if err := tx.Update(ctx, bundleKey, RecordOwner, bundleVersion, bundleData); err != nil {
				return fmt.Errorf("add instruction: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return record.InstructionRecord{}, err
	}

	e.log.Debug("instruction added",
		"bundle_id", bundleID,
		"wallet_index", walletIndex,
		"seq", ins.Seq,
		"instruction", record.InstructionID(ins.BundleRef, ins.WalletIndex, ins.Seq, ins.Payload))
	return ins, nil
}
