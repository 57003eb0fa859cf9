package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ledgerkit/bundler/internal/record"
	"github.com/ledgerkit/bundler/internal/store"
)

// RecordOwner is the owner tag under which the engine provisions and
// accesses every record. The store rejects access to records held by any
// other owner.
const RecordOwner = "bundler"

// Engine executes bundle operations against the record store.
//
// Thread-safety: all methods are safe for concurrent use. Mutations run
// inside store transactions; the bundle status transition into Executing is
// a versioned compare-and-set, so concurrent operations serialize per
// record rather than per engine.
type Engine struct {
	store  *store.Store
	clock  Clock
	env    Environment
	tokens TokenGenerator
	log    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock (tests pin timestamps with it).
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithEnvironment overrides the execution environment.
func WithEnvironment(env Environment) Option {
	return func(e *Engine) { e.env = env }
}

// WithTokenGenerator overrides the operation token generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) { e.tokens = g }
}

// WithLogger overrides the logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an Engine over the given store. Defaults: system clock,
// DefaultEnvironment, UUIDv7 tokens, slog default logger.
func New(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		clock:  SystemClock{},
		env:    DefaultEnvironment{},
		tokens: UUIDv7Generator{},
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// recordView is the read surface shared by *store.Store and *store.Tx.
type recordView interface {
	Get(ctx context.Context, key, owner string) (store.Record, error)
	List(ctx context.Context, prefix, owner string) ([]store.Record, error)
}

// loadManager loads and decodes the manager singleton for an authority,
// returning the record version for compare-and-set writes.
func loadManager(ctx context.Context, v recordView, authority record.AuthorityID) (record.ManagerRecord, int64, error) {
	key := record.ManagerKey(authority)
	rec, err := v.Get(ctx, key, RecordOwner)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return record.ManagerRecord{}, 0, opErr(CodeInvalidState, "manager not initialized for authority %s", authority)
		}
		return record.ManagerRecord{}, 0, err
	}
	// Version 0 means provisioned but never written: Initialize crashed
	// before its first commit. Treat as not initialized.
	if rec.Version == 0 {
		return record.ManagerRecord{}, 0, opErr(CodeInvalidState, "manager not initialized for authority %s", authority)
	}
	m, err := record.DecodeManager(rec.Data)
	if err != nil {
		return record.ManagerRecord{}, 0, wrapOpErr(CodeDeserializationFailure, err, "manager record %s", key)
	}
	return m, rec.Version, nil
}

// loadBundle loads and decodes a bundle by id under its manager key.
func loadBundle(ctx context.Context, v recordView, managerKey string, bundleID uint32) (record.BundleRecord, int64, error) {
	key := record.BundleKey(managerKey, bundleID)
	rec, err := v.Get(ctx, key, RecordOwner)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return record.BundleRecord{}, 0, opErr(CodeInvalidState, "bundle %d does not exist", bundleID)
		}
		return record.BundleRecord{}, 0, err
	}
	if rec.Version == 0 {
		return record.BundleRecord{}, 0, opErr(CodeInvalidState, "bundle %d does not exist", bundleID)
	}
	b, err := record.DecodeBundle(rec.Data)
	if err != nil {
		return record.BundleRecord{}, 0, wrapOpErr(CodeDeserializationFailure, err, "bundle record %s", key)
	}
	return b, rec.Version, nil
}

// loadInstructions loads and decodes all instruction records of a bundle in
// key (= insertion) order.
func loadInstructions(ctx context.Context, v recordView, bundleKey string) ([]record.InstructionRecord, []store.Record, error) {
	recs, err := v.List(ctx, record.InstructionPrefix(bundleKey), RecordOwner)
	if err != nil {
		return nil, nil, err
	}
	instructions := make([]record.InstructionRecord, len(recs))
	for i, rec := range recs {
		ins, err := record.DecodeInstruction(rec.Data)
		if err != nil {
			return nil, nil, wrapOpErr(CodeDeserializationFailure, err, "instruction record %s", rec.Key)
		}
		instructions[i] = ins
	}
	return instructions, recs, nil
}
