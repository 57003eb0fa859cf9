package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ledgerkit/bundler/internal/record"
	"github.com/ledgerkit/bundler/internal/store"
	"github.com/ledgerkit/bundler/internal/testutil"
)

var testEpoch = time.Unix(1_700_000_000, 0)

// testRig wires an engine over a temp store with a pinned clock and a
// scripted environment.
type testRig struct {
	engine *Engine
	clock  *testutil.FixedClock
	env    *testutil.ScriptedEnvironment
	auth   record.AuthorityID
	proofs Proofs
}

func newRig(t *testing.T) *testRig {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "bundler.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := testutil.NewFixedClock(testEpoch)
	env := testutil.NewScriptedEnvironment(50_000)
	auth := record.AuthorityFromLabel("alice")
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testRig{
		engine: New(st, WithClock(clock), WithEnvironment(env), WithLogger(quiet)),
		clock:  clock,
		env:    env,
		auth:   auth,
		proofs: NewProofs(auth),
	}
}

func (r *testRig) init(t *testing.T, capacity, multiplier uint8) {
	t.Helper()
	_, err := r.engine.Initialize(context.Background(), r.auth, r.proofs, capacity, multiplier)
	require.NoError(t, err)
}

func (r *testRig) create(t *testing.T, wallets, counts []uint8) record.BundleRecord {
	t.Helper()
	b, err := r.engine.CreateBundle(context.Background(), r.auth, r.proofs, wallets, counts, 0)
	require.NoError(t, err)
	return b
}

func (r *testRig) add(t *testing.T, bundleID uint32, walletIndex uint8, payload string) record.InstructionRecord {
	t.Helper()
	ins, err := r.engine.AddInstruction(context.Background(), r.auth, r.proofs, bundleID, walletIndex, []byte(payload), nil)
	require.NoError(t, err)
	return ins
}

func (r *testRig) manager(t *testing.T) record.ManagerRecord {
	t.Helper()
	m, err := r.engine.ManagerStatus(context.Background(), r.auth)
	require.NoError(t, err)
	return m
}

func (r *testRig) bundle(t *testing.T, bundleID uint32) (record.BundleRecord, []record.InstructionRecord) {
	t.Helper()
	b, instructions, err := r.engine.BundleStatus(context.Background(), r.auth, bundleID)
	require.NoError(t, err)
	return b, instructions
}
