package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkit/bundler/internal/record"
)

func TestInitialize_FreshManager(t *testing.T) {
	r := newRig(t)

	m, err := r.engine.Initialize(context.Background(), r.auth, r.proofs, 5, 2)
	require.NoError(t, err)

	assert.Equal(t, r.auth, m.Authority)
	assert.Equal(t, uint8(5), m.BundleCapacity)
	assert.Equal(t, uint8(2), m.FeeMultiplier)
	assert.False(t, m.Paused)
	assert.Equal(t, uint16(0), m.ActiveBundles)
	assert.Equal(t, uint32(0), m.TotalExecuted)
	assert.Equal(t, uint32(0), m.NextSequence)

	// Persisted form matches.
	assert.Equal(t, m, r.manager(t))
}

func TestInitialize_BootstrapRequiresProof(t *testing.T) {
	r := newRig(t)
	stranger := NewProofs(record.AuthorityFromLabel("mallory"))

	_, err := r.engine.Initialize(context.Background(), r.auth, stranger, 5, 2)
	assert.Equal(t, CodeUnauthorized, CodeOf(err))
}

func TestInitialize_Reinitialize(t *testing.T) {
	r := newRig(t)
	r.init(t, 5, 2)
	r.create(t, []uint8{0}, []uint8{1})

	// Re-initializing a live manager would discard its counters.
	_, err := r.engine.Initialize(context.Background(), r.auth, r.proofs, 9, 9)
	require.Equal(t, CodeAlreadyInitialized, CodeOf(err))

	m := r.manager(t)
	assert.Equal(t, uint32(1), m.NextSequence, "counters must survive the rejected re-init")
	assert.Equal(t, uint16(1), m.ActiveBundles)
	assert.Equal(t, uint8(5), m.BundleCapacity)
}

func TestInitialize_CapacityAboveHardCap(t *testing.T) {
	r := newRig(t)

	_, err := r.engine.Initialize(context.Background(), r.auth, r.proofs, record.MaxWallets+1, 1)
	assert.Equal(t, CodeCapacityExceeded, CodeOf(err))
}

func TestSetPausedState_GatesMutations(t *testing.T) {
	r := newRig(t)
	r.init(t, 5, 1)
	ctx := context.Background()

	m, err := r.engine.SetPausedState(ctx, r.auth, r.proofs, true)
	require.NoError(t, err)
	assert.True(t, m.Paused)

	_, err = r.engine.CreateBundle(ctx, r.auth, r.proofs, []uint8{0}, []uint8{1}, 0)
	assert.Equal(t, CodeManagerPaused, CodeOf(err))
	assert.Equal(t, uint32(0), r.manager(t).NextSequence, "paused create must not touch counters")

	// SetPausedState itself is exempt from the pause gate.
	m, err = r.engine.SetPausedState(ctx, r.auth, r.proofs, false)
	require.NoError(t, err)
	assert.False(t, m.Paused)

	r.create(t, []uint8{0}, []uint8{1})
	assert.Equal(t, uint32(1), r.manager(t).NextSequence)
}

func TestSetPausedState_OnlyPauseFlagChanges(t *testing.T) {
	r := newRig(t)
	r.init(t, 5, 2)
	before := r.manager(t)

	_, err := r.engine.SetPausedState(context.Background(), r.auth, r.proofs, true)
	require.NoError(t, err)

	after := r.manager(t)
	before.Paused = true
	assert.Equal(t, before, after)
}

func TestSetPausedState_WrongAuthority(t *testing.T) {
	r := newRig(t)
	r.init(t, 5, 1)
	stranger := NewProofs(record.AuthorityFromLabel("mallory"))

	_, err := r.engine.SetPausedState(context.Background(), r.auth, stranger, true)
	assert.Equal(t, CodeUnauthorized, CodeOf(err))
	assert.False(t, r.manager(t).Paused)
}

func TestManagerStatus_NotInitialized(t *testing.T) {
	r := newRig(t)

	_, err := r.engine.ManagerStatus(context.Background(), r.auth)
	assert.Equal(t, CodeInvalidState, CodeOf(err))
}
