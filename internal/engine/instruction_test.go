package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerkit/bundler/internal/record"
)

func TestAddInstruction_TransitionsToPopulating(t *testing.T) {
	r := newRig(t)
	r.init(t, 5, 1)
	r.create(t, []uint8{0, 1}, []uint8{2, 1})

	ins := r.add(t, 0, 0, "first")
	assert.Equal(t, uint16(0), ins.Seq)
	assert.False(t, ins.Executed)

	b, instructions := r.bundle(t, 0)
	assert.Equal(t, record.StatusPopulating, b.Status)
	require.Len(t, instructions, 1)

	// Further adds keep the status at Populating.
	r.add(t, 0, 0, "second")
	b, instructions = r.bundle(t, 0)
	assert.Equal(t, record.StatusPopulating, b.Status)
	assert.Len(t, instructions, 2)
}

func TestAddInstruction_SequencesAcrossWallets(t *testing.T) {
	r := newRig(t)
	r.init(t, 5, 1)
	r.create(t, []uint8{0, 1}, []uint8{2, 1})

	assert.Equal(t, uint16(0), r.add(t, 0, 1, "a").Seq)
	assert.Equal(t, uint16(1), r.add(t, 0, 0, "b").Seq)
	assert.Equal(t, uint16(2), r.add(t, 0, 0, "c").Seq)
}

func TestAddInstruction_NoManagerCounterChange(t *testing.T) {
	r := newRig(t)
	r.init(t, 5, 1)
	r.create(t, []uint8{0}, []uint8{1})
	before := r.manager(t)

	r.add(t, 0, 0, "x")

	assert.Equal(t, before, r.manager(t))
}

func TestAddInstruction_DeclaredCountEnforced(t *testing.T) {
	r := newRig(t)
	r.init(t, 5, 1)
	r.create(t, []uint8{0}, []uint8{2})
	r.add(t, 0, 0, "a")
	r.add(t, 0, 0, "b")

	_, err := r.engine.AddInstruction(context.Background(), r.auth, r.proofs, 0, 0, []byte("c"), nil)
	require.Equal(t, CodeCapacityExceeded, CodeOf(err))

	_, instructions := r.bundle(t, 0)
	assert.Len(t, instructions, 2, "rejected add must not create a record")
}

func TestAddInstruction_UndeclaredWallet(t *testing.T) {
	r := newRig(t)
	r.init(t, 5, 1)
	r.create(t, []uint8{0}, []uint8{1})

	_, err := r.engine.AddInstruction(context.Background(), r.auth, r.proofs, 0, 7, []byte("x"), nil)
	assert.Equal(t, CodeCapacityExceeded, CodeOf(err))
}

func TestAddInstruction_NotAccumulating(t *testing.T) {
	r := newRig(t)
	r.init(t, 5, 1)
	r.create(t, []uint8{0}, []uint8{1})
	r.add(t, 0, 0, "x")

	_, err := r.engine.ExecuteBundle(context.Background(), r.auth, r.proofs, 0, 1_000_000)
	require.NoError(t, err)

	_, err = r.engine.AddInstruction(context.Background(), r.auth, r.proofs, 0, 0, []byte("late"), nil)
	assert.Equal(t, CodeInvalidState, CodeOf(err))

	_, instructions := r.bundle(t, 0)
	assert.Len(t, instructions, 1)
}

func TestAddInstruction_Paused(t *testing.T) {
	r := newRig(t)
	r.init(t, 5, 1)
	r.create(t, []uint8{0}, []uint8{1})

	_, err := r.engine.SetPausedState(context.Background(), r.auth, r.proofs, true)
	require.NoError(t, err)

	_, err = r.engine.AddInstruction(context.Background(), r.auth, r.proofs, 0, 0, []byte("x"), nil)
	assert.Equal(t, CodeManagerPaused, CodeOf(err))
}

func TestAddInstruction_WrongAuthority(t *testing.T) {
	r := newRig(t)
	r.init(t, 5, 1)
	r.create(t, []uint8{0}, []uint8{1})
	stranger := NewProofs(record.AuthorityFromLabel("mallory"))

	_, err := r.engine.AddInstruction(context.Background(), r.auth, stranger, 0, 0, []byte("x"), nil)
	assert.Equal(t, CodeUnauthorized, CodeOf(err))
}

func TestAddInstruction_MissingBundle(t *testing.T) {
	r := newRig(t)
	r.init(t, 5, 1)

	_, err := r.engine.AddInstruction(context.Background(), r.auth, r.proofs, 42, 0, []byte("x"), nil)
	assert.Equal(t, CodeInvalidState, CodeOf(err))
}

func TestAddInstruction_TargetsPersisted(t *testing.T) {
	r := newRig(t)
	r.init(t, 5, 1)
	r.create(t, []uint8{0}, []uint8{1})

	targets := []record.TargetDescriptor{
		{Ref: record.TargetFromLabel("vault"), Signer: true, Writable: true},
		{Ref: record.TargetFromLabel("recipient"), Writable: true},
	}
	_, err := r.engine.AddInstruction(context.Background(), r.auth, r.proofs, 0, 0, []byte("transfer"), targets)
	require.NoError(t, err)

	_, instructions := r.bundle(t, 0)
	require.Len(t, instructions, 1)
	assert.Equal(t, targets, instructions[0].Targets)
}
