package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	var name string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='records'",
	).Scan(&name)
	if err != nil {
		t.Errorf("records table not found after idempotent opens: %v", err)
	}
}

func TestProvision_FreshRecord(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := s.Provision(ctx, "manager/aa", 47, "bundler")
	if err != nil {
		t.Fatalf("Provision() failed: %v", err)
	}

	if rec.Version != 0 {
		t.Errorf("fresh record version = %d, want 0", rec.Version)
	}
	if len(rec.Data) != 47 {
		t.Errorf("fresh record data length = %d, want 47", len(rec.Data))
	}
	for i, b := range rec.Data {
		if b != 0 {
			t.Fatalf("fresh record byte %d = %x, want zero", i, b)
		}
	}
}

func TestProvision_IdempotentSameOwner(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Provision(ctx, "manager/aa", 47, "bundler"); err != nil {
		t.Fatalf("first Provision() failed: %v", err)
	}
	if err := s.Update(ctx, "manager/aa", "bundler", 0, []byte{1, 2, 3}); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	// Re-provisioning must return the existing record, not reset it.
	rec, err := s.Provision(ctx, "manager/aa", 47, "bundler")
	if err != nil {
		t.Fatalf("second Provision() failed: %v", err)
	}
	if rec.Version != 1 {
		t.Errorf("re-provisioned version = %d, want 1", rec.Version)
	}
	if len(rec.Data) != 3 {
		t.Errorf("re-provision reset the record data")
	}
}

func TestProvision_OwnershipMismatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Provision(ctx, "manager/aa", 47, "bundler"); err != nil {
		t.Fatalf("Provision() failed: %v", err)
	}

	_, err := s.Provision(ctx, "manager/aa", 47, "intruder")
	if !errors.Is(err, ErrOwnershipMismatch) {
		t.Errorf("Provision() under different owner = %v, want ErrOwnershipMismatch", err)
	}
}

func TestGet_OwnerTagChecked(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Provision(ctx, "manager/aa", 47, "bundler"); err != nil {
		t.Fatalf("Provision() failed: %v", err)
	}

	if _, err := s.Get(ctx, "manager/aa", "bundler"); err != nil {
		t.Errorf("Get() under owning tag failed: %v", err)
	}
	if _, err := s.Get(ctx, "manager/aa", "intruder"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() under foreign tag = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, "manager/bb", "bundler"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() of missing key = %v, want ErrNotFound", err)
	}
}

func TestUpdate_VersionCAS(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Provision(ctx, "manager/aa", 2, "bundler"); err != nil {
		t.Fatalf("Provision() failed: %v", err)
	}

	if err := s.Update(ctx, "manager/aa", "bundler", 0, []byte{1, 2}); err != nil {
		t.Fatalf("Update() at version 0 failed: %v", err)
	}

	// Replaying the same expected version must conflict, not clobber.
	err := s.Update(ctx, "manager/aa", "bundler", 0, []byte{9, 9})
	if !errors.Is(err, ErrVersionConflict) {
		t.Errorf("stale Update() = %v, want ErrVersionConflict", err)
	}

	rec, err := s.Get(ctx, "manager/aa", "bundler")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if rec.Version != 1 || rec.Data[0] != 1 {
		t.Errorf("record = v%d %v, stale write must not land", rec.Version, rec.Data)
	}
}

func TestUpdate_MissingRecord(t *testing.T) {
	s := openTestStore(t)

	err := s.Update(context.Background(), "manager/zz", "bundler", 0, []byte{1})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() of missing key = %v, want ErrNotFound", err)
	}
}

func TestList_PrefixAndOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Provision out of order; List must come back sorted by key.
	for _, seq := range []int{2, 0, 1} {
		key := fmt.Sprintf("bundle/00/ins/%04x", seq)
		if _, err := s.Provision(ctx, key, 8, "bundler"); err != nil {
			t.Fatalf("Provision(%s) failed: %v", key, err)
		}
	}
	if _, err := s.Provision(ctx, "bundle/01/ins/0000", 8, "bundler"); err != nil {
		t.Fatalf("Provision() failed: %v", err)
	}

	records, err := s.List(ctx, "bundle/00/ins/", "bundler")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(records))
	}
	for i, rec := range records {
		want := fmt.Sprintf("bundle/00/ins/%04x", i)
		if rec.Key != want {
			t.Errorf("records[%d].Key = %s, want %s", i, rec.Key, want)
		}
	}
}

func TestList_Empty(t *testing.T) {
	s := openTestStore(t)

	records, err := s.List(context.Background(), "bundle/", "bundler")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("List() of empty prefix = %v, want empty non-nil slice", records)
	}
}

func TestCommit_RollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sentinel := errors.New("validation failed")
	err := s.Commit(ctx, func(tx *Tx) error {
		if _, err := tx.Provision(ctx, "manager/aa", 4, "bundler"); err != nil {
			return err
		}
		if err := tx.Update(ctx, "manager/aa", "bundler", 0, []byte{1, 2, 3, 4}); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Commit() = %v, want sentinel error", err)
	}

	if _, err := s.Get(ctx, "manager/aa", "bundler"); !errors.Is(err, ErrNotFound) {
		t.Errorf("record persisted despite rollback: %v", err)
	}
}

func TestCommit_AtomicMultiRecord(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.Commit(ctx, func(tx *Tx) error {
		for _, key := range []string{"manager/aa", "manager/aa/bundle/00000000"} {
			if _, err := tx.Provision(ctx, key, 4, "bundler"); err != nil {
				return err
			}
			if err := tx.Update(ctx, key, "bundler", 0, []byte{1, 2, 3, 4}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}

	for _, key := range []string{"manager/aa", "manager/aa/bundle/00000000"} {
		rec, err := s.Get(ctx, key, "bundler")
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", key, err)
		}
		if rec.Version != 1 {
			t.Errorf("%s version = %d, want 1", key, rec.Version)
		}
	}
}
