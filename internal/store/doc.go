// Package store provides the SQLite-backed keyed record store underneath the
// bundle engine.
//
// Records are fixed-size blobs addressed by key. Each row carries:
//   - an owner tag, checked on every access (a record provisioned by one
//     owner is never readable or writable under another)
//   - a version counter, bumped on every write; updates name the version
//     they read, so a stale read-modify-write fails with ErrVersionConflict
//     instead of clobbering a concurrent commit
//
// Provisioning is idempotent per the provisioner contract: re-provisioning a
// key under the same owner returns the existing record; a different owner
// gets ErrOwnershipMismatch.
//
// Multi-record mutations go through Store.Commit, which runs the caller's
// function against a transaction-scoped view so that manager, bundle, and
// instruction writes land together or not at all.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - single connection: SQLite allows one writer; serializing commits on
//     one connection makes the version check a true compare-and-set
package store
