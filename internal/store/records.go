package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// record operations run identically inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// view implements the record operations over a querier. Store embeds a view
// over the database; Tx embeds one over a transaction.
type view struct {
	q querier
}

// Provision allocates a record of the given size under the owner, filled
// with zero bytes at version 0.
//
// Idempotent per the provisioner contract: if a record already exists at the
// key under the same owner, the existing record is returned unchanged. A key
// held by a different owner fails with ErrOwnershipMismatch.
//
// The insert claims the key atomically via the primary-key constraint;
// RowsAffected distinguishes a fresh claim from an existing row.
func (v view) Provision(ctx context.Context, key string, size int64, owner string) (Record, error) {
	result, err := v.q.ExecContext(ctx, `
		INSERT INTO records (key, owner, size, version, data)
		VALUES (?, ?, ?, 0, zeroblob(?))
		ON CONFLICT(key) DO NOTHING
	`, key, owner, size, size)
	if err != nil {
		return Record{}, fmt.Errorf("provision %s: %w", key, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return Record{}, fmt.Errorf("provision %s: rows affected: %w", key, err)
	}

	rec, err := v.get(ctx, key)
	if err != nil {
		return Record{}, fmt.Errorf("provision %s: %w", key, err)
	}

	// Conflict path: the key was already held. Same owner is the idempotent
	// re-provision; anything else is a mismatch.
	if rowsAffected == 0 && rec.Owner != owner {
		return Record{}, fmt.Errorf("provision %s: held by %q: %w", key, rec.Owner, ErrOwnershipMismatch)
	}

	return rec, nil
}

// Get loads the record at key, checking the owner tag. A record held by a
// different owner reads as ErrNotFound — readers cannot probe foreign keyspace.
func (v view) Get(ctx context.Context, key, owner string) (Record, error) {
	rec, err := v.get(ctx, key)
	if err != nil {
		return Record{}, err
	}
	if rec.Owner != owner {
		return Record{}, fmt.Errorf("get %s: %w", key, ErrNotFound)
	}
	return rec, nil
}

func (v view) get(ctx context.Context, key string) (Record, error) {
	rec := Record{Key: key}
	err := v.q.QueryRowContext(ctx, `
		SELECT owner, size, version, data FROM records WHERE key = ?
	`, key).Scan(&rec.Owner, &rec.Size, &rec.Version, &rec.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("get %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s: %w", key, err)
	}
	return rec, nil
}

// Update writes data to the record at key, conditional on the version the
// caller read. The WHERE clause is the compare-and-set: if another write
// bumped the version since, zero rows match and the caller gets
// ErrVersionConflict rather than a silent lost update.
func (v view) Update(ctx context.Context, key, owner string, expectedVersion int64, data []byte) error {
	result, err := v.q.ExecContext(ctx, `
		UPDATE records
		SET data = ?, size = ?, version = version + 1
		WHERE key = ? AND owner = ? AND version = ?
	`, data, int64(len(data)), key, owner, expectedVersion)
	if err != nil {
		return fmt.Errorf("update %s: %w", key, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: rows affected: %w", key, err)
	}
	if rowsAffected == 1 {
		return nil
	}

	// Zero rows: distinguish a missing/foreign record from a stale version.
	if _, err := v.Get(ctx, key, owner); err != nil {
		return fmt.Errorf("update %s: %w", key, err)
	}
	return fmt.Errorf("update %s at version %d: %w", key, expectedVersion, ErrVersionConflict)
}

// List returns all records under the key prefix held by owner, in
// lexicographic key order (ORDER BY key COLLATE BINARY for determinism).
// Returns an empty slice, not nil, when nothing matches.
func (v view) List(ctx context.Context, prefix, owner string) ([]Record, error) {
	rows, err := v.q.QueryContext(ctx, `
		SELECT key, owner, size, version, data FROM records
		WHERE owner = ? AND key >= ? AND key < ?
		ORDER BY key COLLATE BINARY ASC
	`, owner, prefix, prefix+"￿")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Key, &rec.Owner, &rec.Size, &rec.Version, &rec.Data); err != nil {
			return nil, fmt.Errorf("list %s: scan: %w", prefix, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: iterate: %w", prefix, err)
	}

	return records, nil
}
