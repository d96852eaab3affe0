// Package syncstore is cmd/syncrelay's blob table backend: a Postgres
// table holding one pending opaque sync blob per account, the shared
// storage used to move a SyncData payload from an already-linked device
// to a newly linking one without the relay ever parsing message content.
package syncstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_blobs (
	account_key TEXT PRIMARY KEY,
	blob        BYTEA NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
`

// Store wraps a *sql.DB using the lib/pq driver.
type Store struct {
	db *sql.DB
}

// Open connects to connStr and ensures the sync_blobs table exists.
func Open(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("syncstore: open: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("syncstore: ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("syncstore: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Put upserts the pending sync blob for accountKey (the account's
// base64url identity key), replacing whatever was queued before —
// a device that never fetched its sync blob only ever needs the latest.
func (s *Store) Put(ctx context.Context, accountKey string, blob []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_blobs (account_key, blob, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (account_key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		accountKey, blob)
	if err != nil {
		return fmt.Errorf("syncstore: put %s: %w", accountKey, err)
	}
	return nil
}

// ErrNoPendingBlob is returned by Consume when no sync blob is queued for
// the requested account.
var ErrNoPendingBlob = fmt.Errorf("syncstore: no pending sync blob")

// Consume atomically reads and deletes the pending sync blob for
// accountKey, so a blob is handed to exactly one fetching device.
func (s *Store) Consume(ctx context.Context, accountKey string) ([]byte, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("syncstore: begin: %w", err)
	}
	defer tx.Rollback()

	var blob []byte
	err = tx.QueryRowContext(ctx,
		`SELECT blob FROM sync_blobs WHERE account_key = $1 FOR UPDATE`, accountKey).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, ErrNoPendingBlob
	}
	if err != nil {
		return nil, fmt.Errorf("syncstore: consume select %s: %w", accountKey, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sync_blobs WHERE account_key = $1`, accountKey); err != nil {
		return nil, fmt.Errorf("syncstore: consume delete %s: %w", accountKey, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("syncstore: commit: %w", err)
	}
	return blob, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
