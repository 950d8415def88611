package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SnapshotStore keeps the query cache in a local SQLite file so a fresh
// process can render the last known state before its first fetch lands.
type SnapshotStore struct {
	db *sql.DB
}

// OpenSnapshotStore opens, creating if needed, the snapshot database at path.
func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	s := &SnapshotStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSnapshotStore wraps an existing database handle.
func NewSnapshotStore(db *sql.DB) (*SnapshotStore, error) {
	s := &SnapshotStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

func (s *SnapshotStore) migrate() error {
	query := `
    CREATE TABLE IF NOT EXISTS query_cache (
        canonical_key TEXT PRIMARY KEY,
        key_parts JSON NOT NULL,
        payload BLOB,
        fetched_at TEXT NOT NULL,
        stale INTEGER NOT NULL DEFAULT 0
    );`
	_, err := s.db.ExecContext(context.Background(), query)
	if err != nil {
		return fmt.Errorf("migrate snapshot db: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Get(ctx context.Context, key Key) (Entry, bool, error) {
	query := `
        SELECT payload, fetched_at, stale
        FROM query_cache
        WHERE canonical_key = ?
    `
	var (
		payload   []byte
		fetchedAt string
		stale     int
	)
	err := s.db.QueryRowContext(ctx, query, key.Canonical()).Scan(&payload, &fetchedAt, &stale)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("snapshot get: %w", err)
	}
	return Entry{
		Payload:   payload,
		FetchedAt: parseSnapshotTime(fetchedAt),
		Stale:     stale != 0,
	}, true, nil
}

func (s *SnapshotStore) Set(ctx context.Context, key Key, entry Entry) error {
	query := `
        INSERT INTO query_cache (canonical_key, key_parts, payload, fetched_at, stale)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (canonical_key) DO UPDATE SET
            payload = excluded.payload,
            fetched_at = excluded.fetched_at,
            stale = excluded.stale
    `
	parts, _ := json.Marshal([]string(key))
	stale := 0
	if entry.Stale {
		stale = 1
	}
	fetchedAt := entry.FetchedAt.UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, query, key.Canonical(), string(parts), entry.Payload, fetchedAt, stale); err != nil {
		return fmt.Errorf("snapshot set: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Invalidate(ctx context.Context, key Key) error {
	query := `UPDATE query_cache SET stale = 1 WHERE canonical_key = ?`
	if _, err := s.db.ExecContext(ctx, query, key.Canonical()); err != nil {
		return fmt.Errorf("snapshot invalidate: %w", err)
	}
	return nil
}

func (s *SnapshotStore) InvalidatePrefix(ctx context.Context, prefix Key) error {
	matches, err := s.keysWithPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("snapshot invalidate prefix: %w", err)
	}
	for _, canon := range matches {
		if _, err := tx.ExecContext(ctx, `UPDATE query_cache SET stale = 1 WHERE canonical_key = ?`, canon); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("snapshot invalidate prefix: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("snapshot invalidate prefix: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Delete(ctx context.Context, key Key) error {
	query := `DELETE FROM query_cache WHERE canonical_key = ?`
	if _, err := s.db.ExecContext(ctx, query, key.Canonical()); err != nil {
		return fmt.Errorf("snapshot delete: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM query_cache`); err != nil {
		return fmt.Errorf("snapshot clear: %w", err)
	}
	return nil
}

// keysWithPrefix scans the stored key parts and matches elementwise. The
// table stays dashboard sized, so a full scan beats bespoke SQL matching.
func (s *SnapshotStore) keysWithPrefix(ctx context.Context, prefix Key) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT canonical_key, key_parts FROM query_cache`)
	if err != nil {
		return nil, fmt.Errorf("snapshot scan: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []string
	for rows.Next() {
		var canon, partsJSON string
		if err := rows.Scan(&canon, &partsJSON); err != nil {
			return nil, fmt.Errorf("snapshot scan: %w", err)
		}
		var parts []string
		if err := json.Unmarshal([]byte(partsJSON), &parts); err != nil {
			continue
		}
		if Key(parts).HasPrefix(prefix) {
			matches = append(matches, canon)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot scan: %w", err)
	}
	return matches, nil
}

func parseSnapshotTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
