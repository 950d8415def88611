package query

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresIdempotencyStore records mutation outcomes in PostgreSQL so
// replay survives process restarts. Expected schema:
//
//	CREATE TABLE IF NOT EXISTS mutation_outcomes (
//	    key TEXT PRIMARY KEY,
//	    payload BYTEA NOT NULL,
//	    recorded_at TIMESTAMPTZ NOT NULL
//	);
type PostgresIdempotencyStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewPostgresIdempotencyStore wraps an open database handle.
func NewPostgresIdempotencyStore(db *sql.DB, ttl time.Duration) *PostgresIdempotencyStore {
	return &PostgresIdempotencyStore{db: db, ttl: ttl}
}

// OpenPostgresIdempotencyStore connects to PostgreSQL at dsn and ensures
// the outcome table exists.
func OpenPostgresIdempotencyStore(dsn string, ttl time.Duration) (*PostgresIdempotencyStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open idempotency db: %w", err)
	}
	s := NewPostgresIdempotencyStore(db, ttl)
	if _, err := db.Exec(
		`CREATE TABLE IF NOT EXISTS mutation_outcomes (
		    key TEXT PRIMARY KEY,
		    payload BYTEA NOT NULL,
		    recorded_at TIMESTAMPTZ NOT NULL
		)`,
	); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate idempotency db: %w", err)
	}
	return s, nil
}

// Check returns the recorded outcome when key was seen within the TTL.
func (s *PostgresIdempotencyStore) Check(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	var recordedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, recorded_at FROM mutation_outcomes WHERE key = $1`,
		key,
	).Scan(&payload, &recordedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("idempotency check: %w", err)
	}

	if time.Since(recordedAt) > s.ttl {
		// Expired, delete and report a miss
		_, _ = s.db.ExecContext(ctx, `DELETE FROM mutation_outcomes WHERE key = $1`, key)
		return nil, false, nil
	}
	return payload, true, nil
}

// Record upserts the outcome for key.
func (s *PostgresIdempotencyStore) Record(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mutation_outcomes (key, payload, recorded_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (key) DO UPDATE SET payload = $2, recorded_at = NOW()`,
		key, payload,
	)
	if err != nil {
		return fmt.Errorf("idempotency record: %w", err)
	}
	return nil
}

// Cleanup removes outcomes older than the TTL.
func (s *PostgresIdempotencyStore) Cleanup(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM mutation_outcomes WHERE recorded_at < $1`,
		time.Now().Add(-s.ttl),
	)
	return err
}
