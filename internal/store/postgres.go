package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps keys in a PostgreSQL table shared by every server replica.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s := &PostgresStore{pool: pool}
	if err := s.RunMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// RunMigrations creates the key-value table if it does not exist.
func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Get retrieves the value stored under key.
func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, unavailable("get", err)
	}
	return value, true, nil
}

// Set stores value under key.
func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, upsertKV, key, value)
	if err != nil {
		return unavailable("set", err)
	}
	return nil
}

// Delete removes key.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM kv WHERE key = $1`, key)
	if err != nil {
		return unavailable("delete", err)
	}
	return nil
}

// Update takes a transaction-scoped advisory lock on key, so writers of a key
// that does not exist yet serialize too, and writes fn's result in the same
// transaction.
func (s *PostgresStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return unavailable("update", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return unavailable("update", err)
	}

	var (
		old string
		ok  = true
	)
	err = tx.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&old)
	if errors.Is(err, pgx.ErrNoRows) {
		ok = false
		err = nil
	}
	if err != nil {
		return unavailable("update", err)
	}

	next, err := fn(old, ok)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, upsertKV, key, next); err != nil {
		return unavailable("update", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return unavailable("update", err)
	}
	return nil
}

const upsertKV = `
	INSERT INTO kv (key, value, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
`
