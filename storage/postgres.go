package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSlot stores blobs in a kv_slots table using a pgx pool
type PostgresSlot struct {
	pool *pgxpool.Pool
}

// NewPostgresSlot wraps an existing pool. Call EnsureTable before use.
func NewPostgresSlot(pool *pgxpool.Pool) *PostgresSlot {
	return &PostgresSlot{pool: pool}
}

// OpenPostgresSlot connects to dsn and creates the table if needed
func OpenPostgresSlot(ctx context.Context, dsn string) (*PostgresSlot, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := NewPostgresSlot(pool)
	if err := s.EnsureTable(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureTable creates the kv_slots table if it doesn't exist.
func (s *PostgresSlot) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS kv_slots (
			slot_key   TEXT PRIMARY KEY,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("create kv_slots: %w", err)
	}
	return nil
}

func (s *PostgresSlot) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv_slots WHERE slot_key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read slot: %w", err)
	}
	return value, nil
}

func (s *PostgresSlot) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv_slots (slot_key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (slot_key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, value)
	if err != nil {
		return fmt.Errorf("write slot: %w", err)
	}
	return nil
}

func (s *PostgresSlot) Close() error {
	s.pool.Close()
	return nil
}
