package storage

import (
	"context"
	"errors"
)

// ErrSlotEmpty is returned by Slot.Get when nothing is stored under the key
var ErrSlotEmpty = errors.New("slot empty")

// Slot is a local key-value backend holding opaque blobs.
// This allows swapping between a JSON file, Redis, SQLite or Postgres.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}
