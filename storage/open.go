package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Backend names accepted by OpenSlot
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Backends lists the supported backend names
var Backends = []string{BackendFile, BackendMemory, BackendRedis, BackendSQLite, BackendPostgres}

// Options selects and configures a slot backend
type Options struct {
	Backend     string
	DataDir     string
	RedisAddr   string
	RedisPrefix string
	SQLitePath  string
	PostgresDSN string
}

// OpenSlot opens the configured backend
func OpenSlot(ctx context.Context, opts Options) (Slot, error) {
	switch opts.Backend {
	case BackendFile, "":
		return NewFileSlot(opts.DataDir)
	case BackendMemory:
		return NewMemorySlot(), nil
	case BackendRedis:
		return OpenRedisSlot(ctx, opts.RedisAddr, opts.RedisPrefix)
	case BackendSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = filepath.Join(opts.DataDir, "taskboard.db")
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		return OpenSQLiteSlot(path)
	case BackendPostgres:
		if opts.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres backend requires a DSN")
		}
		return OpenPostgresSlot(ctx, opts.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", opts.Backend)
	}
}
