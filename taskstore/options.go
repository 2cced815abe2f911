package taskstore

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Option configures a Store
type Option func(*Store)

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator replaces the random UUID generator
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

// WithLogger sets the logger used for persistence warnings
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithSaveTimeout bounds each persistence write
func WithSaveTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.saveTimeout = d
	}
}

func newUUID() string {
	return uuid.NewString()
}
