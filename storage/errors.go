package storage

import "errors"

var (
	// ErrCorruptState means the stored blob is not a valid task array.
	// Callers should fall back to an empty collection.
	ErrCorruptState = errors.New("corrupt task state")

	// ErrUnavailable means the slot could not be read or written.
	// In-memory state stays authoritative for the session.
	ErrUnavailable = errors.New("persistence unavailable")
)
