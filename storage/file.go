package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// keyRegex validates slot keys: they become file names
var keyRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// ValidKey reports whether key can name a FileSlot entry
func ValidKey(key string) bool {
	return keyRegex.MatchString(key)
}

// FileSlot stores each key as <dir>/<key>.json
type FileSlot struct {
	dir string
	mu  sync.Mutex
}

// NewFileSlot creates a file-backed slot rooted at dir, creating it if needed
func NewFileSlot(dir string) (*FileSlot, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &FileSlot{dir: dir}, nil
}

// Path returns the file backing key
func (f *FileSlot) Path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileSlot) Get(ctx context.Context, key string) ([]byte, error) {
	if !ValidKey(key) {
		return nil, fmt.Errorf("invalid slot key: %q", key)
	}

	data, err := os.ReadFile(f.Path(key))
	if os.IsNotExist(err) {
		return nil, ErrSlotEmpty
	}
	return data, err
}

// Set replaces the file atomically: the blob is written to a temp file in
// the same directory and renamed over the old one.
func (f *FileSlot) Set(ctx context.Context, key string, value []byte) error {
	if !ValidKey(key) {
		return fmt.Errorf("invalid slot key: %q", key)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, f.Path(key))
}

// Close closes the slot
func (f *FileSlot) Close() error {
	// Nothing held open between calls, but the interface requires it
	return nil
}
