package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"taskboard/task"
)

// DefaultKey is the fixed slot key the task collection lives under
const DefaultKey = "tasks"

// Adapter stores the whole task collection as one JSON array under a single key
type Adapter struct {
	slot Slot
	key  string
}

// AdapterOption configures an Adapter
type AdapterOption func(*Adapter)

// WithKey overrides the slot key
func WithKey(key string) AdapterOption {
	return func(a *Adapter) {
		a.key = key
	}
}

// NewAdapter wraps a slot
func NewAdapter(slot Slot, opts ...AdapterOption) *Adapter {
	a := &Adapter{slot: slot, key: DefaultKey}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Key returns the slot key in use
func (a *Adapter) Key() string {
	return a.key
}

// Load reads the collection. A missing blob yields an empty collection.
func (a *Adapter) Load(ctx context.Context) ([]task.Task, error) {
	data, err := a.slot.Get(ctx, a.key)
	if errors.Is(err, ErrSlotEmpty) {
		return []task.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %w", ErrUnavailable, a.key, err)
	}

	tasks, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Save overwrites the blob with the full collection
func (a *Adapter) Save(ctx context.Context, tasks []task.Task) error {
	data, err := Encode(tasks)
	if err != nil {
		return err
	}

	if err := a.slot.Set(ctx, a.key, data); err != nil {
		return fmt.Errorf("%w: write %q: %w", ErrUnavailable, a.key, err)
	}
	return nil
}

// Close closes the underlying slot
func (a *Adapter) Close() error {
	return a.slot.Close()
}

// Encode serializes a collection. A nil collection encodes as [].
func Encode(tasks []task.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tasks: %w", err)
	}
	return data, nil
}

// record mirrors task.Task with pointer fields so missing keys can be told
// apart from zero values.
type record struct {
	ID          *string        `json:"id"`
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Status      *task.Status   `json:"status"`
	Priority    *task.Priority `json:"priority"`
	DueDate     *time.Time     `json:"dueDate"`
	CreatedAt   *time.Time     `json:"createdAt"`
	UpdatedAt   *time.Time     `json:"updatedAt"`
}

// Decode parses and schema-checks a blob. Any shape mismatch is reported
// as ErrCorruptState; no partially valid collection is ever returned.
func Decode(data []byte) ([]task.Task, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrCorruptState)
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}

	tasks := make([]task.Task, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	for i, raw := range raws {
		t, err := decodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: task %d: %v", ErrCorruptState, i, err)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("%w: task %d: duplicate id %q", ErrCorruptState, i, t.ID)
		}
		seen[t.ID] = true
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func decodeRecord(raw json.RawMessage) (task.Task, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return task.Task{}, errors.New("expected an object")
	}

	var r record
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return task.Task{}, err
	}

	switch {
	case r.ID == nil:
		return task.Task{}, errors.New("missing id")
	case r.Title == nil:
		return task.Task{}, errors.New("missing title")
	case r.Status == nil:
		return task.Task{}, errors.New("missing status")
	case r.Priority == nil:
		return task.Task{}, errors.New("missing priority")
	case r.CreatedAt == nil:
		return task.Task{}, errors.New("missing createdAt")
	case r.UpdatedAt == nil:
		return task.Task{}, errors.New("missing updatedAt")
	}

	t := task.Task{
		ID:        *r.ID,
		Title:     *r.Title,
		Status:    *r.Status,
		Priority:  *r.Priority,
		DueDate:   r.DueDate,
		CreatedAt: *r.CreatedAt,
		UpdatedAt: *r.UpdatedAt,
	}
	if r.Description != nil {
		t.Description = *r.Description
	}

	if err := t.Validate(); err != nil {
		return task.Task{}, err
	}
	return t, nil
}
