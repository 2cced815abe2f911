// Package taskstore owns the authoritative in-memory task collection.
//
// The collection is ordered newest-created first. Every successful mutation
// is published to observers after the store's lock is released; the
// persistence observer installed by Open writes the full collection to a
// Persister. Persistence failures never fail a mutation.
package taskstore

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"taskboard/task"
)

// minPrefixLen is the shortest id prefix Resolve accepts
const minPrefixLen = 6

// shortIDLen is the shortest prefix ShortID hands out
const shortIDLen = 8

// maxIDAttempts bounds retries when a generated id collides
const maxIDAttempts = 8

// EventKind says which mutation produced an Event
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// Event describes one committed mutation. Tasks is a snapshot of the
// whole collection right after it.
type Event struct {
	Kind  EventKind
	Task  task.Task
	Tasks []task.Task
}

// Observer receives events in mutation order. Observers may read from the
// store but must not mutate it.
type Observer func(Event)

// Store holds the task collection
type Store struct {
	mu    sync.RWMutex
	tasks []task.Task

	// writeMu serializes mutation + notification so observers see
	// events in commit order.
	writeMu   sync.Mutex
	observers []Observer

	now         func() time.Time
	newID       func() string
	logger      *slog.Logger
	saveTimeout time.Duration

	errMu      sync.Mutex
	persistErr error
	loadErr    error
}

// New creates an empty store with no persistence
func New(opts ...Option) *Store {
	s := &Store{
		tasks:       []task.Task{},
		now:         time.Now,
		newID:       newUUID,
		logger:      slog.Default(),
		saveTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers an observer for future mutations
func (s *Store) Subscribe(fn Observer) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.observers = append(s.observers, fn)
}

// Create validates the draft, assigns an id and timestamps, and prepends
// the new task. A title that trims to empty is rejected with a
// task.ValidationError and the collection is left unchanged.
func (s *Store) Create(d task.Draft) (task.Task, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	id, err := s.uniqueID()
	if err != nil {
		s.mu.Unlock()
		return task.Task{}, err
	}
	t, err := task.New(d, id, s.now())
	if err != nil {
		s.mu.Unlock()
		return task.Task{}, err
	}

	tasks := make([]task.Task, 0, len(s.tasks)+1)
	tasks = append(tasks, t)
	tasks = append(tasks, s.tasks...)
	s.tasks = tasks
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("task created", "id", t.ID, "title", t.Title)
	s.notify(Event{Kind: EventCreated, Task: t.Clone(), Tasks: snapshot})
	return t.Clone(), nil
}

// Update merges the patch into the task with the given id and refreshes
// UpdatedAt. Other tasks and the collection order are untouched.
// A missing id returns ErrNotFound with no mutation.
func (s *Store) Update(id string, p task.Patch) (task.Task, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.updateLocked(id, func(t task.Task) task.Patch { return p })
}

// Cycle advances the task's status todo -> in-progress -> completed -> todo
func (s *Store) Cycle(id string) (task.Task, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.updateLocked(id, func(t task.Task) task.Patch {
		next := t.Status.Next()
		return task.Patch{Status: &next}
	})
}

// updateLocked runs with writeMu held. patchFor builds the patch from the
// current version of the task.
func (s *Store) updateLocked(id string, patchFor func(task.Task) task.Patch) (task.Task, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return task.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	prev := s.tasks[i]
	updated, err := prev.Apply(patchFor(prev), s.stamp(prev.UpdatedAt))
	if err != nil {
		s.mu.Unlock()
		return task.Task{}, err
	}
	s.tasks[i] = updated
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("task updated", "id", id)
	s.notify(Event{Kind: EventUpdated, Task: updated.Clone(), Tasks: snapshot})
	return updated.Clone(), nil
}

// Delete removes the task with the given id. A missing id leaves the
// collection unchanged and returns ErrNotFound for callers that want to
// report it; it is not a store failure.
func (s *Store) Delete(id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	removed := s.tasks[i]
	tasks := make([]task.Task, 0, len(s.tasks)-1)
	tasks = append(tasks, s.tasks[:i]...)
	tasks = append(tasks, s.tasks[i+1:]...)
	s.tasks = tasks
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("task deleted", "id", id)
	s.notify(Event{Kind: EventDeleted, Task: removed, Tasks: snapshot})
	return nil
}

// Get returns the task with the given id
func (s *Store) Get(id string) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return task.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.tasks[i].Clone(), nil
}

// Resolve resolves a task identifier to its full id.
// It checks: exact match → unique prefix (min 6 chars)
func (s *Store) Resolve(idOrPrefix string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.indexLocked(idOrPrefix) >= 0 {
		return idOrPrefix, nil
	}

	if len(idOrPrefix) >= minPrefixLen {
		var matches []string
		for _, t := range s.tasks {
			if strings.HasPrefix(t.ID, idOrPrefix) {
				matches = append(matches, t.ID)
			}
		}
		if len(matches) == 1 {
			return matches[0], nil
		}
		if len(matches) > 1 {
			return "", fmt.Errorf("ambiguous task ID prefix: %s (matches %d tasks)", idOrPrefix, len(matches))
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
}

// ShortID returns the shortest prefix of id, at least 8 characters, that
// no other task's id starts with. Resolve always maps it back to id.
func (s *Store) ShortID(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := min(shortIDLen, len(id))
	for _, t := range s.tasks {
		if t.ID == id {
			continue
		}
		for n < len(id) && strings.HasPrefix(t.ID, id[:n]) {
			n++
		}
	}
	return id[:n]
}

// All returns a copy of the whole collection, newest first
func (s *Store) All() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Len returns the number of tasks
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Stats summarizes the collection
func (s *Store) Stats() task.Stats {
	return task.Summarize(s.All(), s.now())
}

// Now returns the store's clock reading
func (s *Store) Now() time.Time {
	return s.now()
}

// LastPersistError returns the most recent persistence failure, or nil if
// the last save succeeded.
func (s *Store) LastPersistError() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.persistErr
}

// LoadError returns the error that made Open fall back to an empty
// collection, if any.
func (s *Store) LoadError() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.loadErr
}

// stamp returns a timestamp strictly after prev
func (s *Store) stamp(prev time.Time) time.Time {
	now := task.Stamp(s.now())
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

func (s *Store) uniqueID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if id != "" && s.indexLocked(id) < 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique task id after %d attempts", maxIDAttempts)
}

func (s *Store) indexLocked(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []task.Task {
	out := make([]task.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// notify runs with writeMu held
func (s *Store) notify(ev Event) {
	for _, fn := range s.observers {
		fn(ev)
	}
}
