package taskstore

import (
	"context"
	"errors"

	"taskboard/task"
)

// Persister reads and writes the whole collection.
// *storage.Adapter implements it.
type Persister interface {
	Load(ctx context.Context) ([]task.Task, error)
	Save(ctx context.Context, tasks []task.Task) error
}

// Open creates a store, loads it once from p and installs the persistence
// observer. If loading fails the store starts empty; the cause is logged
// and available from LoadError.
func Open(ctx context.Context, p Persister, opts ...Option) *Store {
	s := New(opts...)

	tasks, err := p.Load(ctx)
	if err != nil {
		s.logger.Warn("could not load saved tasks, starting empty", "error", err)
		s.loadErr = err
		tasks = nil
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	s.tasks = tasks
	s.logger.Info("tasks loaded", "count", len(tasks))

	s.Subscribe(s.persistTo(p))
	return s
}

// persistTo returns the observer that writes each snapshot to p
func (s *Store) persistTo(p Persister) Observer {
	return func(ev Event) {
		ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
		defer cancel()

		err := p.Save(ctx, ev.Tasks)

		s.errMu.Lock()
		s.persistErr = err
		s.errMu.Unlock()

		if err != nil {
			s.logger.Warn("could not save tasks, keeping in-memory state",
				"event", string(ev.Kind), "id", ev.Task.ID, "error", err)
		}
	}
}

// Flush writes the current collection to p immediately
func (s *Store) Flush(ctx context.Context, p Persister) error {
	if p == nil {
		return errors.New("no persister")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := p.Save(ctx, s.All())

	s.errMu.Lock()
	s.persistErr = err
	s.errMu.Unlock()
	return err
}
