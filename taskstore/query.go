package taskstore

import (
	"iter"

	"taskboard/task"
)

// Query returns a lazy view of the tasks that pass the status filter and
// contain search (case-insensitively) in their title or description.
// Each iteration reads the collection afresh, so the same sequence can be
// ranged over again after mutations. Order is the collection order.
func (s *Store) Query(filter task.Filter, search string) iter.Seq[task.Task] {
	return func(yield func(task.Task) bool) {
		for _, t := range s.All() {
			if !filter.Match(t) || !t.Matches(search) {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}

// Overdue returns a lazy view of tasks that are past due and not completed
func (s *Store) Overdue() iter.Seq[task.Task] {
	return func(yield func(task.Task) bool) {
		now := s.now()
		for _, t := range s.All() {
			if task.IsOverdue(t, now) && !yield(t) {
				return
			}
		}
	}
}
