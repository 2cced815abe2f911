package task

import (
	"math"
	"time"
)

// Stats holds aggregate counts per status
type Stats struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Overdue    int `json:"overdue"`
}

// Summarize counts tasks per status. Overdue is measured against now.
func Summarize(tasks []Task, now time.Time) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case StatusTodo:
			s.Todo++
		case StatusInProgress:
			s.InProgress++
		case StatusCompleted:
			s.Completed++
		}
		if IsOverdue(t, now) {
			s.Overdue++
		}
	}
	return s
}

// CompletionRate returns completed/total as a rounded percentage, 0 for no tasks
func (s Stats) CompletionRate() int {
	return CompletionRate(s.Completed, s.Total)
}

// CompletionRate returns completed/total as a rounded percentage
func CompletionRate(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// IsOverdue reports whether the task has a due date in the past and is not completed
func IsOverdue(t Task, now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusCompleted
}
