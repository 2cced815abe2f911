package task

import (
	"fmt"
	"strings"
	"time"
)

// Status is the workflow state of a task
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// ValidStatuses lists all valid status values in workflow order
var ValidStatuses = []Status{StatusTodo, StatusInProgress, StatusCompleted}

// IsValid reports whether s is one of the known statuses
func (s Status) IsValid() bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Next returns the status that follows s in the cycle
// todo -> in-progress -> completed -> todo.
func (s Status) Next() Status {
	switch s {
	case StatusTodo:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	default:
		return StatusTodo
	}
}

// Label returns a human-readable form, e.g. "in progress"
func (s Status) Label() string {
	return strings.ReplaceAll(string(s), "-", " ")
}

// ParseStatus parses one of the exact status strings
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown value %q (use todo, in-progress or completed)", s)}
	}
	return st, nil
}

// Priority is the urgency of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriorities lists all valid priority values
var ValidPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// IsValid reports whether p is one of the known priorities
func (p Priority) IsValid() bool {
	for _, v := range ValidPriorities {
		if v == p {
			return true
		}
	}
	return false
}

// ParsePriority parses one of the exact priority strings
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown value %q (use low, medium or high)", s)}
	}
	return p, nil
}

// Filter selects tasks by status. FilterAll matches every task.
type Filter string

const FilterAll Filter = "all"

// ParseFilter accepts "all" or any valid status. An empty string means "all".
func ParseFilter(s string) (Filter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == string(FilterAll) {
		return FilterAll, nil
	}
	st, err := ParseStatus(s)
	if err != nil {
		return "", &ValidationError{Field: "filter", Reason: fmt.Sprintf("unknown value %q (use all, todo, in-progress or completed)", s)}
	}
	return Filter(st), nil
}

// Match reports whether t passes the filter
func (f Filter) Match(t Task) bool {
	return f == FilterAll || f == "" || Status(f) == t.Status
}

// Task is a single user-tracked unit of work.
// Field names match the persisted JSON layout.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Clone returns a copy of t that shares no memory with it
func (t Task) Clone() Task {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return t
}

// Matches reports whether term is a case-insensitive substring of the
// title or the description. An empty term matches everything.
func (t Task) Matches(term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(t.Title), term) ||
		strings.Contains(strings.ToLower(t.Description), term)
}

// Draft is the input for creating a task: everything except the id and
// the timestamps, which the store assigns.
type Draft struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
}

// Patch holds a partial update. Nil fields are left untouched.
type Patch struct {
	Title        *string
	Description  *string
	Status       *Status
	Priority     *Priority
	DueDate      *time.Time
	ClearDueDate bool
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.DueDate == nil && !p.ClearDueDate
}

// Stamp normalizes a timestamp to the persisted precision
func Stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
