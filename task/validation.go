package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrValidation matches every ValidationError via errors.Is
var ErrValidation = errors.New("validation failed")

// ValidationError reports a task field that was rejected before any mutation
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ErrEmptyTitle is returned when a title trims to nothing
var ErrEmptyTitle = &ValidationError{Field: "title", Reason: "must not be empty"}

// NormalizeTitle trims the title and rejects it if nothing is left
func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	return title, nil
}

// New builds a validated task from a draft. Empty status and priority
// default to todo and medium.
func New(d Draft, id string, now time.Time) (Task, error) {
	title, err := NormalizeTitle(d.Title)
	if err != nil {
		return Task{}, err
	}

	status := d.Status
	if status == "" {
		status = StatusTodo
	}
	if !status.IsValid() {
		return Task{}, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown value %q", status)}
	}

	priority := d.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.IsValid() {
		return Task{}, &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown value %q", priority)}
	}

	now = Stamp(now)
	t := Task{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(d.Description),
		Status:      status,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if d.DueDate != nil {
		due := Stamp(*d.DueDate)
		t.DueDate = &due
	}
	return t, nil
}

// Apply merges the patch into a copy of t and sets UpdatedAt to now.
// t itself is not modified.
func (t Task) Apply(p Patch, now time.Time) (Task, error) {
	out := t.Clone()

	if p.Title != nil {
		title, err := NormalizeTitle(*p.Title)
		if err != nil {
			return t, err
		}
		out.Title = title
	}
	if p.Description != nil {
		out.Description = strings.TrimSpace(*p.Description)
	}
	if p.Status != nil {
		if !p.Status.IsValid() {
			return t, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown value %q", *p.Status)}
		}
		out.Status = *p.Status
	}
	if p.Priority != nil {
		if !p.Priority.IsValid() {
			return t, &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown value %q", *p.Priority)}
		}
		out.Priority = *p.Priority
	}
	switch {
	case p.ClearDueDate:
		out.DueDate = nil
	case p.DueDate != nil:
		due := Stamp(*p.DueDate)
		out.DueDate = &due
	}

	out.UpdatedAt = Stamp(now)
	return out, nil
}

// Validate checks a task that did not come through New, e.g. one read
// back from storage.
func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if !t.Status.IsValid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown value %q", t.Status)}
	}
	if !t.Priority.IsValid() {
		return &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown value %q", t.Priority)}
	}
	if t.CreatedAt.IsZero() {
		return &ValidationError{Field: "createdAt", Reason: "must be set"}
	}
	if t.UpdatedAt.Before(t.CreatedAt) {
		return &ValidationError{Field: "updatedAt", Reason: "must not precede createdAt"}
	}
	return nil
}
