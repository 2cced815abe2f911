package taskstore

import "errors"

// ErrNotFound is returned when no task has the requested id. Update and
// Delete return it without touching the collection.
var ErrNotFound = errors.New("task not found")
