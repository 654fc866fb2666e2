package history

import "errors"

// ErrExecutionNotFound is returned when no execution has the requested ID.
var ErrExecutionNotFound = errors.New("history: execution not found")
