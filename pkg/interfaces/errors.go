package interfaces

import "errors"

// Common interface errors used across components
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized access")
)

// ErrConflict reports a write that collides with an existing row
var ErrConflict = errors.New("already exists")
