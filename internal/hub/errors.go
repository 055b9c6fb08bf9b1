package hub

import "errors"

// Hub lifecycle and queueing errors
var (
	ErrHubAlreadyRunning = errors.New("hub is already running")
	ErrHubNotRunning     = errors.New("hub is not running")
	ErrQueueFull         = errors.New("notification queue is full")
	ErrNilDispatcher     = errors.New("dispatcher cannot be nil")
)
