package notify

import "errors"

// Dispatch-related errors
var (
	ErrUnknownKind = errors.New("unknown event kind")
	ErrEncodeEvent = errors.New("failed to encode event")
	ErrNilRegistry = errors.New("registry cannot be nil")
)

// Notifier-related errors
var (
	ErrNilPublisher = errors.New("publisher cannot be nil")
	ErrNilDirectory = errors.New("directory cannot be nil")
)
