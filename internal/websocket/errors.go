package websocket

import "errors"

// Connection-related errors
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// Registry-related errors
var (
	ErrNilConnection           = errors.New("connection cannot be nil")
	ErrConnectionNotRegistered = errors.New("connection is not registered")
	ErrInvalidIdentity         = errors.New("invalid identity")
)

// Handler-related errors
var (
	ErrMalformedFrame     = errors.New("malformed frame")
	ErrUnsupportedFrame   = errors.New("unsupported frame type")
	ErrIdentityMismatch   = errors.New("asserted identity does not match session")
	ErrUnverifiedIdentity = errors.New("identity assertion without session is not trusted")
)
