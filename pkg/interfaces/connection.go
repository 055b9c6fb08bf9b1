package interfaces

// Channel represents one live real-time connection
// ARCHITECTURAL DISCOVERY: Pure abstraction without implementation details
// ensures the registry and dispatcher never touch the transport directly
type Channel interface {
	// ID returns an opaque identifier unique for the lifetime of the process
	ID() string

	// Send queues one pre-encoded frame without blocking
	// FUNCTIONAL DISCOVERY: Non-writable channels return an error immediately
	// so fan-out can skip them and continue
	Send(frame []byte) error

	// Close closes the channel and releases its resources
	Close() error
}
