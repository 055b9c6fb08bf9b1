package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"schoolhub/pkg/types"
)

// DefaultSendBuffer is the number of outbound frames a connection may queue
const DefaultSendBuffer = 100

// Connection implements the interfaces.Channel interface
// ARCHITECTURAL DISCOVERY: WebSocket writes must be serialized to prevent race conditions
// Interface boundary maintained - no business logic in connection wrapper
type Connection struct {
	id           string
	conn         *websocket.Conn
	writeCh      chan []byte        // FUNCTIONAL DISCOVERY: bounded buffer; full means non-writable
	writeTimeout time.Duration
	bound        *types.Identity    // Identity of the HTTP session that opened the socket, if any
	ctx          context.Context    // For cancellation
	cancel       context.CancelFunc // For cleanup
	closeOnce    sync.Once          // Ensure single close
}

// NewConnection creates a new WebSocket connection wrapper
func NewConnection(conn *websocket.Conn, bufferSize int, writeTimeout time.Duration) *Connection {
	if bufferSize <= 0 {
		bufferSize = DefaultSendBuffer
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		id:           uuid.NewString(),
		conn:         conn,
		writeCh:      make(chan []byte, bufferSize),
		writeTimeout: writeTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}

	// Start the single writer goroutine
	go c.writeLoop()

	return c
}

// ARCHITECTURAL DISCOVERY: Single writer goroutine pattern eliminates races
func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				_ = c.Close()
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				// Transport failure: the read pump notices the closed socket and deregisters
				_ = c.Close()
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// ID returns the process-unique connection identifier
func (c *Connection) ID() string {
	return c.id
}

// Send queues a frame for delivery without blocking
// FUNCTIONAL DISCOVERY: A slow or closing client never stalls fan-out;
// the frame is dropped and the caller moves on to the next channel
func (c *Connection) Send(frame []byte) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.writeCh <- frame:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		return ErrSendBufferFull
	}
}

// ARCHITECTURAL DISCOVERY: Clean shutdown requires careful goroutine coordination
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// Done is closed once the connection has been closed
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// BindIdentity records the identity of the HTTP session that performed the upgrade
func (c *Connection) BindIdentity(identity types.Identity) {
	c.bound = &identity
}

// BoundIdentity returns the session identity, if the upgrade carried one
func (c *Connection) BoundIdentity() (types.Identity, bool) {
	if c.bound == nil {
		return types.Identity{}, false
	}
	return *c.bound, true
}
