package hub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"schoolhub/internal/notify"
)

// DefaultQueueSize bounds the number of notifications waiting for fan-out
const DefaultQueueSize = 1000

// Dispatcher performs the actual fan-out
// Satisfied by *notify.Dispatcher
type Dispatcher interface {
	Dispatch(ctx context.Context, event notify.Event, audience notify.Audience) (notify.Result, error)
}

// Envelope is one queued notification
// FUNCTIONAL DISCOVERY: Enqueue time is kept so slow fan-out shows up in logs
type Envelope struct {
	Event    notify.Event
	Audience notify.Audience
	Enqueued time.Time
}

// Hub decouples request handlers from socket writes
// ARCHITECTURAL DISCOVERY: Central coordination point for all outbound notifications;
// handlers enqueue and return, a single goroutine performs fan-out in FIFO order
type Hub struct {
	// FUNCTIONAL DISCOVERY: Buffered queue absorbs bursts such as a teacher grading a whole class
	queue           chan *Envelope
	shutdownChannel chan struct{} // Unbuffered for immediate shutdown signaling
	done            chan struct{} // Closed when the run loop exits

	dispatcher Dispatcher
	logger     *slog.Logger

	// TECHNICAL DISCOVERY: RWMutex allows concurrent reads of running state
	running bool
	started bool
	mu      sync.RWMutex

	published  atomic.Int64
	dropped    atomic.Int64
	dispatched atomic.Int64
}

// NewHub creates a new hub around a dispatcher
func NewHub(dispatcher Dispatcher, queueSize int, logger *slog.Logger) (*Hub, error) {
	if dispatcher == nil {
		return nil, ErrNilDispatcher
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Hub{
		queue:           make(chan *Envelope, queueSize),
		shutdownChannel: make(chan struct{}),
		done:            make(chan struct{}),
		dispatcher:      dispatcher,
		logger:          logger.With("component", "hub"),
	}, nil
}

// Start begins hub processing
// FUNCTIONAL DISCOVERY: A hub runs once; after Stop it cannot be restarted
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.running || h.started {
		h.mu.Unlock()
		return ErrHubAlreadyRunning
	}
	h.running = true
	h.started = true
	h.mu.Unlock()

	h.logger.Info("starting notification hub", "queue_size", cap(h.queue))

	go h.run(ctx)

	return nil
}

// Stop gracefully shuts down the hub
// Notifications still queued are dropped
func (h *Hub) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return ErrHubNotRunning
	}
	h.running = false

	h.logger.Info("stopping notification hub")

	// TECHNICAL DISCOVERY: Safe channel close using select to prevent panic
	select {
	case <-h.shutdownChannel:
	default:
		close(h.shutdownChannel)
	}

	return nil
}

// Done is closed once the run loop has exited
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Publish queues a notification for fan-out without blocking
// FUNCTIONAL DISCOVERY: Fire-and-forget; the caller logs a returned error and moves on
func (h *Hub) Publish(event notify.Event, audience notify.Audience) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.running {
		h.dropped.Add(1)
		return ErrHubNotRunning
	}

	envelope := &Envelope{Event: event, Audience: audience, Enqueued: time.Now()}

	// TECHNICAL DISCOVERY: Non-blocking send with error handling prevents request lockup
	select {
	case h.queue <- envelope:
		h.published.Add(1)
		return nil
	default:
		h.dropped.Add(1)
		return ErrQueueFull
	}
}

// GetStats returns hub counters for monitoring and debugging
func (h *Hub) GetStats() map[string]int64 {
	return map[string]int64{
		"published":  h.published.Load(),
		"dispatched": h.dispatched.Load(),
		"dropped":    h.dropped.Load(),
		"queued":     int64(len(h.queue)),
	}
}

// run is the main hub processing loop
// TECHNICAL DISCOVERY: Single select loop keeps delivery order equal to publish order
func (h *Hub) run(ctx context.Context) {
	defer close(h.done)
	defer h.logger.Info("notification hub stopped")

	for {
		select {
		case envelope := <-h.queue:
			h.handleEnvelope(ctx, envelope)

		case <-h.shutdownChannel:
			return

		case <-ctx.Done():
			h.mu.Lock()
			h.running = false
			h.mu.Unlock()
			return
		}
	}
}

// handleEnvelope fans out one notification
// FUNCTIONAL DISCOVERY: Dispatch errors are logged and never stop the loop
func (h *Hub) handleEnvelope(ctx context.Context, envelope *Envelope) {
	result, err := h.dispatcher.Dispatch(ctx, envelope.Event, envelope.Audience)
	if err != nil {
		h.logger.Error("dispatch failed", "kind", envelope.Event.Kind, "error", err)
		return
	}
	h.dispatched.Add(1)

	h.logger.Debug("notification delivered",
		"kind", envelope.Event.Kind,
		"audience", envelope.Audience.String(),
		"delivered", result.Delivered,
		"skipped", result.Skipped,
		"latency", time.Since(envelope.Enqueued))
}
