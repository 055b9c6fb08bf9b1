package notify

import (
	"context"
	"log/slog"

	"schoolhub/internal/logger"
	"schoolhub/internal/websocket"
)

// Snapshotter yields the current live channels
// Satisfied by *websocket.Registry
type Snapshotter interface {
	LiveChannels() []websocket.Channel
}

// Result summarizes one fan-out
type Result struct {
	Matched   int // channels whose identity matched the audience
	Delivered int // matched channels that accepted the frame
	Skipped   int // matched channels that were not writable
}

// Dispatcher delivers events to exactly the matching live channels
// ARCHITECTURAL DISCOVERY: Payload-agnostic fan-out; the audience is always
// supplied by the caller, never derived from the payload
type Dispatcher struct {
	registry Snapshotter
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over a registry snapshot source
func NewDispatcher(registry Snapshotter, log *slog.Logger) (*Dispatcher, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: log.With("component", "dispatcher")}, nil
}

// Dispatch writes the event to every live channel matching the audience
// FUNCTIONAL DISCOVERY: Fire-and-forget. A non-writable channel is skipped and the
// loop moves on; no retry, no queueing, no error for per-channel failures
func (d *Dispatcher) Dispatch(ctx context.Context, event Event, audience Audience) (Result, error) {
	var result Result

	// TECHNICAL DISCOVERY: Encode once, share the same bytes with every channel
	data, err := event.Encode()
	if err != nil {
		return result, err
	}

	log := logger.FromContext(ctx, d.logger)

	if audience.Empty() {
		log.Debug("dispatch skipped, empty audience", "kind", event.Kind)
		return result, nil
	}

	for _, ch := range d.registry.LiveChannels() {
		if !audience.Matches(ch.Identity) {
			continue
		}
		result.Matched++

		if err := ch.Conn.Send(data); err != nil {
			result.Skipped++
			log.Debug("delivery skipped", "kind", event.Kind, "conn_id", ch.Conn.ID(), "error", err)
			continue
		}
		result.Delivered++
	}

	log.Debug("event dispatched",
		"kind", event.Kind,
		"audience", audience.String(),
		"matched", result.Matched,
		"delivered", result.Delivered,
		"skipped", result.Skipped)

	return result, nil
}
