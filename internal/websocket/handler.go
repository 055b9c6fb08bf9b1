package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"schoolhub/pkg/interfaces"
	"schoolhub/pkg/types"
)

// WebSocket upgrader with production-ready settings
// ARCHITECTURAL DISCOVERY: Separate upgrader configuration enables reuse
// and consistent WebSocket settings across different handler instances
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// FUNCTIONAL DISCOVERY: Browser dashboards are served from a separate dev origin
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// maxFrameSize bounds inbound frames; the only recognized frame is a small auth assertion
const maxFrameSize = 4096

// HandlerOptions carries the transport settings of the handler
type HandlerOptions struct {
	PingInterval time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	SendBuffer   int

	// TrustClientIdentity accepts auth frames on sockets opened without a session
	TrustClientIdentity bool
}

// DefaultHandlerOptions mirrors the websocket section defaults of the config package
func DefaultHandlerOptions() HandlerOptions {
	return HandlerOptions{
		PingInterval: 30 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		SendBuffer:   DefaultSendBuffer,
	}
}

// inboundFrame is the shape of every client-to-server frame
type inboundFrame struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// Handler accepts real-time channels and keeps the registry in sync with them
// ARCHITECTURAL DISCOVERY: Clean separation of WebSocket handling from business logic
// integrates with Registry for connection management and interfaces for external dependencies
type Handler struct {
	registry       *Registry                 // Connection tracking
	sessionManager interfaces.SessionManager // Resolves the optional upgrade token
	opts           HandlerOptions
	logger         *slog.Logger
}

// NewHandler creates a new WebSocket handler with dependency injection
func NewHandler(registry *Registry, sessionManager interfaces.SessionManager, opts HandlerOptions, logger *slog.Logger) *Handler {
	defaults := DefaultHandlerOptions()
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaults.PingInterval
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaults.ReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaults.WriteTimeout
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaults.SendBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		registry:       registry,
		sessionManager: sessionManager,
		opts:           opts,
		logger:         logger.With("component", "websocket"),
	}
}

// HandleWebSocket upgrades the request and runs the channel until it closes
// ARCHITECTURAL DISCOVERY: Multi-stage flow (token -> upgrade -> register -> read pump)
// rejects bad tokens with a proper HTTP status before any socket resources exist
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	var bound *types.Identity
	if token := tokenFromRequest(r); token != "" && h.sessionManager != nil {
		identity, err := h.sessionManager.Resolve(r.Context(), token)
		if err != nil {
			if errors.Is(err, interfaces.ErrUnauthorized) || errors.Is(err, interfaces.ErrNotFound) {
				http.Error(w, "Invalid or expired session", http.StatusUnauthorized)
				return
			}
			h.logger.Error("session lookup failed", "error", err)
			http.Error(w, "Session validation failed", http.StatusInternalServerError)
			return
		}
		bound = &identity
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "error", err)
		return
	}

	wsConn := NewConnection(conn, h.opts.SendBuffer, h.opts.WriteTimeout)
	if bound != nil {
		wsConn.BindIdentity(*bound)
	}

	// FUNCTIONAL DISCOVERY: A channel starts unauthenticated even with a session;
	// the identity is attached by the first valid auth frame
	if err := h.registry.Register(wsConn); err != nil {
		h.logger.Error("register failed", "error", err)
		_ = wsConn.Close()
		return
	}
	h.logger.Debug("channel opened", "conn_id", wsConn.ID(), "session_bound", bound != nil)

	go h.handleConnection(wsConn)
}

// handleConnection manages the connection lifecycle with heartbeat monitoring
// ARCHITECTURAL DISCOVERY: One read pump per connection; the heartbeat ticker runs beside it
// and both stop when the connection context is cancelled
func (h *Handler) handleConnection(conn *Connection) {
	defer func() {
		// FUNCTIONAL DISCOVERY: Deferred cleanup ensures the registry never keeps
		// a channel whose transport has gone away
		h.registry.Deregister(conn)
		_ = conn.Close()
		h.logger.Debug("channel closed", "conn_id", conn.ID())
	}()

	conn.conn.SetReadLimit(maxFrameSize)
	if err := conn.conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout)); err != nil {
		h.logger.Warn("set read deadline failed", "conn_id", conn.ID(), "error", err)
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout))
	})

	go h.heartbeat(conn)

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Warn("read failed", "conn_id", conn.ID(), "error", err)
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		if err := h.handleFrame(conn, data); err != nil {
			// Malformed or rejected frames leave the channel state untouched
			h.logger.Debug("frame discarded", "conn_id", conn.ID(), "error", err)
		}
	}
}

// TECHNICAL DISCOVERY: Control frames may be written concurrently with WriteMessage
// per the gorilla/websocket concurrency contract
func (h *Handler) heartbeat(conn *Connection) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(h.opts.WriteTimeout)); err != nil {
				_ = conn.Close()
				return
			}
		case <-conn.Done():
			return
		}
	}
}

// handleFrame interprets one inbound text frame
func (h *Handler) handleFrame(conn *Connection, data []byte) error {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return ErrMalformedFrame
	}
	if frame.Type != "auth" {
		return ErrUnsupportedFrame
	}

	role, err := types.ParseRole(frame.Role)
	if err != nil {
		return ErrMalformedFrame
	}
	asserted := types.Identity{UserID: frame.UserID, Role: role}
	if err := asserted.Validate(); err != nil {
		return ErrMalformedFrame
	}

	// ARCHITECTURAL DISCOVERY: The session that opened the socket is authoritative;
	// a client may only claim the identity it already proved over HTTP
	if bound, ok := conn.BoundIdentity(); ok {
		if bound != asserted {
			return ErrIdentityMismatch
		}
	} else if !h.opts.TrustClientIdentity {
		return ErrUnverifiedIdentity
	}

	if err := h.registry.Authenticate(conn, asserted.UserID, asserted.Role); err != nil {
		return err
	}
	h.logger.Debug("channel authenticated", "conn_id", conn.ID(), "user_id", asserted.UserID, "role", asserted.Role)
	return nil
}

// tokenFromRequest reads the session token from the query string or the Authorization header
// FUNCTIONAL DISCOVERY: Browsers cannot set headers on WebSocket upgrades, so ?token= is accepted
func tokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
