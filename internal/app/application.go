// Package app wires every schoolhub component together and runs the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"golang.org/x/sync/errgroup"

	"schoolhub/internal/api"
	"schoolhub/internal/config"
	"schoolhub/internal/database"
	"schoolhub/internal/guard"
	"schoolhub/internal/hub"
	"schoolhub/internal/notify"
	"schoolhub/internal/session"
	"schoolhub/internal/websocket"
)

// Application coordinates all system components
// Clean dependency injection pattern with proper initialization order
type Application struct {
	config *config.Config
	logger *slog.Logger

	db         *database.Manager
	sessions   *session.Manager
	registry   *websocket.Registry
	dispatcher *notify.Dispatcher
	notifier   *notify.Notifier
	hub        *hub.Hub
	guard      *guard.AccessGuard
	api        *api.Server
	httpServer *http.Server
}

// New creates a new application instance with all components initialized
// Component initialization follows strict dependency order:
// Database → Session → Registry → Dispatcher → Notifier → Hub → Guard → API → HTTP
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Validate configuration before component initialization
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// STEP 1: Initialize database manager (foundation layer, runs migrations)
	db, err := database.NewManager(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database manager: %w", err)
	}

	app := &Application{config: cfg, logger: logger.With("component", "app"), db: db}
	if err := app.wire(logger); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (a *Application) wire(logger *slog.Logger) error {
	cfg := a.config
	var err error

	// STEP 2: Session manager over the database
	a.sessions, err = session.NewManager(a.db, session.Options{
		TTL:        cfg.Auth.SessionTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	// STEP 3: Connection registry and the dispatcher reading its snapshots
	a.registry = websocket.NewRegistry()
	a.dispatcher, err = notify.NewDispatcher(a.registry, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}

	// STEP 4: Hub queues notices for the dispatcher; the notifier publishes into it
	a.hub, err = hub.NewHub(a.dispatcher, cfg.Hub.QueueSize, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize hub: %w", err)
	}
	a.notifier, err = notify.NewNotifier(a.hub, a.db, notify.NotifierOptions{
		OwnerCacheSize: cfg.Cache.OwnerCacheSize,
		OwnerCacheTTL:  cfg.Cache.OwnerCacheTTL,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}

	// STEP 5: Access guard over the parent-child links
	a.guard, err = guard.New(a.db, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize access guard: %w", err)
	}

	// STEP 6: WebSocket handler bound to the session manager
	wsHandler := websocket.NewHandler(a.registry, a.sessions, websocket.HandlerOptions{
		PingInterval:        cfg.WebSocket.PingInterval,
		ReadTimeout:         cfg.WebSocket.ReadTimeout,
		WriteTimeout:        cfg.WebSocket.WriteTimeout,
		SendBuffer:          cfg.WebSocket.BufferSize,
		TrustClientIdentity: cfg.WebSocket.TrustClientIdentity,
	}, logger)

	// STEP 7: API server with both REST and WebSocket endpoints
	a.api, err = api.NewServer(api.Dependencies{
		Store:     a.db,
		Sessions:  a.sessions,
		Notifier:  a.notifier,
		Guard:     a.guard,
		WebSocket: http.HandlerFunc(wsHandler.HandleWebSocket),
		Registry:  a.registry,
		Hub:       a.hub,
	}, api.Options{
		AllowedOrigins:    cfg.HTTP.AllowedOrigins,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize API server: %w", err)
	}

	// STEP 8: HTTP server
	// FUNCTIONAL DISCOVERY: WriteTimeout is not set on the server; it would kill
	// hijacked WebSocket connections, which manage their own deadlines
	a.httpServer = &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           a.api,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		IdleTimeout:       2 * cfg.HTTP.ReadTimeout,
	}
	return nil
}

// Handler returns the root HTTP handler
func (a *Application) Handler() http.Handler {
	return a.api
}

// Run listens on the configured address and serves until ctx is cancelled
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.httpServer.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the hub, the HTTP server and the background cleanup loops on ln
// ARCHITECTURAL DISCOVERY: One errgroup owns every goroutine; cancelling ctx
// shuts the HTTP server down gracefully, then stops the hub
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	// STEP 1: Start hub before accepting requests that publish into it
	if err := a.hub.Start(gctx); err != nil {
		_ = ln.Close()
		return fmt.Errorf("failed to start notification hub: %w", err)
	}

	a.logger.Info("schoolhub listening", "addr", ln.Addr().String())

	// STEP 2: Accept connections
	g.Go(func() error {
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// STEP 3: Graceful shutdown in reverse dependency order: HTTP → Hub
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.HTTP.ShutdownTimeout)
		defer cancel()

		err := a.httpServer.Shutdown(shutdownCtx)
		if stopErr := a.hub.Stop(); stopErr != nil && !errors.Is(stopErr, hub.ErrHubNotRunning) {
			a.logger.Warn("hub shutdown error", "error", stopErr)
		}
		if err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		return nil
	})

	// STEP 4: Background maintenance
	g.Go(func() error {
		return a.api.RateLimiter().RunCleanup(gctx, a.config.RateLimit.CleanupInterval)
	})
	g.Go(func() error {
		return a.sessions.RunCleanup(gctx, a.config.Auth.CleanupInterval)
	})

	return g.Wait()
}

// Close releases the notifier cache and the database
func (a *Application) Close() error {
	if a.notifier != nil {
		a.notifier.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("database shutdown error: %w", err)
		}
	}
	a.logger.Info("shutdown complete")
	return nil
}

// Addr returns the configured listen address
func (a *Application) Addr() string {
	return a.httpServer.Addr
}
