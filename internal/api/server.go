package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"schoolhub/internal/guard"
	"schoolhub/internal/session"
	"schoolhub/pkg/interfaces"
	"schoolhub/pkg/types"
)

// Accounts is the session manager surface used by the auth routes
type Accounts interface {
	interfaces.SessionManager
	Register(ctx context.Context, reg session.Registration) (*types.User, error)
}

// Notifier publishes the real-time notice for each committed mutation
// FUNCTIONAL DISCOVERY: Methods return nothing; a lost notice never changes a response
type Notifier interface {
	CourseCreated(ctx context.Context, course *types.Course)
	TimetableUpdated(ctx context.Context, entry *types.TimetableEntry)
	SchoolEventCreated(ctx context.Context, event *types.SchoolEvent)
	AnnouncementPublished(ctx context.Context, announcement *types.Announcement)
	AssignmentCreated(ctx context.Context, assignment *types.Assignment)
	GradeUpdated(ctx context.Context, submission *types.Submission)
	SubmissionReceived(ctx context.Context, submission *types.Submission)
	MessageSent(ctx context.Context, message *types.DirectMessage)
	MeetingRequested(ctx context.Context, meeting *types.Meeting)
}

// StatsSource reports counters for the health endpoint
type StatsSource[T int | int64] interface {
	GetStats() map[string]T
}

// Dependencies are the components the HTTP layer delegates to
type Dependencies struct {
	Store     interfaces.DatabaseManager
	Sessions  Accounts
	Notifier  Notifier
	Guard     *guard.AccessGuard
	WebSocket http.Handler
	Registry  StatsSource[int]
	Hub       StatsSource[int64]
}

// Options carries HTTP-layer settings
type Options struct {
	AllowedOrigins    []string
	RequestsPerMinute int
}

// ARCHITECTURAL DISCOVERY: HTTP API layer serves as pure interface between external clients and internal components
// Clean separation - handlers decode, authorize, call the store, then notify
type Server struct {
	store     interfaces.DatabaseManager
	sessions  Accounts
	notifier  Notifier
	guard     *guard.AccessGuard
	websocket http.Handler
	registry  StatsSource[int]
	hub       StatsSource[int64]

	opts      Options
	limiter   *RateLimiter
	validator *requestValidator
	router    chi.Router
	logger    *slog.Logger
	started   time.Time
}

// Sentinel errors for wiring mistakes
var (
	ErrMissingDependency = errors.New("api: missing dependency")
)

// NewServer builds the router over the given dependencies
func NewServer(deps Dependencies, opts Options, logger *slog.Logger) (*Server, error) {
	if deps.Store == nil || deps.Sessions == nil || deps.Notifier == nil || deps.Guard == nil {
		return nil, ErrMissingDependency
	}
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	v, err := newRequestValidator()
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:     deps.Store,
		sessions:  deps.Sessions,
		notifier:  deps.Notifier,
		guard:     deps.Guard,
		websocket: deps.WebSocket,
		registry:  deps.Registry,
		hub:       deps.Hub,
		opts:      opts,
		limiter:   NewRateLimiter(opts.RequestsPerMinute),
		validator: v,
		logger:    logger.With("component", "api"),
		started:   time.Now(),
	}
	s.router = s.routes()
	return s, nil
}

// RateLimiter exposes the limiter so the application can run its cleanup loop
func (s *Server) RateLimiter() *RateLimiter {
	return s.limiter
}

// FUNCTIONAL DISCOVERY: Implement http.Handler interface for integration with standard HTTP server
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ARCHITECTURAL DISCOVERY: Route setup follows REST conventions with grouped middleware;
// every mutating route is authenticated, role-restricted and rate limited
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.cors)

	if s.websocket != nil {
		r.Handle("/ws", s.websocket)
	}

	r.Group(func(r chi.Router) {
		r.Use(jsonContent)
		r.Get("/health", s.healthCheck)

		r.Route("/api", func(r chi.Router) {
			r.Post("/auth/register", s.register)
			r.Post("/auth/login", s.login)

			r.Group(func(r chi.Router) {
				r.Use(s.authenticate)

				r.Post("/auth/logout", s.logout)
				r.Get("/auth/me", s.me)

				r.Get("/announcements", s.listAnnouncements)
				r.Get("/timetable", s.listTimetable)

				r.With(requireRole(types.RoleTeacher, types.RoleStudent)).Get("/courses", s.listCourses)
				r.With(requireRole(types.RoleTeacher, types.RoleStudent)).Get("/courses/{id}/assignments", s.listCourseAssignments)
				r.With(requireRole(types.RoleTeacher, types.RoleStudent)).Get("/assignments", s.listAssignments)
				r.With(requireRole(types.RoleStudent)).Get("/emotions", s.listEmotions)
				r.With(requireRole(types.RoleTeacher)).Get("/analytics/teacher", s.teacherAnalytics)

				r.Route("/children", func(r chi.Router) {
					r.Use(requireRole(types.RoleParent))
					r.Get("/", s.listChildren)
					r.Get("/{childId}/courses", s.childCourses)
					r.Get("/{childId}/assignments", s.childAssignments)
					r.Get("/{childId}/emotions", s.childEmotions)
				})

				// Mutations
				r.Group(func(r chi.Router) {
					r.Use(s.rateLimit)

					r.With(requireRole(types.RoleTeacher)).Post("/courses", s.createCourse)
					r.With(requireRole(types.RoleStudent)).Post("/courses/{id}/enroll", s.enroll)
					r.With(requireRole(types.RoleTeacher)).Post("/assignments", s.createAssignment)
					r.With(requireRole(types.RoleStudent)).Post("/assignments/{id}/submit", s.submitAssignment)
					r.With(requireRole(types.RoleTeacher)).Post("/submissions/{id}/grade", s.gradeSubmission)
					r.With(requireRole(types.RoleTeacher)).Post("/announcements", s.createAnnouncement)
					r.With(requireRole(types.RoleTeacher)).Post("/timetable", s.createTimetableEntry)
					r.With(requireRole(types.RoleStudent)).Post("/emotions", s.recordEmotion)
					r.Post("/messages", s.sendMessage)
					r.With(requireRole(types.RoleParent, types.RoleTeacher)).Post("/meetings", s.requestMeeting)
					r.With(requireRole(types.RoleTeacher)).Post("/events", s.createSchoolEvent)
				})
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

type HealthResponse struct {
	Status      string           `json:"status"`
	Timestamp   time.Time        `json:"timestamp"`
	Database    string           `json:"database"`
	Connections map[string]int   `json:"connections,omitempty"`
	Hub         map[string]int64 `json:"hub,omitempty"`
	System      map[string]any   `json:"system"`
}

// FUNCTIONAL DISCOVERY: GET /health - System health check with component validation
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Database:  "healthy",
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"uptime":     time.Since(s.started).Round(time.Second).String(),
		},
	}

	if err := s.store.HealthCheck(ctx); err != nil {
		response.Status = "unhealthy"
		response.Database = "error: " + err.Error()
	}
	if s.registry != nil {
		response.Connections = s.registry.GetStats()
	}
	if s.hub != nil {
		response.Hub = s.hub.GetStats()
	}

	// FUNCTIONAL DISCOVERY: Return 503 if any component is unhealthy
	status := http.StatusOK
	if response.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}
