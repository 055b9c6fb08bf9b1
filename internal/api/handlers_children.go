package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolhub/internal/guard"
)

// GET /api/children - the caller's linked children
func (s *Server) listChildren(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	children, err := s.store.GetChildrenByParent(r.Context(), identity.UserID)
	if err != nil {
		s.writeDomainError(w, r, err, "child")
		return
	}
	writeJSON(w, http.StatusOK, children)
}

// GET /api/children/{childId}/courses
func (s *Server) childCourses(w http.ResponseWriter, r *http.Request) {
	serveChildRead(s, w, r, s.store.GetCoursesByStudent)
}

// GET /api/children/{childId}/assignments
func (s *Server) childAssignments(w http.ResponseWriter, r *http.Request) {
	serveChildRead(s, w, r, s.store.GetAssignmentsByStudent)
}

// GET /api/children/{childId}/emotions
func (s *Server) childEmotions(w http.ResponseWriter, r *http.Request) {
	serveChildRead(s, w, r, s.store.GetEmotionsByStudent)
}

// serveChildRead runs a per-student read on behalf of a parent
// ARCHITECTURAL DISCOVERY: Every cross-user read goes through guard.Read so the
// query only runs once the parent-child link has been confirmed
func serveChildRead[T any](s *Server, w http.ResponseWriter, r *http.Request, read func(ctx context.Context, studentID string) ([]T, error)) {
	identity, _ := identityFrom(r.Context())
	childID := chi.URLParam(r, "childId")

	rows, err := guard.Read(r.Context(), s.guard, identity.UserID, childID, func(ctx context.Context) ([]T, error) {
		return read(ctx, childID)
	})
	if err != nil {
		s.writeDomainError(w, r, err, "child")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
