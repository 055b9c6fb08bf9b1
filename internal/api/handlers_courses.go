package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolhub/pkg/types"
)

type courseRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Thumbnail   string `json:"thumbnail" validate:"omitempty,url"`
}

// GET /api/courses - the caller's taught or enrolled courses
func (s *Server) listCourses(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	var (
		courses any
		err     error
	)
	if identity.Role == types.RoleTeacher {
		courses, err = s.store.GetCoursesByTeacher(r.Context(), identity.UserID)
	} else {
		courses, err = s.store.GetCoursesByStudent(r.Context(), identity.UserID)
	}
	if err != nil {
		s.writeDomainError(w, r, err, "course")
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

// POST /api/courses
func (s *Server) createCourse(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[courseRequest](s, w, r)
	if !ok {
		return
	}
	identity, _ := identityFrom(r.Context())

	course := &types.Course{
		Title:       req.Title,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
		TeacherID:   identity.UserID,
		IsActive:    true,
	}
	if err := s.store.CreateCourse(r.Context(), course); err != nil {
		s.writeDomainError(w, r, err, "course")
		return
	}

	// FUNCTIONAL DISCOVERY: Notify only after the write committed
	s.notifier.CourseCreated(r.Context(), course)
	writeJSON(w, http.StatusCreated, course)
}

// POST /api/courses/{id}/enroll - the calling student joins a course
func (s *Server) enroll(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	courseID := chi.URLParam(r, "id")

	if _, err := s.store.GetCourse(r.Context(), courseID); err != nil {
		s.writeDomainError(w, r, err, "course")
		return
	}
	if err := s.store.EnrollStudent(r.Context(), courseID, identity.UserID); err != nil {
		s.writeDomainError(w, r, err, "enrollment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"courseId": courseID, "studentId": identity.UserID})
}

// GET /api/courses/{id}/assignments - visible to the owning teacher and enrolled students
func (s *Server) listCourseAssignments(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())
	courseID := chi.URLParam(r, "id")

	if err := s.authorizeCourseMember(r.Context(), identity, courseID); err != nil {
		s.writeDomainError(w, r, err, "course")
		return
	}

	assignments, err := s.store.GetAssignmentsByCourse(r.Context(), courseID)
	if err != nil {
		s.writeDomainError(w, r, err, "assignment")
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

// GET /api/analytics/teacher
func (s *Server) teacherAnalytics(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	analytics, err := s.store.GetTeacherAnalytics(r.Context(), identity.UserID)
	if err != nil {
		s.writeDomainError(w, r, err, "analytics")
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

// authorizeOwnCourse loads a course and checks the caller teaches it
func (s *Server) authorizeOwnCourse(ctx context.Context, identity types.Identity, courseID string) (*types.Course, error) {
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.TeacherID != identity.UserID {
		return nil, ErrForbidden
	}
	return course, nil
}

// authorizeCourseMember checks the caller teaches or attends a course
func (s *Server) authorizeCourseMember(ctx context.Context, identity types.Identity, courseID string) error {
	course, err := s.store.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if course.TeacherID == identity.UserID {
		return nil
	}
	enrolled, err := s.store.IsEnrolled(ctx, courseID, identity.UserID)
	if err != nil {
		return err
	}
	if !enrolled {
		return ErrForbidden
	}
	return nil
}
