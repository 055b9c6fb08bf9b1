package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"schoolhub/pkg/types"
)

type assignmentRequest struct {
	CourseID    string    `json:"courseId" validate:"required"`
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=10000"`
	DueDate     time.Time `json:"dueDate" validate:"required"`
	MaxPoints   int       `json:"maxPoints" validate:"omitempty,gte=1,lte=1000"`
}

type submissionRequest struct {
	Content     string          `json:"content" validate:"required_without=Attachments,max=50000"`
	Attachments json.RawMessage `json:"attachments"`
}

type gradeRequest struct {
	Grade    *int   `json:"grade" validate:"required,gte=0,lte=100"`
	Feedback string `json:"feedback" validate:"max=5000"`
}

const defaultMaxPoints = 100

// GET /api/assignments - a student's assignments with their own status, or a
// teacher's assignments with submission counts
func (s *Server) listAssignments(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	var (
		assignments any
		err         error
	)
	if identity.Role == types.RoleTeacher {
		assignments, err = s.store.GetAssignmentsByTeacher(r.Context(), identity.UserID)
	} else {
		assignments, err = s.store.GetAssignmentsByStudent(r.Context(), identity.UserID)
	}
	if err != nil {
		s.writeDomainError(w, r, err, "assignment")
		return
	}
	writeJSON(w, http.StatusOK, assignments)
}

// POST /api/assignments
func (s *Server) createAssignment(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[assignmentRequest](s, w, r)
	if !ok {
		return
	}
	identity, _ := identityFrom(r.Context())

	if _, err := s.authorizeOwnCourse(r.Context(), identity, req.CourseID); err != nil {
		s.writeDomainError(w, r, err, "course")
		return
	}

	assignment := &types.Assignment{
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate.UTC(),
		MaxPoints:   req.MaxPoints,
	}
	if assignment.MaxPoints == 0 {
		assignment.MaxPoints = defaultMaxPoints
	}
	if err := s.store.CreateAssignment(r.Context(), assignment); err != nil {
		s.writeDomainError(w, r, err, "assignment")
		return
	}

	s.notifier.AssignmentCreated(r.Context(), assignment)
	writeJSON(w, http.StatusCreated, assignment)
}

// POST /api/assignments/{id}/submit - resubmitting replaces the earlier work and clears its grade
func (s *Server) submitAssignment(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[submissionRequest](s, w, r)
	if !ok {
		return
	}
	identity, _ := identityFrom(r.Context())
	assignmentID := chi.URLParam(r, "id")

	owner, err := s.store.GetAssignmentOwner(r.Context(), assignmentID)
	if err != nil {
		s.writeDomainError(w, r, err, "assignment")
		return
	}
	enrolled, err := s.store.IsEnrolled(r.Context(), owner.CourseID, identity.UserID)
	if err != nil {
		s.writeDomainError(w, r, err, "enrollment")
		return
	}
	if !enrolled {
		s.writeDomainError(w, r, ErrForbidden, "course")
		return
	}

	submission := &types.Submission{
		AssignmentID: assignmentID,
		StudentID:    identity.UserID,
		Content:      req.Content,
		Attachments:  req.Attachments,
	}
	if err := s.store.SubmitAssignment(r.Context(), submission); err != nil {
		s.writeDomainError(w, r, err, "submission")
		return
	}

	// FUNCTIONAL DISCOVERY: Only the owning teacher hears about a submission
	s.notifier.SubmissionReceived(r.Context(), submission)
	writeJSON(w, http.StatusCreated, submission)
}

// POST /api/submissions/{id}/grade
func (s *Server) gradeSubmission(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[gradeRequest](s, w, r)
	if !ok {
		return
	}
	identity, _ := identityFrom(r.Context())
	submissionID := chi.URLParam(r, "id")

	existing, err := s.store.GetSubmission(r.Context(), submissionID)
	if err != nil {
		s.writeDomainError(w, r, err, "submission")
		return
	}
	owner, err := s.store.GetAssignmentOwner(r.Context(), existing.AssignmentID)
	if err != nil {
		s.writeDomainError(w, r, err, "assignment")
		return
	}
	if owner.TeacherID != identity.UserID {
		s.writeDomainError(w, r, ErrForbidden, "submission")
		return
	}

	graded, err := s.store.GradeSubmission(r.Context(), submissionID, *req.Grade, req.Feedback)
	if err != nil {
		s.writeDomainError(w, r, err, "submission")
		return
	}

	s.notifier.GradeUpdated(r.Context(), graded)
	writeJSON(w, http.StatusOK, graded)
}
