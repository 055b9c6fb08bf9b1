package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"schoolhub/pkg/interfaces"
	"schoolhub/pkg/types"
)

// CreateAssignment inserts an assignment into an existing course
func (m *Manager) CreateAssignment(ctx context.Context, assignment *types.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now()
	}
	assignment.DueDate = assignment.DueDate.UTC()

	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		_, err := db.NamedExecContext(ctx, `
			INSERT INTO assignments (id, course_id, title, description, due_date, max_points, created_at)
			VALUES (:id, :course_id, :title, :description, :due_date, :max_points, :created_at)`,
			assignment)
		return err
	})
}

// GetAssignmentOwner resolves the teacher that receives submission notices
func (m *Manager) GetAssignmentOwner(ctx context.Context, assignmentID string) (*types.AssignmentOwner, error) {
	var owner types.AssignmentOwner
	err := m.db.GetContext(ctx, &owner, `
		SELECT a.id AS assignment_id, a.title, c.id AS course_id, c.title AS course_title, c.teacher_id
		FROM assignments a
		JOIN courses c ON c.id = a.course_id
		WHERE a.id = ?`,
		assignmentID)
	if err != nil {
		return nil, notFound(err, "assignment", assignmentID)
	}
	return &owner, nil
}

func (m *Manager) GetAssignmentsByCourse(ctx context.Context, courseID string) ([]*types.Assignment, error) {
	assignments := []*types.Assignment{}
	err := m.db.SelectContext(ctx, &assignments,
		`SELECT * FROM assignments WHERE course_id = ? ORDER BY due_date`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query course assignments: %w", err)
	}
	return assignments, nil
}

// GetAssignmentsByStudent lists assignments of enrolled courses with the student's own submission state
func (m *Manager) GetAssignmentsByStudent(ctx context.Context, studentID string) ([]*types.StudentAssignment, error) {
	assignments := []*types.StudentAssignment{}
	err := m.db.SelectContext(ctx, &assignments, `
		SELECT a.id, a.title, a.description, a.due_date, a.max_points,
		       c.title AS course_title, s.status, s.grade, s.submitted_at
		FROM assignments a
		JOIN courses c ON c.id = a.course_id
		JOIN course_enrollments e ON e.course_id = c.id AND e.student_id = ?
		LEFT JOIN assignment_submissions s ON s.assignment_id = a.id AND s.student_id = ?
		ORDER BY a.due_date`,
		studentID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query student assignments: %w", err)
	}
	return assignments, nil
}

// GetAssignmentsByTeacher lists assignments across a teacher's courses with submission counts
func (m *Manager) GetAssignmentsByTeacher(ctx context.Context, teacherID string) ([]*types.TeacherAssignment, error) {
	assignments := []*types.TeacherAssignment{}
	err := m.db.SelectContext(ctx, &assignments, `
		SELECT a.id, a.title, a.description, a.due_date, a.max_points, a.created_at,
		       c.id AS course_id, c.title AS course_title,
		       COUNT(s.id) AS submission_count
		FROM assignments a
		JOIN courses c ON c.id = a.course_id
		LEFT JOIN assignment_submissions s ON s.assignment_id = a.id
		WHERE c.teacher_id = ?
		GROUP BY a.id
		ORDER BY a.created_at DESC`,
		teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teacher assignments: %w", err)
	}
	return assignments, nil
}

// SubmitAssignment records a submission; resubmitting replaces the content and clears the grade
// FUNCTIONAL DISCOVERY: One submission row per (assignment, student); the stored row is
// reloaded into submission so callers see the surviving ID
func (m *Manager) SubmitAssignment(ctx context.Context, submission *types.Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	submission.SubmittedAt = now()
	submission.Status = types.SubmissionSubmitted

	err := m.executeWrite(ctx, func(db *sqlx.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO assignment_submissions (id, assignment_id, student_id, content, attachments, status, submitted_at)
			VALUES (?, ?, ?, ?, COALESCE(?, X''), ?, ?)
			ON CONFLICT (assignment_id, student_id) DO UPDATE SET
				content = excluded.content,
				attachments = excluded.attachments,
				status = excluded.status,
				submitted_at = excluded.submitted_at,
				grade = NULL,
				feedback = NULL,
				graded_at = NULL`,
			submission.ID, submission.AssignmentID, submission.StudentID, submission.Content,
			[]byte(submission.Attachments), submission.Status, submission.SubmittedAt)
		return err
	})
	if err != nil {
		return err
	}

	var stored types.Submission
	err = m.db.GetContext(ctx, &stored,
		`SELECT * FROM assignment_submissions WHERE assignment_id = ? AND student_id = ?`,
		submission.AssignmentID, submission.StudentID)
	if err != nil {
		return notFound(err, "submission", submission.ID)
	}
	*submission = stored
	return nil
}

func (m *Manager) GetSubmission(ctx context.Context, submissionID string) (*types.Submission, error) {
	var submission types.Submission
	err := m.db.GetContext(ctx, &submission, `SELECT * FROM assignment_submissions WHERE id = ?`, submissionID)
	if err != nil {
		return nil, notFound(err, "submission", submissionID)
	}
	return &submission, nil
}

// GradeSubmission stores a grade and returns the updated row
func (m *Manager) GradeSubmission(ctx context.Context, submissionID string, grade int, feedback string) (*types.Submission, error) {
	err := m.executeWrite(ctx, func(db *sqlx.DB) error {
		result, err := db.ExecContext(ctx, `
			UPDATE assignment_submissions
			SET grade = ?, feedback = ?, status = ?, graded_at = ?
			WHERE id = ?`,
			grade, feedback, types.SubmissionGraded, now(), submissionID)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("%w: submission %s", interfaces.ErrNotFound, submissionID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m.GetSubmission(ctx, submissionID)
}

// GetTeacherAnalytics aggregates dashboard figures across a teacher's courses
func (m *Manager) GetTeacherAnalytics(ctx context.Context, teacherID string) (*types.TeacherAnalytics, error) {
	analytics := &types.TeacherAnalytics{RecentActivity: []types.ActivityItem{}}

	err := m.db.GetContext(ctx, &analytics.TotalStudents, `
		SELECT COUNT(DISTINCT e.student_id)
		FROM course_enrollments e
		JOIN courses c ON c.id = e.course_id
		WHERE c.teacher_id = ?`,
		teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}

	var grades struct {
		Graded  int     `db:"graded"`
		Average float64 `db:"average"`
	}
	err = m.db.GetContext(ctx, &grades, `
		SELECT COUNT(s.grade) AS graded, COALESCE(ROUND(AVG(s.grade), 1), 0) AS average
		FROM assignment_submissions s
		JOIN assignments a ON a.id = s.assignment_id
		JOIN courses c ON c.id = a.course_id
		WHERE c.teacher_id = ? AND s.grade IS NOT NULL`,
		teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate grades: %w", err)
	}
	analytics.AssignmentsGraded = grades.Graded
	analytics.AverageGrade = grades.Average

	err = m.db.SelectContext(ctx, &analytics.RecentActivity, `
		SELECT s.id AS submission_id, a.title AS assignment_title,
		       u.first_name || ' ' || u.last_name AS student_name,
		       s.status, s.grade, s.submitted_at, s.graded_at
		FROM assignment_submissions s
		JOIN assignments a ON a.id = s.assignment_id
		JOIN courses c ON c.id = a.course_id
		JOIN users u ON u.id = s.student_id
		WHERE c.teacher_id = ?
		ORDER BY s.submitted_at DESC
		LIMIT 10`,
		teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent activity: %w", err)
	}
	return analytics, nil
}
