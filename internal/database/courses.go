package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"schoolhub/pkg/types"
)

// CreateCourse inserts a course owned by course.TeacherID
func (m *Manager) CreateCourse(ctx context.Context, course *types.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now()
	}

	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		_, err := db.NamedExecContext(ctx, `
			INSERT INTO courses (id, title, description, teacher_id, thumbnail, is_active, created_at)
			VALUES (:id, :title, :description, :teacher_id, :thumbnail, :is_active, :created_at)`,
			course)
		return err
	})
}

func (m *Manager) GetCourse(ctx context.Context, courseID string) (*types.Course, error) {
	var course types.Course
	if err := m.db.GetContext(ctx, &course, `SELECT * FROM courses WHERE id = ?`, courseID); err != nil {
		return nil, notFound(err, "course", courseID)
	}
	return &course, nil
}

// GetCoursesByTeacher lists a teacher's active courses, newest first
func (m *Manager) GetCoursesByTeacher(ctx context.Context, teacherID string) ([]*types.Course, error) {
	courses := []*types.Course{}
	err := m.db.SelectContext(ctx, &courses, `
		SELECT * FROM courses
		WHERE teacher_id = ? AND is_active = 1
		ORDER BY created_at DESC`,
		teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teacher courses: %w", err)
	}
	return courses, nil
}

// GetCoursesByStudent lists the active courses a student is enrolled in
func (m *Manager) GetCoursesByStudent(ctx context.Context, studentID string) ([]*types.StudentCourse, error) {
	courses := []*types.StudentCourse{}
	err := m.db.SelectContext(ctx, &courses, `
		SELECT c.*, e.progress FROM courses c
		JOIN course_enrollments e ON e.course_id = c.id
		WHERE e.student_id = ? AND c.is_active = 1
		ORDER BY e.enrolled_at DESC`,
		studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query student courses: %w", err)
	}
	return courses, nil
}

// EnrollStudent adds a student to a course; enrolling twice is a no-op
func (m *Manager) EnrollStudent(ctx context.Context, courseID, studentID string) error {
	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO course_enrollments (id, course_id, student_id, progress, enrolled_at)
			VALUES (?, ?, ?, 0, ?)
			ON CONFLICT (course_id, student_id) DO NOTHING`,
			uuid.NewString(), courseID, studentID, now())
		return err
	})
}

func (m *Manager) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	var enrolled bool
	err := m.db.GetContext(ctx, &enrolled, `
		SELECT EXISTS (SELECT 1 FROM course_enrollments WHERE course_id = ? AND student_id = ?)`,
		courseID, studentID)
	if err != nil {
		return false, fmt.Errorf("failed to query enrollment: %w", err)
	}
	return enrolled, nil
}

// GetEnrolledStudentIDs returns the audience of course-scoped notices
func (m *Manager) GetEnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error) {
	ids := []string{}
	err := m.db.SelectContext(ctx, &ids,
		`SELECT student_id FROM course_enrollments WHERE course_id = ? ORDER BY enrolled_at`, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrolled students: %w", err)
	}
	return ids, nil
}
