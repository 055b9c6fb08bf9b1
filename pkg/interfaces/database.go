package interfaces

import (
	"context"
	"time"

	"schoolhub/pkg/types"
)

// DatabaseManager handles all database operations
// ARCHITECTURAL DISCOVERY: Single interface for all persistence operations
// enables consistent transaction handling and connection management
type DatabaseManager interface {
	// User operations
	CreateUser(ctx context.Context, user *types.User) error
	GetUser(ctx context.Context, userID string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)

	// Parent-child relationship
	// FUNCTIONAL DISCOVERY: Links are created administratively and only read
	// by the access guard, which re-checks them on every request
	LinkParentChild(ctx context.Context, parentID, childID string) (*types.ParentChildLink, error)
	IsParentOf(ctx context.Context, parentID, childID string) (bool, error)
	GetChildrenByParent(ctx context.Context, parentID string) ([]*types.User, error)

	// Course operations
	CreateCourse(ctx context.Context, course *types.Course) error
	GetCourse(ctx context.Context, courseID string) (*types.Course, error)
	GetCoursesByTeacher(ctx context.Context, teacherID string) ([]*types.Course, error)
	GetCoursesByStudent(ctx context.Context, studentID string) ([]*types.StudentCourse, error)
	EnrollStudent(ctx context.Context, courseID, studentID string) error
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
	GetEnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error)

	// Assignment operations
	CreateAssignment(ctx context.Context, assignment *types.Assignment) error
	GetAssignmentOwner(ctx context.Context, assignmentID string) (*types.AssignmentOwner, error)
	GetAssignmentsByCourse(ctx context.Context, courseID string) ([]*types.Assignment, error)
	GetAssignmentsByStudent(ctx context.Context, studentID string) ([]*types.StudentAssignment, error)
	GetAssignmentsByTeacher(ctx context.Context, teacherID string) ([]*types.TeacherAssignment, error)

	// Submission operations
	SubmitAssignment(ctx context.Context, submission *types.Submission) error
	GetSubmission(ctx context.Context, submissionID string) (*types.Submission, error)
	GradeSubmission(ctx context.Context, submissionID string, grade int, feedback string) (*types.Submission, error)

	// Announcements and timetable
	CreateAnnouncement(ctx context.Context, announcement *types.Announcement) error
	GetAnnouncementsForUser(ctx context.Context, userID string) ([]*types.Announcement, error)
	CreateTimetableEntry(ctx context.Context, entry *types.TimetableEntry) error
	GetTimetableForUser(ctx context.Context, userID string) ([]*types.TimetableEntry, error)

	// Emotion tracking
	CreateEmotionEntry(ctx context.Context, entry *types.EmotionEntry) error
	GetEmotionsByStudent(ctx context.Context, studentID string) ([]*types.EmotionEntry, error)

	// Messaging, meetings and school events
	CreateDirectMessage(ctx context.Context, message *types.DirectMessage) error
	CreateMeeting(ctx context.Context, meeting *types.Meeting) error
	CreateSchoolEvent(ctx context.Context, event *types.SchoolEvent) error

	// Dashboard analytics
	GetTeacherAnalytics(ctx context.Context, teacherID string) (*types.TeacherAnalytics, error)

	// Login sessions
	CreateSession(ctx context.Context, session *types.Session) error
	GetSession(ctx context.Context, token string) (*types.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// Health and lifecycle operations
	HealthCheck(ctx context.Context) error
	Close() error
}
