package types

import (
	"encoding/json"
	"time"
)

// Role of an authenticated user
// ARCHITECTURAL DISCOVERY: Roles are a closed set shared by HTTP sessions,
// WebSocket identities and audience selectors
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
)

// Submission status values
const (
	SubmissionPending   = "pending"
	SubmissionSubmitted = "submitted"
	SubmissionGraded    = "graded"
)

// Emotion values recorded by students
const (
	EmotionHappy    = "happy"
	EmotionSad      = "sad"
	EmotionStressed = "stressed"
	EmotionFocused  = "focused"
	EmotionConfused = "confused"
	EmotionExcited  = "excited"
)

// Identity is the (userId, role) pair bound to a channel or HTTP request
type Identity struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// User represents a registered account
// FUNCTIONAL DISCOVERY: PasswordHash never leaves the server
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"firstName" db:"first_name"`
	LastName     string    `json:"lastName" db:"last_name"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Identity returns the identity carried by the user
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Role: u.Role}
}

// ParentChildLink grants a parent read access to a child's records
type ParentChildLink struct {
	ID        string    `json:"id" db:"id"`
	ParentID  string    `json:"parentId" db:"parent_id"`
	ChildID   string    `json:"childId" db:"child_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Course struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	TeacherID   string    `json:"teacherId" db:"teacher_id"`
	Thumbnail   string    `json:"thumbnail,omitempty" db:"thumbnail"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// StudentCourse is a course with the enrolled student's progress
type StudentCourse struct {
	Course
	Progress int `json:"progress" db:"progress"`
}

type Enrollment struct {
	ID         string    `json:"id" db:"id"`
	CourseID   string    `json:"courseId" db:"course_id"`
	StudentID  string    `json:"studentId" db:"student_id"`
	Progress   int       `json:"progress" db:"progress"`
	EnrolledAt time.Time `json:"enrolledAt" db:"enrolled_at"`
}

type Assignment struct {
	ID          string    `json:"id" db:"id"`
	CourseID    string    `json:"courseId" db:"course_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	DueDate     time.Time `json:"dueDate" db:"due_date"`
	MaxPoints   int       `json:"maxPoints" db:"max_points"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// AssignmentOwner joins an assignment with the teacher owning its course
// FUNCTIONAL DISCOVERY: Needed to target new_submission notices at one teacher
type AssignmentOwner struct {
	AssignmentID string `json:"assignmentId" db:"assignment_id"`
	Title        string `json:"title" db:"title"`
	CourseID     string `json:"courseId" db:"course_id"`
	CourseTitle  string `json:"courseTitle" db:"course_title"`
	TeacherID    string `json:"teacherId" db:"teacher_id"`
}

// StudentAssignment is an assignment as seen by one enrolled student
type StudentAssignment struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	DueDate     time.Time  `json:"dueDate" db:"due_date"`
	MaxPoints   int        `json:"maxPoints" db:"max_points"`
	CourseTitle string     `json:"courseTitle" db:"course_title"`
	Status      *string    `json:"status" db:"status"`
	Grade       *int       `json:"grade" db:"grade"`
	SubmittedAt *time.Time `json:"submittedAt" db:"submitted_at"`
}

// TeacherAssignment is an assignment with its submission count
type TeacherAssignment struct {
	ID              string    `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Description     string    `json:"description" db:"description"`
	DueDate         time.Time `json:"dueDate" db:"due_date"`
	MaxPoints       int       `json:"maxPoints" db:"max_points"`
	CourseID        string    `json:"courseId" db:"course_id"`
	CourseTitle     string    `json:"courseTitle" db:"course_title"`
	SubmissionCount int       `json:"submissionCount" db:"submission_count"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
}

type Submission struct {
	ID           string          `json:"id" db:"id"`
	AssignmentID string          `json:"assignmentId" db:"assignment_id"`
	StudentID    string          `json:"studentId" db:"student_id"`
	Content      string          `json:"content" db:"content"`
	Attachments  json.RawMessage `json:"attachments,omitempty" db:"attachments"`
	Status       string          `json:"status" db:"status"`
	Grade        *int            `json:"grade,omitempty" db:"grade"`
	Feedback     *string         `json:"feedback,omitempty" db:"feedback"`
	SubmittedAt  time.Time       `json:"submittedAt" db:"submitted_at"`
	GradedAt     *time.Time      `json:"gradedAt,omitempty" db:"graded_at"`
}

type Announcement struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	AuthorID  string    `json:"authorId" db:"author_id"`
	CourseID  *string   `json:"courseId,omitempty" db:"course_id"`
	IsGlobal  bool      `json:"isGlobal" db:"is_global"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type TimetableEntry struct {
	ID        string    `json:"id" db:"id"`
	CourseID  string    `json:"courseId" db:"course_id"`
	Title     string    `json:"title" db:"title"`
	DayOfWeek int       `json:"dayOfWeek" db:"day_of_week"`
	StartTime string    `json:"startTime" db:"start_time"`
	EndTime   string    `json:"endTime" db:"end_time"`
	Location  string    `json:"location,omitempty" db:"location"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type EmotionEntry struct {
	ID         string    `json:"id" db:"id"`
	StudentID  string    `json:"studentId" db:"student_id"`
	Emotion    string    `json:"emotion" db:"emotion"`
	Intensity  int       `json:"intensity" db:"intensity"`
	Context    string    `json:"context,omitempty" db:"context"`
	DetectedAt time.Time `json:"detectedAt" db:"detected_at"`
}

// DirectMessage is a private message between two users
type DirectMessage struct {
	ID         string    `json:"id" db:"id"`
	SenderID   string    `json:"senderId" db:"sender_id"`
	ReceiverID string    `json:"receiverId" db:"receiver_id"`
	Content    string    `json:"content" db:"content"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Meeting is a parent-teacher meeting request
type Meeting struct {
	ID          string    `json:"id" db:"id"`
	RequesterID string    `json:"requesterId" db:"requester_id"`
	InviteeID   string    `json:"inviteeId" db:"invitee_id"`
	StudentID   *string   `json:"studentId,omitempty" db:"student_id"`
	Topic       string    `json:"topic" db:"topic"`
	ScheduledAt time.Time `json:"scheduledAt" db:"scheduled_at"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// SchoolEvent is a school-wide calendar event
type SchoolEvent struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	StartsAt    time.Time `json:"startsAt" db:"starts_at"`
	CreatedBy   string    `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// ActivityItem is one recent submission shown on the teacher dashboard
type ActivityItem struct {
	SubmissionID    string     `json:"id" db:"submission_id"`
	AssignmentTitle string     `json:"assignmentTitle" db:"assignment_title"`
	StudentName     string     `json:"studentName" db:"student_name"`
	Status          string     `json:"status" db:"status"`
	Grade           *int       `json:"grade" db:"grade"`
	SubmittedAt     time.Time  `json:"submittedAt" db:"submitted_at"`
	GradedAt        *time.Time `json:"gradedAt,omitempty" db:"graded_at"`
}

// TeacherAnalytics summarizes a teacher's courses
type TeacherAnalytics struct {
	TotalStudents     int            `json:"totalStudents"`
	AssignmentsGraded int            `json:"assignmentsGraded"`
	AverageGrade      float64        `json:"averageGrade"`
	RecentActivity    []ActivityItem `json:"recentActivity"`
}

// Session is a login session addressed by an opaque token
type Session struct {
	Token     string    `json:"token" db:"token"`
	UserID    string    `json:"userId" db:"user_id"`
	Role      Role      `json:"role" db:"role"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
}
