package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"schoolhub/internal/database"
	"schoolhub/internal/guard"
	"schoolhub/internal/session"
	dbconfig "schoolhub/pkg/database"
	"schoolhub/pkg/types"
)

// recordingNotifier captures every notice a handler publishes
type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *recordingNotifier) record(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, name)
}

func (n *recordingNotifier) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

func (n *recordingNotifier) CourseCreated(context.Context, *types.Course) { n.record("CourseCreated") }
func (n *recordingNotifier) TimetableUpdated(context.Context, *types.TimetableEntry) {
	n.record("TimetableUpdated")
}
func (n *recordingNotifier) SchoolEventCreated(context.Context, *types.SchoolEvent) {
	n.record("SchoolEventCreated")
}
func (n *recordingNotifier) AnnouncementPublished(context.Context, *types.Announcement) {
	n.record("AnnouncementPublished")
}
func (n *recordingNotifier) AssignmentCreated(context.Context, *types.Assignment) {
	n.record("AssignmentCreated")
}
func (n *recordingNotifier) GradeUpdated(context.Context, *types.Submission) { n.record("GradeUpdated") }
func (n *recordingNotifier) SubmissionReceived(context.Context, *types.Submission) {
	n.record("SubmissionReceived")
}
func (n *recordingNotifier) MessageSent(context.Context, *types.DirectMessage) { n.record("MessageSent") }
func (n *recordingNotifier) MeetingRequested(context.Context, *types.Meeting) {
	n.record("MeetingRequested")
}

type fixture struct {
	server   *Server
	db       *database.Manager
	notifier *recordingNotifier
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	log := testLogger()

	config := dbconfig.DefaultConfig()
	config.DatabasePath = filepath.Join(t.TempDir(), "api.db")
	config.RetryDelay = 10 * time.Millisecond
	db, err := database.NewManager(context.Background(), config, log)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	sessions, err := session.NewManager(db, session.Options{TTL: time.Hour, BcryptCost: bcrypt.MinCost}, log)
	if err != nil {
		t.Fatalf("Failed to create session manager: %v", err)
	}
	accessGuard, err := guard.New(db, log)
	if err != nil {
		t.Fatalf("Failed to create guard: %v", err)
	}

	notifier := &recordingNotifier{}
	server, err := NewServer(Dependencies{
		Store:    db,
		Sessions: sessions,
		Notifier: notifier,
		Guard:    accessGuard,
	}, opts, log)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	return &fixture{server: server, db: db, notifier: notifier}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)
	return w
}

// signUp registers and logs in a user, returning the user and its session token
func (f *fixture) signUp(t *testing.T, username string, role types.Role) (*types.User, string) {
	t.Helper()

	email := username + "@school.test"
	w := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "secret123",
		"role":     string(role),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Register %s: expected 201, got %d: %s", username, w.Code, w.Body.String())
	}

	w = f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": "secret123"})
	if w.Code != http.StatusOK {
		t.Fatalf("Login %s: expected 200, got %d: %s", username, w.Code, w.Body.String())
	}
	resp := decode[AuthResponse](t, w)
	return resp.User, resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode %q: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

// createCourse posts a course as the given teacher
func (f *fixture) createCourse(t *testing.T, token, title string) types.Course {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/courses", token, map[string]string{"title": title})
	expectStatus(t, w, http.StatusCreated)
	return decode[types.Course](t, w)
}

// Architectural Validation Tests
func TestServer_MissingDependencies(t *testing.T) {
	if _, err := NewServer(Dependencies{}, Options{}, nil); err != ErrMissingDependency {
		t.Errorf("Expected ErrMissingDependency, got %v", err)
	}
}

// Functional Validation Tests - Health
func TestServer_HealthCheck(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.do(t, http.MethodGet, "/health", "", nil)
	expectStatus(t, w, http.StatusOK)

	resp := decode[HealthResponse](t, w)
	if resp.Status != "healthy" || resp.Database != "healthy" {
		t.Errorf("Unexpected health response: %+v", resp)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}
}

func TestServer_HealthCheckDatabaseDown(t *testing.T) {
	f := newFixture(t, Options{})
	_ = f.db.Close()

	w := f.do(t, http.MethodGet, "/health", "", nil)
	expectStatus(t, w, http.StatusServiceUnavailable)
}

// Functional Validation Tests - Auth
func TestServer_RegisterLoginMe(t *testing.T) {
	f := newFixture(t, Options{})
	user, token := f.signUp(t, "amy", types.RoleStudent)

	if token == "" {
		t.Fatal("Expected a session token")
	}
	if strings.Contains(user.PasswordHash, "$2") {
		t.Error("Password hash must not be returned")
	}

	w := f.do(t, http.MethodGet, "/api/auth/me", token, nil)
	expectStatus(t, w, http.StatusOK)
	me := decode[types.User](t, w)
	if me.ID != user.ID || me.Role != types.RoleStudent {
		t.Errorf("Expected %s/student, got %s/%s", user.ID, me.ID, me.Role)
	}

	w = f.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	expectStatus(t, w, http.StatusNoContent)

	w = f.do(t, http.MethodGet, "/api/auth/me", token, nil)
	expectStatus(t, w, http.StatusUnauthorized)
}

func TestServer_RegisterValidation(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "amy",
		"email":    "not-an-email",
		"password": "secret123",
		"role":     "admin",
	})
	expectStatus(t, w, http.StatusBadRequest)

	resp := decode[ErrorResponse](t, w)
	fields := map[string]bool{}
	for _, fe := range resp.Fields {
		fields[fe.Field] = true
	}
	if !fields["email"] || !fields["role"] {
		t.Errorf("Expected email and role field errors, got %+v", resp.Fields)
	}
}

func TestServer_RegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t, Options{})
	f.signUp(t, "amy", types.RoleStudent)

	w := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "amy2",
		"email":    "amy@school.test",
		"password": "secret123",
		"role":     "student",
	})
	expectStatus(t, w, http.StatusConflict)
}

func TestServer_LoginWrongPassword(t *testing.T) {
	f := newFixture(t, Options{})
	f.signUp(t, "amy", types.RoleStudent)

	w := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "amy@school.test", "password": "wrong-pass"})
	expectStatus(t, w, http.StatusUnauthorized)
}

func TestServer_MalformedBody(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.do(t, http.MethodPost, "/api/auth/login", "", "{not json")
	expectStatus(t, w, http.StatusBadRequest)
}

// Functional Validation Tests - Middleware
func TestServer_RequiresAuthentication(t *testing.T) {
	f := newFixture(t, Options{})

	for _, path := range []string{"/api/courses", "/api/announcements", "/api/children"} {
		w := f.do(t, http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, w.Code)
		}
	}

	w := f.do(t, http.MethodGet, "/api/courses", "bogus-token", nil)
	expectStatus(t, w, http.StatusUnauthorized)
}

func TestServer_QueryTokenAccepted(t *testing.T) {
	f := newFixture(t, Options{})
	_, token := f.signUp(t, "amy", types.RoleStudent)

	w := f.do(t, http.MethodGet, "/api/auth/me?token="+token, "", nil)
	expectStatus(t, w, http.StatusOK)
}

func TestServer_RoleRestriction(t *testing.T) {
	f := newFixture(t, Options{})
	_, student := f.signUp(t, "amy", types.RoleStudent)
	_, parent := f.signUp(t, "pat", types.RoleParent)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
	}{
		{"student creates course", http.MethodPost, "/api/courses", student, map[string]string{"title": "X"}},
		{"student grades", http.MethodPost, "/api/submissions/s1/grade", student, map[string]int{"grade": 90}},
		{"parent lists courses", http.MethodGet, "/api/courses", parent, nil},
		{"student lists children", http.MethodGet, "/api/children", student, nil},
		{"student analytics", http.MethodGet, "/api/analytics/teacher", student, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, tt.method, tt.path, tt.token, tt.body)
			expectStatus(t, w, http.StatusForbidden)
		})
	}
	if got := f.notifier.names(); len(got) != 0 {
		t.Errorf("Rejected requests must not notify, got %v", got)
	}
}

func TestServer_RequestIDPropagated(t *testing.T) {
	f := newFixture(t, Options{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(headerRequestID, "req-123")
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)

	if got := w.Header().Get(headerRequestID); got != "req-123" {
		t.Errorf("Expected request id echoed, got %q", got)
	}

	w = f.do(t, http.MethodGet, "/health", "", nil)
	if w.Header().Get(headerRequestID) == "" {
		t.Error("Expected a generated request id")
	}
}

func TestServer_CORS(t *testing.T) {
	f := newFixture(t, Options{AllowedOrigins: []string{"https://dash.school.test"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/courses", nil)
	req.Header.Set("Origin", "https://dash.school.test")
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)

	expectStatus(t, w, http.StatusNoContent)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.school.test" {
		t.Errorf("Expected allowed origin echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/courses", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	f.server.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Unlisted origin must not be allowed, got %q", got)
	}
}

func TestServer_RateLimitMutations(t *testing.T) {
	f := newFixture(t, Options{RequestsPerMinute: 2})
	_, teacher := f.signUp(t, "tom", types.RoleTeacher)

	f.createCourse(t, teacher, "One")
	f.createCourse(t, teacher, "Two")

	w := f.do(t, http.MethodPost, "/api/courses", teacher, map[string]string{"title": "Three"})
	expectStatus(t, w, http.StatusTooManyRequests)
	if w.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}

	// Reads are not rate limited
	w = f.do(t, http.MethodGet, "/api/courses", teacher, nil)
	expectStatus(t, w, http.StatusOK)
}

func TestServer_UnknownRoute(t *testing.T) {
	f := newFixture(t, Options{})

	w := f.do(t, http.MethodGet, "/api/nope", "", nil)
	expectStatus(t, w, http.StatusNotFound)
	if resp := decode[ErrorResponse](t, w); resp.Code != http.StatusNotFound {
		t.Errorf("Expected JSON 404 body, got %+v", resp)
	}
}

// Functional Validation Tests - Course and assignment flow
func TestServer_AssignmentLifecycleNotifiesAfterCommit(t *testing.T) {
	f := newFixture(t, Options{})
	_, teacher := f.signUp(t, "tom", types.RoleTeacher)
	student, studentToken := f.signUp(t, "amy", types.RoleStudent)

	course := f.createCourse(t, teacher, "Algebra")

	w := f.do(t, http.MethodPost, "/api/courses/"+course.ID+"/enroll", studentToken, nil)
	expectStatus(t, w, http.StatusOK)

	w = f.do(t, http.MethodPost, "/api/assignments", teacher, map[string]any{
		"courseId": course.ID,
		"title":    "Homework 1",
		"dueDate":  time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	expectStatus(t, w, http.StatusCreated)
	assignment := decode[types.Assignment](t, w)
	if assignment.MaxPoints != defaultMaxPoints {
		t.Errorf("Expected default max points, got %d", assignment.MaxPoints)
	}

	w = f.do(t, http.MethodGet, "/api/courses/"+course.ID+"/assignments", studentToken, nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[[]types.Assignment](t, w); len(got) != 1 {
		t.Errorf("Expected 1 course assignment, got %d", len(got))
	}

	w = f.do(t, http.MethodPost, "/api/assignments/"+assignment.ID+"/submit", studentToken, map[string]string{"content": "x = 4"})
	expectStatus(t, w, http.StatusCreated)
	submission := decode[types.Submission](t, w)
	if submission.StudentID != student.ID || submission.Status != types.SubmissionSubmitted {
		t.Errorf("Unexpected submission: %+v", submission)
	}

	w = f.do(t, http.MethodPost, "/api/submissions/"+submission.ID+"/grade", teacher, map[string]any{"grade": 92, "feedback": "Nice"})
	expectStatus(t, w, http.StatusOK)
	if graded := decode[types.Submission](t, w); graded.Status != types.SubmissionGraded || graded.Grade == nil || *graded.Grade != 92 {
		t.Errorf("Unexpected graded submission: %+v", graded)
	}

	w = f.do(t, http.MethodGet, "/api/assignments", studentToken, nil)
	expectStatus(t, w, http.StatusOK)
	list := decode[[]types.StudentAssignment](t, w)
	if len(list) != 1 || list[0].Status == nil || *list[0].Status != types.SubmissionGraded {
		t.Errorf("Expected graded assignment in student list, got %+v", list)
	}

	want := []string{"CourseCreated", "AssignmentCreated", "SubmissionReceived", "GradeUpdated"}
	got := f.notifier.names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected notices %v, got %v", want, got)
	}

	w = f.do(t, http.MethodGet, "/api/analytics/teacher", teacher, nil)
	expectStatus(t, w, http.StatusOK)
	if analytics := decode[types.TeacherAnalytics](t, w); analytics.TotalStudents != 1 || analytics.AssignmentsGraded != 1 {
		t.Errorf("Unexpected analytics: %+v", analytics)
	}
}

func TestServer_ForeignCourseAndSubmissionForbidden(t *testing.T) {
	f := newFixture(t, Options{})
	_, owner := f.signUp(t, "tom", types.RoleTeacher)
	_, other := f.signUp(t, "tina", types.RoleTeacher)
	_, student := f.signUp(t, "amy", types.RoleStudent)
	_, outsider := f.signUp(t, "bob", types.RoleStudent)

	course := f.createCourse(t, owner, "Algebra")
	f.do(t, http.MethodPost, "/api/courses/"+course.ID+"/enroll", student, nil)

	w := f.do(t, http.MethodPost, "/api/assignments", other, map[string]any{
		"courseId": course.ID,
		"title":    "Hijack",
		"dueDate":  time.Now().Format(time.RFC3339),
	})
	expectStatus(t, w, http.StatusForbidden)

	w = f.do(t, http.MethodPost, "/api/assignments", owner, map[string]any{
		"courseId": course.ID,
		"title":    "Homework",
		"dueDate":  time.Now().Format(time.RFC3339),
	})
	expectStatus(t, w, http.StatusCreated)
	assignment := decode[types.Assignment](t, w)

	w = f.do(t, http.MethodPost, "/api/assignments/"+assignment.ID+"/submit", outsider, map[string]string{"content": "let me in"})
	expectStatus(t, w, http.StatusForbidden)

	w = f.do(t, http.MethodGet, "/api/courses/"+course.ID+"/assignments", outsider, nil)
	expectStatus(t, w, http.StatusForbidden)

	w = f.do(t, http.MethodPost, "/api/assignments/"+assignment.ID+"/submit", student, map[string]string{"content": "done"})
	expectStatus(t, w, http.StatusCreated)
	submission := decode[types.Submission](t, w)

	w = f.do(t, http.MethodPost, "/api/submissions/"+submission.ID+"/grade", other, map[string]int{"grade": 10})
	expectStatus(t, w, http.StatusForbidden)

	for _, name := range f.notifier.names() {
		if name == "GradeUpdated" {
			t.Error("Rejected grade must not publish a notice")
		}
	}
}

func TestServer_MissingEntities(t *testing.T) {
	f := newFixture(t, Options{})
	_, teacher := f.signUp(t, "tom", types.RoleTeacher)
	_, student := f.signUp(t, "amy", types.RoleStudent)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
	}{
		{"enroll unknown course", http.MethodPost, "/api/courses/missing/enroll", student, nil},
		{"assignment on unknown course", http.MethodPost, "/api/assignments", teacher, map[string]any{
			"courseId": "missing", "title": "X", "dueDate": time.Now().Format(time.RFC3339),
		}},
		{"submit unknown assignment", http.MethodPost, "/api/assignments/missing/submit", student, map[string]string{"content": "x"}},
		{"grade unknown submission", http.MethodPost, "/api/submissions/missing/grade", teacher, map[string]int{"grade": 50}},
		{"message unknown receiver", http.MethodPost, "/api/messages", student, map[string]string{"receiverId": "missing", "content": "hi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, tt.method, tt.path, tt.token, tt.body)
			expectStatus(t, w, http.StatusNotFound)
		})
	}
	if got := f.notifier.names(); len(got) != 0 {
		t.Errorf("Failed mutations must not notify, got %v", got)
	}
}

// Functional Validation Tests - Feed
func TestServer_Announcements(t *testing.T) {
	f := newFixture(t, Options{})
	_, teacher := f.signUp(t, "tom", types.RoleTeacher)
	_, student := f.signUp(t, "amy", types.RoleStudent)
	course := f.createCourse(t, teacher, "Algebra")

	w := f.do(t, http.MethodPost, "/api/announcements", teacher, map[string]any{"title": "Hi", "content": "Welcome"})
	expectStatus(t, w, http.StatusBadRequest)

	w = f.do(t, http.MethodPost, "/api/announcements", teacher, map[string]any{"title": "School", "content": "Closed", "isGlobal": true})
	expectStatus(t, w, http.StatusCreated)

	w = f.do(t, http.MethodPost, "/api/announcements", teacher, map[string]any{"title": "Quiz", "content": "Friday", "courseId": course.ID})
	expectStatus(t, w, http.StatusCreated)

	w = f.do(t, http.MethodGet, "/api/announcements", student, nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[[]types.Announcement](t, w); len(got) != 1 {
		t.Errorf("Unenrolled student should see only the global notice, got %d", len(got))
	}

	f.do(t, http.MethodPost, "/api/courses/"+course.ID+"/enroll", student, nil)
	w = f.do(t, http.MethodGet, "/api/announcements", student, nil)
	if got := decode[[]types.Announcement](t, w); len(got) != 2 {
		t.Errorf("Enrolled student should see both notices, got %d", len(got))
	}
}

func TestServer_Timetable(t *testing.T) {
	f := newFixture(t, Options{})
	_, teacher := f.signUp(t, "tom", types.RoleTeacher)
	_, student := f.signUp(t, "amy", types.RoleStudent)
	course := f.createCourse(t, teacher, "Algebra")

	entry := func(day int, start, end string) map[string]any {
		return map[string]any{"courseId": course.ID, "title": "Lecture", "dayOfWeek": day, "startTime": start, "endTime": end}
	}

	expectStatus(t, f.do(t, http.MethodPost, "/api/timetable", teacher, entry(7, "09:00", "10:00")), http.StatusBadRequest)
	expectStatus(t, f.do(t, http.MethodPost, "/api/timetable", teacher, entry(1, "9am", "10:00")), http.StatusBadRequest)
	expectStatus(t, f.do(t, http.MethodPost, "/api/timetable", teacher, entry(1, "10:00", "09:00")), http.StatusBadRequest)

	// Sunday is day zero and must not be treated as missing
	expectStatus(t, f.do(t, http.MethodPost, "/api/timetable", teacher, entry(0, "09:00", "10:00")), http.StatusCreated)

	f.do(t, http.MethodPost, "/api/courses/"+course.ID+"/enroll", student, nil)
	w := f.do(t, http.MethodGet, "/api/timetable", student, nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[[]types.TimetableEntry](t, w); len(got) != 1 || got[0].DayOfWeek != 0 {
		t.Errorf("Expected one Sunday entry, got %+v", got)
	}
}

func TestServer_MessagesMeetingsEvents(t *testing.T) {
	f := newFixture(t, Options{})
	teacherUser, teacher := f.signUp(t, "tom", types.RoleTeacher)
	studentUser, student := f.signUp(t, "amy", types.RoleStudent)
	_, parent := f.signUp(t, "pat", types.RoleParent)

	w := f.do(t, http.MethodPost, "/api/messages", student, map[string]string{"receiverId": teacherUser.ID, "content": "Question"})
	expectStatus(t, w, http.StatusCreated)

	w = f.do(t, http.MethodPost, "/api/meetings", parent, map[string]any{
		"inviteeId":   studentUser.ID,
		"topic":       "Progress",
		"scheduledAt": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	expectStatus(t, w, http.StatusBadRequest)

	// Unlinked parents cannot raise a meeting about a child
	w = f.do(t, http.MethodPost, "/api/meetings", parent, map[string]any{
		"inviteeId":   teacherUser.ID,
		"studentId":   studentUser.ID,
		"topic":       "Progress",
		"scheduledAt": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	expectStatus(t, w, http.StatusForbidden)

	w = f.do(t, http.MethodPost, "/api/meetings", parent, map[string]any{
		"inviteeId":   teacherUser.ID,
		"topic":       "Progress",
		"scheduledAt": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	expectStatus(t, w, http.StatusCreated)

	w = f.do(t, http.MethodPost, "/api/events", teacher, map[string]any{
		"title":    "Sports day",
		"startsAt": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	expectStatus(t, w, http.StatusCreated)

	want := "MessageSent,MeetingRequested,SchoolEventCreated"
	if got := strings.Join(f.notifier.names(), ","); got != want {
		t.Errorf("Expected notices %s, got %s", want, got)
	}
}

func TestServer_EmotionsArePrivate(t *testing.T) {
	f := newFixture(t, Options{})
	_, student := f.signUp(t, "amy", types.RoleStudent)

	expectStatus(t, f.do(t, http.MethodPost, "/api/emotions", student, map[string]any{"emotion": "bored", "intensity": 3}), http.StatusBadRequest)
	expectStatus(t, f.do(t, http.MethodPost, "/api/emotions", student, map[string]any{"emotion": "happy", "intensity": 11}), http.StatusBadRequest)
	expectStatus(t, f.do(t, http.MethodPost, "/api/emotions", student, map[string]any{"emotion": "focused", "intensity": 7}), http.StatusCreated)

	w := f.do(t, http.MethodGet, "/api/emotions", student, nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[[]types.EmotionEntry](t, w); len(got) != 1 {
		t.Errorf("Expected 1 emotion entry, got %d", len(got))
	}
	if got := f.notifier.names(); len(got) != 0 {
		t.Errorf("Emotion check-ins must not publish notices, got %v", got)
	}
}

// Functional Validation Tests - Guarded child reads
func TestServer_ChildReadsRequireParentLink(t *testing.T) {
	f := newFixture(t, Options{})
	parentUser, parent := f.signUp(t, "pat", types.RoleParent)
	_, otherParent := f.signUp(t, "quinn", types.RoleParent)
	child, childToken := f.signUp(t, "amy", types.RoleStudent)

	expectStatus(t, f.do(t, http.MethodPost, "/api/emotions", childToken, map[string]any{"emotion": "stressed", "intensity": 8}), http.StatusCreated)

	for _, suffix := range []string{"courses", "assignments", "emotions"} {
		w := f.do(t, http.MethodGet, "/api/children/"+child.ID+"/"+suffix, parent, nil)
		if w.Code != http.StatusForbidden {
			t.Errorf("Unlinked %s read: expected 403, got %d", suffix, w.Code)
		}
	}

	if _, err := f.db.LinkParentChild(context.Background(), parentUser.ID, child.ID); err != nil {
		t.Fatalf("LinkParentChild failed: %v", err)
	}

	w := f.do(t, http.MethodGet, "/api/children/"+child.ID+"/emotions", parent, nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[[]types.EmotionEntry](t, w); len(got) != 1 || got[0].Emotion != types.EmotionStressed {
		t.Errorf("Expected the child's emotion entry, got %+v", got)
	}

	w = f.do(t, http.MethodGet, "/api/children/"+child.ID+"/courses", parent, nil)
	expectStatus(t, w, http.StatusOK)

	w = f.do(t, http.MethodGet, "/api/children", parent, nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[[]types.User](t, w); len(got) != 1 || got[0].ID != child.ID {
		t.Errorf("Expected one linked child, got %+v", got)
	}

	// A link belongs to one parent only
	w = f.do(t, http.MethodGet, "/api/children/"+child.ID+"/emotions", otherParent, nil)
	expectStatus(t, w, http.StatusForbidden)

	w = f.do(t, http.MethodGet, "/api/children/bad%20id/emotions", parent, nil)
	expectStatus(t, w, http.StatusForbidden)
}
