package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"

	"schoolhub/internal/websocket"
	"schoolhub/pkg/types"
)

// recordingChannel is an in-memory interfaces.Channel
type recordingChannel struct {
	id     string
	mu     sync.Mutex
	frames [][]byte
	broken bool
}

func (c *recordingChannel) ID() string { return c.id }

func (c *recordingChannel) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return errors.New("not writable")
	}
	c.frames = append(c.frames, frame)
	return nil
}

func (c *recordingChannel) Close() error { return nil }

func (c *recordingChannel) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.frames...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// connect registers a channel and, when userID is set, authenticates it
func connect(t *testing.T, r *websocket.Registry, id, userID string, role types.Role) *recordingChannel {
	t.Helper()
	ch := &recordingChannel{id: id}
	if err := r.Register(ch); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if userID != "" {
		if err := r.Authenticate(ch, userID, role); err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
	}
	return ch
}

func newTestDispatcher(t *testing.T, r *websocket.Registry) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(r, testLogger())
	if err != nil {
		t.Fatalf("NewDispatcher failed: %v", err)
	}
	return d
}

func TestNewDispatcher_NilRegistry(t *testing.T) {
	if _, err := NewDispatcher(nil, nil); !errors.Is(err, ErrNilRegistry) {
		t.Errorf("Expected ErrNilRegistry, got %v", err)
	}
}

func TestDispatch_GradeReachesOnlyTargetedUser(t *testing.T) {
	registry := websocket.NewRegistry()
	a := connect(t, registry, "A", "u1", types.RoleTeacher)
	b := connect(t, registry, "B", "u2", types.RoleStudent)
	d := newTestDispatcher(t, registry)

	event := Event{Kind: KindGradeUpdated, Data: map[string]any{"grade": 90}}
	result, err := d.Dispatch(context.Background(), event, ToUsers("u2"))
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if got := len(b.received()); got != 1 {
		t.Errorf("Expected B to receive 1 frame, got %d", got)
	}
	if got := len(a.received()); got != 0 {
		t.Errorf("Expected A to receive nothing, got %d frames", got)
	}
	if result != (Result{Matched: 1, Delivered: 1}) {
		t.Errorf("Unexpected result %+v", result)
	}
}

func TestDispatch_UnauthenticatedReceivesOnlyAll(t *testing.T) {
	registry := websocket.NewRegistry()
	c := connect(t, registry, "C", "", "")
	d := newTestDispatcher(t, registry)
	ctx := context.Background()

	if _, err := d.Dispatch(ctx, Event{Kind: KindGradeUpdated, Data: 1}, ToUsers("u1", "u2")); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Dispatch(ctx, Event{Kind: KindNewMessage, Data: 1}, ToRoles(types.RoleStudent, types.RoleTeacher, types.RoleParent)); err != nil {
		t.Fatal(err)
	}
	if got := len(c.received()); got != 0 {
		t.Fatalf("Unauthenticated channel must not match targeted audiences, got %d frames", got)
	}

	if _, err := d.Dispatch(ctx, Event{Kind: KindNewCourse, Data: map[string]any{"title": "X"}}, All()); err != nil {
		t.Fatal(err)
	}
	frames := c.received()
	if len(frames) != 1 {
		t.Fatalf("Expected 1 frame from All audience, got %d", len(frames))
	}
	var decoded struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(frames[0], &decoded); err != nil {
		t.Fatalf("Frame is not JSON: %v", err)
	}
	if decoded.Type != "new_course" || decoded.Data["title"] != "X" {
		t.Errorf("Unexpected frame %s", frames[0])
	}
}

func TestDispatch_UserSetPrivacyInvariant(t *testing.T) {
	registry := websocket.NewRegistry()
	channels := map[string]*recordingChannel{}
	for i := 0; i < 40; i++ {
		userID := fmt.Sprintf("u%d", i)
		role := []types.Role{types.RoleStudent, types.RoleTeacher, types.RoleParent}[i%3]
		channels[userID] = connect(t, registry, "c"+userID, userID, role)
	}
	// Unauthenticated channels never match
	anon := connect(t, registry, "anon", "", "")
	d := newTestDispatcher(t, registry)

	targets := map[string]bool{"u3": true, "u17": true, "u39": true, "ghost": true}
	result, err := d.Dispatch(context.Background(), Event{Kind: KindNewSubmission, Data: "x"}, ToUsers("u3", "u17", "u39", "ghost"))
	if err != nil {
		t.Fatal(err)
	}

	for userID, ch := range channels {
		got := len(ch.received())
		if targets[userID] && got != 1 {
			t.Errorf("Target %s expected 1 frame, got %d", userID, got)
		}
		if !targets[userID] && got != 0 {
			t.Errorf("Non-target %s received %d frames", userID, got)
		}
	}
	if len(anon.received()) != 0 {
		t.Error("Unauthenticated channel received a targeted frame")
	}
	if result.Matched != 3 || result.Delivered != 3 {
		t.Errorf("Unexpected result %+v", result)
	}
}

func TestDispatch_RoleSet(t *testing.T) {
	registry := websocket.NewRegistry()
	teacher := connect(t, registry, "T", "t1", types.RoleTeacher)
	parent := connect(t, registry, "P", "p1", types.RoleParent)
	student := connect(t, registry, "S", "s1", types.RoleStudent)
	d := newTestDispatcher(t, registry)

	if _, err := d.Dispatch(context.Background(), Event{Kind: KindNewEvent, Data: "x"}, ToRoles(types.RoleTeacher, types.RoleParent)); err != nil {
		t.Fatal(err)
	}

	if len(teacher.received()) != 1 || len(parent.received()) != 1 {
		t.Error("Teacher and parent should receive role-targeted frame")
	}
	if len(student.received()) != 0 {
		t.Error("Student should not receive frame targeted at other roles")
	}
}

func TestDispatch_SkipsBrokenChannelAndContinues(t *testing.T) {
	registry := websocket.NewRegistry()
	healthy1 := connect(t, registry, "h1", "", "")
	broken := connect(t, registry, "b", "", "")
	broken.broken = true
	healthy2 := connect(t, registry, "h2", "", "")
	d := newTestDispatcher(t, registry)

	result, err := d.Dispatch(context.Background(), Event{Kind: KindNewCourse, Data: "x"}, All())
	if err != nil {
		t.Fatalf("Per-channel failure must not surface, got %v", err)
	}

	if len(healthy1.received()) != 1 || len(healthy2.received()) != 1 {
		t.Error("Healthy channels should receive the frame despite a broken peer")
	}
	if result != (Result{Matched: 3, Delivered: 2, Skipped: 1}) {
		t.Errorf("Unexpected result %+v", result)
	}
}

func TestDispatch_AfterDisconnectDeliversToNobody(t *testing.T) {
	registry := websocket.NewRegistry()
	ch := connect(t, registry, "D", "u3", types.RoleStudent)
	registry.Deregister(ch)
	d := newTestDispatcher(t, registry)

	result, err := d.Dispatch(context.Background(), Event{Kind: KindGradeUpdated, Data: 1}, ToUsers("u3"))
	if err != nil {
		t.Fatalf("Dispatch to a departed user must not fail, got %v", err)
	}
	if result.Matched != 0 || len(ch.received()) != 0 {
		t.Errorf("Expected no delivery, got %+v", result)
	}
	if registry.Contains(ch) {
		t.Error("Registry should no longer contain the departed channel")
	}
}

func TestDispatch_UnknownKindSendsNothing(t *testing.T) {
	registry := websocket.NewRegistry()
	ch := connect(t, registry, "c", "", "")
	d := newTestDispatcher(t, registry)

	_, err := d.Dispatch(context.Background(), Event{Kind: "timetable_update", Data: 1}, All())
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind, got %v", err)
	}
	if len(ch.received()) != 0 {
		t.Error("Nothing should be sent for an unknown kind")
	}
}

func TestDispatch_UnencodablePayload(t *testing.T) {
	registry := websocket.NewRegistry()
	ch := connect(t, registry, "c", "", "")
	d := newTestDispatcher(t, registry)

	_, err := d.Dispatch(context.Background(), Event{Kind: KindNewCourse, Data: make(chan int)}, All())
	if !errors.Is(err, ErrEncodeEvent) {
		t.Errorf("Expected ErrEncodeEvent, got %v", err)
	}
	if len(ch.received()) != 0 {
		t.Error("Nothing should be sent when encoding fails")
	}
}

func TestDispatch_RoundTripIdenticalForEveryRecipient(t *testing.T) {
	registry := websocket.NewRegistry()
	a := connect(t, registry, "a", "u1", types.RoleStudent)
	b := connect(t, registry, "b", "u2", types.RoleStudent)
	d := newTestDispatcher(t, registry)

	payload := map[string]any{
		"id":    "sub-1",
		"grade": float64(87),
		"tags":  []any{"late", "resubmitted"},
	}
	if _, err := d.Dispatch(context.Background(), Event{Kind: KindGradeUpdated, Data: payload}, ToUsers("u1", "u2")); err != nil {
		t.Fatal(err)
	}

	for name, ch := range map[string]*recordingChannel{"a": a, "b": b} {
		frames := ch.received()
		if len(frames) != 1 {
			t.Fatalf("%s: expected 1 frame, got %d", name, len(frames))
		}
		var decoded struct {
			Type string         `json:"type"`
			Data map[string]any `json:"data"`
		}
		if err := json.Unmarshal(frames[0], &decoded); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if decoded.Type != string(KindGradeUpdated) {
			t.Errorf("%s: expected type grade_updated, got %s", name, decoded.Type)
		}
		if !reflect.DeepEqual(decoded.Data, payload) {
			t.Errorf("%s: payload mismatch: %v", name, decoded.Data)
		}
	}
	if string(a.received()[0]) != string(b.received()[0]) {
		t.Error("Every recipient should receive byte-identical frames")
	}
}

func TestDispatch_EmptyAudience(t *testing.T) {
	registry := websocket.NewRegistry()
	ch := connect(t, registry, "c", "u1", types.RoleStudent)
	d := newTestDispatcher(t, registry)

	for name, audience := range map[string]Audience{
		"zero":      {},
		"no users":  ToUsers(),
		"no roles":  ToRoles(),
		"blank ids": ToUsers(""),
	} {
		result, err := d.Dispatch(context.Background(), Event{Kind: KindNewMessage, Data: 1}, audience)
		if err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
		}
		if result.Matched != 0 {
			t.Errorf("%s: expected no matches, got %+v", name, result)
		}
	}
	if len(ch.received()) != 0 {
		t.Error("Empty audiences must deliver to nobody")
	}
}

func TestDispatch_ConcurrentWithRegistryChurn(t *testing.T) {
	registry := websocket.NewRegistry()
	d := newTestDispatcher(t, registry)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			ch := &recordingChannel{id: fmt.Sprintf("c%d", i)}
			_ = registry.Register(ch)
			_ = registry.Authenticate(ch, fmt.Sprintf("u%d", i), types.RoleStudent)
			registry.Deregister(ch)
		}(i)
		go func() {
			defer wg.Done()
			_, _ = d.Dispatch(context.Background(), Event{Kind: KindNewCourse, Data: "x"}, All())
		}()
	}
	wg.Wait()
}
