package notify

import (
	"encoding/json"
	"fmt"

	"schoolhub/pkg/types"
)

// Event is one domain occurrence to fan out
// The dispatcher never looks inside Data
type Event struct {
	Kind Kind
	Data any
}

// frame is the outbound wire shape
type frame struct {
	Type Kind `json:"type"`
	Data any  `json:"data"`
}

// Encode serializes the event into its wire frame
func (e Event) Encode() ([]byte, error) {
	if !e.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	data, err := json.Marshal(frame{Type: e.Kind, Data: e.Data})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeEvent, err)
	}
	return data, nil
}

// Typed constructors, one per kind.
// FUNCTIONAL DISCOVERY: The payload of every kind is the row that was just written

func CourseEvent(c *types.Course) Event {
	return Event{Kind: KindNewCourse, Data: c}
}

func AssignmentEvent(a *types.Assignment) Event {
	return Event{Kind: KindNewAssignment, Data: a}
}

func AnnouncementEvent(a *types.Announcement) Event {
	return Event{Kind: KindNewAnnouncement, Data: a}
}

// GradeEvent carries the graded submission, including grade and feedback
func GradeEvent(s *types.Submission) Event {
	return Event{Kind: KindGradeUpdated, Data: s}
}

func TimetableEvent(e *types.TimetableEntry) Event {
	return Event{Kind: KindTimetableUpdated, Data: e}
}

func SubmissionEvent(s *types.Submission) Event {
	return Event{Kind: KindNewSubmission, Data: s}
}

func MessageEvent(m *types.DirectMessage) Event {
	return Event{Kind: KindNewMessage, Data: m}
}

func MeetingEvent(m *types.Meeting) Event {
	return Event{Kind: KindNewMeeting, Data: m}
}

func CalendarEvent(e *types.SchoolEvent) Event {
	return Event{Kind: KindNewEvent, Data: e}
}
