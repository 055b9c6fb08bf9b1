package notify

// Kind is the closed set of event kinds a client knows how to interpret
// ARCHITECTURAL DISCOVERY: The kind alone selects the client-side handler,
// so an unknown kind is rejected before anything reaches the wire
type Kind string

const (
	KindNewCourse        Kind = "new_course"
	KindNewAssignment    Kind = "new_assignment"
	KindNewAnnouncement  Kind = "new_announcement"
	KindGradeUpdated     Kind = "grade_updated"
	KindTimetableUpdated Kind = "timetable_updated"
	KindNewSubmission    Kind = "new_submission"
	KindNewMessage       Kind = "new_message"
	KindNewMeeting       Kind = "new_meeting"
	KindNewEvent         Kind = "new_event"
)

// Kinds lists every known kind in declaration order
var Kinds = []Kind{
	KindNewCourse,
	KindNewAssignment,
	KindNewAnnouncement,
	KindGradeUpdated,
	KindTimetableUpdated,
	KindNewSubmission,
	KindNewMessage,
	KindNewMeeting,
	KindNewEvent,
}

// ParseKind converts a wire string into a Kind
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", ErrUnknownKind
	}
	return k, nil
}

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k Kind) String() string { return string(k) }
