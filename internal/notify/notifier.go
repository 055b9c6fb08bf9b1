package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"schoolhub/internal/logger"
	"schoolhub/pkg/interfaces"
	"schoolhub/pkg/types"
)

// Publisher hands an event to the fan-out machinery
// Satisfied by *hub.Hub; the returned error only reports that the event was dropped
type Publisher interface {
	Publish(event Event, audience Audience) error
}

// Directory resolves the people an event concerns
// Satisfied by the database manager
type Directory interface {
	GetEnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error)
	GetAssignmentOwner(ctx context.Context, assignmentID string) (*types.AssignmentOwner, error)
}

// NotifierOptions configures the assignment owner cache
type NotifierOptions struct {
	OwnerCacheSize int64         // maximum cached owners
	OwnerCacheTTL  time.Duration // how long an owner stays cached
}

// Notifier maps each domain mutation to its event and audience
// ARCHITECTURAL DISCOVERY: The single place where call sites state privacy intent.
// Personal data is always targeted; broadcast is reserved for public notices
type Notifier struct {
	publisher Publisher
	directory Directory
	owners    *ristretto.Cache[string, *types.AssignmentOwner]
	ownerTTL  time.Duration
	logger    *slog.Logger
}

// NewNotifier creates a notifier publishing through p
func NewNotifier(p Publisher, dir Directory, opts NotifierOptions, log *slog.Logger) (*Notifier, error) {
	if p == nil {
		return nil, ErrNilPublisher
	}
	if dir == nil {
		return nil, ErrNilDirectory
	}
	if opts.OwnerCacheSize <= 0 {
		opts.OwnerCacheSize = 10000
	}
	if opts.OwnerCacheTTL <= 0 {
		opts.OwnerCacheTTL = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}

	// TECHNICAL DISCOVERY: Each owner costs 1, so MaxCost is an entry count
	owners, err := ristretto.NewCache(&ristretto.Config[string, *types.AssignmentOwner]{
		NumCounters:        opts.OwnerCacheSize * 10,
		MaxCost:            opts.OwnerCacheSize,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create owner cache: %w", err)
	}

	return &Notifier{
		publisher: p,
		directory: dir,
		owners:    owners,
		ownerTTL:  opts.OwnerCacheTTL,
		logger:    log.With("component", "notifier"),
	}, nil
}

// Close releases the owner cache
func (n *Notifier) Close() {
	n.owners.Close()
}

// CourseCreated announces a new course to everyone
func (n *Notifier) CourseCreated(ctx context.Context, course *types.Course) {
	n.publish(ctx, CourseEvent(course), All())
}

// TimetableUpdated announces a timetable change to everyone
func (n *Notifier) TimetableUpdated(ctx context.Context, entry *types.TimetableEntry) {
	n.publish(ctx, TimetableEvent(entry), All())
}

// SchoolEventCreated announces a school-wide event to everyone
func (n *Notifier) SchoolEventCreated(ctx context.Context, event *types.SchoolEvent) {
	n.publish(ctx, CalendarEvent(event), All())
}

// AnnouncementPublished broadcasts global announcements; course announcements
// reach the enrolled students and the author only
func (n *Notifier) AnnouncementPublished(ctx context.Context, announcement *types.Announcement) {
	if announcement.IsGlobal || announcement.CourseID == nil {
		n.publish(ctx, AnnouncementEvent(announcement), All())
		return
	}

	students, err := n.directory.GetEnrolledStudentIDs(ctx, *announcement.CourseID)
	if err != nil {
		n.abandon(ctx, KindNewAnnouncement, "enrollment lookup failed", err)
		return
	}
	n.publish(ctx, AnnouncementEvent(announcement), ToUsers(append(students, announcement.AuthorID)...))
}

// AssignmentCreated notifies the students enrolled in the assignment's course
func (n *Notifier) AssignmentCreated(ctx context.Context, assignment *types.Assignment) {
	students, err := n.directory.GetEnrolledStudentIDs(ctx, assignment.CourseID)
	if err != nil {
		n.abandon(ctx, KindNewAssignment, "enrollment lookup failed", err)
		return
	}
	n.publish(ctx, AssignmentEvent(assignment), ToUsers(students...))
}

// GradeUpdated notifies only the graded student
func (n *Notifier) GradeUpdated(ctx context.Context, submission *types.Submission) {
	n.publish(ctx, GradeEvent(submission), ToUsers(submission.StudentID))
}

// SubmissionReceived notifies only the teacher owning the assignment's course
// FUNCTIONAL DISCOVERY: A missing assignment abandons the notice; the submission
// itself has already been stored
func (n *Notifier) SubmissionReceived(ctx context.Context, submission *types.Submission) {
	owner, err := n.assignmentOwner(ctx, submission.AssignmentID)
	if err != nil {
		n.abandon(ctx, KindNewSubmission, "owner lookup failed", err)
		return
	}
	n.publish(ctx, SubmissionEvent(submission), ToUsers(owner.TeacherID))
}

// MessageSent notifies only the receiver
func (n *Notifier) MessageSent(ctx context.Context, message *types.DirectMessage) {
	n.publish(ctx, MessageEvent(message), ToUsers(message.ReceiverID))
}

// MeetingRequested notifies only the addressed teacher or parent
func (n *Notifier) MeetingRequested(ctx context.Context, meeting *types.Meeting) {
	n.publish(ctx, MeetingEvent(meeting), ToUsers(meeting.InviteeID))
}

// assignmentOwner resolves the owning teacher, consulting the cache first
// TECHNICAL DISCOVERY: Only hits are cached; a missing assignment is looked up again next time
func (n *Notifier) assignmentOwner(ctx context.Context, assignmentID string) (*types.AssignmentOwner, error) {
	if owner, ok := n.owners.Get(assignmentID); ok {
		return owner, nil
	}

	owner, err := n.directory.GetAssignmentOwner(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, interfaces.ErrNotFound
	}

	n.owners.SetWithTTL(assignmentID, owner, 1, n.ownerTTL)
	return owner, nil
}

func (n *Notifier) publish(ctx context.Context, event Event, audience Audience) {
	log := logger.FromContext(ctx, n.logger)
	if audience.Empty() {
		log.Debug("notification has no recipients", "kind", event.Kind)
		return
	}
	if err := n.publisher.Publish(event, audience); err != nil {
		log.Warn("notification dropped", "kind", event.Kind, "audience", audience.String(), "error", err)
	}
}

func (n *Notifier) abandon(ctx context.Context, kind Kind, reason string, err error) {
	log := logger.FromContext(ctx, n.logger)
	if errors.Is(err, interfaces.ErrNotFound) {
		log.Warn("notification abandoned, referenced entity missing", "kind", kind, "reason", reason)
		return
	}
	log.Error("notification abandoned", "kind", kind, "reason", reason, "error", err)
}
