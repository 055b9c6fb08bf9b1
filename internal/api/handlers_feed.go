package api

import (
	"net/http"
	"time"

	"schoolhub/pkg/types"
)

type announcementRequest struct {
	Title    string  `json:"title" validate:"required,max=200"`
	Content  string  `json:"content" validate:"required,max=10000"`
	CourseID *string `json:"courseId" validate:"required_without=IsGlobal"`
	IsGlobal bool    `json:"isGlobal"`
}

type timetableRequest struct {
	CourseID  string `json:"courseId" validate:"required"`
	Title     string `json:"title" validate:"required,max=200"`
	DayOfWeek *int   `json:"dayOfWeek" validate:"required,gte=0,lte=6"`
	StartTime string `json:"startTime" validate:"required,datetime=15:04"`
	EndTime   string `json:"endTime" validate:"required,datetime=15:04"`
	Location  string `json:"location" validate:"max=200"`
}

type emotionRequest struct {
	Emotion   string `json:"emotion" validate:"required,oneof=happy sad stressed focused confused excited"`
	Intensity int    `json:"intensity" validate:"required,gte=1,lte=10"`
	Context   string `json:"context" validate:"max=1000"`
}

type messageRequest struct {
	ReceiverID string `json:"receiverId" validate:"required"`
	Content    string `json:"content" validate:"required,max=10000"`
}

type meetingRequest struct {
	InviteeID   string    `json:"inviteeId" validate:"required"`
	StudentID   *string   `json:"studentId" validate:"omitempty,min=1"`
	Topic       string    `json:"topic" validate:"required,max=500"`
	ScheduledAt time.Time `json:"scheduledAt" validate:"required"`
}

type schoolEventRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	StartsAt    time.Time `json:"startsAt" validate:"required"`
}

// GET /api/announcements - global notices plus those of the caller's courses
func (s *Server) listAnnouncements(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	announcements, err := s.store.GetAnnouncementsForUser(r.Context(), identity.UserID)
	if err != nil {
		s.writeDomainError(w, r, err, "announcement")
		return
	}
	writeJSON(w, http.StatusOK, announcements)
}

// POST /api/announcements
func (s *Server) createAnnouncement(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[announcementRequest](s, w, r)
	if !ok {
		return
	}
	identity, _ := identityFrom(r.Context())

	announcement := &types.Announcement{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: identity.UserID,
		IsGlobal: req.IsGlobal,
	}
	// FUNCTIONAL DISCOVERY: A global notice ignores any course it names
	if !req.IsGlobal {
		if _, err := s.authorizeOwnCourse(r.Context(), identity, *req.CourseID); err != nil {
			s.writeDomainError(w, r, err, "course")
			return
		}
		announcement.CourseID = req.CourseID
	}

	if err := s.store.CreateAnnouncement(r.Context(), announcement); err != nil {
		s.writeDomainError(w, r, err, "announcement")
		return
	}

	s.notifier.AnnouncementPublished(r.Context(), announcement)
	writeJSON(w, http.StatusCreated, announcement)
}

// GET /api/timetable
func (s *Server) listTimetable(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	entries, err := s.store.GetTimetableForUser(r.Context(), identity.UserID)
	if err != nil {
		s.writeDomainError(w, r, err, "timetable")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// POST /api/timetable
func (s *Server) createTimetableEntry(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[timetableRequest](s, w, r)
	if !ok {
		return
	}
	identity, _ := identityFrom(r.Context())

	entry := &types.TimetableEntry{
		CourseID:  req.CourseID,
		Title:     req.Title,
		DayOfWeek: *req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Location:  req.Location,
	}
	if err := entry.Validate(); err != nil {
		s.writeDomainError(w, r, err, "timetable")
		return
	}
	if entry.EndTime <= entry.StartTime {
		writeError(w, http.StatusBadRequest, "endTime must be after startTime")
		return
	}
	if _, err := s.authorizeOwnCourse(r.Context(), identity, req.CourseID); err != nil {
		s.writeDomainError(w, r, err, "course")
		return
	}

	if err := s.store.CreateTimetableEntry(r.Context(), entry); err != nil {
		s.writeDomainError(w, r, err, "timetable")
		return
	}

	s.notifier.TimetableUpdated(r.Context(), entry)
	writeJSON(w, http.StatusCreated, entry)
}

// GET /api/emotions - the calling student's latest check-ins
func (s *Server) listEmotions(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFrom(r.Context())

	entries, err := s.store.GetEmotionsByStudent(r.Context(), identity.UserID)
	if err != nil {
		s.writeDomainError(w, r, err, "emotion")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// POST /api/emotions
// FUNCTIONAL DISCOVERY: Emotion check-ins are private and publish no notice
func (s *Server) recordEmotion(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[emotionRequest](s, w, r)
	if !ok {
		return
	}
	identity, _ := identityFrom(r.Context())

	entry := &types.EmotionEntry{
		StudentID: identity.UserID,
		Emotion:   req.Emotion,
		Intensity: req.Intensity,
		Context:   req.Context,
	}
	if err := entry.Validate(); err != nil {
		s.writeDomainError(w, r, err, "emotion")
		return
	}
	if err := s.store.CreateEmotionEntry(r.Context(), entry); err != nil {
		s.writeDomainError(w, r, err, "emotion")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// POST /api/messages
func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[messageRequest](s, w, r)
	if !ok {
		return
	}
	identity, _ := identityFrom(r.Context())

	if _, err := s.store.GetUser(r.Context(), req.ReceiverID); err != nil {
		s.writeDomainError(w, r, err, "receiver")
		return
	}

	message := &types.DirectMessage{
		SenderID:   identity.UserID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
	}
	if err := s.store.CreateDirectMessage(r.Context(), message); err != nil {
		s.writeDomainError(w, r, err, "message")
		return
	}

	s.notifier.MessageSent(r.Context(), message)
	writeJSON(w, http.StatusCreated, message)
}

// POST /api/meetings - a parent asks a teacher for a meeting, or the other way round
func (s *Server) requestMeeting(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[meetingRequest](s, w, r)
	if !ok {
		return
	}
	identity, _ := identityFrom(r.Context())

	invitee, err := s.store.GetUser(r.Context(), req.InviteeID)
	if err != nil {
		s.writeDomainError(w, r, err, "invitee")
		return
	}
	if invitee.Role != types.RoleTeacher && invitee.Role != types.RoleParent {
		writeError(w, http.StatusBadRequest, "invitee must be a teacher or a parent")
		return
	}

	// A parent may only raise a meeting about a linked child
	if req.StudentID != nil && identity.Role == types.RoleParent {
		if err := s.guard.Authorize(r.Context(), identity.UserID, *req.StudentID); err != nil {
			s.writeDomainError(w, r, err, "student")
			return
		}
	}

	meeting := &types.Meeting{
		RequesterID: identity.UserID,
		InviteeID:   req.InviteeID,
		StudentID:   req.StudentID,
		Topic:       req.Topic,
		ScheduledAt: req.ScheduledAt,
	}
	if err := s.store.CreateMeeting(r.Context(), meeting); err != nil {
		s.writeDomainError(w, r, err, "meeting")
		return
	}

	s.notifier.MeetingRequested(r.Context(), meeting)
	writeJSON(w, http.StatusCreated, meeting)
}

// POST /api/events
func (s *Server) createSchoolEvent(w http.ResponseWriter, r *http.Request) {
	req, ok := bind[schoolEventRequest](s, w, r)
	if !ok {
		return
	}
	identity, _ := identityFrom(r.Context())

	event := &types.SchoolEvent{
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		CreatedBy:   identity.UserID,
	}
	if err := s.store.CreateSchoolEvent(r.Context(), event); err != nil {
		s.writeDomainError(w, r, err, "event")
		return
	}

	s.notifier.SchoolEventCreated(r.Context(), event)
	writeJSON(w, http.StatusCreated, event)
}
