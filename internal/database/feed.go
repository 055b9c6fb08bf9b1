package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"schoolhub/pkg/types"
)

const (
	announcementFeedLimit = 100
	emotionHistoryLimit   = 50
)

// CreateAnnouncement inserts a course or school-wide announcement
func (m *Manager) CreateAnnouncement(ctx context.Context, announcement *types.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	if announcement.CreatedAt.IsZero() {
		announcement.CreatedAt = now()
	}

	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		_, err := db.NamedExecContext(ctx, `
			INSERT INTO announcements (id, title, content, author_id, course_id, is_global, created_at)
			VALUES (:id, :title, :content, :author_id, :course_id, :is_global, :created_at)`,
			announcement)
		return err
	})
}

// GetAnnouncementsForUser returns the announcements visible to a user
// FUNCTIONAL DISCOVERY: Visible means global, authored by the user, or attached to a course
// the user attends, teaches, or one of the user's children attends
func (m *Manager) GetAnnouncementsForUser(ctx context.Context, userID string) ([]*types.Announcement, error) {
	announcements := []*types.Announcement{}
	err := m.db.SelectContext(ctx, &announcements, `
		SELECT a.* FROM announcements a
		WHERE a.is_global = 1
		   OR a.author_id = ?
		   OR a.course_id IN (SELECT course_id FROM course_enrollments WHERE student_id = ?)
		   OR a.course_id IN (SELECT id FROM courses WHERE teacher_id = ?)
		   OR a.course_id IN (
		        SELECT e.course_id FROM course_enrollments e
		        JOIN parent_children pc ON pc.child_id = e.student_id
		        WHERE pc.parent_id = ?)
		ORDER BY a.created_at DESC
		LIMIT ?`,
		userID, userID, userID, userID, announcementFeedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query announcements: %w", err)
	}
	return announcements, nil
}

func (m *Manager) CreateTimetableEntry(ctx context.Context, entry *types.TimetableEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now()
	}

	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		_, err := db.NamedExecContext(ctx, `
			INSERT INTO timetable_entries (id, course_id, title, day_of_week, start_time, end_time, location, created_at)
			VALUES (:id, :course_id, :title, :day_of_week, :start_time, :end_time, :location, :created_at)`,
			entry)
		return err
	})
}

// GetTimetableForUser lists the weekly slots of courses the user attends or teaches
func (m *Manager) GetTimetableForUser(ctx context.Context, userID string) ([]*types.TimetableEntry, error) {
	entries := []*types.TimetableEntry{}
	err := m.db.SelectContext(ctx, &entries, `
		SELECT t.* FROM timetable_entries t
		WHERE t.course_id IN (SELECT course_id FROM course_enrollments WHERE student_id = ?)
		   OR t.course_id IN (SELECT id FROM courses WHERE teacher_id = ?)
		ORDER BY t.day_of_week, t.start_time`,
		userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query timetable: %w", err)
	}
	return entries, nil
}

func (m *Manager) CreateEmotionEntry(ctx context.Context, entry *types.EmotionEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.DetectedAt.IsZero() {
		entry.DetectedAt = now()
	}

	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		_, err := db.NamedExecContext(ctx, `
			INSERT INTO emotion_entries (id, student_id, emotion, intensity, context, detected_at)
			VALUES (:id, :student_id, :emotion, :intensity, :context, :detected_at)`,
			entry)
		return err
	})
}

// GetEmotionsByStudent returns the most recent emotion entries, newest first
func (m *Manager) GetEmotionsByStudent(ctx context.Context, studentID string) ([]*types.EmotionEntry, error) {
	entries := []*types.EmotionEntry{}
	err := m.db.SelectContext(ctx, &entries, `
		SELECT * FROM emotion_entries
		WHERE student_id = ?
		ORDER BY detected_at DESC
		LIMIT ?`,
		studentID, emotionHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query emotions: %w", err)
	}
	return entries, nil
}

func (m *Manager) CreateDirectMessage(ctx context.Context, message *types.DirectMessage) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = now()
	}

	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		_, err := db.NamedExecContext(ctx, `
			INSERT INTO direct_messages (id, sender_id, receiver_id, content, created_at)
			VALUES (:id, :sender_id, :receiver_id, :content, :created_at)`,
			message)
		return err
	})
}

func (m *Manager) CreateMeeting(ctx context.Context, meeting *types.Meeting) error {
	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}
	if meeting.CreatedAt.IsZero() {
		meeting.CreatedAt = now()
	}
	meeting.ScheduledAt = meeting.ScheduledAt.UTC()

	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		_, err := db.NamedExecContext(ctx, `
			INSERT INTO meetings (id, requester_id, invitee_id, student_id, topic, scheduled_at, created_at)
			VALUES (:id, :requester_id, :invitee_id, :student_id, :topic, :scheduled_at, :created_at)`,
			meeting)
		return err
	})
}

func (m *Manager) CreateSchoolEvent(ctx context.Context, event *types.SchoolEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now()
	}
	event.StartsAt = event.StartsAt.UTC()

	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		_, err := db.NamedExecContext(ctx, `
			INSERT INTO school_events (id, title, description, starts_at, created_by, created_at)
			VALUES (:id, :title, :description, :starts_at, :created_by, :created_at)`,
			event)
		return err
	})
}
