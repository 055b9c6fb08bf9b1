package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"schoolhub/pkg/types"
)

// CreateSession persists a login session
func (m *Manager) CreateSession(ctx context.Context, session *types.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now()
	}
	session.ExpiresAt = session.ExpiresAt.UTC()

	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		_, err := db.NamedExecContext(ctx, `
			INSERT INTO sessions (token, user_id, role, created_at, expires_at)
			VALUES (:token, :user_id, :role, :created_at, :expires_at)`,
			session)
		return err
	})
}

func (m *Manager) GetSession(ctx context.Context, token string) (*types.Session, error) {
	var session types.Session
	if err := m.db.GetContext(ctx, &session, `SELECT * FROM sessions WHERE token = ?`, token); err != nil {
		return nil, notFound(err, "session", "token")
	}
	return &session, nil
}

// DeleteSession removes a session; deleting an unknown token is not an error
func (m *Manager) DeleteSession(ctx context.Context, token string) error {
	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		_, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
		return err
	})
}

// DeleteExpiredSessions removes sessions that expired before cutoff and returns how many
func (m *Manager) DeleteExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := m.executeWrite(ctx, func(db *sqlx.DB) error {
		result, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, cutoff.UTC())
		if err != nil {
			return err
		}
		removed, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return removed, nil
}
