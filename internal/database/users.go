package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"schoolhub/pkg/types"
)

// CreateUser inserts a new account
func (m *Manager) CreateUser(ctx context.Context, user *types.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now()
	}

	return m.executeWrite(ctx, func(db *sqlx.DB) error {
		_, err := db.NamedExecContext(ctx, `
			INSERT INTO users (id, username, email, password_hash, first_name, last_name, role, created_at)
			VALUES (:id, :username, :email, :password_hash, :first_name, :last_name, :role, :created_at)`,
			user)
		return err
	})
}

// GetUser loads an account by ID
func (m *Manager) GetUser(ctx context.Context, userID string) (*types.User, error) {
	var user types.User
	err := m.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, userID)
	if err != nil {
		return nil, notFound(err, "user", userID)
	}
	return &user, nil
}

// GetUserByEmail loads an account for login
func (m *Manager) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	var user types.User
	err := m.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, notFound(err, "user", email)
	}
	return &user, nil
}

// LinkParentChild records that parentID may read childID's records
// FUNCTIONAL DISCOVERY: Linking twice is not an error; the existing link is returned
func (m *Manager) LinkParentChild(ctx context.Context, parentID, childID string) (*types.ParentChildLink, error) {
	err := m.executeWrite(ctx, func(db *sqlx.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO parent_children (id, parent_id, child_id, created_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (parent_id, child_id) DO NOTHING`,
			uuid.NewString(), parentID, childID, now())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to link parent %s to child %s: %w", parentID, childID, err)
	}

	var link types.ParentChildLink
	err = m.db.GetContext(ctx, &link,
		`SELECT * FROM parent_children WHERE parent_id = ? AND child_id = ?`, parentID, childID)
	if err != nil {
		return nil, notFound(err, "parent link", parentID+"/"+childID)
	}
	return &link, nil
}

// IsParentOf reports whether a parent-child link exists
func (m *Manager) IsParentOf(ctx context.Context, parentID, childID string) (bool, error) {
	var exists bool
	err := m.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM parent_children WHERE parent_id = ? AND child_id = ?)`,
		parentID, childID)
	if err != nil {
		return false, fmt.Errorf("failed to query parent link: %w", err)
	}
	return exists, nil
}

// GetChildrenByParent lists the students linked to a parent
func (m *Manager) GetChildrenByParent(ctx context.Context, parentID string) ([]*types.User, error) {
	children := []*types.User{}
	err := m.db.SelectContext(ctx, &children, `
		SELECT u.* FROM users u
		JOIN parent_children pc ON pc.child_id = u.id
		WHERE pc.parent_id = ?
		ORDER BY u.first_name, u.last_name`,
		parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	return children, nil
}
