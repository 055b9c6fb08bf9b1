package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"schoolhub/pkg/interfaces"
	"schoolhub/pkg/types"
)

const minPasswordLength = 6

// Store is the persistence the session manager needs
type Store interface {
	CreateUser(ctx context.Context, user *types.User) error
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	CreateSession(ctx context.Context, session *types.Session) error
	GetSession(ctx context.Context, token string) (*types.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Options tunes session lifetime and password hashing
type Options struct {
	TTL        time.Duration
	BcryptCost int
}

// Registration carries the fields of a new account
type Registration struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      types.Role
}

// Manager implements the SessionManager interface
// ARCHITECTURAL DISCOVERY: Sessions live in the database; the in-memory map only
// short-circuits lookups and is invalidated on logout and expiry
type Manager struct {
	store    Store
	opts     Options
	sessions map[string]*types.Session // token -> Session
	mu       sync.RWMutex
	now      func() time.Time
	logger   *slog.Logger

	// dummyHash keeps unknown-email logins as slow as wrong-password logins
	dummyHash []byte
}

// NewManager creates a new session manager
func NewManager(store Store, opts Options, logger *slog.Logger) (*Manager, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("schoolhub-timing-guard"), opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("invalid bcrypt cost: %w", err)
	}

	return &Manager{
		store:     store,
		opts:      opts,
		sessions:  make(map[string]*types.Session),
		now:       time.Now,
		logger:    logger.With("component", "session"),
		dummyHash: dummy,
	}, nil
}

// Register creates an account with a bcrypt password hash
func (m *Manager) Register(ctx context.Context, reg Registration) (*types.User, error) {
	if !reg.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if len(reg.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), m.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &types.User{
		ID:           uuid.NewString(),
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: string(hash),
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Role:         reg.Role,
	}
	if err := m.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	m.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login verifies credentials and opens a session
func (m *Manager) Login(ctx context.Context, email, password string) (*types.Session, *types.User, error) {
	user, err := m.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(m.dummyHash, []byte(password))
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	now := m.now().UTC()
	session := &types.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.opts.TTL),
	}
	if err := m.store.CreateSession(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	m.mu.Lock()
	m.sessions[session.Token] = session
	m.mu.Unlock()

	m.logger.Info("session opened", "user_id", user.ID, "role", user.Role)
	return session, user, nil
}

// Resolve returns the identity owning a session token
func (m *Manager) Resolve(ctx context.Context, token string) (types.Identity, error) {
	if token == "" {
		return types.Identity{}, ErrSessionExpired
	}

	m.mu.RLock()
	session, cached := m.sessions[token]
	m.mu.RUnlock()

	if !cached {
		stored, err := m.store.GetSession(ctx, token)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return types.Identity{}, ErrSessionExpired
			}
			return types.Identity{}, fmt.Errorf("failed to load session: %w", err)
		}
		session = stored
	}

	// FUNCTIONAL DISCOVERY: Expiry is checked on every resolve; the periodic sweep
	// only reclaims storage
	if !m.now().Before(session.ExpiresAt) {
		m.evict(token)
		return types.Identity{}, ErrSessionExpired
	}

	if !cached {
		m.mu.Lock()
		m.sessions[token] = session
		m.mu.Unlock()
	}
	return types.Identity{UserID: session.UserID, Role: session.Role}, nil
}

// Logout ends a session; unknown tokens are not an error
func (m *Manager) Logout(ctx context.Context, token string) error {
	m.evict(token)
	if err := m.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanupExpired removes expired sessions from storage and the cache
func (m *Manager) CleanupExpired(ctx context.Context) (int64, error) {
	now := m.now()

	m.mu.Lock()
	for token, session := range m.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(m.sessions, token)
		}
	}
	m.mu.Unlock()

	removed, err := m.store.DeleteExpiredSessions(ctx, now)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		m.logger.Info("expired sessions removed", "count", removed)
	}
	return removed, nil
}

// RunCleanup sweeps expired sessions every interval until ctx is cancelled
func (m *Manager) RunCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := m.CleanupExpired(ctx); err != nil {
				m.logger.Warn("session cleanup failed", "error", err)
			}
		}
	}
}

func (m *Manager) evict(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}
