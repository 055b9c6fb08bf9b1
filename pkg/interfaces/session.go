package interfaces

import (
	"context"

	"schoolhub/pkg/types"
)

// SessionManager handles login session lifecycle operations
// ARCHITECTURAL DISCOVERY: Context-first design pattern ensures proper
// cancellation and timeout handling across all session operations
type SessionManager interface {
	// Login verifies credentials and opens a session
	Login(ctx context.Context, email, password string) (*types.Session, *types.User, error)

	// Resolve returns the identity owning a session token
	// FUNCTIONAL DISCOVERY: Used by both HTTP middleware and the WebSocket upgrade
	// so a socket identity can be bound to the session that opened it
	Resolve(ctx context.Context, token string) (types.Identity, error)

	// Logout ends a session
	Logout(ctx context.Context, token string) error
}
