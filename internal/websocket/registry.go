package websocket

import (
	"sync"

	"schoolhub/pkg/interfaces"
	"schoolhub/pkg/types"
)

// Channel is one entry of a registry snapshot
// Identity is nil until the channel has authenticated
type Channel struct {
	Conn     interfaces.Channel
	Identity *types.Identity
}

type entry struct {
	conn     interfaces.Channel
	identity *types.Identity
}

// Registry owns the live set of real-time channels and their identities
// ARCHITECTURAL DISCOVERY: Pure connection management without business logic
// maintains clean separation between connection tracking and message fan-out
type Registry struct {
	mu      sync.RWMutex      // TECHNICAL DISCOVERY: RWMutex optimizes for read-heavy snapshot patterns
	entries map[string]*entry // connection ID -> entry
}

// NewRegistry creates a new connection registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Register adds a freshly opened channel with no identity attached
func (r *Registry) Register(conn interfaces.Channel) error {
	if conn == nil {
		return ErrNilConnection
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[conn.ID()]; exists {
		return nil
	}
	r.entries[conn.ID()] = &entry{conn: conn}
	return nil
}

// Authenticate associates an identity with a registered channel
// FUNCTIONAL DISCOVERY: Re-authentication replaces the previous identity;
// a channel that was deregistered stays closed
func (r *Registry) Authenticate(conn interfaces.Channel, userID string, role types.Role) error {
	if conn == nil {
		return ErrNilConnection
	}

	identity := types.Identity{UserID: userID, Role: role}
	if err := identity.Validate(); err != nil {
		return ErrInvalidIdentity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.entries[conn.ID()]
	if !exists || e.conn != conn {
		return ErrConnectionNotRegistered
	}
	e.identity = &identity
	return nil
}

// Deregister removes a channel and its identity
// FUNCTIONAL DISCOVERY: Idempotent operation safe for concurrent deregistration
func (r *Registry) Deregister(conn interfaces.Channel) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, exists := r.entries[conn.ID()]; exists && e.conn == conn {
		delete(r.entries, conn.ID())
	}
}

// LiveChannels returns a point-in-time snapshot of every registered channel
// ARCHITECTURAL DISCOVERY: Identities are copied so callers can never mutate
// registry state through the snapshot
func (r *Registry) LiveChannels() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]Channel, 0, len(r.entries))
	for _, e := range r.entries {
		ch := Channel{Conn: e.conn}
		if e.identity != nil {
			id := *e.identity
			ch.Identity = &id
		}
		channels = append(channels, ch)
	}
	return channels
}

// Identity returns the current identity of a channel
func (r *Registry) Identity(conn interfaces.Channel) (types.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[conn.ID()]
	if !exists || e.identity == nil {
		return types.Identity{}, false
	}
	return *e.identity, true
}

// Contains reports whether the channel is live
func (r *Registry) Contains(conn interfaces.Channel) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[conn.ID()]
	return exists && e.conn == conn
}

// GetStats returns registry statistics for monitoring and debugging
func (r *Registry) GetStats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	authenticated := 0
	byRole := map[types.Role]int{}
	for _, e := range r.entries {
		if e.identity != nil {
			authenticated++
			byRole[e.identity.Role]++
		}
	}

	return map[string]int{
		"total_connections":           len(r.entries),
		"authenticated_connections":   authenticated,
		"unauthenticated_connections": len(r.entries) - authenticated,
		"students":                    byRole[types.RoleStudent],
		"teachers":                    byRole[types.RoleTeacher],
		"parents":                     byRole[types.RoleParent],
	}
}
