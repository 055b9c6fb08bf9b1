package notify

import (
	"fmt"
	"sort"
	"strings"

	"schoolhub/pkg/types"
)

// Mode is the audience selection rule
type Mode int

const (
	modeNone Mode = iota // zero Audience matches nobody
	ModeAll
	ModeUsers
	ModeRoles
)

// Audience selects which live channels receive an event
// ARCHITECTURAL DISCOVERY: Only the three constructors produce a usable audience,
// so every call site has to state its privacy intent explicitly
type Audience struct {
	mode  Mode
	users map[string]struct{}
	roles map[types.Role]struct{}
}

// All matches every live channel, authenticated or not.
// Only for events without personal data.
func All() Audience {
	return Audience{mode: ModeAll}
}

// ToUsers matches authenticated channels whose user ID is in ids
func ToUsers(ids ...string) Audience {
	users := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			users[id] = struct{}{}
		}
	}
	return Audience{mode: ModeUsers, users: users}
}

// ToRoles matches authenticated channels whose role is in roles
func ToRoles(roles ...types.Role) Audience {
	set := make(map[types.Role]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return Audience{mode: ModeRoles, roles: set}
}

// Mode returns the selection rule
func (a Audience) Mode() Mode { return a.mode }

// Empty reports whether the audience can never match anything
func (a Audience) Empty() bool {
	switch a.mode {
	case ModeAll:
		return false
	case ModeUsers:
		return len(a.users) == 0
	case ModeRoles:
		return len(a.roles) == 0
	default:
		return true
	}
}

// Matches reports whether a channel with the given identity is in the audience
// FUNCTIONAL DISCOVERY: A nil identity (unauthenticated channel) only ever matches All
func (a Audience) Matches(identity *types.Identity) bool {
	switch a.mode {
	case ModeAll:
		return true
	case ModeUsers:
		if identity == nil {
			return false
		}
		_, ok := a.users[identity.UserID]
		return ok
	case ModeRoles:
		if identity == nil {
			return false
		}
		_, ok := a.roles[identity.Role]
		return ok
	default:
		return false
	}
}

func (a Audience) String() string {
	switch a.mode {
	case ModeAll:
		return "all"
	case ModeUsers:
		ids := make([]string, 0, len(a.users))
		for id := range a.users {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return fmt.Sprintf("users[%s]", strings.Join(ids, ","))
	case ModeRoles:
		roles := make([]string, 0, len(a.roles))
		for r := range a.roles {
			roles = append(roles, string(r))
		}
		sort.Strings(roles)
		return fmt.Sprintf("roles[%s]", strings.Join(roles, ","))
	default:
		return "none"
	}
}
