// Package guard authorizes cross-user reads of a child's records by a parent.
package guard

import (
	"context"
	"fmt"
	"log/slog"

	"schoolhub/internal/logger"
	"schoolhub/pkg/types"
)

// LinkStore answers whether a parent-child link exists
// Satisfied by the database manager
type LinkStore interface {
	IsParentOf(ctx context.Context, parentID, childID string) (bool, error)
}

// AccessGuard checks parent-child links before every cross-user read
// ARCHITECTURAL DISCOVERY: Stateless on purpose. Links can change at any time,
// so each request re-reads the store and nothing is memoized
type AccessGuard struct {
	links  LinkStore
	logger *slog.Logger
}

// New creates an access guard over a link store
func New(links LinkStore, log *slog.Logger) (*AccessGuard, error) {
	if links == nil {
		return nil, ErrNilLinkStore
	}
	if log == nil {
		log = slog.Default()
	}
	return &AccessGuard{links: links, logger: log.With("component", "guard")}, nil
}

// Authorize returns nil when parentID is linked to childID, ErrAccessDenied when it is
// not, and a wrapped lookup error when the store could not answer
func (g *AccessGuard) Authorize(ctx context.Context, parentID, childID string) error {
	// Malformed ids cannot have a link; deny without touching the store
	if !types.IsValidUserID(parentID) || !types.IsValidUserID(childID) {
		return ErrAccessDenied
	}

	linked, err := g.links.IsParentOf(ctx, parentID, childID)
	if err != nil {
		return fmt.Errorf("parent link lookup: %w", err)
	}
	if !linked {
		logger.FromContext(ctx, g.logger).Warn("cross-user read denied", "parent_id", parentID, "child_id", childID)
		return ErrAccessDenied
	}
	return nil
}

// Read runs read only after Authorize allowed the pair
// FUNCTIONAL DISCOVERY: On denial the data query never executes, so neither
// timing nor content can reveal whether the child has records
func Read[T any](ctx context.Context, g *AccessGuard, parentID, childID string, read func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := g.Authorize(ctx, parentID, childID); err != nil {
		return zero, err
	}
	return read(ctx)
}
