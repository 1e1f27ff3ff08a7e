package scope

import (
	"context"
	"errors"
)

// ErrResourceNotFound is returned by Store.FindResource when no
// resource with the given type and id exists.
var ErrResourceNotFound = errors.New("resource not found")

// Visibility is a resource's access tier.
type Visibility string

// Visibility tiers. VisibilityUser is a legacy synonym for private.
const (
	VisibilityPublic  Visibility = "public"
	VisibilityTeam    Visibility = "team"
	VisibilityPrivate Visibility = "private"
	VisibilityUser    Visibility = "user"
)

// Resource is the ownership/visibility view of a stored server, tool,
// resource, or prompt. Read-only from the authorization engine's
// perspective.
type Resource struct {
	Type ResourceType
	ID   string
	// Visibility defaults to team when unset in the store.
	Visibility Visibility
	// TeamID is the owning team; empty when unowned.
	TeamID string
}

// Store is the authorization engine's only persistence touchpoint.
// Implementations: in-memory (dev/tests), SQLite (prod).
type Store interface {
	// FindActiveMembership reports whether subject is an active member
	// of the team.
	FindActiveMembership(ctx context.Context, teamID, subject string) (bool, error)

	// FindResource returns the visibility/ownership of a resource.
	// Returns ErrResourceNotFound when it does not exist.
	FindResource(ctx context.Context, typ ResourceType, id string) (*Resource, error)
}
