// Package token contains domain types for scoped bearer credentials.
package token

import (
	"encoding/json"
	"fmt"
)

// PermissionWildcard grants unrestricted access when present in a
// scope's permission list.
const PermissionWildcard = "*"

// TeamRef is a single team reference from a token's "teams" claim.
// Tokens in the wild carry either a bare team id string or an object
// with an "id" field; both decode to the same value so nothing
// downstream ever branches on shape.
type TeamRef struct {
	ID string
}

// UnmarshalJSON accepts both `"team-a"` and `{"id": "team-a"}`.
func (t *TeamRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.ID = s
		return nil
	}

	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("team reference must be a string or an object with an id: %w", err)
	}
	t.ID = obj.ID
	return nil
}

// MarshalJSON emits the normalized object form.
func (t TeamRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID string `json:"id"`
	}{ID: t.ID})
}

// TimeRestriction limits when a credential may be used.
// Zero value means unrestricted.
type TimeRestriction struct {
	// BusinessHoursOnly restricts use to 09:00-17:00 UTC.
	BusinessHoursOnly bool `json:"business_hours_only,omitempty"`
	// WeekdaysOnly rejects use on Saturday and Sunday (UTC).
	WeekdaysOnly bool `json:"weekdays_only,omitempty"`
}

// Restricted returns true if any time restriction is set.
func (t TimeRestriction) Restricted() bool {
	return t.BusinessHoursOnly || t.WeekdaysOnly
}

// Scope is the set of restrictions embedded in a credential.
// Every field is optional; absence means "unrestricted" for that
// dimension.
type Scope struct {
	// ServerID pins the credential to a single virtual server.
	ServerID string `json:"server_id,omitempty"`
	// Permissions is the list of granted permission strings.
	// Empty or containing PermissionWildcard means unrestricted.
	Permissions []string `json:"permissions,omitempty"`
	// IPRestrictions lists allowed client addresses, each a single IP
	// or a CIDR range.
	IPRestrictions []string `json:"ip_restrictions,omitempty"`
	// TimeRestrictions limits when the credential may be used.
	TimeRestrictions TimeRestriction `json:"time_restrictions,omitempty"`
	// UsageLimits is carried opaquely; the authorization engine does
	// not evaluate it.
	UsageLimits map[string]any `json:"usage_limits,omitempty"`
}

// AllowsAllPermissions returns true when the permission list imposes
// no restriction (empty, or wildcard present).
func (s Scope) AllowsAllPermissions() bool {
	if len(s.Permissions) == 0 {
		return true
	}
	for _, p := range s.Permissions {
		if p == PermissionWildcard {
			return true
		}
	}
	return false
}

// HasPermission returns true if the scope grants the named permission,
// either explicitly or via the wildcard.
func (s Scope) HasPermission(permission string) bool {
	for _, p := range s.Permissions {
		if p == permission || p == PermissionWildcard {
			return true
		}
	}
	return false
}

// Claims is the decoded, normalized payload of a bearer credential.
// Immutable per request: built once by the Extractor and discarded at
// end of request.
type Claims struct {
	// Subject identifies the credential holder.
	Subject string
	// Teams is the normalized list of claimed team ids. The claim is
	// not a guarantee; membership is revalidated against the store on
	// every request.
	Teams []string
	// Scope holds the embedded restrictions.
	Scope Scope
}

// IsPublicOnly reports whether the credential carries no team claims.
// Public-only credentials are restricted to public resources.
func (c *Claims) IsPublicOnly() bool {
	return len(c.Teams) == 0
}

// HasTeam returns true if the claims include the given team id.
func (c *Claims) HasTeam(teamID string) bool {
	for _, id := range c.Teams {
		if id == teamID {
			return true
		}
	}
	return false
}
