// Package elicitation brokers server-initiated requests for structured
// user input. A backend server calls Create, which registers a pending
// entry and suspends until the connected client delivers a reply via
// Complete, the per-call timeout elapses, the background sweeper
// reclaims the entry, or the broker shuts down. Exactly one of those
// resolves each entry; the rest are safe no-ops.
package elicitation

import (
	"fmt"
	"time"
)

// Action is the client's disposition of an elicitation request.
type Action string

// Client response actions.
const (
	ActionAccept  Action = "accept"
	ActionDecline Action = "decline"
	ActionCancel  Action = "cancel"
)

// IsValid returns true for a known action value.
func (a Action) IsValid() bool {
	switch a {
	case ActionAccept, ActionDecline, ActionCancel:
		return true
	default:
		return false
	}
}

// Result is a client's reply to an elicitation request. Content is
// present only when Action is accept, and holds primitive values
// matching the requested schema.
type Result struct {
	Action  Action         `json:"action"`
	Content map[string]any `json:"content,omitempty"`
}

// Pending is the read-only view of an outstanding elicitation request.
type Pending struct {
	RequestID           string         `json:"request_id"`
	UpstreamSessionID   string         `json:"upstream_session_id"`
	DownstreamSessionID string         `json:"downstream_session_id"`
	CreatedAt           time.Time      `json:"created_at"`
	Timeout             time.Duration  `json:"timeout"`
	Message             string         `json:"message"`
	Schema              map[string]any `json:"schema"`
}

// Age returns how long the entry has been pending at the given time.
func (p Pending) Age(now time.Time) time.Duration {
	return now.Sub(p.CreatedAt)
}

// Expired reports whether the entry has outlived its timeout.
func (p Pending) Expired(now time.Time) bool {
	return p.Age(now) > p.Timeout
}

// SchemaError reports a schema validation failure, carrying the
// offending property name and type.
type SchemaError struct {
	// Property is the offending property name; empty for top-level
	// structural violations.
	Property string
	// Type is the offending property type, when relevant.
	Type string
	// Reason describes the violation.
	Reason string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Property == "" {
		return fmt.Sprintf("invalid elicitation schema: %s", e.Reason)
	}
	if e.Type != "" {
		return fmt.Sprintf("invalid elicitation schema: property %q (type %q): %s", e.Property, e.Type, e.Reason)
	}
	return fmt.Sprintf("invalid elicitation schema: property %q: %s", e.Property, e.Reason)
}
