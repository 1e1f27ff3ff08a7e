// Package scope implements the token-scope authorization pipeline.
//
// Every inbound request passes through the Evaluator before reaching
// business logic. The pipeline short-circuits to a deny on the first
// failing gate, in a fixed order: exemption, credential presence, team
// membership, resource visibility, server restriction, IP restriction,
// time restriction, permission check, optional guard expression.
package scope

import "net/http"

// Reason tags the outcome of an evaluation so callers can tell policy
// decisions apart from each other (and from internal failures, which
// are logged separately and surfaced as a fail-closed deny).
type Reason string

// Evaluation outcome reasons.
const (
	ReasonExempt            Reason = "exempt"
	ReasonNoCredential      Reason = "no_credential"
	ReasonAllowed           Reason = "allowed"
	ReasonMembershipRevoked Reason = "membership_revoked"
	ReasonVisibilityDenied  Reason = "visibility_denied"
	ReasonServerMismatch    Reason = "server_mismatch"
	ReasonIPDenied          Reason = "ip_denied"
	ReasonTimeDenied        Reason = "time_denied"
	ReasonPermissionDenied  Reason = "permission_denied"
	ReasonGuardDenied       Reason = "guard_denied"
)

// Decision is the result of evaluating a request against a
// credential's scope. Denies carry an HTTP status and a human-readable
// detail for the `{"detail": "..."}` response body; internal resource
// ids the caller does not already know are never included.
type Decision struct {
	Allowed    bool
	Reason     Reason
	Detail     string
	StatusCode int
}

// Allow returns an allowing decision tagged with the given reason.
func Allow(reason Reason) Decision {
	return Decision{Allowed: true, Reason: reason, StatusCode: http.StatusOK}
}

// Deny returns a 403 decision with the given reason and detail.
func Deny(reason Reason, detail string) Decision {
	return Decision{
		Allowed:    false,
		Reason:     reason,
		Detail:     detail,
		StatusCode: http.StatusForbidden,
	}
}
