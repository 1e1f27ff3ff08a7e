package scope

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gateward/gateward/internal/domain/token"
)

// tracerName identifies evaluator spans.
const tracerName = "github.com/gateward/gateward/internal/domain/scope"

// Evaluator runs the full authorization pipeline for one request. It
// holds no mutable state beyond the injected store and is safely
// reentrant across arbitrary concurrency.
type Evaluator struct {
	store     Store
	extractor *token.Extractor
	exempt    *ExemptList
	guard     *Guard
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// EvaluatorOption customizes an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithExemptPrefixes overrides the default exemption list.
func WithExemptPrefixes(prefixes []string) EvaluatorOption {
	return func(e *Evaluator) { e.exempt = NewExemptList(prefixes) }
}

// WithGuard installs an optional CEL guard expression evaluated as the
// final restrictive gate.
func WithGuard(g *Guard) EvaluatorOption {
	return func(e *Evaluator) { e.guard = g }
}

// WithClock overrides the time source. Tests only.
func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) { e.now = now }
}

// NewEvaluator creates an Evaluator over the given store and
// credential extractor.
func NewEvaluator(store Store, extractor *token.Extractor, logger *slog.Logger, opts ...EvaluatorOption) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Evaluator{
		store:     store,
		extractor: extractor,
		exempt:    NewExemptList(nil),
		logger:    logger.With("component", "scope"),
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the pipeline for one request and returns a Decision.
// It never returns an error: internal failures are logged and
// converted to a fail-closed deny.
func (e *Evaluator) Evaluate(ctx context.Context, method, path string, headers http.Header, remoteAddr string) (d Decision) {
	ctx, span := e.tracer.Start(ctx, "scope.evaluate")
	defer func() {
		span.SetAttributes(
			attribute.Bool("scope.allowed", d.Allowed),
			attribute.String("scope.reason", string(d.Reason)),
		)
		span.End()
	}()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("url.path", path),
	)

	// Exemption: health, metrics, docs, login, well-known, and the
	// exact root path bypass everything.
	if e.exempt.Contains(path) {
		return Allow(ReasonExempt)
	}

	// Credential presence: an absent or undecodable credential passes
	// through; authentication proper is a separate layer. This engine
	// only restricts already-authenticated callers further.
	claims, err := e.extractor.FromHeader(headers)
	if err != nil {
		return Allow(ReasonNoCredential)
	}

	if d := e.checkMembership(ctx, claims); !d.Allowed {
		return d
	}
	if d := e.checkVisibility(ctx, path, claims); !d.Allowed {
		return d
	}
	if d := e.checkServerRestriction(path, claims); !d.Allowed {
		return d
	}
	if d := e.checkIPRestriction(headers, remoteAddr, claims); !d.Allowed {
		return d
	}
	if !TimeAllowed(claims.Scope.TimeRestrictions, e.now()) {
		e.logger.Warn("request outside allowed time window", "subject", claims.Subject)
		return Deny(ReasonTimeDenied, "Request not allowed at this time by token restrictions")
	}
	if d := e.checkPermission(method, path, claims); !d.Allowed {
		return d
	}
	if d := e.checkGuard(ctx, method, path, headers, remoteAddr, claims); !d.Allowed {
		return d
	}

	return Allow(ReasonAllowed)
}

// checkMembership revalidates every claimed team against the store.
// Tokens can outlive membership; a single revoked membership
// invalidates the credential. Empty team list (public-only) passes.
func (e *Evaluator) checkMembership(ctx context.Context, claims *token.Claims) Decision {
	if claims.IsPublicOnly() {
		return Allow(ReasonAllowed)
	}
	if claims.Subject == "" {
		e.logger.Warn("team-scoped token missing subject")
		return Deny(ReasonMembershipRevoked, "Token is invalid: User is no longer a member of the associated team")
	}
	for _, teamID := range claims.Teams {
		active, err := e.store.FindActiveMembership(ctx, teamID, claims.Subject)
		if err != nil {
			e.logger.Error("membership lookup failed",
				"subject", claims.Subject, "team", teamID, "error", err)
			return Deny(ReasonMembershipRevoked, "Token is invalid: User is no longer a member of the associated team")
		}
		if !active {
			e.logger.Warn("token rejected: membership revoked",
				"subject", claims.Subject, "team", teamID)
			return Deny(ReasonMembershipRevoked, "Token is invalid: User is no longer a member of the associated team")
		}
	}
	return Allow(ReasonAllowed)
}

// checkVisibility resolves the three-tier (public/team/private)
// visibility rule for the resource addressed by the path, if any.
// Missing resources pass (fail-open on stale paths); store errors and
// unknown visibility values deny (fail-closed).
func (e *Evaluator) checkVisibility(ctx context.Context, path string, claims *token.Claims) Decision {
	typ, id, ok := ExtractResource(path)
	if !ok {
		// General endpoint, nothing to resolve.
		return Allow(ReasonAllowed)
	}

	res, err := e.store.FindResource(ctx, typ, id)
	if errors.Is(err, ErrResourceNotFound) {
		return Allow(ReasonAllowed)
	}
	if err != nil {
		e.logger.Error("resource lookup failed",
			"resource_type", typ, "resource_id", id, "error", err)
		return Deny(ReasonVisibilityDenied, "Access denied: You do not have permission to access this resource using the current token")
	}

	visibility := res.Visibility
	if visibility == "" {
		visibility = VisibilityTeam
	}

	switch visibility {
	case VisibilityPublic:
		return Allow(ReasonAllowed)
	case VisibilityTeam, VisibilityPrivate, VisibilityUser:
		if claims.IsPublicOnly() {
			e.logger.Warn("public-only token denied non-public resource",
				"resource_type", typ, "visibility", visibility)
			return Deny(ReasonVisibilityDenied, "Access denied: You do not have permission to access this resource using the current token")
		}
		if res.TeamID != "" && claims.HasTeam(res.TeamID) {
			return Allow(ReasonAllowed)
		}
		e.logger.Warn("resource not owned by token's teams",
			"resource_type", typ, "visibility", visibility, "subject", claims.Subject)
		return Deny(ReasonVisibilityDenied, "Access denied: You do not have permission to access this resource using the current token")
	default:
		e.logger.Warn("resource has unknown visibility",
			"resource_type", typ, "visibility", visibility)
		return Deny(ReasonVisibilityDenied, "Access denied: You do not have permission to access this resource using the current token")
	}
}

// checkServerRestriction enforces scope.server_id pinning. Paths that
// address no server fall back to the shared exemption list.
func (e *Evaluator) checkServerRestriction(path string, claims *token.Claims) Decision {
	required := claims.Scope.ServerID
	if required == "" {
		return Allow(ReasonAllowed)
	}

	if id, ok := ExtractServerID(path); ok {
		if id == required {
			return Allow(ReasonAllowed)
		}
		e.logger.Warn("token not authorized for this server",
			"subject", claims.Subject, "required", required)
		return Deny(ReasonServerMismatch, fmt.Sprintf("Token not authorized for this server. Required: %s", required))
	}

	if e.exempt.Contains(path) {
		return Allow(ReasonAllowed)
	}
	e.logger.Warn("server-pinned token used on unmatched path", "subject", claims.Subject)
	return Deny(ReasonServerMismatch, fmt.Sprintf("Token not authorized for this server. Required: %s", required))
}

// checkIPRestriction enforces the scope's IP allow-list against the
// effective client address.
func (e *Evaluator) checkIPRestriction(headers http.Header, remoteAddr string, claims *token.Claims) Decision {
	restrictions := claims.Scope.IPRestrictions
	if len(restrictions) == 0 {
		return Allow(ReasonAllowed)
	}
	clientIP := ClientIP(headers, remoteAddr)
	if IPAllowed(clientIP, restrictions) {
		return Allow(ReasonAllowed)
	}
	e.logger.Warn("client ip not allowed by token restrictions",
		"subject", claims.Subject, "client_ip", clientIP)
	return Deny(ReasonIPDenied, fmt.Sprintf("Request from IP %s not allowed by token restrictions", clientIP))
}

// checkPermission looks the route up in the regulated-route table. An
// unrestricted permission list, or an unregulated route, allows.
func (e *Evaluator) checkPermission(method, path string, claims *token.Claims) Decision {
	if claims.Scope.AllowsAllPermissions() {
		return Allow(ReasonAllowed)
	}
	required, regulated := RequiredPermission(method, path)
	if !regulated {
		return Allow(ReasonAllowed)
	}
	if claims.Scope.HasPermission(required) {
		return Allow(ReasonAllowed)
	}
	e.logger.Warn("insufficient permissions",
		"subject", claims.Subject, "required", required, "method", method)
	return Deny(ReasonPermissionDenied, "Insufficient permissions for this operation")
}

// checkGuard evaluates the optional configured guard expression as a
// final restrictive gate. Evaluation errors fail closed.
func (e *Evaluator) checkGuard(ctx context.Context, method, path string, headers http.Header, remoteAddr string, claims *token.Claims) Decision {
	if e.guard == nil {
		return Allow(ReasonAllowed)
	}
	allowed, err := e.guard.Allow(ctx, GuardInput{
		Method:      method,
		Path:        path,
		ClientIP:    ClientIP(headers, remoteAddr),
		Subject:     claims.Subject,
		Teams:       claims.Teams,
		Permissions: claims.Scope.Permissions,
	})
	if err != nil {
		e.logger.Error("guard evaluation failed", "error", err)
		return Deny(ReasonGuardDenied, "Access denied: You do not have permission to access this resource using the current token")
	}
	if !allowed {
		e.logger.Warn("request denied by guard expression", "subject", claims.Subject)
		return Deny(ReasonGuardDenied, "Access denied by gateway guard policy")
	}
	return Allow(ReasonAllowed)
}
