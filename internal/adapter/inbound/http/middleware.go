// Package http provides the HTTP transport adapter for the control plane.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gateward/gateward/internal/ctxkey"
	"github.com/gateward/gateward/internal/domain/scope"
	"github.com/gateward/gateward/internal/domain/token"
)

// LoggerKey is the context key for the enriched logger.
// Uses the shared key type from ctxkey to allow cross-package access without import cycles.
var LoggerKey = ctxkey.LoggerKey{}

// RequestIDKey is the context key for the request ID.
var RequestIDKey = ctxkey.RequestIDKey{}

// RequestIDMiddleware extracts or generates a request ID and enriches the logger.
// The request ID is stored in context using RequestIDKey; an enriched logger
// with a request_id field is stored using LoggerKey.
func RequestIDMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}

			enrichedLogger := logger.With("request_id", requestID)

			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			ctx = context.WithValue(ctx, LoggerKey, enrichedLogger)

			// Set response header for correlation
			w.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggerFromContext retrieves the enriched logger from context.
// Returns slog.Default() if no logger is in context.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// detailBody is the JSON body for every scoping deny.
type detailBody struct {
	Detail string `json:"detail"`
}

// ScopeMiddleware runs the authorization pipeline ahead of the handler
// chain. Allowed requests pass through unmodified; denies are
// converted to a JSON response and never reach business logic.
func ScopeMiddleware(eval *scope.Evaluator, metrics *Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			decision := eval.Evaluate(r.Context(), r.Method, r.URL.Path, r.Header, r.RemoteAddr)

			if metrics != nil {
				outcome := "allow"
				if !decision.Allowed {
					outcome = "deny"
				}
				metrics.ScopeDecisions.WithLabelValues(outcome, string(decision.Reason)).Inc()
				metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
			}

			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			// Prefer the request-enriched logger; fall back to the
			// middleware's own when the request-id layer is absent.
			reqLogger := logger
			if enriched, ok := r.Context().Value(LoggerKey).(*slog.Logger); ok {
				reqLogger = enriched
			}
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"reason", decision.Reason,
			}
			if raw, ok := token.BearerToken(r.Header); ok {
				attrs = append(attrs, "token_fp", token.Fingerprint(raw))
			}
			reqLogger.Warn("request denied by token scoping", attrs...)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(decision.StatusCode)
			_ = json.NewEncoder(w).Encode(detailBody{Detail: decision.Detail})
		})
	}
}
