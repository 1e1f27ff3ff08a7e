package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gateward/gateward/internal/domain/elicitation"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	broker := elicitation.NewBroker(elicitation.Config{}, nil)
	t.Cleanup(broker.Shutdown)

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, func() float64 { return float64(broker.PendingCount()) })
	checker := NewHealthChecker(broker, "test")
	rt := NewRouter(newTestEvaluator(), broker, metrics, checker, reg, nil, nil)
	return rt.Handler()
}

func TestRouterRoutes(t *testing.T) {
	handler := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{name: "health", method: "GET", path: "/health", status: http.StatusOK},
		{name: "metrics", method: "GET", path: "/metrics", status: http.StatusOK},
		{name: "pending listing", method: "GET", path: "/elicitations/pending", status: http.StatusOK},
		{name: "unknown route", method: "GET", path: "/nope", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.status {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.status)
			}
		})
	}
}

func TestRouterAppliesScoping(t *testing.T) {
	handler := newTestRouter(t)

	// A server-pinned token may not create elicitations on an
	// unrelated path: the scoping middleware sits in front of the
	// elicitation API too.
	raw := signTestToken(t, map[string]any{
		"sub":    "alice",
		"scopes": map[string]any{"server_id": "srv-1"},
	})
	req := httptest.NewRequest("POST", "/elicitations", strings.NewReader(createBody(1)))
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRouterRequestIDOnEveryResponse(t *testing.T) {
	handler := newTestRouter(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("no X-Request-ID header on response")
	}
}

func TestRouterMetricsExposition(t *testing.T) {
	handler := newTestRouter(t)

	// One denied request, then read it back off /metrics.
	raw := signTestToken(t, map[string]any{
		"sub":    "alice",
		"scopes": map[string]any{"server_id": "srv-1"},
	})
	req := httptest.NewRequest("GET", "/servers/other", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, "gateward_scope_decisions_total") {
		t.Error("scope decision counter missing from exposition")
	}
	if !strings.Contains(body, "gateward_pending_elicitations") {
		t.Error("pending elicitation gauge missing from exposition")
	}
}

func TestRouterUnknownRouteBody(t *testing.T) {
	handler := newTestRouter(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/nope", nil))
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Detail == "" {
		t.Errorf("404 body = %s", rec.Body.String())
	}
}
