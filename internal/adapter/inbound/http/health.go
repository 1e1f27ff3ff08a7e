package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"

	"github.com/gateward/gateward/internal/domain/elicitation"
)

// HealthResponse is the JSON response from the /health endpoint.
type HealthResponse struct {
	Status  string            `json:"status"`            // "healthy" or "unhealthy"
	Checks  map[string]string `json:"checks"`            // Component check results
	Version string            `json:"version,omitempty"` // Optional version info
}

// HealthChecker verifies component health.
type HealthChecker struct {
	broker  *elicitation.Broker
	version string
}

// NewHealthChecker creates a HealthChecker. Pass nil for components
// that aren't available.
func NewHealthChecker(broker *elicitation.Broker, version string) *HealthChecker {
	return &HealthChecker{broker: broker, version: version}
}

// Check performs health checks on all components.
func (h *HealthChecker) Check() HealthResponse {
	checks := make(map[string]string)
	healthy := true

	if h.broker != nil {
		pending := h.broker.PendingCount()
		capacity := h.broker.MaxConcurrent()
		percentFull := 0
		if capacity > 0 {
			percentFull = pending * 100 / capacity
		}
		if percentFull > 90 {
			// >90% full means callers are about to hit the capacity limit.
			checks["elicitations"] = fmt.Sprintf("degraded: %d/%d (%d%%)", pending, capacity, percentFull)
			healthy = false
		} else {
			checks["elicitations"] = fmt.Sprintf("ok: %d/%d (%d%%)", pending, capacity, percentFull)
		}
	} else {
		checks["elicitations"] = "not configured"
	}

	checks["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	return HealthResponse{
		Status:  status,
		Checks:  checks,
		Version: h.version,
	}
}

// Handler returns an HTTP handler for the health endpoint.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := h.Check()

		w.Header().Set("Content-Type", "application/json")
		if health.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(health)
	})
}
