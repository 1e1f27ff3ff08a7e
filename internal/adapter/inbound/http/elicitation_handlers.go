package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gateward/gateward/internal/domain/elicitation"
)

// ElicitationHandler exposes the broker over HTTP: servers create
// requests (and suspend), clients deliver replies, and both sides can
// introspect pending entries.
type ElicitationHandler struct {
	broker  *elicitation.Broker
	metrics *Metrics
	logger  *slog.Logger
}

// NewElicitationHandler creates an ElicitationHandler over the shared
// broker.
func NewElicitationHandler(broker *elicitation.Broker, metrics *Metrics, logger *slog.Logger) *ElicitationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ElicitationHandler{
		broker:  broker,
		metrics: metrics,
		logger:  logger.With("component", "elicitation_http"),
	}
}

// Register mounts the elicitation routes on the mux.
func (h *ElicitationHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /elicitations", h.create)
	mux.HandleFunc("POST /elicitations/{id}/complete", h.complete)
	mux.HandleFunc("GET /elicitations/pending", h.listPending)
	mux.HandleFunc("GET /elicitations/{id}", h.get)
}

// createRequest is the body of POST /elicitations.
type createRequest struct {
	UpstreamSessionID   string         `json:"upstream_session_id"`
	DownstreamSessionID string         `json:"downstream_session_id"`
	Message             string         `json:"message"`
	RequestedSchema     map[string]any `json:"requested_schema"`
	TimeoutSeconds      float64        `json:"timeout_seconds,omitempty"`
}

// create registers an elicitation request and blocks until the client
// replies or a terminal error occurs. The response is the client's
// ElicitResult.
func (h *ElicitationHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UpstreamSessionID == "" || req.DownstreamSessionID == "" {
		writeError(w, http.StatusBadRequest, "upstream_session_id and downstream_session_id are required")
		return
	}

	timeout := time.Duration(req.TimeoutSeconds * float64(time.Second))

	result, err := h.broker.Create(r.Context(),
		req.UpstreamSessionID, req.DownstreamSessionID,
		req.Message, req.RequestedSchema, timeout)
	if err != nil {
		h.writeCreateError(r.Context(), w, err)
		return
	}

	h.countOutcome("completed")
	writeJSON(w, http.StatusOK, result)
}

// writeCreateError maps broker errors to HTTP statuses: schema 400,
// capacity 429, timeout 408, shutdown 503.
func (h *ElicitationHandler) writeCreateError(ctx context.Context, w http.ResponseWriter, err error) {
	var schemaErr *elicitation.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		h.countOutcome("schema_invalid")
		writeError(w, http.StatusBadRequest, schemaErr.Error())
	case errors.Is(err, elicitation.ErrCapacityExceeded):
		h.countOutcome("capacity")
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, elicitation.ErrTimeout):
		h.countOutcome("timeout")
		writeError(w, http.StatusRequestTimeout, err.Error())
	case errors.Is(err, elicitation.ErrShuttingDown):
		h.countOutcome("shutdown")
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.countOutcome("cancelled")
		// Requester went away; nothing useful to write, but be explicit.
		writeError(w, http.StatusRequestTimeout, "request cancelled")
	default:
		LoggerFromContext(ctx).Error("elicitation create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// complete delivers a client's reply to a pending elicitation. An
// unknown or already-resolved id reports completed=false; it is a
// no-op, not an error.
func (h *ElicitationHandler) complete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var result elicitation.Result
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !result.Action.IsValid() {
		writeError(w, http.StatusBadRequest, "action must be one of accept, decline, cancel")
		return
	}

	completed := h.broker.Complete(id, result)
	writeJSON(w, http.StatusOK, map[string]bool{"completed": completed})
}

// get returns a snapshot of one pending elicitation.
func (h *ElicitationHandler) get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pending, ok := h.broker.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "elicitation not found")
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

// listPending returns pending elicitations, optionally filtered by
// upstream or downstream session id.
func (h *ElicitationHandler) listPending(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")

	var items []elicitation.Pending
	if sessionID != "" {
		items = h.broker.ListForSession(sessionID)
	} else {
		writeJSON(w, http.StatusOK, map[string]any{
			"pending_count": h.broker.PendingCount(),
		})
		return
	}
	if items == nil {
		items = []elicitation.Pending{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pending": items,
	})
}

func (h *ElicitationHandler) countOutcome(outcome string) {
	if h.metrics != nil {
		h.metrics.ElicitationOutcomes.WithLabelValues(outcome).Inc()
	}
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body in the same {"detail": ...}
// shape the scoping middleware uses.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailBody{Detail: detail})
}
