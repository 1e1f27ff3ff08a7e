package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gateward/gateward/internal/domain/elicitation"
	"github.com/gateward/gateward/internal/domain/scope"
)

// Router assembles the control-plane HTTP surface: health and metrics
// (exempt from scoping), the elicitation API, and the scoping
// middleware ahead of everything else.
type Router struct {
	eval     *scope.Evaluator
	broker   *elicitation.Broker
	metrics  *Metrics
	checker  *HealthChecker
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	// next handles every route the control plane itself does not
	// serve; typically the proxy data path, or a 404 handler in
	// standalone mode.
	next http.Handler
}

// NewRouter builds a Router. next may be nil, in which case unclaimed
// routes get a JSON 404.
func NewRouter(eval *scope.Evaluator, broker *elicitation.Broker, metrics *Metrics, checker *HealthChecker, gatherer prometheus.Gatherer, logger *slog.Logger, next http.Handler) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if next == nil {
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "not found")
		})
	}
	return &Router{
		eval:     eval,
		broker:   broker,
		metrics:  metrics,
		checker:  checker,
		gatherer: gatherer,
		logger:   logger,
		next:     next,
	}
}

// Handler returns the fully wired handler chain:
// request-id -> scoping -> mux.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	if rt.checker != nil {
		mux.Handle("GET /health", rt.checker.Handler())
	}
	if rt.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{}))
	}
	if rt.broker != nil {
		NewElicitationHandler(rt.broker, rt.metrics, rt.logger).Register(mux)
	}
	mux.Handle("/", rt.next)

	var handler http.Handler = mux
	handler = ScopeMiddleware(rt.eval, rt.metrics, rt.logger)(handler)
	handler = RequestIDMiddleware(rt.logger)(handler)
	return handler
}
