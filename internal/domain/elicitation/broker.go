package elicitation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Broker defaults.
const (
	// DefaultTimeout is the default per-request wait for a client reply.
	DefaultTimeout = 60 * time.Second
	// DefaultMaxConcurrent is the default pending-request ceiling.
	DefaultMaxConcurrent = 100
	// DefaultSweepInterval is how often the expiry sweeper runs.
	DefaultSweepInterval = 60 * time.Second
)

// Broker errors.
var (
	// ErrCapacityExceeded is returned by Create when the registry is
	// full. Callers should retry later rather than queue.
	ErrCapacityExceeded = errors.New("maximum concurrent elicitations reached")
	// ErrTimeout is returned to the Create caller when no reply
	// arrives in time.
	ErrTimeout = errors.New("elicitation timed out")
	// ErrShuttingDown is returned to callers still suspended when the
	// broker shuts down, and to Create calls issued afterwards.
	ErrShuttingDown = errors.New("elicitation broker shutting down")
)

const tracerName = "github.com/gateward/gateward/internal/domain/elicitation"

// resolution is what wakes a suspended Create caller: either the
// client's result or a terminal error (timeout, shutdown).
type resolution struct {
	result Result
	err    error
}

// pending is a registry entry. The result channel is buffered so the
// resolving side never blocks; resolved guards resolve-exactly-once
// under the broker mutex.
type pending struct {
	Pending
	resolved bool
	result   chan resolution
}

// Config holds broker tuning. Zero values take the package defaults.
type Config struct {
	DefaultTimeout time.Duration
	MaxConcurrent  int
	SweepInterval  time.Duration
}

// Broker tracks in-flight elicitation requests and routes client
// replies back to the suspended requester. A single shared instance is
// owned by the composition root and injected into every handler that
// needs it; all methods are safe for concurrent use.
type Broker struct {
	mu           sync.Mutex
	pending      map[string]*pending
	shuttingDown bool
	running      bool

	defaultTimeout time.Duration
	maxConcurrent  int
	sweepInterval  time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup

	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewBroker creates a Broker with the given tuning. Call Start to
// launch the expiry sweeper and Shutdown to release it.
func NewBroker(cfg Config, logger *slog.Logger) *Broker {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		pending:        make(map[string]*pending),
		defaultTimeout: cfg.DefaultTimeout,
		maxConcurrent:  cfg.MaxConcurrent,
		sweepInterval:  cfg.SweepInterval,
		logger:         logger.With("component", "elicitation"),
		tracer:         otel.Tracer(tracerName),
		now:            time.Now,
	}
}

// Start launches the background expiry sweeper. Idempotent: a no-op if
// the sweeper is already running or the broker has shut down.
func (b *Broker) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running || b.shuttingDown {
		return
	}
	b.running = true
	b.stopCh = make(chan struct{})
	b.wg.Add(1)
	go b.sweepLoop(b.stopCh)
	b.logger.Info("elicitation sweeper started", "interval", b.sweepInterval)
}

// Shutdown stops the sweeper and resolves every still-pending entry
// with ErrShuttingDown so no caller is left suspended, then clears the
// registry. Safe to call multiple times; the broker does not restart.
func (b *Broker) Shutdown() {
	b.mu.Lock()
	if b.shuttingDown {
		b.mu.Unlock()
		return
	}
	b.shuttingDown = true
	wasRunning := b.running
	b.running = false
	stopCh := b.stopCh
	b.mu.Unlock()

	if wasRunning {
		close(stopCh)
		b.wg.Wait()
	}

	b.mu.Lock()
	cancelled := 0
	for _, e := range b.pending {
		if !e.resolved {
			e.resolved = true
			e.result <- resolution{err: ErrShuttingDown}
			cancelled++
		}
	}
	b.pending = make(map[string]*pending)
	b.mu.Unlock()

	b.logger.Info("elicitation broker shut down", "cancelled", cancelled)
}

// Create registers an elicitation request and suspends the caller
// until the client replies, the timeout elapses, the sweeper reclaims
// the entry, the context is cancelled, or the broker shuts down. The
// entry is removed on every path. A non-positive timeout takes the
// broker default.
func (b *Broker) Create(ctx context.Context, upstreamSessionID, downstreamSessionID, message string, requestedSchema map[string]any, timeout time.Duration) (Result, error) {
	// Reject invalid schemas before any entry is registered.
	if err := ValidateSchema(requestedSchema, b.logger); err != nil {
		return Result{}, err
	}

	if timeout <= 0 {
		timeout = b.defaultTimeout
	}

	entry := &pending{
		Pending: Pending{
			RequestID:           uuid.New().String(),
			UpstreamSessionID:   upstreamSessionID,
			DownstreamSessionID: downstreamSessionID,
			CreatedAt:           b.now(),
			Timeout:             timeout,
			Message:             message,
			Schema:              requestedSchema,
		},
		result: make(chan resolution, 1),
	}

	b.mu.Lock()
	if b.shuttingDown {
		b.mu.Unlock()
		return Result{}, ErrShuttingDown
	}
	if len(b.pending) >= b.maxConcurrent {
		b.mu.Unlock()
		b.logger.Warn("max concurrent elicitations reached", "max", b.maxConcurrent)
		return Result{}, fmt.Errorf("%w (%d)", ErrCapacityExceeded, b.maxConcurrent)
	}
	b.pending[entry.RequestID] = entry
	b.mu.Unlock()

	ctx, span := b.tracer.Start(ctx, "elicitation.create")
	span.SetAttributes(
		attribute.String("elicitation.request_id", entry.RequestID),
		attribute.String("elicitation.upstream_session", upstreamSessionID),
		attribute.String("elicitation.downstream_session", downstreamSessionID),
	)
	defer span.End()

	b.logger.Info("created elicitation request",
		"request_id", entry.RequestID,
		"upstream_session", upstreamSessionID,
		"downstream_session", downstreamSessionID,
		"timeout", timeout,
	)

	defer b.remove(entry.RequestID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-entry.result:
		if res.err != nil {
			b.logger.Warn("elicitation resolved with error",
				"request_id", entry.RequestID, "error", res.err)
			return Result{}, res.err
		}
		b.logger.Info("elicitation completed",
			"request_id", entry.RequestID, "action", res.result.Action)
		return res.result, nil

	case <-timer.C:
		if b.claim(entry) {
			b.logger.Warn("elicitation timed out",
				"request_id", entry.RequestID, "timeout", timeout)
			return Result{}, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		// Lost the race: a resolution landed just before the timer
		// fired. The channel is buffered and already holds it.
		res := <-entry.result
		if res.err != nil {
			return Result{}, res.err
		}
		return res.result, nil

	case <-ctx.Done():
		if b.claim(entry) {
			return Result{}, ctx.Err()
		}
		res := <-entry.result
		if res.err != nil {
			return Result{}, res.err
		}
		return res.result, nil
	}
}

// Complete resolves a pending elicitation with the client's reply.
// Returns false when the id is unknown (expired or never existed) or
// the entry was already resolved; both are no-ops for the caller, not
// errors.
func (b *Broker) Complete(requestID string, result Result) bool {
	if !b.resolve(requestID, resolution{result: result}) {
		b.logger.Warn("attempted to complete unknown or finished elicitation",
			"request_id", requestID)
		return false
	}
	b.logger.Debug("completed elicitation",
		"request_id", requestID, "action", result.Action)
	return true
}

// Get returns a snapshot of a pending elicitation.
func (b *Broker) Get(requestID string) (Pending, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.pending[requestID]
	if !ok {
		return Pending{}, false
	}
	return e.Pending, true
}

// PendingCount returns the number of outstanding elicitations.
func (b *Broker) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// MaxConcurrent returns the registry's concurrency ceiling.
func (b *Broker) MaxConcurrent() int {
	return b.maxConcurrent
}

// ListForSession returns snapshots of every pending elicitation whose
// upstream or downstream session matches sessionID.
func (b *Broker) ListForSession(sessionID string) []Pending {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Pending
	for _, e := range b.pending {
		if e.UpstreamSessionID == sessionID || e.DownstreamSessionID == sessionID {
			out = append(out, e.Pending)
		}
	}
	return out
}

// resolve delivers a resolution to a pending entry. First writer wins;
// returns false when the entry is absent or already resolved. The
// entry itself is removed by the waiter's cleanup path (or the
// sweeper), never here, so a racing waiter can still read the channel.
func (b *Broker) resolve(requestID string, res resolution) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.pending[requestID]
	if !ok || e.resolved {
		return false
	}
	e.resolved = true
	e.result <- res
	return true
}

// claim lets the waiter itself win the resolution race (timeout or
// context cancellation). Returns true when the waiter won.
func (b *Broker) claim(e *pending) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e.resolved {
		return false
	}
	e.resolved = true
	return true
}

// remove deletes an entry from the registry.
func (b *Broker) remove(requestID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, requestID)
}

// sweepLoop periodically reclaims entries whose timeout elapsed
// without their waiter noticing -- defense in depth for waiters that
// died or were cancelled without reaching their own timeout branch.
func (b *Broker) sweepLoop(stopCh chan struct{}) {
	defer b.wg.Done()
	ticker := time.NewTicker(b.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			b.sweepExpired(b.now())
		}
	}
}

// sweepExpired resolves and removes every entry older than its
// timeout.
func (b *Broker) sweepExpired(now time.Time) {
	b.mu.Lock()
	var expired []string
	for id, e := range b.pending {
		if !e.Expired(now) {
			continue
		}
		expired = append(expired, id)
		if !e.resolved {
			e.resolved = true
			e.result <- resolution{err: fmt.Errorf("%w: expired after %s", ErrTimeout, e.Age(now).Round(time.Millisecond))}
		}
	}
	for _, id := range expired {
		delete(b.pending, id)
	}
	b.mu.Unlock()

	if len(expired) > 0 {
		b.logger.Info("swept expired elicitations", "count", len(expired))
	}
}
