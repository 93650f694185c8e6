// Package breaker implements LogLens's per-service circuit breaker (C8),
// per spec.md §4.8. Ported from the original Rust implementation's
// atomic-counter-plus-mutex-guarded-state design.
package breaker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/logx"
)

var (
	tripsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "loglens",
		Subsystem: "breaker",
		Name:      "trips_total",
		Help:      "Number of times a circuit breaker opened.",
	}, []string{"service"})

	callsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "loglens",
		Subsystem: "breaker",
		Name:      "calls_total",
		Help:      "Calls through a circuit breaker by outcome.",
	}, []string{"service", "outcome"})
)

func init() {
	prometheus.MustRegister(tripsTotal, callsTotal)
}

// State is a circuit breaker's lifecycle state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config tunes a CircuitBreaker's thresholds and timeouts.
type Config struct {
	FailureThreshold uint32
	SuccessThreshold uint32
	TimeoutDuration  time.Duration
	ResetTimeout     time.Duration
}

// DefaultConfig matches the original implementation's defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 3,
		TimeoutDuration:  10 * time.Second,
		ResetTimeout:     60 * time.Second,
	}
}

// CircuitBreaker protects a single named external dependency.
type CircuitBreaker struct {
	name   string
	config Config

	mu              sync.Mutex
	state           State
	lastFailureTime time.Time
	hasFailed       bool

	failureCount atomic.Uint64
	successCount atomic.Uint64
}

// New constructs a CircuitBreaker for name with config.
func New(name string, config Config) *CircuitBreaker {
	return &CircuitBreaker{name: name, config: config, state: Closed}
}

// State returns the breaker's current state.
func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Call executes op, gated by the breaker's state and wrapped in the
// configured per-call timeout. Timeout expiration counts as a failure
// and is surfaced as clierr.KindTimeout.
func (b *CircuitBreaker) Call(ctx context.Context, op func(context.Context) error) error {
	if !b.canAttempt() {
		callsTotal.WithLabelValues(b.name, "circuit_open").Inc()
		return clierr.New(clierr.KindCircuitOpen, "circuit breaker is open for service: "+b.name)
	}

	callCtx, cancel := context.WithTimeout(ctx, b.config.TimeoutDuration)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(callCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			if isAuthError(err) {
				callsTotal.WithLabelValues(b.name, "auth_failure").Inc()
				return err
			}
			b.onFailure()
			callsTotal.WithLabelValues(b.name, "failure").Inc()
			return clierr.Wrap(clierr.KindTransport, "service call failed", err)
		}
		b.onSuccess()
		callsTotal.WithLabelValues(b.name, "success").Inc()
		return nil
	case <-callCtx.Done():
		b.onFailure()
		callsTotal.WithLabelValues(b.name, "timeout").Inc()
		return clierr.New(clierr.KindTimeout, "timeout calling service: "+b.name)
	}
}

// isAuthError reports whether err is a provider authentication failure.
// Per spec.md §7, a 401 surfaces to the caller without tripping the
// breaker: a bad API key isn't evidence the service itself is unhealthy.
func isAuthError(err error) bool {
	ce, ok := err.(*clierr.Error)
	return ok && ce.Kind == clierr.KindAuthentication
}

func (b *CircuitBreaker) canAttempt() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case Open:
		if b.hasFailed && time.Since(b.lastFailureTime) >= b.config.ResetTimeout {
			logx.Log().Info().Str("breaker", b.name).Msg("circuit breaker transitioning to half-open")
			b.state = HalfOpen
			b.successCount.Store(0)
			return true
		}
		return false
	case HalfOpen:
		return true
	default:
		return false
	}
}

func (b *CircuitBreaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failureCount.Store(0)
	case HalfOpen:
		n := b.successCount.Add(1)
		if n >= uint64(b.config.SuccessThreshold) {
			logx.Log().Info().Str("breaker", b.name).Msg("circuit breaker transitioning to closed")
			b.state = Closed
			b.failureCount.Store(0)
			b.successCount.Store(0)
		}
	case Open:
		// Shouldn't happen; a call only completes once admitted.
		b.state = HalfOpen
	}
}

func (b *CircuitBreaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasFailed = true
	b.lastFailureTime = time.Now()

	switch b.state {
	case Closed:
		n := b.failureCount.Add(1)
		if n >= uint64(b.config.FailureThreshold) {
			logx.Log().Warn().Str("breaker", b.name).Msg("circuit breaker opening")
			b.state = Open
			tripsTotal.WithLabelValues(b.name).Inc()
		}
	case HalfOpen:
		logx.Log().Warn().Str("breaker", b.name).Msg("circuit breaker reopening after half-open failure")
		b.state = Open
		b.successCount.Store(0)
		tripsTotal.WithLabelValues(b.name).Inc()
	case Open:
		// Already open; nothing to do.
	}
}

// Registry owns breakers by service name, creating them on first use.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
	config   Config
}

// NewRegistry constructs a Registry whose breakers all share config.
func NewRegistry(config Config) *Registry {
	return &Registry{breakers: make(map[string]*CircuitBreaker), config: config}
}

// Get returns the breaker for name, creating it with the registry's
// default config if it does not yet exist.
func (r *Registry) Get(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	b := New(name, r.config)
	r.breakers[name] = b
	return b
}
