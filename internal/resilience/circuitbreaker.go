// Package resilience protects calls into flaky application services.
//
// [CircuitBreaker] is a three-state breaker (closed → open → half-open). The
// wallet transfer capability is wrapped in one so that a failing backend
// answers "Transaction failed" immediately instead of hanging every voice
// transfer. Business rejections (insufficient funds, unknown token) can be
// excluded from failure accounting with [CircuitBreakerConfig.IsFailure].
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [CircuitBreaker.Execute] when the breaker is
// open and the reset timeout has not yet elapsed.
var ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

// State is the operating mode of a [CircuitBreaker].
type State int

const (
	// StateClosed forwards all calls.
	StateClosed State = iota

	// StateOpen rejects calls with [ErrCircuitOpen] until the reset timeout
	// elapses.
	StateOpen

	// StateHalfOpen lets a limited number of probe calls through. Enough
	// successes close the breaker; any failure re-opens it.
	StateHalfOpen
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds tuning knobs for a [CircuitBreaker].
type CircuitBreakerConfig struct {
	// Name is a label used in log messages.
	Name string

	// MaxFailures is the number of consecutive failures in the closed state
	// before the breaker opens. Default: 5.
	MaxFailures int

	// ResetTimeout is how long the breaker stays open before probing.
	// Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenMax is the number of successful probes needed to close again.
	// Default: 1.
	HalfOpenMax int

	// IsFailure decides whether an error counts against the breaker. Nil
	// counts every non-nil error except context cancellation.
	IsFailure func(error) bool

	// OnStateChange, if set, is called after every transition with the lock
	// released.
	OnStateChange func(name string, from, to State)

	// Now is the clock. Default: time.Now.
	Now func() time.Time
}

// CircuitBreaker implements the three-state circuit breaker pattern.
type CircuitBreaker struct {
	name          string
	maxFailures   int
	resetTimeout  time.Duration
	halfOpenMax   int
	isFailure     func(error) bool
	onStateChange func(name string, from, to State)
	now           func() time.Time

	mu              sync.Mutex
	state           State
	consecutiveFail int
	openedAt        time.Time
	probesInFlight  int
	probeSuccesses  int
}

// NewCircuitBreaker creates a [CircuitBreaker]. Zero-value config fields are
// replaced with defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 1
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = defaultIsFailure
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &CircuitBreaker{
		name:          cfg.Name,
		maxFailures:   cfg.MaxFailures,
		resetTimeout:  cfg.ResetTimeout,
		halfOpenMax:   cfg.HalfOpenMax,
		isFailure:     cfg.IsFailure,
		onStateChange: cfg.OnStateChange,
		now:           cfg.Now,
		state:         StateClosed,
	}
}

func defaultIsFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

// Execute runs fn if the breaker allows it. While open it returns
// [ErrCircuitOpen] without calling fn. The error returned by fn is passed
// through unchanged.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	probe, from, changed, err := cb.admit()
	if changed {
		cb.notify(from, StateHalfOpen)
	}
	if err != nil {
		return err
	}

	callErr := fn()

	from, to, changed := cb.record(probe, callErr)
	if changed {
		cb.notify(from, to)
	}
	return callErr
}

// admit decides whether a call may proceed and reports an open → half-open
// transition.
func (cb *CircuitBreaker) admit() (probe bool, from State, changed bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.openedAt) < cb.resetTimeout {
			return false, StateOpen, false, ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.probesInFlight = 0
		cb.probeSuccesses = 0
		changed = true
		slog.Info("resilience: circuit breaker half-open", "name", cb.name)
	}

	if cb.state == StateHalfOpen {
		if cb.probesInFlight >= cb.halfOpenMax {
			return false, StateOpen, changed, ErrCircuitOpen
		}
		cb.probesInFlight++
		return true, StateOpen, changed, nil
	}
	return false, StateOpen, changed, nil
}

// record accounts for the result of a call and returns any transition.
func (cb *CircuitBreaker) record(probe bool, err error) (from, to State, changed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	from = cb.state
	failed := err != nil && cb.isFailure(err)

	switch {
	case probe && failed:
		cb.trip()
		slog.Warn("resilience: circuit breaker re-opened", "name", cb.name, "err", err)

	case probe:
		if cb.state != StateHalfOpen {
			// Another probe already re-opened the breaker.
			break
		}
		cb.probesInFlight--
		cb.probeSuccesses++
		if cb.probeSuccesses >= cb.halfOpenMax {
			cb.state = StateClosed
			cb.consecutiveFail = 0
			slog.Info("resilience: circuit breaker closed", "name", cb.name)
		}

	case failed:
		cb.consecutiveFail++
		if cb.state == StateClosed && cb.consecutiveFail >= cb.maxFailures {
			cb.trip()
			slog.Warn("resilience: circuit breaker opened",
				"name", cb.name,
				"consecutive_failures", cb.consecutiveFail,
				"err", err)
		}

	default:
		cb.consecutiveFail = 0
	}
	return from, cb.state, from != cb.state
}

// trip opens the breaker. Must be called with cb.mu held.
func (cb *CircuitBreaker) trip() {
	cb.state = StateOpen
	cb.openedAt = cb.now()
	cb.probesInFlight = 0
	cb.probeSuccesses = 0
}

func (cb *CircuitBreaker) notify(from, to State) {
	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, from, to)
	}
}

// State returns the current state. An open breaker whose reset timeout has
// elapsed reports [StateHalfOpen]; the transition happens on the next call.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.resetTimeout {
		return StateHalfOpen
	}
	return cb.state
}

// Reset forces the breaker back to [StateClosed].
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	from := cb.state
	cb.state = StateClosed
	cb.consecutiveFail = 0
	cb.probesInFlight = 0
	cb.probeSuccesses = 0
	cb.mu.Unlock()

	slog.Info("resilience: circuit breaker reset", "name", cb.name)
	if from != StateClosed {
		cb.notify(from, StateClosed)
	}
}
