// Package resilience owns the engine's failure handling: the knowledge
// circuit breaker, the degradation mode state machine, error
// classification, and health reporting. A transition touches all of
// them at once: an error is classified, the breaker advances, the mode
// shifts, and the health report must tell one consistent story.
package resilience

import (
	"sync"
	"time"

	"socratic/internal/logging"
	"socratic/internal/types"
)

// Breaker is a consecutive-failure circuit breaker with two states. It
// opens after threshold consecutive failures; once the reset timeout has
// elapsed since opening, the next Allow closes it again with a clean
// failure count. There is no half-open state: the caller's next real
// request is the probe.
type Breaker struct {
	mu        sync.Mutex
	name      string
	threshold int
	timeout   time.Duration
	now       types.Clock

	state            types.CircuitState
	consecutiveFails int
	lastFailureAt    time.Time
	openedAt         time.Time
}

// NewBreaker creates a closed breaker. threshold <= 0 becomes 3 and
// timeout <= 0 becomes 30s, matching the documented defaults.
func NewBreaker(name string, threshold int, timeout time.Duration) *Breaker {
	return NewBreakerWithClock(name, threshold, timeout, time.Now)
}

// NewBreakerWithClock injects the clock so tests can step time instead of
// sleeping through reset windows.
func NewBreakerWithClock(name string, threshold int, timeout time.Duration, now types.Clock) *Breaker {
	if threshold <= 0 {
		threshold = 3
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &Breaker{
		name:      name,
		threshold: threshold,
		timeout:   timeout,
		now:       now,
		state:     types.CircuitClosed,
	}
}

// Allow reports whether a call may proceed. An open breaker whose reset
// timeout has elapsed closes here, so the caller's request doubles as the
// recovery probe.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == types.CircuitClosed {
		return true
	}
	if b.now().Sub(b.openedAt) >= b.timeout {
		b.state = types.CircuitClosed
		b.consecutiveFails = 0
		logging.Resilience("breaker %s: reset timeout elapsed, closing", b.name)
		logging.Audit().BreakerState(b.name, string(types.CircuitClosed), 0)
		return true
	}
	return false
}

// RecordSuccess clears the failure streak and closes the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasOpen := b.state == types.CircuitOpen
	b.state = types.CircuitClosed
	b.consecutiveFails = 0
	if wasOpen {
		logging.Resilience("breaker %s: success recorded, closing", b.name)
		logging.Audit().BreakerState(b.name, string(types.CircuitClosed), 0)
	}
}

// RecordFailure advances the failure streak and reports whether this
// failure opened the breaker.
func (b *Breaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFails++
	b.lastFailureAt = b.now()

	if b.state == types.CircuitOpen {
		return false
	}
	if b.consecutiveFails >= b.threshold {
		b.state = types.CircuitOpen
		b.openedAt = b.now()
		logging.ResilienceWarn("breaker %s: opened after %d consecutive failures", b.name, b.consecutiveFails)
		logging.Audit().BreakerState(b.name, string(types.CircuitOpen), b.consecutiveFails)
		return true
	}
	return false
}

// Reset closes the breaker and clears all counters regardless of state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasOpen := b.state == types.CircuitOpen
	b.state = types.CircuitClosed
	b.consecutiveFails = 0
	b.lastFailureAt = time.Time{}
	b.openedAt = time.Time{}
	if wasOpen {
		logging.Resilience("breaker %s: manual reset", b.name)
		logging.Audit().BreakerState(b.name, string(types.CircuitClosed), 0)
	}
}

// Snapshot returns an observable copy of the breaker internals.
func (b *Breaker) Snapshot() types.CircuitSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return types.CircuitSnapshot{
		Name:             b.name,
		State:            b.state,
		ConsecutiveFails: b.consecutiveFails,
		LastFailureAt:    b.lastFailureAt,
		OpenedAt:         b.openedAt,
	}
}

// State returns the current breaker position, honoring a pending
// timeout-close the same way Allow does but without consuming it.
func (b *Breaker) State() types.CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == types.CircuitOpen && b.now().Sub(b.openedAt) >= b.timeout {
		return types.CircuitClosed
	}
	return b.state
}
