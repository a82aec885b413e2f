package resilience

import (
	"sync"
	"time"

	"socratic/internal/logging"
	"socratic/internal/types"
)

// Config bounds the resilience layer.
type Config struct {
	FailureThreshold int           // Consecutive knowledge failures before the breaker opens
	ResetTimeout     time.Duration // How long the breaker stays open
	Clock            types.Clock   // Injectable time source for tests
}

// DefaultConfig returns the documented defaults: 3 failures, 30s reset.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 3,
		ResetTimeout:     30 * time.Second,
	}
}

// Manager is the single authority over degradation mode, the capability
// set, and the knowledge breaker. Mode and capabilities change together
// under one lock so observers never see them disagree.
type Manager struct {
	mu        sync.RWMutex
	mode      types.DegradationMode
	caps      types.CapabilitySet
	reason    string
	enteredAt time.Time
	cause     ErrorKind // Kind that drove the current degradation
	cacheOff  bool      // Sticky caching kill-switch, cleared only by Reset

	breaker   *Breaker
	now       types.Clock
	startedAt time.Time
}

// NewManager creates a manager in full mode with a closed breaker.
func NewManager(cfg Config) *Manager {
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	m := &Manager{
		mode:      types.ModeFull,
		caps:      types.CapabilitiesFor(types.ModeFull),
		enteredAt: now(),
		breaker:   NewBreakerWithClock("knowledge", cfg.FailureThreshold, cfg.ResetTimeout, now),
		now:       now,
		startedAt: now(),
	}
	return m
}

// Mode returns the current degradation mode.
func (m *Manager) Mode() types.DegradationMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// State returns a consistent snapshot of mode and capabilities.
func (m *Manager) State() types.DegradationState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return types.DegradationState{
		Mode:         m.mode,
		Capabilities: m.caps,
		Disabled:     m.caps.Disabled(),
		Reason:       m.reason,
		EnteredAt:    m.enteredAt,
	}
}

// Capabilities returns the current capability set.
func (m *Manager) Capabilities() types.CapabilitySet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.caps
}

// CapabilityEnabled reports whether one capability is on.
func (m *Manager) CapabilityEnabled(c types.Capability) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.caps.Enabled(c)
}

// KnowledgeAllowed reports whether a knowledge lookup may be attempted
// right now. In full mode this is the breaker's decision. In limited mode
// the breaker's reset timeout doubles as the recovery probe window: once
// it elapses, one real request is let through to test the collaborator.
// Offline and emergency never query.
func (m *Manager) KnowledgeAllowed() bool {
	m.mu.RLock()
	severity := m.mode.Severity()
	m.mu.RUnlock()

	if severity > types.ModeLimited.Severity() {
		return false
	}
	return m.breaker.Allow()
}

// ReportKnowledgeFailure records a failed lookup. The breaker advances;
// the mode drops to limited if it was healthier than that.
func (m *Manager) ReportKnowledgeFailure(err error) {
	opened := m.breaker.RecordFailure()

	m.mu.Lock()
	defer m.mu.Unlock()

	if opened {
		logging.ResilienceWarn("knowledge breaker opened: %v", err)
	}
	if m.mode.Severity() < types.ModeLimited.Severity() {
		m.transitionLocked(types.ModeLimited, "knowledge lookups failing: "+errText(err), KindKnowledge)
	}
}

// ReportKnowledgeSuccess records a healthy lookup. If the knowledge
// outage was what degraded us, service recovers to full; degradation
// caused by other subsystems stays until Reset.
func (m *Manager) ReportKnowledgeSuccess() {
	m.breaker.RecordSuccess()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode == types.ModeLimited && m.cause == KindKnowledge {
		m.transitionLocked(types.ModeFull, "knowledge restored", KindKnowledge)
	}
}

// ReportCacheFailure switches caching off until Reset and drops the mode
// to limited if it was healthier.
func (m *Manager) ReportCacheFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cacheOff = true
	if m.mode.Severity() < types.ModeLimited.Severity() {
		m.transitionLocked(types.ModeLimited, "cache failure: "+errText(err), KindCache)
	} else {
		m.caps.Caching = false
		logging.ResilienceWarn("caching disabled after cache failure: %v", err)
	}
}

// ReportSessionFailure logs the problem. Session errors never change the
// mode; the engine answers with a fresh session instead.
func (m *Manager) ReportSessionFailure(err error) {
	logging.ResilienceWarn("session error (no mode change): %v", err)
	logging.Audit().Error("resilience", err, false)
}

// ReportTemplateFailure handles a synthesis or pack failure. With
// external queries already suspended there is nothing left to generate
// novel questions from, so limited escalates to offline. In full mode the
// fallback bank absorbs the failure without a transition.
func (m *Manager) ReportTemplateFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.caps.ExternalQueries && m.mode == types.ModeLimited {
		m.transitionLocked(types.ModeOffline, "template synthesis failing while knowledge suspended: "+errText(err), KindTemplate)
		return
	}
	logging.ResilienceWarn("template failure absorbed by fallback bank: %v", err)
}

// ReportInternalFailure drops straight to emergency mode.
func (m *Manager) ReportInternalFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mode != types.ModeEmergency {
		m.transitionLocked(types.ModeEmergency, "internal failure: "+errText(err), KindInternal)
	}
	logging.Audit().Error("resilience", err, true)
}

// HandleError classifies an error of unknown origin and applies the
// transition its kind demands. Used for recovered panics and errors that
// bubbled up without a subsystem label.
func (m *Manager) HandleError(err error) *ClassifiedError {
	ce := Classify(err)
	if ce == nil {
		return nil
	}
	switch ce.Kind {
	case KindKnowledge:
		m.ReportKnowledgeFailure(err)
	case KindCache:
		m.ReportCacheFailure(err)
	case KindSession:
		m.ReportSessionFailure(err)
	case KindTemplate:
		m.ReportTemplateFailure(err)
	default:
		m.ReportInternalFailure(err)
	}
	return ce
}

// Reset restores full service and clears the breaker and the caching
// kill-switch. This is the manual recovery path.
func (m *Manager) Reset() {
	m.breaker.Reset()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cacheOff = false
	m.transitionLocked(types.ModeFull, "manual reset", KindInternal)
}

// BreakerSnapshot exposes the knowledge breaker for health reporting.
func (m *Manager) BreakerSnapshot() types.CircuitSnapshot {
	return m.breaker.Snapshot()
}

// Uptime reports how long the manager has existed.
func (m *Manager) Uptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now().Sub(m.startedAt)
}

// transitionLocked moves to a new mode with its canonical capabilities,
// honoring the sticky caching kill-switch. Caller holds m.mu.
func (m *Manager) transitionLocked(to types.DegradationMode, reason string, cause ErrorKind) {
	from := m.mode
	m.mode = to
	m.caps = types.CapabilitiesFor(to)
	if m.cacheOff {
		m.caps.Caching = false
	}
	m.reason = reason
	m.enteredAt = m.now()
	m.cause = cause

	if from != to {
		logging.Resilience("degradation: %s -> %s (%s)", from, to, reason)
		logging.Audit().DegradationTransition(string(from), string(to), reason)
	}
}

func errText(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}
