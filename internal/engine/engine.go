// Package engine is the orchestrator: it owns the session store, the
// template library, the knowledge querier, and the resilience manager,
// and composes them into the four operations a host application calls.
// Requests run synchronously; a background maintenance loop sweeps the
// caches and rolls up metrics without blocking them.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"socratic/internal/cache"
	"socratic/internal/config"
	"socratic/internal/expertise"
	"socratic/internal/knowledge"
	"socratic/internal/logging"
	"socratic/internal/memory"
	"socratic/internal/resilience"
	"socratic/internal/templates"
	"socratic/internal/types"
)

// Synthesized template sets are cached per (domain, type, tier). The
// bank only changes when the domain context does, so a generous TTL is
// safe.
const (
	synthCacheSize = 128
	synthCacheTTL  = 30 * time.Minute

	// slowGeneration flags question generation that blew its latency
	// budget in the performance log.
	slowGeneration = 250 * time.Millisecond
)

// Options configures a new engine. Zero values fall back to defaults.
type Options struct {
	// Config supplies all tunables; nil means config.DefaultConfig.
	Config *config.Config

	// Source is the external knowledge collaborator. Nil disables the
	// knowledge path entirely; the engine then lives on templates.
	Source types.KnowledgeSource

	// Clock is injectable for tests.
	Clock types.Clock
}

// Engine generates adaptive questions and tracks expertise per session.
// All methods are safe for concurrent use.
type Engine struct {
	cfg *config.Config
	now types.Clock

	store   *memory.Store
	library *templates.Library
	querier *knowledge.Querier
	tracker *expertise.Tracker
	degrade *resilience.Manager
	synth   *cache.TTLCache
	watcher *templates.Watcher

	// Counters, read via Metrics.
	genTemplate  int64
	genCached    int64
	genFallback  int64
	genRecovered int64
	processed    int64
	adjustments  int64

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New assembles an engine from its parts. The maintenance loop does not
// run until Start.
func New(opts Options) *Engine {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	lib := templates.NewBuiltinLibrary()
	if dir := cfg.Templates.PacksDir; dir != "" {
		if n, err := templates.LoadDir(dir, lib); err != nil {
			logging.TemplatesWarn("pack directory %s not loaded: %v", dir, err)
		} else if n > 0 {
			logging.Templates("loaded %d pack templates from %s", n, dir)
		}
	}

	e := &Engine{
		cfg: cfg,
		now: now,
		store: memory.NewStore(memory.StoreConfig{
			SessionTTL:    cfg.GetSessionTTL(),
			SweepInterval: cfg.GetSweepInterval(),
			MaxSessions:   cfg.Memory.MaxSessions,
			Clock:         now,
		}),
		library: lib,
		tracker: expertise.NewTrackerWithClock(now),
		degrade: resilience.NewManager(resilience.Config{
			FailureThreshold: cfg.Resilience.FailureThreshold,
			ResetTimeout:     cfg.GetBreakerResetTimeout(),
			Clock:            now,
		}),
		synth: cache.NewWithClock(synthCacheSize, synthCacheTTL, now),
	}

	if cfg.Knowledge.Enabled && opts.Source != nil {
		e.querier = knowledge.NewQuerier(opts.Source, knowledge.QuerierConfig{
			Timeout:       cfg.GetKnowledgeTimeout(),
			CacheTTL:      cfg.GetKnowledgeCacheTTL(),
			CacheSize:     cfg.Knowledge.CacheSize,
			MaxConcurrent: cfg.Knowledge.MaxConcurrent,
		})
	} else if cfg.Knowledge.Enabled {
		logging.EngineWarn("knowledge enabled but no source provided; running template-only")
	}

	if cfg.Templates.Watch && cfg.Templates.PacksDir != "" {
		w, err := templates.NewWatcher(cfg.Templates.PacksDir, lib, cfg.GetWatchDebounce())
		if err != nil {
			logging.TemplatesWarn("pack watcher unavailable: %v", err)
		} else {
			e.watcher = w
		}
	}

	return e
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Start launches the background maintenance: session eviction sweeps,
// cache sweeps, metrics rollup, and the template pack watcher. Idempotent.
func (e *Engine) Start(ctx context.Context) {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})

	e.store.Start(ctx)
	if e.watcher != nil {
		if err := e.watcher.Start(ctx); err != nil {
			logging.TemplatesWarn("pack watcher failed to start: %v", err)
		}
	}
	go e.maintain(ctx)

	logging.Engine("engine started (maintenance every %s)", e.cfg.GetSweepInterval())
}

// Stop halts the maintenance loop, the watcher, and the session sweeper,
// blocking until they exit. Idempotent.
func (e *Engine) Stop() {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if !e.running {
		return
	}
	e.running = false

	close(e.stopCh)
	<-e.doneCh
	if e.watcher != nil {
		e.watcher.Stop()
	}
	e.store.Stop()

	logging.Engine("engine stopped")
}

func (e *Engine) maintain(ctx context.Context) {
	defer close(e.doneCh)

	ticker := time.NewTicker(e.cfg.GetSweepInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.sweep()
		}
	}
}

// sweep is one maintenance pass: drop expired cache entries and log the
// counter rollup. Session eviction runs in the store's own sweeper.
func (e *Engine) sweep() {
	start := time.Now()

	swept := e.synth.Sweep()
	if e.querier != nil {
		swept += e.querier.Sweep()
	}

	m := e.Metrics()
	logging.EngineDebug("maintenance pass: %d cache entries dropped, %s", swept, m)
	logging.Audit().PerfMetric("maintenance_sweep", time.Since(start).Milliseconds(), 0)
}

// =============================================================================
// OBSERVABILITY
// =============================================================================

// Metrics is a counter snapshot across all operations.
type Metrics struct {
	GeneratedTemplate  int64                 `json:"generated_template"`
	GeneratedCached    int64                 `json:"generated_cached"`
	GeneratedFallback  int64                 `json:"generated_fallback"`
	GeneratedRecovered int64                 `json:"generated_recovered"`
	ResponsesProcessed int64                 `json:"responses_processed"`
	Adjustments        int64                 `json:"adjustments"`
	ActiveSessions     int                   `json:"active_sessions"`
	Mode               types.DegradationMode `json:"mode"`
}

// Total returns the questions generated across all provenances.
func (m Metrics) Total() int64 {
	return m.GeneratedTemplate + m.GeneratedCached + m.GeneratedFallback + m.GeneratedRecovered
}

// String formats the snapshot for log lines.
func (m Metrics) String() string {
	return fmt.Sprintf("generated=%d (template=%d cached=%d fallback=%d recovered=%d), processed=%d, adjustments=%d, sessions=%d, mode=%s",
		m.Total(), m.GeneratedTemplate, m.GeneratedCached, m.GeneratedFallback, m.GeneratedRecovered,
		m.ResponsesProcessed, m.Adjustments, m.ActiveSessions, m.Mode)
}

// Metrics returns the current counter snapshot.
func (e *Engine) Metrics() Metrics {
	return Metrics{
		GeneratedTemplate:  atomic.LoadInt64(&e.genTemplate),
		GeneratedCached:    atomic.LoadInt64(&e.genCached),
		GeneratedFallback:  atomic.LoadInt64(&e.genFallback),
		GeneratedRecovered: atomic.LoadInt64(&e.genRecovered),
		ResponsesProcessed: atomic.LoadInt64(&e.processed),
		Adjustments:        atomic.LoadInt64(&e.adjustments),
		ActiveSessions:     e.store.Count(),
		Mode:               e.degrade.Mode(),
	}
}

func (e *Engine) countProvenance(p types.Provenance) {
	switch p {
	case types.ProvenanceTemplate:
		atomic.AddInt64(&e.genTemplate, 1)
	case types.ProvenanceCached:
		atomic.AddInt64(&e.genCached, 1)
	case types.ProvenanceFallback:
		atomic.AddInt64(&e.genFallback, 1)
	case types.ProvenanceRecovered:
		atomic.AddInt64(&e.genRecovered, 1)
	}
}

// Health reports overall engine health for diagnostics. Advisory only;
// it never changes state.
func (e *Engine) Health() types.HealthReport {
	cached := 0
	if e.querier != nil {
		cached = e.querier.Metrics().CachedEntries
	}
	return e.degrade.Health(resilience.HealthInputs{
		ActiveSessions: e.store.Count(),
		CachedDomains:  cached,
	})
}

// State exposes the degradation snapshot.
func (e *Engine) State() types.DegradationState {
	return e.degrade.State()
}

// Reset restores full service, clears the circuit breaker, and drops
// cached knowledge so recovered lookups hit the source fresh. This is
// the manual recovery path for operators.
func (e *Engine) Reset() {
	e.degrade.Reset()
	if e.querier != nil {
		e.querier.Invalidate()
	}
	logging.Engine("manual reset to full mode")
}

// EndSession evicts a session immediately and logs its summary. Hosts
// call this when a conversation finishes cleanly instead of waiting for
// the idle sweep.
func (e *Engine) EndSession(sessionID string) bool {
	sess, err := e.store.Get(sessionID)
	if err != nil {
		return false
	}
	dur := e.now().Sub(sess.CreatedAt)
	logging.Audit().SessionEnd(sessionID, len(sess.Interactions), dur.Milliseconds())
	return e.store.Delete(sessionID)
}
