// Package knowledge wraps the external knowledge collaborator with the
// guardrails the engine needs: a hard per-lookup timeout, a TTL cache,
// request deduplication, and a bounded concurrency semaphore. The engine
// never talks to a KnowledgeSource directly.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"socratic/internal/cache"
	"socratic/internal/logging"
	"socratic/internal/types"
)

// Sentinel errors. The resilience classifier keys off these.
var (
	// ErrUnavailable means no knowledge source is configured or the
	// source refused the request.
	ErrUnavailable = errors.New("knowledge source unavailable")

	// ErrTimeout means the lookup exceeded its time budget.
	ErrTimeout = errors.New("knowledge lookup timed out")
)

// QuerierConfig bounds the querier.
type QuerierConfig struct {
	Timeout       time.Duration // Per-lookup budget, enforced via context
	CacheTTL      time.Duration // How long snippets stay fresh
	CacheSize     int           // Max cached lookups
	MaxConcurrent int           // Simultaneous in-flight source calls
}

// DefaultQuerierConfig returns the documented defaults: 1.5s lookups,
// 10 minute cache, 4 concurrent source calls.
func DefaultQuerierConfig() QuerierConfig {
	return QuerierConfig{
		Timeout:       1500 * time.Millisecond,
		CacheTTL:      10 * time.Minute,
		CacheSize:     256,
		MaxConcurrent: 4,
	}
}

// Querier is the guarded path to the knowledge collaborator.
type Querier struct {
	config QuerierConfig
	source types.KnowledgeSource
	cache  *cache.TTLCache
	group  singleflight.Group
	slots  chan struct{} // Semaphore for in-flight source calls

	// Metrics
	totalLookups   int64
	cacheHits      int64
	sourceCalls    int64
	sourceErrors   int64
	sourceTimeouts int64
	sourceTimeNs   int64
}

// NewQuerier wraps a source. A nil source is allowed; every lookup then
// fails with ErrUnavailable, which the degradation manager treats as a
// knowledge outage.
func NewQuerier(source types.KnowledgeSource, cfg QuerierConfig) *Querier {
	def := DefaultQuerierConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = def.CacheSize
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	return &Querier{
		config: cfg,
		source: source,
		cache:  cache.New(cfg.CacheSize, cfg.CacheTTL),
		slots:  make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Lookup fetches snippets for (prompt, domain), serving from cache when
// fresh. The bool reports a cache hit. Identical concurrent lookups are
// collapsed into one source call.
func (q *Querier) Lookup(ctx context.Context, prompt, domain string) ([]string, bool, error) {
	atomic.AddInt64(&q.totalLookups, 1)
	if q.source == nil {
		return nil, false, ErrUnavailable
	}
	key := domain + "|" + prompt

	if v, ok := q.cache.Get(key); ok {
		if snippets, ok := v.([]string); ok {
			atomic.AddInt64(&q.cacheHits, 1)
			logging.Audit().KnowledgeLookup(domain, true, 0, "")
			return copySnippets(snippets), true, nil
		}
		// A foreign value under our key. Drop it and refetch.
		logging.KnowledgeWarn("dropping corrupt cache entry for key %s", key)
		q.cache.Delete(key)
	}

	start := time.Now()
	v, err, _ := q.group.Do(key, func() (interface{}, error) {
		return q.fetch(ctx, prompt, domain)
	})
	elapsed := time.Since(start)

	if err != nil {
		logging.Audit().KnowledgeLookup(domain, false, elapsed.Milliseconds(), err.Error())
		return nil, false, err
	}
	logging.Audit().KnowledgeLookup(domain, false, elapsed.Milliseconds(), "")
	return copySnippets(v.([]string)), false, nil
}

// fetch performs the guarded source call and populates the cache.
func (q *Querier) fetch(ctx context.Context, prompt, domain string) ([]string, error) {
	select {
	case q.slots <- struct{}{}:
		defer func() { <-q.slots }()
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: cancelled waiting for a slot: %v", ErrTimeout, ctx.Err())
	}

	cctx, cancel := context.WithTimeout(ctx, q.config.Timeout)
	defer cancel()

	atomic.AddInt64(&q.sourceCalls, 1)
	start := time.Now()
	snippets, err := q.source.Query(cctx, prompt, domain)
	atomic.AddInt64(&q.sourceTimeNs, int64(time.Since(start)))

	if err != nil {
		atomic.AddInt64(&q.sourceErrors, 1)
		if errors.Is(err, context.DeadlineExceeded) || cctx.Err() == context.DeadlineExceeded {
			atomic.AddInt64(&q.sourceTimeouts, 1)
			logging.KnowledgeWarn("lookup timed out for domain %s after %v", domain, q.config.Timeout)
			return nil, fmt.Errorf("%w after %v", ErrTimeout, q.config.Timeout)
		}
		logging.KnowledgeError("lookup failed for domain %s: %v", domain, err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	q.cache.Set(domain+"|"+prompt, copySnippets(snippets))
	logging.KnowledgeDebug("cached %d snippets for domain %s", len(snippets), domain)
	return snippets, nil
}

// Sweep drops expired cache entries. Called by the engine's maintenance
// loop.
func (q *Querier) Sweep() int {
	return q.cache.Sweep()
}

// Invalidate drops every cached lookup. The engine calls this on manual
// reset so snippets cached while the source was misbehaving cannot keep
// serving after recovery.
func (q *Querier) Invalidate() {
	q.cache.Clear()
	logging.Knowledge("knowledge cache cleared")
}

// QuerierMetrics provides observability into the knowledge path.
type QuerierMetrics struct {
	TotalLookups   int64
	CacheHits      int64
	SourceCalls    int64
	SourceErrors   int64
	SourceTimeouts int64
	AvgSourceTime  time.Duration
	CachedEntries  int
}

// Metrics returns a snapshot of the querier counters.
func (q *Querier) Metrics() QuerierMetrics {
	calls := atomic.LoadInt64(&q.sourceCalls)
	avg := time.Duration(0)
	if calls > 0 {
		avg = time.Duration(atomic.LoadInt64(&q.sourceTimeNs) / calls)
	}
	return QuerierMetrics{
		TotalLookups:   atomic.LoadInt64(&q.totalLookups),
		CacheHits:      atomic.LoadInt64(&q.cacheHits),
		SourceCalls:    calls,
		SourceErrors:   atomic.LoadInt64(&q.sourceErrors),
		SourceTimeouts: atomic.LoadInt64(&q.sourceTimeouts),
		AvgSourceTime:  avg,
		CachedEntries:  q.cache.Size(),
	}
}

// String returns a human-readable summary.
func (m QuerierMetrics) String() string {
	return fmt.Sprintf("lookups=%d, hits=%d, source_calls=%d, errors=%d, timeouts=%d, avg_source=%v, cached=%d",
		m.TotalLookups, m.CacheHits, m.SourceCalls, m.SourceErrors, m.SourceTimeouts, m.AvgSourceTime, m.CachedEntries)
}

func copySnippets(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
