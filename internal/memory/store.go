package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"socratic/internal/logging"
	"socratic/internal/types"
)

// Sentinel errors. Callers match these with errors.Is, and the wording
// feeds the resilience classifier's substring routing: a full store must
// read as a resource problem, not a session problem.
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrStoreFull           = errors.New("conversation store at capacity")
	ErrInteractionNotFound = errors.New("interaction not found in session")
)

// StoreConfig bounds the session store.
type StoreConfig struct {
	SessionTTL    time.Duration // idle time before eviction
	SweepInterval time.Duration // how often the sweeper runs
	MaxSessions   int           // hard cap on live sessions
	Clock         types.Clock   // injectable time source for tests
}

// DefaultStoreConfig returns the documented defaults: 30 minute idle
// TTL, 5 minute sweeps, 1000 sessions.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		SessionTTL:    30 * time.Minute,
		SweepInterval: 5 * time.Minute,
		MaxSessions:   1000,
	}
}

// StoreStats is an observable counter snapshot.
type StoreStats struct {
	ActiveSessions int    `json:"active_sessions"`
	TotalCreated   uint64 `json:"total_created"`
	TotalEvicted   uint64 `json:"total_evicted"`
	TotalSweeps    uint64 `json:"total_sweeps"`
}

// String formats stats for log lines.
func (st StoreStats) String() string {
	return fmt.Sprintf("active=%d, created=%d, evicted=%d, sweeps=%d",
		st.ActiveSessions, st.TotalCreated, st.TotalEvicted, st.TotalSweeps)
}

// Store is the concurrency-safe session map plus its background sweeper.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      StoreConfig
	now      types.Clock

	created uint64
	evicted uint64
	sweeps  uint64

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewStore creates an empty store. Zero config fields fall back to the
// defaults; the sweeper does not run until Start.
func NewStore(cfg StoreConfig) *Store {
	def := DefaultStoreConfig()
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = def.SessionTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = def.MaxSessions
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Store{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		now:      cfg.Clock,
	}
}

// GetOrCreate resolves a session, creating it when absent. An empty id
// asks the store to mint one. The second return reports creation.
func (s *Store) GetOrCreate(id string, domain types.DomainContext) (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			return sess.Clone(), false, nil
		}
	}

	if len(s.sessions) >= s.cfg.MaxSessions {
		return Session{}, false, fmt.Errorf("%w (%d sessions)", ErrStoreFull, len(s.sessions))
	}

	if id == "" {
		id = uuid.New().String()
	}
	if domain.Domain == "" {
		domain.Domain = types.GeneralDomain
	}

	now := s.now()
	sess := &Session{
		ID:             id,
		Domain:         cloneDomain(domain),
		Expertise:      types.DefaultExpertise(domain.Domain),
		Sophistication: types.DefaultSophistication(),
		CreatedAt:      now,
		LastActive:     now,
	}
	s.sessions[id] = sess
	s.created++

	logging.Memory("session %s created (domain=%s)", id, domain.Domain)
	logging.Audit().SessionStart(id, domain.Domain)
	return sess.Clone(), true, nil
}

// Get returns a deep copy of the session.
func (s *Store) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess.Clone(), nil
}

// withSession runs fn on the live session under the write lock and bumps
// LastActive when fn succeeds.
func (s *Store) withSession(id string, fn func(*Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err := fn(sess); err != nil {
		return err
	}
	sess.LastActive = s.now()
	return nil
}

// AppendInteraction adds one asked question to the session log.
func (s *Store) AppendInteraction(id string, qi types.QuestionInteraction) error {
	return s.withSession(id, func(sess *Session) error {
		sess.appendInteraction(qi)
		return nil
	})
}

// RecordResponse attaches the user's answer to the question it answers.
func (s *Store) RecordResponse(id, questionID, response string, quality float64, followUp bool) error {
	return s.withSession(id, func(sess *Session) error {
		if !sess.recordResponse(questionID, response, quality, followUp, s.now()) {
			return fmt.Errorf("%w: %s", ErrInteractionNotFound, questionID)
		}
		return nil
	})
}

// UpdateExpertise swaps the estimate and appends a timeline snapshot.
func (s *Store) UpdateExpertise(id string, level types.ExpertiseLevel) error {
	return s.withSession(id, func(sess *Session) error {
		sess.updateExpertise(level, s.now())
		return nil
	})
}

// SetSophistication stores the level the disclosure controller produced.
func (s *Store) SetSophistication(id string, level types.SophisticationLevel) error {
	return s.withSession(id, func(sess *Session) error {
		sess.Sophistication = level
		return nil
	})
}

// SetPreferences replaces the session's user preferences.
func (s *Store) SetPreferences(id string, prefs types.UserPreferences) error {
	return s.withSession(id, func(sess *Session) error {
		sess.Preferences = prefs
		if len(prefs.DomainFocus) > 0 {
			sess.Preferences.DomainFocus = append([]string(nil), prefs.DomainFocus...)
		}
		return nil
	})
}

// SetDomain rebinds the session to a (re)discovered domain context.
func (s *Store) SetDomain(id string, dc types.DomainContext) error {
	return s.withSession(id, func(sess *Session) error {
		sess.Domain = cloneDomain(dc)
		if sess.Expertise.Domain != dc.Domain {
			sess.Expertise.Domain = dc.Domain
		}
		return nil
	})
}

// RecentQuestions returns the text of the last n questions asked, oldest
// first, for repetition avoidance.
func (s *Store) RecentQuestions(id string, n int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess.recentQuestions(n), nil
}

// Progress answers the read-only progress queries.
func (s *Store) Progress(id string) (types.ProgressReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return types.ProgressReport{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess.ProgressAt(s.now()), nil
}

// Delete removes a session, reporting whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if ok {
		duration := s.now().Sub(sess.CreatedAt)
		logging.Audit().SessionEnd(id, len(sess.Interactions), duration.Milliseconds())
		logging.Memory("session %s ended after %d questions", id, len(sess.Interactions))
	}
	return ok
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// List returns copies of every live session, oldest first.
func (s *Store) List() []Session {
	s.mu.RLock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Stats returns the counter snapshot.
func (s *Store) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreStats{
		ActiveSessions: len(s.sessions),
		TotalCreated:   s.created,
		TotalEvicted:   s.evicted,
		TotalSweeps:    s.sweeps,
	}
}

// Sweep evicts every session idle past the TTL and returns how many went.
func (s *Store) Sweep() int {
	now := s.now()

	type eviction struct {
		id   string
		idle time.Duration
	}
	var gone []eviction

	s.mu.Lock()
	for id, sess := range s.sessions {
		idle := now.Sub(sess.LastActive)
		if idle > s.cfg.SessionTTL {
			delete(s.sessions, id)
			gone = append(gone, eviction{id: id, idle: idle})
		}
	}
	s.sweeps++
	s.evicted += uint64(len(gone))
	s.mu.Unlock()

	for _, e := range gone {
		logging.Audit().SessionEvicted(e.id, e.idle)
		logging.MemoryDebug("evicted session %s after %v idle", e.id, e.idle)
	}
	if len(gone) > 0 {
		logging.Memory("sweep evicted %d idle sessions", len(gone))
	}
	return len(gone)
}

// Start launches the background sweeper. Idempotent.
func (s *Store) Start(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.running {
		return
	}
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.running = true

	go s.run(ctx)
	logging.Memory("session sweeper started (ttl=%v, interval=%v)", s.cfg.SessionTTL, s.cfg.SweepInterval)
}

// Stop halts the sweeper and waits for it to exit. Idempotent.
func (s *Store) Stop() {
	s.runMu.Lock()
	if !s.running {
		s.runMu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.runMu.Unlock()

	<-s.doneCh
	logging.Memory("session sweeper stopped")
}

func (s *Store) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		}
	}
}

// Export serializes one session for the host to stash.
func (s *Store) Export(id string) ([]byte, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export session %s: %w", id, err)
	}
	return data, nil
}

// Import restores a previously exported session, overwriting any live
// session with the same id. The restored session counts as active now.
func (s *Store) Import(data []byte) (Session, error) {
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("import session: %w", err)
	}
	if sess.ID == "" {
		return Session{}, errors.New("import session: missing id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; !exists && len(s.sessions) >= s.cfg.MaxSessions {
		return Session{}, fmt.Errorf("%w (%d sessions)", ErrStoreFull, len(s.sessions))
	}

	restored := sess.Clone()
	restored.LastActive = s.now()
	if restored.CreatedAt.IsZero() {
		restored.CreatedAt = restored.LastActive
	}
	s.sessions[restored.ID] = &restored

	logging.Memory("session %s imported (%d interactions)", restored.ID, len(restored.Interactions))
	return restored.Clone(), nil
}
