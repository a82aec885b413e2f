package engine

import (
	"fmt"
	"sync/atomic"

	"socratic/internal/disclosure"
	"socratic/internal/expertise"
	"socratic/internal/logging"
	"socratic/internal/templates"
	"socratic/internal/types"
)

// AdjustSophistication moves a session's asking level one step. A
// missing session is recreated at the default level and adjusted from
// there, so the operation always has something to act on.
func (e *Engine) AdjustSophistication(req AdjustRequest) (*Adjustment, error) {
	if req.SessionID == "" {
		return nil, ErrSessionIDRequired
	}
	if !req.Direction.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, req.Direction)
	}

	sess, created, err := e.store.GetOrCreate(req.SessionID, types.DomainContext{})
	if err != nil {
		return nil, fmt.Errorf("adjust sophistication: %w", err)
	}
	if created {
		logging.EngineDebug("session %s recreated for sophistication adjustment", req.SessionID)
	}

	adj := disclosure.Adjust(sess.Sophistication, req.Direction)
	if adj.Changed {
		if err := e.store.SetSophistication(sess.ID, adj.Level); err != nil {
			return nil, fmt.Errorf("adjust sophistication: %w", err)
		}
	}
	atomic.AddInt64(&e.adjustments, 1)

	logging.Engine("session %s sophistication %s -> %s (%s)",
		sess.ID, adj.Previous.Complexity, adj.Level.Complexity, req.Direction)
	return &adj, nil
}

// Progress reports the session's read-only progress view. An evicted or
// unknown session is an error; hosts treat that as "start over".
func (e *Engine) Progress(sessionID string) (*types.ProgressReport, error) {
	if sessionID == "" {
		return nil, ErrSessionIDRequired
	}
	rep, err := e.store.Progress(sessionID)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// Insights is the qualitative companion to Progress: everything the
// engine has inferred about the user and their project from the answers
// given so far.
func (e *Engine) Insights(sessionID string) (*SessionInsights, error) {
	if sessionID == "" {
		return nil, ErrSessionIDRequired
	}
	sess, err := e.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	var concepts, insights []string
	for _, qi := range sess.Interactions {
		if !qi.Answered() {
			continue
		}
		concepts = append(concepts, templates.DetectConcepts(qi.Response)...)
		insights = append(insights, expertise.ExtractEntities(qi.Response)...)
	}

	return &SessionInsights{
		SessionID:         sess.ID,
		Domain:            sess.Domain.Domain,
		Expertise:         sess.Expertise,
		Sophistication:    sess.Sophistication,
		Preferences:       sess.Preferences,
		Concepts:          uniqueStrings(concepts),
		Insights:          uniqueStrings(insights),
		AdaptationHistory: sess.Expertise.History,
		GeneratedAt:       e.now(),
	}, nil
}

// uniqueStrings preserves first-seen order while dropping duplicates.
func uniqueStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
