package knowledge

import (
	"context"
	"strings"
	"sync"
	"time"

	"socratic/internal/types"
)

// StaticSource serves canned snippets keyed by domain, plus concept hints
// triggered by keywords in the prompt. It backs the demo CLI and tests;
// production hosts inject their own types.KnowledgeSource.
type StaticSource struct {
	mu       sync.RWMutex
	byDomain map[string][]string
	delay    time.Duration
}

// Compile-time assertion that StaticSource implements KnowledgeSource.
var _ types.KnowledgeSource = (*StaticSource)(nil)

// promptHints maps prompt keywords to the concepts they imply. hintOrder
// keeps the output deterministic.
var hintOrder = []string{"api", "database", "security"}

var promptHints = map[string][]string{
	"api":      {"integration", "service", "endpoint"},
	"database": {"data storage", "persistence", "query"},
	"security": {"authentication", "authorization", "encryption"},
}

// NewStaticSource returns a source seeded with the built-in domain
// snippets.
func NewStaticSource() *StaticSource {
	return &StaticSource{
		byDomain: map[string][]string{
			"healthcare": {
				"HIPAA compliance required",
				"Patient data protection",
				"Audit trail implementation",
			},
			"finance": {
				"Financial data encryption",
				"Transaction audit logs",
				"Regulatory compliance",
			},
		},
	}
}

// Add registers extra snippets for a domain.
func (s *StaticSource) Add(domain string, snippets ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byDomain[domain] = append(s.byDomain[domain], snippets...)
}

// SetDelay makes every query take at least d, for exercising the
// querier's timeout path.
func (s *StaticSource) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Query returns the domain's snippets plus hint concepts for keywords
// found in the prompt. An unknown domain with no prompt hits yields an
// empty result, not an error.
func (s *StaticSource) Query(ctx context.Context, prompt, domain string) ([]string, error) {
	s.mu.RLock()
	delay := s.delay
	base := s.byDomain[domain]
	s.mu.RUnlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	out := make([]string, 0, len(base)+4)
	out = append(out, base...)

	lower := strings.ToLower(prompt)
	for _, keyword := range hintOrder {
		if strings.Contains(lower, keyword) {
			out = append(out, promptHints[keyword]...)
		}
	}
	return out, nil
}
