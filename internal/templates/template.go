// Package templates holds the question phrasing banks: built-in tables,
// YAML packs loaded from disk, and templates synthesized from discovered
// domain context. The library is keyed by (domain, question type) and
// filtered by complexity tier, with relaxation toward the general domain
// so a lookup never comes back empty-handed for seeded types.
package templates

import (
	"math/rand"
	"sort"
	"strings"
	"sync"

	"socratic/internal/types"
)

// =============================================================================
// TEMPLATE
// =============================================================================

// Template source markers. Pack sources carry a per-file suffix so a
// reloaded file replaces exactly its own templates.
const (
	SourceBuiltin     = "builtin"     // Compiled-in banks
	SourcePack        = "pack"        // Loaded from a YAML pack file
	SourceSynthesized = "synthesized" // Generated from domain context
)

// Template is one reusable question phrasing. Text may contain a {domain}
// placeholder resolved at render time; synthesized templates arrive with
// their technology names already inlined.
type Template struct {
	ID                 string               `json:"id"`
	Domain             string               `json:"domain"`
	Type               types.QuestionType   `json:"type"`
	Complexity         types.ComplexityTier `json:"complexity"`
	Text               string               `json:"text"`
	FollowUps          []string             `json:"follow_ups,omitempty"`
	ValidationCriteria []string             `json:"validation_criteria,omitempty"`
	Source             string               `json:"source"`
}

// Render resolves the {domain} placeholder. A template for the general
// domain rendered without a better name reads "your project" instead of
// the literal word "general".
func (t *Template) Render(domain string) string {
	if !strings.Contains(t.Text, "{domain}") {
		return t.Text
	}
	name := domain
	if name == "" || name == types.GeneralDomain {
		name = "your project"
	}
	return strings.ReplaceAll(t.Text, "{domain}", strings.ReplaceAll(name, "_", " "))
}

// =============================================================================
// LIBRARY
// =============================================================================

// Library is the concurrent template store. Banks are keyed by
// domain|type; complexity filtering happens at lookup time so a miss can
// relax to the nearest tier instead of failing.
type Library struct {
	mu    sync.RWMutex
	banks map[string][]*Template
}

// NewLibrary creates an empty library. Most callers want
// NewBuiltinLibrary instead.
func NewLibrary() *Library {
	return &Library{banks: make(map[string][]*Template)}
}

func bankKey(domain string, qt types.QuestionType) string {
	return domain + "|" + string(qt)
}

// Add inserts a single template into its bank.
func (l *Library) Add(t *Template) {
	if t == nil || t.Text == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.addLocked(t)
}

// AddAll inserts a batch under one lock acquisition.
func (l *Library) AddAll(ts []*Template) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range ts {
		if t == nil || t.Text == "" {
			continue
		}
		l.addLocked(t)
	}
}

func (l *Library) addLocked(t *Template) {
	if t.Domain == "" {
		t.Domain = types.GeneralDomain
	}
	if !t.Complexity.Valid() {
		t.Complexity = types.ComplexityModerate
	}
	key := bankKey(t.Domain, t.Type)
	l.banks[key] = append(l.banks[key], t)
}

// ReplaceSource atomically swaps every template carrying the given source
// marker for the new set. Pack hot-reload goes through here so readers
// never observe a half-emptied bank. Passing nil removes the source.
func (l *Library) ReplaceSource(source string, ts []*Template) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, bank := range l.banks {
		kept := bank[:0]
		for _, t := range bank {
			if t.Source != source {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			delete(l.banks, key)
		} else {
			l.banks[key] = kept
		}
	}
	for _, t := range ts {
		if t == nil || t.Text == "" {
			continue
		}
		t.Source = source
		l.addLocked(t)
	}
}

// Lookup returns candidate templates for the domain, question type, and
// complexity tier. Relaxation order: exact tier in the requested domain,
// nearest tier in the requested domain, then the same two passes against
// the general domain. Returns nil when nothing is seeded for the type at
// all. The returned slice is fresh but the templates are shared; callers
// must treat them as read-only.
func (l *Library) Lookup(domain string, qt types.QuestionType, tier types.ComplexityTier) []*Template {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if out := matchTier(l.banks[bankKey(domain, qt)], tier); out != nil {
		return out
	}
	if domain != types.GeneralDomain {
		if out := matchTier(l.banks[bankKey(types.GeneralDomain, qt)], tier); out != nil {
			return out
		}
	}
	return nil
}

// matchTier filters a bank by tier, widening the acceptable rank distance
// one step at a time until something matches.
func matchTier(bank []*Template, tier types.ComplexityTier) []*Template {
	if len(bank) == 0 {
		return nil
	}
	want := tier.Rank()
	maxDist := types.ComplexityExpert.Rank()
	for dist := 0; dist <= maxDist; dist++ {
		var out []*Template
		for _, t := range bank {
			d := t.Complexity.Rank() - want
			if d < 0 {
				d = -d
			}
			if d == dist {
				out = append(out, t)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// Select picks uniformly at random among candidates whose rendered text
// was not recently asked. When every candidate is recent the full set is
// used; repetition beats silence.
func (l *Library) Select(candidates []*Template, domain string, recent []string) *Template {
	if len(candidates) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(recent))
	for _, r := range recent {
		seen[r] = struct{}{}
	}
	fresh := make([]*Template, 0, len(candidates))
	for _, t := range candidates {
		if _, dup := seen[t.Render(domain)]; !dup {
			fresh = append(fresh, t)
		}
	}
	if len(fresh) == 0 {
		fresh = candidates
	}
	return fresh[rand.Intn(len(fresh))]
}

// Pick is the common Lookup+Select path.
func (l *Library) Pick(domain string, qt types.QuestionType, tier types.ComplexityTier, recent []string) *Template {
	candidates := l.Lookup(domain, qt, tier)
	if len(candidates) == 0 {
		return nil
	}
	return l.Select(candidates, domain, recent)
}

// Count returns the total number of templates across all banks.
func (l *Library) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, bank := range l.banks {
		n += len(bank)
	}
	return n
}

// CountBySource counts templates whose source matches the prefix. Useful
// for asserting pack reloads ("pack:" matches every pack file).
func (l *Library) CountBySource(prefix string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, bank := range l.banks {
		for _, t := range bank {
			if strings.HasPrefix(t.Source, prefix) {
				n++
			}
		}
	}
	return n
}

// Domains lists the domains with at least one template, sorted.
func (l *Library) Domains() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	set := make(map[string]struct{})
	for key := range l.banks {
		if i := strings.IndexByte(key, '|'); i > 0 {
			set[key[:i]] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// FIXED FALLBACK BANK
// =============================================================================

// The fallback bank is the path of last resort when template machinery
// itself failed. It must stay dependency-free: plain string slices, no
// locks, no placeholders.

var lowComplexityFallbacks = []string{
	"Can you give me a specific example of how you'd use this?",
	"What would success look like to you?",
	"What's the main challenge you're trying to solve?",
}

var generalFallbacks = []string{
	"Which part of this is most important to get right?",
	"What would make the biggest difference for your users?",
	"Are there any constraints or limitations I should know about?",
}

const emergencyQuestionText = "Can you tell me more about what you're trying to accomplish?"

// FallbackQuestion returns a domain-agnostic question from the fixed
// bank. Simple-tier sessions get the gentler phrasings. Recent questions
// are avoided when the bank is big enough to allow it.
func FallbackQuestion(tier types.ComplexityTier, recent []string) string {
	bank := generalFallbacks
	if tier == types.ComplexitySimple {
		bank = lowComplexityFallbacks
	}
	seen := make(map[string]struct{}, len(recent))
	for _, r := range recent {
		seen[r] = struct{}{}
	}
	fresh := make([]string, 0, len(bank))
	for _, q := range bank {
		if _, dup := seen[q]; !dup {
			fresh = append(fresh, q)
		}
	}
	if len(fresh) == 0 {
		fresh = bank
	}
	return fresh[rand.Intn(len(fresh))]
}

// EmergencyQuestion is the static question used when everything else is
// unavailable. It never varies so it can never fail.
func EmergencyQuestion() string {
	return emergencyQuestionText
}

// FallbackBankSize reports how many distinct fallback phrasings exist for
// the tier, so callers can size their non-repetition window sensibly.
func FallbackBankSize(tier types.ComplexityTier) int {
	if tier == types.ComplexitySimple {
		return len(lowComplexityFallbacks)
	}
	return len(generalFallbacks)
}
