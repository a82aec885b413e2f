// Package discovery infers domain context from free conversation text.
// Indicator extraction runs three pattern groups (technology, industry,
// compliance) over the input; classification scores the hits against
// keyword tables and emits a confidence that grows with corroborating
// indicators. The engine also builds lightweight domain knowledge from
// hints and keeps one active context per session so the interview can
// switch domains without losing where it was.
package discovery

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"socratic/internal/expertise"
	"socratic/internal/logging"
	"socratic/internal/types"
)

// =============================================================================
// PATTERN GROUPS
// =============================================================================

// techPatterns match technology vocabulary: protocols, stacks, platforms.
var techPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(api|rest|graphql|webhook|database|sql|nosql|orm)\b`),
	regexp.MustCompile(`\b(react|vue|angular|node|python|java|docker|kubernetes)\b`),
	regexp.MustCompile(`\b(aws|azure|gcp|cloud|microservice|serverless)\b`),
	regexp.MustCompile(`\b(authentication|oauth|jwt|security|encryption)\b`),
	regexp.MustCompile(`\b(ml|ai|machine\s+learning|neural|nlp|llm)\b`),
}

// industryPatterns match sector vocabulary.
var industryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(healthcare|medical|patient|clinical|diagnosis|treatment)\b`),
	regexp.MustCompile(`\b(finance|banking|payment|trading|investment|fintech)\b`),
	regexp.MustCompile(`\b(manufacturing|supply\s+chain|inventory|production|logistics)\b`),
	regexp.MustCompile(`\b(retail|e-commerce|customer|sales|marketing|crm)\b`),
	regexp.MustCompile(`\b(education|learning|student|course|curriculum|assessment)\b`),
	regexp.MustCompile(`\b(government|public|citizen|policy|regulation|compliance)\b`),
}

// compliancePatterns match regulatory vocabulary.
var compliancePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(gdpr|privacy|data\s+protection|consent|personal\s+data)\b`),
	regexp.MustCompile(`\b(hipaa|phi|hitech|medical\s+records|patient\s+privacy)\b`),
	regexp.MustCompile(`\b(sox|sarbanes|oxley|financial\s+reporting|audit)\b`),
	regexp.MustCompile(`\b(pci|dss|payment\s+card|credit\s+card\s+security)\b`),
	regexp.MustCompile(`\b(fda|medical\s+device|clinical\s+trial|drug\s+approval)\b`),
	regexp.MustCompile(`\b(iso|27001|security\s+standard|information\s+security)\b`),
}

// domainKeywords score indicators toward a domain. Groups are checked in
// order and an indicator counts for the first group it matches, so an
// ambiguous term like "compliance" never double-counts.
var domainKeywords = []struct {
	domain string
	terms  []string
}{
	{"healthcare", []string{"healthcare", "medical", "patient", "clinical", "hipaa", "phi"}},
	{"finance", []string{"finance", "banking", "payment", "trading", "sox", "pci"}},
	{"manufacturing", []string{"manufacturing", "supply", "inventory", "production"}},
	{"retail", []string{"retail", "commerce", "customer", "sales", "crm"}},
	{"education", []string{"education", "learning", "student", "course"}},
	{"technology", []string{"api", "database", "cloud", "microservice"}},
}

// Classification thresholds.
const (
	// baseConfidence anchors a classification with a single indicator.
	baseConfidence = 0.5

	// indicatorBonus is added once per corroborating indicator, up to
	// classifyCeiling.
	indicatorBonus  = 0.2
	classifyCeiling = 0.9

	// corroborationBoost applies once when more than corroborationMin
	// indicators point anywhere at all, up to boostCeiling.
	corroborationMin   = 3
	corroborationBoost = 0.1
	boostCeiling       = 0.95

	// noIndicatorConfidence and unscoredConfidence are the two general
	// fallbacks: nothing matched at all, or matches scored no domain.
	noIndicatorConfidence = 0.1
	unscoredConfidence    = 0.2

	// knowledgeFreshness bounds how long built domain knowledge is
	// served from cache before being rebuilt.
	knowledgeFreshness = 24 * time.Hour
)

// =============================================================================
// ENGINE
// =============================================================================

// EnhancedContext is a DomainContext plus the intelligence layered on top
// of the raw classification: built knowledge, neighbouring domains, and
// the expertise tier the vocabulary suggests.
type EnhancedContext struct {
	types.DomainContext

	Knowledge      types.DomainKnowledge `json:"knowledge"`
	RelatedDomains []string              `json:"related_domains,omitempty"`
	Expertise      types.ExpertiseTier   `json:"expertise"`

	// PreviousDomain carries the prior domain across a Switch call.
	PreviousDomain string `json:"previous_domain,omitempty"`
}

// Activation is the result of activating domain expertise for a session.
type Activation struct {
	Context         EnhancedContext           `json:"context"`
	Recommendations []ComponentRecommendation `json:"recommendations,omitempty"`
	PersistenceKey  string                    `json:"persistence_key"`
}

// Engine analyzes conversation text and tracks the active domain per
// session. Safe for concurrent use.
type Engine struct {
	mu        sync.RWMutex
	active    map[string]EnhancedContext
	knowledge map[string]types.DomainKnowledge
	now       types.Clock
}

// NewEngine creates a discovery engine on the wall clock.
func NewEngine() *Engine {
	return NewEngineWithClock(time.Now)
}

// NewEngineWithClock creates a discovery engine with an injected clock.
func NewEngineWithClock(now types.Clock) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		active:    make(map[string]EnhancedContext),
		knowledge: make(map[string]types.DomainKnowledge),
		now:       now,
	}
}

// =============================================================================
// ANALYSIS
// =============================================================================

// Analyze classifies a piece of conversation text into a DomainContext.
// The result always carries a domain: when nothing matches it comes back
// as the general domain with token confidence.
func (e *Engine) Analyze(text string) types.DomainContext {
	indicators := ExtractIndicators(text)
	domain, confidence := Classify(indicators)

	logging.DiscoveryDebug("analyzed text: domain=%s confidence=%.2f indicators=%d",
		domain, confidence, len(indicators))

	return types.DomainContext{
		Domain:     domain,
		Confidence: confidence,
		Indicators: indicators,
		Source:     types.SourceConversation,
		DetectedAt: e.now(),
	}
}

// ExtractIndicators runs all three pattern groups over the text and
// returns the unique matches in first-seen order.
func ExtractIndicators(text string) []string {
	lower := strings.ToLower(text)

	var indicators []string
	seen := make(map[string]bool)
	for _, group := range [][]*regexp.Regexp{techPatterns, industryPatterns, compliancePatterns} {
		for _, re := range group {
			for _, m := range re.FindAllString(lower, -1) {
				if !seen[m] {
					seen[m] = true
					indicators = append(indicators, m)
				}
			}
		}
	}
	return indicators
}

// Classify scores the indicators against the domain keyword tables and
// returns the winning domain with its confidence. No indicators at all is
// distinguished from indicators that scored nothing: the former barely
// registers, the latter at least confirms the text is about software.
func Classify(indicators []string) (string, float64) {
	if len(indicators) == 0 {
		return types.GeneralDomain, noIndicatorConfidence
	}

	scores := make(map[string]int)
	for _, indicator := range indicators {
		for _, group := range domainKeywords {
			if containsAnyTerm(indicator, group.terms) {
				scores[group.domain]++
				break
			}
		}
	}
	if len(scores) == 0 {
		return types.GeneralDomain, unscoredConfidence
	}

	// Walk the keyword table order so ties resolve deterministically.
	best, bestScore := "", 0
	for _, group := range domainKeywords {
		if s := scores[group.domain]; s > bestScore {
			best, bestScore = group.domain, s
		}
	}

	confidence := baseConfidence + float64(bestScore)*indicatorBonus
	if confidence > classifyCeiling {
		confidence = classifyCeiling
	}
	if len(indicators) > corroborationMin {
		confidence += corroborationBoost
		if confidence > boostCeiling {
			confidence = boostCeiling
		}
	}
	return best, confidence
}

func containsAnyTerm(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// =============================================================================
// DOMAIN KNOWLEDGE
// =============================================================================

// BuildKnowledge assembles domain knowledge from hint strings: technology
// extraction plus concept and best-practice expansion. Results are cached
// per domain and rebuilt only after the freshness window lapses.
func (e *Engine) BuildKnowledge(domain string, hints []string) types.DomainKnowledge {
	e.mu.RLock()
	cached, ok := e.knowledge[domain]
	e.mu.RUnlock()
	if ok && e.now().Sub(cached.UpdatedAt) < knowledgeFreshness {
		return cached
	}

	k := types.DomainKnowledge{Domain: domain, UpdatedAt: e.now()}
	for _, hint := range hints {
		lower := strings.ToLower(hint)

		for _, re := range techPatterns {
			k.Technologies = append(k.Technologies, re.FindAllString(lower, -1)...)
		}

		if strings.Contains(lower, "api") {
			k.Concepts = append(k.Concepts, "integration", "service", "endpoint")
		}
		if strings.Contains(lower, "database") {
			k.Concepts = append(k.Concepts, "data storage", "persistence", "query")
		}
		if strings.Contains(lower, "security") {
			k.Concepts = append(k.Concepts, "authentication", "authorization", "encryption")
		}

		switch {
		case strings.Contains(lower, "healthcare") || strings.Contains(lower, "medical"):
			k.BestPractices = append(k.BestPractices,
				"HIPAA compliance required",
				"Patient data protection",
				"Audit trail implementation")
		case strings.Contains(lower, "finance") || strings.Contains(lower, "banking"):
			k.BestPractices = append(k.BestPractices,
				"Financial data encryption",
				"Transaction audit logs",
				"Regulatory compliance")
		}
	}
	k.Technologies = dedupe(k.Technologies)
	k.Concepts = dedupe(k.Concepts)
	k.BestPractices = dedupe(k.BestPractices)

	e.mu.Lock()
	e.knowledge[domain] = k
	e.mu.Unlock()

	logging.Discovery("built knowledge for %s: %d technologies, %d concepts",
		domain, len(k.Technologies), len(k.Concepts))
	return k
}

// dedupe removes duplicates preserving first-seen order.
func dedupe(in []string) []string {
	if len(in) < 2 {
		return in
	}
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// =============================================================================
// ENHANCEMENT
// =============================================================================

// Enhance layers knowledge, related domains, compliance frameworks, and
// an expertise estimate onto a raw classification. The embedded context
// gains its compliance tags and technologies here.
func (e *Engine) Enhance(dc types.DomainContext) EnhancedContext {
	k := e.BuildKnowledge(dc.Domain, []string{dc.Domain})

	ec := EnhancedContext{
		DomainContext:  dc,
		Knowledge:      k,
		RelatedDomains: relatedDomains(dc.Indicators),
		Expertise:      expertise.InferTier(dc.Indicators),
	}
	ec.ComplianceTags = complianceFrameworks(dc.Indicators, k)
	if len(ec.Technologies) == 0 {
		ec.Technologies = k.Technologies
	}
	return ec
}

// relatedDomains spots cross-domain signals in the indicator set.
func relatedDomains(indicators []string) []string {
	all := strings.ToLower(strings.Join(indicators, " "))

	var related []string
	if strings.Contains(all, "api") || strings.Contains(all, "integration") {
		related = append(related, "integration")
	}
	for _, cloud := range []string{"aws", "azure", "gcp", "cloud"} {
		if strings.Contains(all, cloud) {
			related = append(related, "cloud")
			break
		}
	}
	if strings.Contains(all, "security") || strings.Contains(all, "compliance") {
		related = append(related, "security")
	}
	if strings.Contains(all, "data") || strings.Contains(all, "analytics") {
		related = append(related, "data_analytics")
	}
	return related
}

// complianceFrameworks names the regulatory frameworks the indicators and
// built knowledge imply.
func complianceFrameworks(indicators []string, k types.DomainKnowledge) []string {
	parts := append([]string{}, indicators...)
	parts = append(parts, k.Concepts...)
	parts = append(parts, k.BestPractices...)
	all := strings.ToLower(strings.Join(parts, " "))

	var frameworks []string
	if strings.Contains(all, "hipaa") || strings.Contains(all, "healthcare") {
		frameworks = append(frameworks, "HIPAA")
	}
	if strings.Contains(all, "gdpr") || strings.Contains(all, "privacy") {
		frameworks = append(frameworks, "GDPR")
	}
	if strings.Contains(all, "sox") || strings.Contains(all, "sarbanes") {
		frameworks = append(frameworks, "SOX")
	}
	if strings.Contains(all, "pci") || strings.Contains(all, "payment") {
		frameworks = append(frameworks, "PCI-DSS")
	}
	if strings.Contains(all, "fda") || strings.Contains(all, "medical device") {
		frameworks = append(frameworks, "FDA")
	}
	return frameworks
}

// =============================================================================
// SESSION ACTIVATION
// =============================================================================

// Activate analyzes the text, enhances the result, and records it as the
// session's active context.
func (e *Engine) Activate(text, sessionID string) Activation {
	dc := e.Analyze(text)
	ec := e.Enhance(dc)
	recs := Recommendations(ec)

	e.mu.Lock()
	e.active[sessionID] = ec
	e.mu.Unlock()

	logging.Discovery("activated domain %s for session %s (%d recommendations)",
		ec.Domain, sessionID, len(recs))

	return Activation{
		Context:         ec,
		Recommendations: recs,
		PersistenceKey:  fmt.Sprintf("%s-%s-%d", sessionID, ec.Domain, e.now().Unix()),
	}
}

// ActiveContext returns the session's current enhanced context, if any.
func (e *Engine) ActiveContext(sessionID string) (EnhancedContext, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ec, ok := e.active[sessionID]
	return ec, ok
}

// Switch re-activates on new input, carrying the previous domain along so
// callers can tell a pivot from a first detection.
func (e *Engine) Switch(sessionID, text string) Activation {
	e.mu.RLock()
	prev, had := e.active[sessionID]
	e.mu.RUnlock()

	act := e.Activate(text, sessionID)
	if had && prev.Domain != act.Context.Domain {
		act.Context.PreviousDomain = prev.Domain

		e.mu.Lock()
		e.active[sessionID] = act.Context
		e.mu.Unlock()

		logging.Discovery("session %s switched domain %s -> %s",
			sessionID, prev.Domain, act.Context.Domain)
	}
	return act
}

// Deactivate clears the session's active context.
func (e *Engine) Deactivate(sessionID string) {
	e.mu.Lock()
	delete(e.active, sessionID)
	e.mu.Unlock()
}

// ActiveCount reports how many sessions hold an active context.
func (e *Engine) ActiveCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.active)
}
