// Package types provides shared type definitions used across socratic packages.
// This package exists to break import cycles between the engine, memory, and
// resilience layers. Types in this package should be foundational data
// structures with no complex dependencies.
package types

import (
	"time"
)

// =============================================================================
// DOMAIN CONTEXT
// =============================================================================

// DomainSource identifies where a domain detection came from.
type DomainSource string

const (
	SourceConversation DomainSource = "conversation" // Inferred from user text
	SourceKnowledge    DomainSource = "knowledge"    // Supplied by the knowledge collaborator
	SourceHybrid       DomainSource = "hybrid"       // Conversation + knowledge agreement
	SourceCached       DomainSource = "cached"       // Replayed from a previous detection
)

// DomainContext is the immutable per-request description of the subject-matter
// area a question is being generated for. It is produced by a collaborator
// (internal/discovery, or the host application) and consumed read-only.
type DomainContext struct {
	Domain          string       `json:"domain"`
	Confidence      float64      `json:"confidence"` // 0.0-1.0
	Technologies    []string     `json:"technologies,omitempty"`
	Specializations []string     `json:"specializations,omitempty"`
	ComplianceTags  []string     `json:"compliance_tags,omitempty"`
	Indicators      []string     `json:"indicators,omitempty"`
	Source          DomainSource `json:"source"`
	DetectedAt      time.Time    `json:"detected_at"`
}

// GeneralDomain is the fallback domain used when detection finds nothing.
const GeneralDomain = "general"

// DomainKnowledge aggregates what is known about a domain. Built by the
// discovery engine from hints; cached with a freshness window.
type DomainKnowledge struct {
	Domain               string    `json:"domain"`
	Concepts             []string  `json:"concepts,omitempty"`
	Technologies         []string  `json:"technologies,omitempty"`
	BestPractices        []string  `json:"best_practices,omitempty"`
	CommonPatterns       []string  `json:"common_patterns,omitempty"`
	ComplianceFrameworks []string  `json:"compliance_frameworks,omitempty"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// =============================================================================
// SOPHISTICATION
// =============================================================================

// ComplexityTier is the ordered question-complexity tier.
type ComplexityTier string

const (
	ComplexitySimple   ComplexityTier = "simple"
	ComplexityModerate ComplexityTier = "moderate"
	ComplexityAdvanced ComplexityTier = "advanced"
	ComplexityExpert   ComplexityTier = "expert"
)

// complexityOrder fixes the tier ordering for one-step transitions.
var complexityOrder = []ComplexityTier{
	ComplexitySimple,
	ComplexityModerate,
	ComplexityAdvanced,
	ComplexityExpert,
}

// Rank returns the ordinal position of the tier (simple=0 .. expert=3).
// Unknown tiers rank as simple.
func (t ComplexityTier) Rank() int {
	for i, c := range complexityOrder {
		if c == t {
			return i
		}
	}
	return 0
}

// Next returns the tier one step up, clamped at expert.
func (t ComplexityTier) Next() ComplexityTier {
	r := t.Rank()
	if r >= len(complexityOrder)-1 {
		return ComplexityExpert
	}
	return complexityOrder[r+1]
}

// Prev returns the tier one step down, clamped at simple.
func (t ComplexityTier) Prev() ComplexityTier {
	r := t.Rank()
	if r <= 0 {
		return ComplexitySimple
	}
	return complexityOrder[r-1]
}

// Valid reports whether the tier is one of the four known values.
func (t ComplexityTier) Valid() bool {
	for _, c := range complexityOrder {
		if c == t {
			return true
		}
	}
	return false
}

// MinDepth and MaxDepth bound SophisticationLevel.Depth.
const (
	MinDepth = 1
	MaxDepth = 5
)

// SophisticationLevel describes how hard a question should be asked.
// Mutated only by the progressive disclosure controller.
type SophisticationLevel struct {
	Complexity         ComplexityTier `json:"complexity"`
	Depth              int            `json:"depth"` // 1-5
	TechnicalDetail    bool           `json:"technical_detail"`
	IncludeExamples    bool           `json:"include_examples"`
	RequiresValidation bool           `json:"requires_validation"`
}

// DefaultSophistication returns the starting level for a new session:
// simple questions at depth 1, examples included.
func DefaultSophistication() SophisticationLevel {
	return SophisticationLevel{
		Complexity:      ComplexitySimple,
		Depth:           MinDepth,
		IncludeExamples: true,
	}
}

// SophisticationForTier derives the flag set that belongs to a tier at the
// given depth. TechnicalDetail switches on once complexity leaves simple;
// RequiresValidation only at expert; examples accompany the two lower tiers.
func SophisticationForTier(tier ComplexityTier, depth int) SophisticationLevel {
	if depth < MinDepth {
		depth = MinDepth
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}
	return SophisticationLevel{
		Complexity:         tier,
		Depth:              depth,
		TechnicalDetail:    tier != ComplexitySimple,
		IncludeExamples:    tier == ComplexitySimple || tier == ComplexityModerate,
		RequiresValidation: tier == ComplexityExpert,
	}
}
