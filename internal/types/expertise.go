package types

import (
	"time"
)

// =============================================================================
// EXPERTISE TRACKING
// =============================================================================

// ExpertiseTier is the engine's ordered belief about a user's skill.
type ExpertiseTier string

const (
	TierBeginner     ExpertiseTier = "beginner"
	TierIntermediate ExpertiseTier = "intermediate"
	TierAdvanced     ExpertiseTier = "advanced"
)

var tierOrder = []ExpertiseTier{TierBeginner, TierIntermediate, TierAdvanced}

// Rank returns the ordinal position of the tier (beginner=0 .. advanced=2).
func (t ExpertiseTier) Rank() int {
	for i, c := range tierOrder {
		if c == t {
			return i
		}
	}
	return 0
}

// Next returns the tier one step up, clamped at advanced.
func (t ExpertiseTier) Next() ExpertiseTier {
	r := t.Rank()
	if r >= len(tierOrder)-1 {
		return TierAdvanced
	}
	return tierOrder[r+1]
}

// Prev returns the tier one step down, clamped at beginner.
func (t ExpertiseTier) Prev() ExpertiseTier {
	r := t.Rank()
	if r <= 0 {
		return TierBeginner
	}
	return tierOrder[r-1]
}

// AdaptationTrigger records why an expertise level changed.
type AdaptationTrigger string

const (
	// TriggerUserResponse is the full-mode analysis path.
	TriggerUserResponse AdaptationTrigger = "user_response"
	// TriggerPerformanceAnalysis is the degraded, length-only path.
	TriggerPerformanceAnalysis AdaptationTrigger = "performance_analysis"
	// TriggerManual covers explicit host overrides.
	TriggerManual AdaptationTrigger = "manual"
)

// AdaptationRecord is one append-only entry in an expertise history.
type AdaptationRecord struct {
	Timestamp     time.Time         `json:"timestamp"`
	PreviousTier  ExpertiseTier     `json:"previous_tier"`
	NewTier       ExpertiseTier     `json:"new_tier"`
	Trigger       AdaptationTrigger `json:"trigger"`
	Justification string            `json:"justification"`
}

// Confidence clamp bounds for expertise estimates.
const (
	MinExpertiseConfidence = 0.1
	MaxExpertiseConfidence = 1.0
)

// ClampConfidence forces c into the [0.1, 1.0] expertise confidence range.
func ClampConfidence(c float64) float64 {
	if c < MinExpertiseConfidence {
		return MinExpertiseConfidence
	}
	if c > MaxExpertiseConfidence {
		return MaxExpertiseConfidence
	}
	return c
}

// ExpertiseLevel is the per-(session, domain) mutable skill estimate.
// Tier only ever moves one step per analysis call; history is append-only
// and never rolled back.
type ExpertiseLevel struct {
	Tier           ExpertiseTier      `json:"tier"`
	Confidence     float64            `json:"confidence"` // clamped to [0.1, 1.0]
	Domain         string             `json:"domain"`
	DomainSpecific bool               `json:"domain_specific"`
	History        []AdaptationRecord `json:"history,omitempty"`
}

// DefaultExpertise returns the starting estimate when a session has none:
// beginner at confidence 0.5.
func DefaultExpertise(domain string) ExpertiseLevel {
	return ExpertiseLevel{
		Tier:       TierBeginner,
		Confidence: 0.5,
		Domain:     domain,
	}
}

// Clone returns a deep copy so callers can hold snapshots without racing
// later history appends.
func (e ExpertiseLevel) Clone() ExpertiseLevel {
	out := e
	if len(e.History) > 0 {
		out.History = make([]AdaptationRecord, len(e.History))
		copy(out.History, e.History)
	}
	return out
}
