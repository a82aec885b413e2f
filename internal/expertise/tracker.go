// Package expertise scores free-text responses and maintains the rolling
// per-domain skill estimate. The tracker is stateless: callers pass the
// current level in and get an updated copy back, so sessions stay the
// single owner of expertise state.
package expertise

import (
	"fmt"
	"strings"
	"time"

	"socratic/internal/logging"
	"socratic/internal/templates"
	"socratic/internal/types"
)

// Scoring weights and decision thresholds.
const (
	// substantialResponseChars is the length at which a response earns
	// the full length score.
	substantialResponseChars = 150

	lexicalHitWeight = 0.15
	maxScoredHits    = 3

	// advanceQuality is the score at which a response argues for the
	// next tier.
	advanceQuality = 0.6

	// lowSignalConfidence marks caller confidence too weak to act on.
	lowSignalConfidence = 0.25

	confidenceStepUp   = 0.15
	confidenceStepDown = 0.1
	degradedStep       = 0.05

	// defaultSignalConfidence stands in when the caller passes zero.
	defaultSignalConfidence = 0.5
)

// Input is one response to analyze against the current estimate.
type Input struct {
	Response string

	// Confidence is the caller's prior confidence in this response as a
	// skill signal, 0 to 1. Zero means unknown and is treated as 0.5.
	Confidence float64

	// UpdateExpertise gates whether the estimate moves at all; scoring
	// and insights are produced either way.
	UpdateExpertise bool

	// TrackingEnabled mirrors the expertiseTracking capability. When
	// false the degraded length-only path runs.
	TrackingEnabled bool
}

// Analysis is the scored view of one response.
type Analysis struct {
	Quality           float64                 `json:"quality"`
	Complexity        ResponseComplexity      `json:"complexity"`
	WordCount         int                     `json:"word_count"`
	TechnicalTerms    []string                `json:"technical_terms,omitempty"`
	Concepts          []string                `json:"concepts,omitempty"`
	Insights          []string                `json:"insights,omitempty"`
	Misunderstandings []string                `json:"misunderstandings,omitempty"`
	Level             types.ExpertiseLevel    `json:"level"`
	TierChanged       bool                    `json:"tier_changed"`
	Trigger           types.AdaptationTrigger `json:"trigger"`
}

// Tracker scores responses. Safe for concurrent use; it holds no state
// beyond the clock.
type Tracker struct {
	now types.Clock
}

// NewTracker returns a tracker on the wall clock.
func NewTracker() *Tracker {
	return NewTrackerWithClock(time.Now)
}

// NewTrackerWithClock lets tests pin adaptation timestamps.
func NewTrackerWithClock(clock types.Clock) *Tracker {
	if clock == nil {
		clock = time.Now
	}
	return &Tracker{now: clock}
}

// Analyze scores one response and, when requested, returns the advanced
// or reinforced estimate. The input level is never mutated.
func (t *Tracker) Analyze(level types.ExpertiseLevel, in Input) Analysis {
	hits := lexicalHits(in.Response)
	concepts := templates.DetectConcepts(in.Response)
	entities := ExtractEntities(in.Response)

	a := Analysis{
		Quality:           scoreQuality(in.Response, hits),
		Complexity:        AssessComplexity(in.Response),
		WordCount:         len(strings.Fields(in.Response)),
		TechnicalTerms:    hits,
		Concepts:          concepts,
		Insights:          append(entities, concepts...),
		Misunderstandings: DetectMisunderstanding(in.Response),
		Level:             level.Clone(),
		Trigger:           types.TriggerUserResponse,
	}
	if !in.TrackingEnabled {
		a.Trigger = types.TriggerPerformanceAnalysis
	}

	logging.ExpertiseDebug("response scored: quality=%.2f complexity=%s terms=%d flags=%d",
		a.Quality, a.Complexity, len(hits), len(a.Misunderstandings))

	if !in.UpdateExpertise {
		return a
	}

	if in.TrackingEnabled {
		t.updateFull(&a, in)
	} else {
		t.updateDegraded(&a)
	}
	return a
}

// updateFull applies the length + confidence + lexical decision. Tier
// moves at most one step; confidence stays inside [0.1, 1.0].
func (t *Tracker) updateFull(a *Analysis, in Input) {
	lvl := &a.Level
	lvl.DomainSpecific = lvl.Domain != "" && lvl.Domain != types.GeneralDomain

	confidence := in.Confidence
	if confidence == 0 {
		confidence = defaultSignalConfidence
	}

	switch {
	case confidence < lowSignalConfidence:
		lvl.Confidence = types.ClampConfidence(lvl.Confidence - confidenceStepDown)
		logging.ExpertiseDebug("weak signal (%.2f), confidence now %.2f, tier held at %s",
			confidence, lvl.Confidence, lvl.Tier)

	case a.Quality >= advanceQuality && len(a.Misunderstandings) == 0:
		lvl.Confidence = types.ClampConfidence(lvl.Confidence + confidenceStepUp)
		t.promote(a, types.TriggerUserResponse,
			fmt.Sprintf("response quality %.2f with %d technical terms", a.Quality, len(a.TechnicalTerms)))
	}
}

// updateDegraded is the capability-off path: word counts only, no
// domain-specificity claim.
func (t *Tracker) updateDegraded(a *Analysis) {
	lvl := &a.Level
	lvl.DomainSpecific = false

	switch a.Complexity {
	case ResponseHigh:
		lvl.Confidence = types.ClampConfidence(lvl.Confidence + degradedStep)
		t.promote(a, types.TriggerPerformanceAnalysis,
			fmt.Sprintf("high-complexity response (%d words) under degraded tracking", a.WordCount))
	case ResponseLow:
		lvl.Confidence = types.ClampConfidence(lvl.Confidence - degradedStep)
	}
}

// promote advances one tier if there is one above, appending the
// adaptation record. At the top tier only confidence moved.
func (t *Tracker) promote(a *Analysis, trigger types.AdaptationTrigger, justification string) {
	lvl := &a.Level
	next := lvl.Tier.Next()
	if next == lvl.Tier {
		return
	}

	lvl.History = append(lvl.History, types.AdaptationRecord{
		Timestamp:     t.now(),
		PreviousTier:  lvl.Tier,
		NewTier:       next,
		Trigger:       trigger,
		Justification: justification,
	})
	logging.Expertise("tier %s -> %s (%s): %s", lvl.Tier, next, trigger, justification)

	lvl.Tier = next
	a.TierChanged = true
}

// scoreQuality combines a length score with capped lexical credit.
func scoreQuality(text string, hits []string) float64 {
	scored := len(hits)
	if scored > maxScoredHits {
		scored = maxScoredHits
	}

	score := lengthScore(text) + float64(scored)*lexicalHitWeight
	if score > 1 {
		score = 1
	}
	return score
}

func lengthScore(text string) float64 {
	n := len(strings.TrimSpace(text))
	switch {
	case n >= substantialResponseChars:
		return 0.4
	case n >= 60:
		return 0.3
	case n >= 20:
		return 0.2
	case n > 0:
		return 0.1
	default:
		return 0
	}
}
