// Package memory holds per-conversation state: the ordered interaction
// log, expertise snapshots, and preferences, behind a TTL-swept store.
// Nothing here survives the process; durability is out of scope.
package memory

import (
	"fmt"
	"time"

	"socratic/internal/types"
)

// ExpertiseSnapshot is one point on the session's expertise timeline.
type ExpertiseSnapshot struct {
	Level   types.ExpertiseLevel `json:"level"`
	TakenAt time.Time            `json:"taken_at"`
}

// Session is the per-conversation aggregate. The store owns every live
// instance; callers only ever see deep copies.
type Session struct {
	ID             string                      `json:"id"`
	Domain         types.DomainContext         `json:"domain"`
	Expertise      types.ExpertiseLevel        `json:"expertise"`
	Sophistication types.SophisticationLevel   `json:"sophistication"`
	Preferences    types.UserPreferences       `json:"preferences"`
	Interactions   []types.QuestionInteraction `json:"interactions,omitempty"`
	Snapshots      []ExpertiseSnapshot         `json:"snapshots,omitempty"`
	CreatedAt      time.Time                   `json:"created_at"`
	LastActive     time.Time                   `json:"last_active"`
}

// Clone returns a deep copy safe to hand outside the store's lock.
func (s *Session) Clone() Session {
	out := *s
	out.Expertise = s.Expertise.Clone()
	out.Domain = cloneDomain(s.Domain)

	if len(s.Interactions) > 0 {
		out.Interactions = make([]types.QuestionInteraction, len(s.Interactions))
		copy(out.Interactions, s.Interactions)
	}
	if len(s.Snapshots) > 0 {
		out.Snapshots = make([]ExpertiseSnapshot, len(s.Snapshots))
		for i, snap := range s.Snapshots {
			out.Snapshots[i] = ExpertiseSnapshot{Level: snap.Level.Clone(), TakenAt: snap.TakenAt}
		}
	}
	if len(s.Preferences.DomainFocus) > 0 {
		out.Preferences.DomainFocus = append([]string(nil), s.Preferences.DomainFocus...)
	}
	return out
}

func cloneDomain(dc types.DomainContext) types.DomainContext {
	out := dc
	out.Technologies = append([]string(nil), dc.Technologies...)
	out.Specializations = append([]string(nil), dc.Specializations...)
	out.ComplianceTags = append([]string(nil), dc.ComplianceTags...)
	out.Indicators = append([]string(nil), dc.Indicators...)
	return out
}

// appendInteraction adds a question row. Caller holds the store lock.
func (s *Session) appendInteraction(qi types.QuestionInteraction) {
	s.Interactions = append(s.Interactions, qi)
}

// recordResponse fills in the answer on the matching interaction,
// scanning newest-first since answers almost always land on the latest
// question. Returns false if the question id is unknown.
func (s *Session) recordResponse(questionID, response string, quality float64, followUp bool, at time.Time) bool {
	for i := len(s.Interactions) - 1; i >= 0; i-- {
		if s.Interactions[i].QuestionID != questionID {
			continue
		}
		s.Interactions[i].Response = response
		s.Interactions[i].AnsweredAt = at
		s.Interactions[i].QualityScore = quality
		s.Interactions[i].FollowUpGenerated = followUp
		return true
	}
	return false
}

// updateExpertise swaps the estimate and appends a snapshot. Caller
// holds the store lock.
func (s *Session) updateExpertise(level types.ExpertiseLevel, at time.Time) {
	s.Expertise = level.Clone()
	s.Snapshots = append(s.Snapshots, ExpertiseSnapshot{Level: level.Clone(), TakenAt: at})
}

// recentQuestions returns the text of the last n asked questions in
// chronological order.
func (s *Session) recentQuestions(n int) []string {
	if n <= 0 || len(s.Interactions) == 0 {
		return nil
	}
	start := len(s.Interactions) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, 0, len(s.Interactions)-start)
	for _, qi := range s.Interactions[start:] {
		out = append(out, qi.QuestionText)
	}
	return out
}

// ProgressAt derives the read-only progress view at the given instant.
func (s *Session) ProgressAt(now time.Time) types.ProgressReport {
	asked := len(s.Interactions)
	answered := 0
	var lastAt time.Time
	for _, qi := range s.Interactions {
		if qi.Answered() {
			answered++
		}
		if qi.AskedAt.After(lastAt) {
			lastAt = qi.AskedAt
		}
		if qi.AnsweredAt.After(lastAt) {
			lastAt = qi.AnsweredAt
		}
	}

	completion := 0.0
	if asked > 0 {
		completion = float64(answered) / float64(asked) * 100
	}

	velocity := 0.0
	if elapsed := now.Sub(s.CreatedAt).Minutes(); elapsed > 0 {
		velocity = float64(answered) / elapsed
	}

	trend, description := trendOf(s.Snapshots)

	return types.ProgressReport{
		SessionID:         s.ID,
		Domain:            s.Domain.Domain,
		QuestionsAsked:    asked,
		QuestionsAnswered: answered,
		CompletionPercent: completion,
		ExpertiseTrend:    trend,
		TrendDescription:  description,
		LearningVelocity:  velocity,
		CurrentTier:       s.Expertise.Tier,
		CurrentConfidence: s.Expertise.Confidence,
		SessionStartedAt:  s.CreatedAt,
		LastInteractionAt: lastAt,
	}
}

// trendWindow is how many recent snapshots the trend reads.
const trendWindow = 3

// confidenceTrendEpsilon separates drift from a real confidence move.
const confidenceTrendEpsilon = 0.05

func trendOf(snapshots []ExpertiseSnapshot) (types.ExpertiseTrend, string) {
	if len(snapshots) < 2 {
		return types.TrendUnknown, "not enough expertise history to read a trend"
	}

	window := snapshots
	if len(window) > trendWindow {
		window = window[len(window)-trendWindow:]
	}
	first := window[0].Level
	last := window[len(window)-1].Level

	switch {
	case last.Tier.Rank() > first.Tier.Rank():
		return types.TrendImproving, fmt.Sprintf("expertise moved from %s to %s", first.Tier, last.Tier)
	case last.Tier.Rank() < first.Tier.Rank():
		return types.TrendDeclining, fmt.Sprintf("expertise dropped from %s to %s", first.Tier, last.Tier)
	}

	delta := last.Confidence - first.Confidence
	switch {
	case delta > confidenceTrendEpsilon:
		return types.TrendImproving, fmt.Sprintf("confidence rising at %s (%.2f to %.2f)", last.Tier, first.Confidence, last.Confidence)
	case delta < -confidenceTrendEpsilon:
		return types.TrendDeclining, fmt.Sprintf("confidence slipping at %s (%.2f to %.2f)", last.Tier, first.Confidence, last.Confidence)
	default:
		return types.TrendStable, fmt.Sprintf("holding steady at %s", last.Tier)
	}
}
