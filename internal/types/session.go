package types

import (
	"time"
)

// =============================================================================
// SESSION / CONVERSATION MEMORY MODEL
// =============================================================================

// QuestionInteraction is one row per asked question. Owned exclusively by the
// session's conversation memory; Response stays empty until answered.
type QuestionInteraction struct {
	QuestionID        string              `json:"question_id"`
	QuestionText      string              `json:"question_text"`
	Response          string              `json:"response"`
	AskedAt           time.Time           `json:"asked_at"`
	AnsweredAt        time.Time           `json:"answered_at,omitempty"`
	Sophistication    SophisticationLevel `json:"sophistication"`
	QualityScore      float64             `json:"quality_score"` // 0.0-1.0, set on analysis
	FollowUpGenerated bool                `json:"follow_up_generated"`
}

// Answered reports whether the interaction has received a response.
func (qi QuestionInteraction) Answered() bool {
	return qi.Response != ""
}

// LearningStyle captures how the user prefers material presented.
type LearningStyle string

const (
	StyleVisual      LearningStyle = "visual"
	StyleTextual     LearningStyle = "textual"
	StyleHandsOn     LearningStyle = "hands_on"
	StyleUnspecified LearningStyle = ""
)

// UserPreferences are per-session knobs supplied by the host or learned
// during the interview.
type UserPreferences struct {
	PreferredComplexity ComplexityTier `json:"preferred_complexity,omitempty"`
	LearningStyle       LearningStyle  `json:"learning_style,omitempty"`
	DomainFocus         []string       `json:"domain_focus,omitempty"`
	SkipBasics          bool           `json:"skip_basics"`
	AdaptiveDifficulty  bool           `json:"adaptive_difficulty"`
}

// ExpertiseTrend describes the direction of recent expertise snapshots.
type ExpertiseTrend string

const (
	TrendImproving ExpertiseTrend = "improving"
	TrendStable    ExpertiseTrend = "stable"
	TrendDeclining ExpertiseTrend = "declining"
	TrendUnknown   ExpertiseTrend = "unknown"
)

// ProgressReport answers the read-only progress queries for a session.
type ProgressReport struct {
	SessionID         string         `json:"session_id"`
	Domain            string         `json:"domain"`
	QuestionsAsked    int            `json:"questions_asked"`
	QuestionsAnswered int            `json:"questions_answered"`
	CompletionPercent float64        `json:"completion_percent"`
	ExpertiseTrend    ExpertiseTrend `json:"expertise_trend"`
	TrendDescription  string         `json:"trend_description"`
	LearningVelocity  float64        `json:"learning_velocity"` // answered questions per minute
	CurrentTier       ExpertiseTier  `json:"current_tier"`
	CurrentConfidence float64        `json:"current_confidence"`
	SessionStartedAt  time.Time      `json:"session_started_at"`
	LastInteractionAt time.Time      `json:"last_interaction_at"`
}
