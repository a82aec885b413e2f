package engine

import (
	"errors"
	"time"

	"socratic/internal/disclosure"
	"socratic/internal/expertise"
	"socratic/internal/types"
)

// Direction aliases the disclosure direction so callers can build adjust
// requests without importing the disclosure package.
type Direction = disclosure.Direction

// Adjustment aliases the disclosure result for the same reason.
type Adjustment = disclosure.Adjustment

const (
	Increase = disclosure.Increase
	Decrease = disclosure.Decrease
)

// Request validation errors. These are the only errors the four
// operations return for malformed input; everything downstream is
// absorbed by the resilience layer.
var (
	ErrSessionIDRequired   = errors.New("session id required")
	ErrInvalidQuestionType = errors.New("unknown question type")
	ErrInvalidDirection    = errors.New("adjustment direction must be increase or decrease")
)

// GenerateRequest asks for the next question in a session. Only the
// session id matters for continuing conversations; everything else seeds
// a session on first contact or overrides it for a single call.
type GenerateRequest struct {
	// SessionID names the conversation. Empty mints a fresh session.
	SessionID string `json:"session_id,omitempty"`

	// Domain is the caller-resolved domain context. A zero value keeps
	// the session's current domain, or the configured default for new
	// sessions.
	Domain types.DomainContext `json:"domain,omitempty"`

	// QuestionType forces a specific type. Empty lets the engine pick
	// from the conversation state.
	QuestionType types.QuestionType `json:"question_type,omitempty"`

	// Sophistication overrides the asking level for this call. On a new
	// session it becomes the starting level.
	Sophistication *types.SophisticationLevel `json:"sophistication,omitempty"`

	// Expertise seeds a new session's skill estimate. Ignored for
	// existing sessions; expertise only moves through response analysis.
	Expertise *types.ExpertiseLevel `json:"expertise,omitempty"`

	// Preferences seed a new session's knobs.
	Preferences *types.UserPreferences `json:"preferences,omitempty"`
}

// QuestionBundle is the result of one generation call: the question plus
// the transparency trimmings that let a host display why it was asked.
type QuestionBundle struct {
	SessionID       string                 `json:"session_id"`
	Question        types.AdaptiveQuestion `json:"question"`
	Rationale       string                 `json:"rationale"`
	Recommendations []string               `json:"recommendations,omitempty"`
	Warnings        []string               `json:"warnings,omitempty"`
	Mode            types.DegradationMode  `json:"mode"`
	NewSession      bool                   `json:"new_session"`
}

// ProcessRequest submits the user's answer to a previously asked
// question for scoring and (optionally) expertise adjustment.
type ProcessRequest struct {
	SessionID  string `json:"session_id"`
	QuestionID string `json:"question_id"`
	Response   string `json:"response"`

	// Confidence is the caller's prior confidence in the response as a
	// skill signal (0-1). Zero means unknown.
	Confidence float64 `json:"confidence,omitempty"`

	// UpdateExpertise gates whether the session's skill estimate moves.
	UpdateExpertise bool `json:"update_expertise"`
}

// ResponseAnalysis is the scored view of one answer.
type ResponseAnalysis struct {
	SessionID         string                       `json:"session_id"`
	QuestionID        string                       `json:"question_id,omitempty"`
	Quality           float64                      `json:"quality"`
	WordCount         int                          `json:"word_count"`
	Complexity        expertise.ResponseComplexity `json:"complexity"`
	Insights          []string                     `json:"insights,omitempty"`
	Concepts          []string                     `json:"concepts,omitempty"`
	TechnicalTerms    []string                     `json:"technical_terms,omitempty"`
	Misunderstandings []string                     `json:"misunderstandings,omitempty"`
	Expertise         types.ExpertiseLevel         `json:"expertise"`
	TierChanged       bool                         `json:"tier_changed"`
	Trigger           types.AdaptationTrigger      `json:"trigger,omitempty"`
	FollowUps         []string                     `json:"follow_ups,omitempty"`
	FollowUpGenerated bool                         `json:"follow_up_generated"`
	Warnings          []string                     `json:"warnings,omitempty"`
	Mode              types.DegradationMode        `json:"mode"`
}

// AdjustRequest moves a session's sophistication one step.
type AdjustRequest struct {
	SessionID string    `json:"session_id"`
	Direction Direction `json:"direction"`
}

// SessionInsights is the qualitative companion to the progress report:
// what the engine has learned about the user and their project.
type SessionInsights struct {
	SessionID         string                    `json:"session_id"`
	Domain            string                    `json:"domain"`
	Expertise         types.ExpertiseLevel      `json:"expertise"`
	Sophistication    types.SophisticationLevel `json:"sophistication"`
	Preferences       types.UserPreferences     `json:"preferences"`
	Concepts          []string                  `json:"concepts,omitempty"`
	Insights          []string                  `json:"insights,omitempty"`
	AdaptationHistory []types.AdaptationRecord  `json:"adaptation_history,omitempty"`
	GeneratedAt       time.Time                 `json:"generated_at"`
}
