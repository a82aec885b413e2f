// Package socratic is the public face of the adaptive questioning
// engine. It re-exports the engine's four operations and the data model
// needed to call them, so host applications can embed the engine without
// reaching into internal packages.
package socratic

import (
	"socratic/internal/config"
	"socratic/internal/engine"
	"socratic/internal/knowledge"
	"socratic/internal/memory"
	"socratic/internal/types"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine generates adaptive questions, scores responses, and tracks
// per-session expertise. Construct with New, then Start for background
// maintenance; call Stop on shutdown.
type Engine = engine.Engine

// Options configures a new engine.
type Options = engine.Options

// Metrics is a point-in-time counter snapshot.
type Metrics = engine.Metrics

// New builds an engine from options. A nil config gets defaults; a nil
// knowledge source runs the engine template-only.
var New = engine.New

// =============================================================================
// OPERATIONS
// =============================================================================

type (
	GenerateRequest  = engine.GenerateRequest
	QuestionBundle   = engine.QuestionBundle
	ProcessRequest   = engine.ProcessRequest
	ResponseAnalysis = engine.ResponseAnalysis
	AdjustRequest    = engine.AdjustRequest
	Adjustment       = engine.Adjustment
	Direction        = engine.Direction
	SessionInsights  = engine.SessionInsights
)

const (
	Increase = engine.Increase
	Decrease = engine.Decrease
)

// Request validation and session lookup errors.
var (
	ErrSessionIDRequired   = engine.ErrSessionIDRequired
	ErrInvalidQuestionType = engine.ErrInvalidQuestionType
	ErrInvalidDirection    = engine.ErrInvalidDirection
	ErrSessionNotFound     = memory.ErrSessionNotFound
)

// =============================================================================
// DATA MODEL
// =============================================================================

type (
	AdaptiveQuestion    = types.AdaptiveQuestion
	DomainContext       = types.DomainContext
	DomainKnowledge     = types.DomainKnowledge
	ExpertiseLevel      = types.ExpertiseLevel
	ExpertiseTier       = types.ExpertiseTier
	SophisticationLevel = types.SophisticationLevel
	ComplexityTier      = types.ComplexityTier
	UserPreferences     = types.UserPreferences
	QuestionType        = types.QuestionType
	Provenance          = types.Provenance
	ProgressReport      = types.ProgressReport
	DegradationMode     = types.DegradationMode
	DegradationState    = types.DegradationState
	HealthReport        = types.HealthReport
	HealthStatus        = types.HealthStatus
)

const (
	QuestionExploratory = types.QuestionExploratory
	QuestionClarifying  = types.QuestionClarifying
	QuestionTechnical   = types.QuestionTechnical
	QuestionValidation  = types.QuestionValidation
	QuestionFollowUp    = types.QuestionFollowUp

	ProvenanceTemplate  = types.ProvenanceTemplate
	ProvenanceCached    = types.ProvenanceCached
	ProvenanceFallback  = types.ProvenanceFallback
	ProvenanceRecovered = types.ProvenanceRecovered

	TierBeginner     = types.TierBeginner
	TierIntermediate = types.TierIntermediate
	TierAdvanced     = types.TierAdvanced

	ComplexitySimple   = types.ComplexitySimple
	ComplexityModerate = types.ComplexityModerate
	ComplexityAdvanced = types.ComplexityAdvanced
	ComplexityExpert   = types.ComplexityExpert

	ModeFull      = types.ModeFull
	ModeLimited   = types.ModeLimited
	ModeOffline   = types.ModeOffline
	ModeEmergency = types.ModeEmergency

	HealthHealthy  = types.HealthHealthy
	HealthDegraded = types.HealthDegraded
	HealthCritical = types.HealthCritical
)

// DefaultSophistication is the starting level for new sessions.
var DefaultSophistication = types.DefaultSophistication

// DefaultExpertise is the starting skill estimate for a domain.
var DefaultExpertise = types.DefaultExpertise

// =============================================================================
// COLLABORATORS
// =============================================================================

// KnowledgeSource is the single consumed capability: domain knowledge
// snippets on demand. Implement it over your retrieval stack, or use
// KnowledgeSourceFunc for a closure.
type KnowledgeSource = types.KnowledgeSource

// KnowledgeSourceFunc adapts a function to the KnowledgeSource interface.
type KnowledgeSourceFunc = types.KnowledgeSourceFunc

// StaticSource is an in-process knowledge source backed by curated
// snippets. Useful for demos and tests.
type StaticSource = knowledge.StaticSource

// NewStaticSource builds a source preloaded with the curated domains.
var NewStaticSource = knowledge.NewStaticSource

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config is the engine's configuration tree.
type Config = config.Config

// DefaultConfig returns the built-in defaults.
var DefaultConfig = config.DefaultConfig

// LoadConfig reads a YAML config file, tolerating a missing file by
// returning defaults. SOCRATIC_* environment variables override both.
var LoadConfig = config.Load
