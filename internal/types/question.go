package types

import (
	"time"
)

// =============================================================================
// ADAPTIVE QUESTIONS
// =============================================================================

// QuestionType classifies what a question is trying to accomplish.
type QuestionType string

const (
	QuestionExploratory QuestionType = "exploratory" // Open the topic up
	QuestionClarifying  QuestionType = "clarifying"  // Pin down something vague
	QuestionTechnical   QuestionType = "technical"   // Drill into implementation detail
	QuestionValidation  QuestionType = "validation"  // Confirm an assumption back to the user
	QuestionFollowUp    QuestionType = "follow_up"   // Continue a previous thread
)

// KnownQuestionTypes lists every question type the engine can generate.
var KnownQuestionTypes = []QuestionType{
	QuestionExploratory,
	QuestionClarifying,
	QuestionTechnical,
	QuestionValidation,
	QuestionFollowUp,
}

// Valid reports whether qt is a known question type.
func (qt QuestionType) Valid() bool {
	for _, k := range KnownQuestionTypes {
		if k == qt {
			return true
		}
	}
	return false
}

// Provenance tags which resolution path produced a question. Callers branch
// on this instead of inspecting string markers in the question text.
type Provenance string

const (
	ProvenanceTemplate  Provenance = "template"  // Domain template bank (synthesized or built-in)
	ProvenanceCached    Provenance = "cached"    // Knowledge path, served through the response cache
	ProvenanceFallback  Provenance = "fallback"  // Fixed domain-agnostic bank
	ProvenanceRecovered Provenance = "recovered" // Emergency minimal question after an internal error
)

// ResponseShape describes what kind of answer a question expects.
type ResponseShape string

const (
	ShapeFreeText  ResponseShape = "free_text"
	ShapeList      ResponseShape = "list"
	ShapeYesNo     ResponseShape = "yes_no"
	ShapeTechnical ResponseShape = "technical_detail"
	ShapeExample   ResponseShape = "concrete_example"
)

// AdaptiveQuestion is the generated artifact of one generation call.
// Immutable after creation.
type AdaptiveQuestion struct {
	ID                 string              `json:"id"`
	Type               QuestionType        `json:"type"`
	Text               string              `json:"text"`
	Sophistication     SophisticationLevel `json:"sophistication"`
	Domain             string              `json:"domain"`
	ExpectedShape      ResponseShape       `json:"expected_shape"`
	FollowUpPrompts    []string            `json:"follow_up_prompts,omitempty"`
	ValidationCriteria []string            `json:"validation_criteria,omitempty"`
	Provenance         Provenance          `json:"provenance"`
	CreatedAt          time.Time           `json:"created_at"`
}

// ExpectedShapeFor maps a question type and sophistication to the response
// shape the engine anticipates. Validation questions want yes/no; technical
// questions at depth want detail; example-bearing levels invite examples.
func ExpectedShapeFor(qt QuestionType, level SophisticationLevel) ResponseShape {
	switch qt {
	case QuestionValidation:
		return ShapeYesNo
	case QuestionTechnical:
		return ShapeTechnical
	case QuestionFollowUp:
		if level.IncludeExamples {
			return ShapeExample
		}
		return ShapeFreeText
	default:
		if level.Complexity.Rank() >= ComplexityAdvanced.Rank() {
			return ShapeTechnical
		}
		return ShapeFreeText
	}
}
