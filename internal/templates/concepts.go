package templates

import "strings"

// =============================================================================
// CONCEPT BANKS
// =============================================================================

// conceptOrder fixes a deterministic iteration order over the concept
// tables; map iteration would make follow-up generation flaky.
var conceptOrder = []string{
	"business",
	"technical",
	"user_experience",
	"automation",
	"real_time",
	"security",
	"scale",
}

// conceptKeywords maps a concept to the trigger words that signal the
// user is talking about it.
var conceptKeywords = map[string][]string{
	"business":        {"business", "company", "enterprise", "commercial", "revenue"},
	"technical":       {"api", "database", "integration", "technical", "system"},
	"user_experience": {"user", "experience", "interface", "usability", "design"},
	"automation":      {"automate", "automatic", "workflow", "process", "task"},
	"real_time":       {"real-time", "live", "instant", "immediate", "streaming"},
	"security":        {"secure", "security", "private", "confidential", "protect"},
	"scale":           {"scale", "scalable", "performance", "volume", "growth"},
}

// conceptQuestions holds the follow-up phrasings asked when a concept
// surfaces in a response.
var conceptQuestions = map[string][]string{
	"business": {
		"How does this fit into your business goals?",
		"What's the expected business impact or ROI?",
		"Who are the key stakeholders for this project?",
	},
	"technical": {
		"What existing systems does this need to integrate with?",
		"Are there any technical constraints I should know about?",
		"What's your current technical infrastructure like?",
	},
	"user_experience": {
		"What does a successful user interaction look like?",
		"How tech-savvy are your typical users?",
		"What would make this really valuable for your users?",
	},
	"automation": {
		"What manual processes are you hoping to automate?",
		"How often does this process need to run?",
		"What triggers should start this automation?",
	},
	"real_time": {
		"How quickly do you need responses or results?",
		"What happens if there's a delay in processing?",
		"How will users know when new information is available?",
	},
	"security": {
		"What kind of sensitive information will be handled?",
		"What security or compliance requirements do you have?",
		"Who should have access to this system?",
	},
	"scale": {
		"How many users do you expect?",
		"What's the expected volume of data or requests?",
		"How quickly do you anticipate growth?",
	},
}

// DetectConcepts returns the concepts whose keywords appear in the text,
// in canonical order. Matching is case-insensitive substring matching,
// so "databases" still trips "database".
func DetectConcepts(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, concept := range conceptOrder {
		for _, kw := range conceptKeywords[concept] {
			if strings.Contains(lower, kw) {
				out = append(out, concept)
				break
			}
		}
	}
	return out
}

// ConceptFollowUps returns up to limit follow-up questions for the
// detected concepts, skipping anything already asked. Concepts are
// consumed in detection order, one bank at a time, so the first concept
// mentioned dominates the follow-ups.
func ConceptFollowUps(concepts []string, asked []string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(asked))
	for _, q := range asked {
		seen[q] = struct{}{}
	}
	var out []string
	for _, concept := range concepts {
		for _, q := range conceptQuestions[concept] {
			if _, dup := seen[q]; dup {
				continue
			}
			out = append(out, q)
			seen[q] = struct{}{}
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// Concepts lists every known concept in canonical order.
func Concepts() []string {
	out := make([]string, len(conceptOrder))
	copy(out, conceptOrder)
	return out
}
