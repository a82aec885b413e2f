package templates

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"socratic/internal/types"
)

// maxSynthesisTechnologies bounds how many discovered technologies get
// their own question variants. Contexts with long technology lists would
// otherwise swamp the bank with near-duplicates.
const maxSynthesisTechnologies = 4

// SynthesizeFromContext builds technology-targeted templates from a
// discovered domain context. This is the advanced-templates path: it only
// runs when that capability is enabled, and its output is cached by the
// engine per (domain, question type).
func SynthesizeFromContext(dc types.DomainContext, qt types.QuestionType, tier types.ComplexityTier) []*Template {
	var out []*Template

	techs := dc.Technologies
	if len(techs) > maxSynthesisTechnologies {
		techs = techs[:maxSynthesisTechnologies]
	}

	for _, tech := range techs {
		tech = strings.TrimSpace(tech)
		if tech == "" {
			continue
		}
		for _, text := range technologyPhrasings(qt, tech) {
			t := &Template{
				ID:         fmt.Sprintf("synth:%s", uuid.New().String()),
				Domain:     dc.Domain,
				Type:       qt,
				Complexity: tier,
				Text:       text,
				Source:     SourceSynthesized,
			}
			if qt == types.QuestionTechnical {
				t.FollowUps = []string{fmt.Sprintf("What version or scale of %s are we talking about?", tech)}
			}
			if qt == types.QuestionValidation {
				t.ValidationCriteria = []string{
					"names a concrete verification step",
					"identifies a failure signal",
				}
			}
			out = append(out, t)
		}
	}

	// Compliance tags produce their own technical variants. These only
	// make sense past the simple tier.
	if qt == types.QuestionTechnical && tier != types.ComplexitySimple {
		for _, tag := range dc.ComplianceTags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			out = append(out, &Template{
				ID:         fmt.Sprintf("synth:%s", uuid.New().String()),
				Domain:     dc.Domain,
				Type:       qt,
				Complexity: tier,
				Text:       fmt.Sprintf("What does %s compliance require from this system?", strings.ToUpper(tag)),
				Source:     SourceSynthesized,
			})
		}
	}

	return out
}

// technologyPhrasings returns the per-technology question texts for a
// question type.
func technologyPhrasings(qt types.QuestionType, tech string) []string {
	switch qt {
	case types.QuestionExploratory:
		return []string{
			fmt.Sprintf("What role does %s play in what you're building?", tech),
			fmt.Sprintf("What are you hoping %s will unlock for your {domain} work?", tech),
		}
	case types.QuestionClarifying:
		return []string{
			fmt.Sprintf("You mentioned %s. How central is it to this project?", tech),
			fmt.Sprintf("Is %s something you already run, or something you're evaluating?", tech),
		}
	case types.QuestionTechnical:
		return []string{
			fmt.Sprintf("How does %s fit into your current architecture?", tech),
			fmt.Sprintf("What challenges have you run into with %s so far?", tech),
		}
	case types.QuestionValidation:
		return []string{
			fmt.Sprintf("How will you verify the %s integration behaves correctly?", tech),
		}
	case types.QuestionFollowUp:
		return []string{
			fmt.Sprintf("Earlier you brought up %s. Has anything changed there?", tech),
		}
	default:
		return nil
	}
}
