package expertise

import (
	"regexp"
	"strings"

	"socratic/internal/types"
)

// ResponseComplexity grades a free-text reply by length and structure.
// It drives the degraded tracking path and question selection hints.
type ResponseComplexity string

const (
	ResponseLow    ResponseComplexity = "low"    // under 10 words, single sentence
	ResponseMedium ResponseComplexity = "medium" // everything in between
	ResponseHigh   ResponseComplexity = "high"   // over 30 words or 4+ sentences
)

// Technical vocabulary used for both response scoring and tier inference
// from discovery indicators. Matching is lowercase substring.
var (
	advancedTerms     = []string{"microservice", "kubernetes", "devops", "architecture", "distributed"}
	intermediateTerms = []string{"api", "database", "framework", "integration", "authentication"}
)

var (
	quotedPhraseRe = regexp.MustCompile(`"([^"]*)"`)
	properNounRe   = regexp.MustCompile(`\b[A-Z][a-z]+\b`)
)

// Capitalized words that are sentence mechanics, not entities.
var entityStopwords = map[string]struct{}{
	"I": {}, "The": {}, "A": {}, "An": {},
	"This": {}, "That": {}, "These": {}, "Those": {},
}

// Phrases that signal the user did not understand the question.
var uncertaintyPhrases = []string{
	"i don't know",
	"i dont know",
	"not sure",
	"unsure",
	"no idea",
	"don't understand",
	"dont understand",
	"what do you mean",
	"confused",
}

// AssessComplexity grades a response. Sentences are period-delimited;
// fragments without a trailing period still count as one.
func AssessComplexity(text string) ResponseComplexity {
	words := len(strings.Fields(text))

	sentences := 0
	for _, s := range strings.Split(text, ".") {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}

	switch {
	case words < 10 && sentences <= 1:
		return ResponseLow
	case words > 30 || sentences > 3:
		return ResponseHigh
	default:
		return ResponseMedium
	}
}

// ExtractEntities pulls quoted phrases and capitalized words out of a
// response, first occurrence wins.
func ExtractEntities(text string) []string {
	var entities []string
	seen := make(map[string]struct{})

	add := func(e string) {
		e = strings.TrimSpace(e)
		if e == "" {
			return
		}
		if _, dup := seen[e]; dup {
			return
		}
		seen[e] = struct{}{}
		entities = append(entities, e)
	}

	for _, m := range quotedPhraseRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, word := range properNounRe.FindAllString(text, -1) {
		if _, skip := entityStopwords[word]; skip {
			continue
		}
		add(word)
	}

	return entities
}

// DetectMisunderstanding returns human-readable flags for replies that
// suggest the question missed, so the engine can simplify instead of
// advancing.
func DetectMisunderstanding(text string) []string {
	var flags []string

	lower := strings.ToLower(text)
	for _, phrase := range uncertaintyPhrases {
		if strings.Contains(lower, phrase) {
			flags = append(flags, "expressed uncertainty")
			break
		}
	}

	if strings.HasSuffix(strings.TrimSpace(text), "?") {
		flags = append(flags, "answered with a question")
	}

	if len(strings.Fields(text)) < 3 {
		flags = append(flags, "very short reply")
	}

	return flags
}

// lexicalHits returns the distinct technical terms present in the text,
// advanced vocabulary first.
func lexicalHits(text string) []string {
	lower := strings.ToLower(text)

	var hits []string
	seen := make(map[string]struct{})
	for _, list := range [][]string{advancedTerms, intermediateTerms} {
		for _, term := range list {
			if _, dup := seen[term]; dup {
				continue
			}
			if strings.Contains(lower, term) {
				seen[term] = struct{}{}
				hits = append(hits, term)
			}
		}
	}
	return hits
}

// InferTier estimates a starting tier from discovery indicators. More
// than two advanced terms reads as advanced; more than one intermediate
// term reads as intermediate.
func InferTier(indicators []string) types.ExpertiseTier {
	joined := strings.ToLower(strings.Join(indicators, " "))

	advanced := 0
	for _, term := range advancedTerms {
		if strings.Contains(joined, term) {
			advanced++
		}
	}
	intermediate := 0
	for _, term := range intermediateTerms {
		if strings.Contains(joined, term) {
			intermediate++
		}
	}

	switch {
	case advanced > 2:
		return types.TierAdvanced
	case intermediate > 1:
		return types.TierIntermediate
	default:
		return types.TierBeginner
	}
}
