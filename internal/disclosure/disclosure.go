// Package disclosure adjusts question sophistication one step at a time.
// It is a pure function over the level: no session state, no degradation
// awareness, callers decide when to invoke it.
package disclosure

import (
	"fmt"
	"strings"

	"socratic/internal/types"
)

// Direction of a sophistication adjustment.
type Direction string

const (
	Increase Direction = "increase"
	Decrease Direction = "decrease"
)

// Valid reports whether the direction is one of the two known values.
func (d Direction) Valid() bool {
	return d == Increase || d == Decrease
}

// Adjustment is the outcome of one step: the level before and after plus
// a plain-language statement of what the user will notice.
type Adjustment struct {
	Previous types.SophisticationLevel `json:"previous"`
	Level    types.SophisticationLevel `json:"level"`
	Changed  bool                      `json:"changed"`
	Impact   string                    `json:"impact"`
}

// Adjust moves the level one step in the given direction. Complexity
// walks simple -> moderate -> advanced -> expert and back; depth moves by
// one inside [1, 5]. Flags are rederived from the resulting tier, so
// technical detail appears the moment complexity leaves simple and
// validation demands appear only at expert.
func Adjust(level types.SophisticationLevel, dir Direction) Adjustment {
	prev := level
	if !prev.Complexity.Valid() {
		prev = types.DefaultSophistication()
	}

	var next types.SophisticationLevel
	switch dir {
	case Increase:
		next = types.SophisticationForTier(prev.Complexity.Next(), prev.Depth+1)
	case Decrease:
		next = types.SophisticationForTier(prev.Complexity.Prev(), prev.Depth-1)
	default:
		return Adjustment{
			Previous: level,
			Level:    prev,
			Impact:   fmt.Sprintf("No adjustment made: unknown direction %q.", string(dir)),
		}
	}

	return Adjustment{
		Previous: level,
		Level:    next,
		Changed:  next != prev,
		Impact:   impactStatement(prev, next, dir),
	}
}

// ForExpertiseTier maps an expertise estimate to the complexity new
// sessions and adaptation recommendations start from. Expert complexity
// is only ever reached through explicit increases.
func ForExpertiseTier(tier types.ExpertiseTier, depth int) types.SophisticationLevel {
	switch tier {
	case types.TierAdvanced:
		return types.SophisticationForTier(types.ComplexityAdvanced, depth)
	case types.TierIntermediate:
		return types.SophisticationForTier(types.ComplexityModerate, depth)
	default:
		return types.SophisticationForTier(types.ComplexitySimple, depth)
	}
}

func impactStatement(prev, next types.SophisticationLevel, dir Direction) string {
	if next == prev {
		if dir == Increase {
			return "Already at the most sophisticated questioning level; nothing changed."
		}
		return "Already at the simplest questioning level; nothing changed."
	}

	if next.Complexity == prev.Complexity {
		if next.Depth > prev.Depth {
			return fmt.Sprintf("Questions stay at %s complexity but dig one level deeper (depth %d).",
				next.Complexity, next.Depth)
		}
		return fmt.Sprintf("Questions stay at %s complexity but go one level shallower (depth %d).",
			next.Complexity, next.Depth)
	}

	var parts []string
	if dir == Increase {
		parts = append(parts, fmt.Sprintf("Questions move from %s to %s and assume more background knowledge",
			prev.Complexity, next.Complexity))
		if next.TechnicalDetail && !prev.TechnicalDetail {
			parts = append(parts, "technical detail comes in")
		}
		if !next.IncludeExamples && prev.IncludeExamples {
			parts = append(parts, "introductory examples drop away")
		}
		if next.RequiresValidation && !prev.RequiresValidation {
			parts = append(parts, "answers will be checked against validation criteria")
		}
	} else {
		parts = append(parts, fmt.Sprintf("Questions move from %s to %s and use plainer language",
			prev.Complexity, next.Complexity))
		if !next.TechnicalDetail && prev.TechnicalDetail {
			parts = append(parts, "technical detail eases off")
		}
		if next.IncludeExamples && !prev.IncludeExamples {
			parts = append(parts, "examples come back")
		}
		if !next.RequiresValidation && prev.RequiresValidation {
			parts = append(parts, "validation demands are lifted")
		}
	}

	return strings.Join(parts, "; ") + "."
}
