package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socratic/internal/types"
)

func TestBuiltinLibrarySeeds(t *testing.T) {
	lib := NewBuiltinLibrary()

	assert.Greater(t, lib.Count(), 40, "builtin bank should be substantial")
	assert.Equal(t, lib.Count(), lib.CountBySource(SourceBuiltin))

	domains := lib.Domains()
	for _, want := range []string{
		types.GeneralDomain, "chatbot", "data_analysis", "rag_workflow",
		"content_generation", "healthcare", "finance", "technology",
	} {
		assert.Contains(t, domains, want)
	}
}

func TestLookupExactMatch(t *testing.T) {
	lib := NewBuiltinLibrary()

	got := lib.Lookup("healthcare", types.QuestionTechnical, types.ComplexityModerate)
	require.NotEmpty(t, got)
	for _, tpl := range got {
		assert.Equal(t, "healthcare", tpl.Domain)
		assert.Equal(t, types.QuestionTechnical, tpl.Type)
		assert.Equal(t, types.ComplexityModerate, tpl.Complexity)
	}
}

func TestLookupRelaxesComplexity(t *testing.T) {
	lib := NewBuiltinLibrary()

	// Healthcare has no simple technical templates; the nearest tier is
	// moderate, one rank away.
	got := lib.Lookup("healthcare", types.QuestionTechnical, types.ComplexitySimple)
	require.NotEmpty(t, got)
	for _, tpl := range got {
		assert.Equal(t, "healthcare", tpl.Domain)
		assert.Equal(t, types.ComplexityModerate, tpl.Complexity)
	}
}

func TestLookupFallsBackToGeneralDomain(t *testing.T) {
	lib := NewBuiltinLibrary()

	got := lib.Lookup("astrophysics", types.QuestionTechnical, types.ComplexityModerate)
	require.NotEmpty(t, got)
	for _, tpl := range got {
		assert.Equal(t, types.GeneralDomain, tpl.Domain)
	}

	// Domain exists but has no bank for the type: healthcare has no
	// exploratory templates, so general serves them.
	got = lib.Lookup("healthcare", types.QuestionExploratory, types.ComplexitySimple)
	require.NotEmpty(t, got)
	for _, tpl := range got {
		assert.Equal(t, types.GeneralDomain, tpl.Domain)
	}
}

func TestLookupUnknownTypeReturnsNil(t *testing.T) {
	lib := NewBuiltinLibrary()
	assert.Nil(t, lib.Lookup(types.GeneralDomain, types.QuestionType("bogus"), types.ComplexitySimple))
}

func TestSelectAvoidsRecentQuestions(t *testing.T) {
	lib := NewLibrary()
	a := &Template{ID: "a", Type: types.QuestionClarifying, Text: "Question A?"}
	b := &Template{ID: "b", Type: types.QuestionClarifying, Text: "Question B?"}
	c := &Template{ID: "c", Type: types.QuestionClarifying, Text: "Question C?"}
	candidates := []*Template{a, b, c}

	recent := []string{"Question A?", "Question B?"}
	for i := 0; i < 25; i++ {
		got := lib.Select(candidates, types.GeneralDomain, recent)
		require.NotNil(t, got)
		assert.Equal(t, "c", got.ID)
	}
}

func TestSelectAllRecentUsesFullSet(t *testing.T) {
	lib := NewLibrary()
	a := &Template{ID: "a", Type: types.QuestionClarifying, Text: "Question A?"}
	candidates := []*Template{a}

	got := lib.Select(candidates, types.GeneralDomain, []string{"Question A?"})
	require.NotNil(t, got, "repetition beats silence")
	assert.Equal(t, "a", got.ID)
}

func TestSelectEmptyCandidates(t *testing.T) {
	lib := NewLibrary()
	assert.Nil(t, lib.Select(nil, types.GeneralDomain, nil))
}

func TestPickNeverReturnsRecentWhenAlternativesExist(t *testing.T) {
	lib := NewBuiltinLibrary()

	// Ask repeatedly while feeding back everything seen so far; within
	// the bank size we should never see a repeat.
	var recent []string
	seen := make(map[string]struct{})
	for i := 0; i < 3; i++ {
		tpl := lib.Pick("chatbot", types.QuestionExploratory, types.ComplexitySimple, recent)
		require.NotNil(t, tpl)
		text := tpl.Render("chatbot")
		_, dup := seen[text]
		assert.False(t, dup, "question repeated while bank still had fresh entries: %q", text)
		seen[text] = struct{}{}
		recent = append(recent, text)
	}
}

func TestReplaceSourceSwapsAtomically(t *testing.T) {
	lib := NewBuiltinLibrary()
	builtinCount := lib.CountBySource(SourceBuiltin)

	first := []*Template{
		{ID: "p1", Domain: "healthcare", Type: types.QuestionTechnical, Complexity: types.ComplexityAdvanced, Text: "Old pack question?"},
	}
	lib.ReplaceSource("pack:extra.yaml", first)
	assert.Equal(t, 1, lib.CountBySource("pack:"))

	second := []*Template{
		{ID: "p2", Domain: "healthcare", Type: types.QuestionTechnical, Complexity: types.ComplexityAdvanced, Text: "New pack question?"},
		{ID: "p3", Domain: "finance", Type: types.QuestionClarifying, Complexity: types.ComplexityModerate, Text: "Another new one?"},
	}
	lib.ReplaceSource("pack:extra.yaml", second)
	assert.Equal(t, 2, lib.CountBySource("pack:"))

	texts := map[string]bool{}
	for _, tpl := range lib.Lookup("healthcare", types.QuestionTechnical, types.ComplexityAdvanced) {
		texts[tpl.Text] = true
	}
	assert.True(t, texts["New pack question?"])
	assert.False(t, texts["Old pack question?"], "old pack templates must be gone after swap")

	assert.Equal(t, builtinCount, lib.CountBySource(SourceBuiltin), "swap must not touch builtin bank")

	lib.ReplaceSource("pack:extra.yaml", nil)
	assert.Equal(t, 0, lib.CountBySource("pack:"))
}

func TestRenderDomainPlaceholder(t *testing.T) {
	tpl := &Template{Text: "What are you hoping Redis will unlock for your {domain} work?"}

	assert.Equal(t,
		"What are you hoping Redis will unlock for your healthcare work?",
		tpl.Render("healthcare"))
	assert.Equal(t,
		"What are you hoping Redis will unlock for your data analysis work?",
		tpl.Render("data_analysis"))
	assert.Equal(t,
		"What are you hoping Redis will unlock for your your project work?",
		tpl.Render(types.GeneralDomain))

	plain := &Template{Text: "No placeholder here?"}
	assert.Equal(t, "No placeholder here?", plain.Render("healthcare"))
}

func TestFallbackQuestionBanks(t *testing.T) {
	low := []string{
		"Can you give me a specific example of how you'd use this?",
		"What would success look like to you?",
		"What's the main challenge you're trying to solve?",
	}
	general := []string{
		"Which part of this is most important to get right?",
		"What would make the biggest difference for your users?",
		"Are there any constraints or limitations I should know about?",
	}

	for i := 0; i < 20; i++ {
		assert.Contains(t, low, FallbackQuestion(types.ComplexitySimple, nil))
		assert.Contains(t, general, FallbackQuestion(types.ComplexityAdvanced, nil))
	}
}

func TestFallbackQuestionAvoidsRecent(t *testing.T) {
	recent := []string{
		"Which part of this is most important to get right?",
		"What would make the biggest difference for your users?",
	}
	for i := 0; i < 20; i++ {
		got := FallbackQuestion(types.ComplexityModerate, recent)
		assert.Equal(t, "Are there any constraints or limitations I should know about?", got)
	}

	// Exhausted bank still answers.
	all := append(recent, "Are there any constraints or limitations I should know about?")
	assert.NotEmpty(t, FallbackQuestion(types.ComplexityModerate, all))
}

func TestEmergencyQuestionNeverVaries(t *testing.T) {
	first := EmergencyQuestion()
	require.NotEmpty(t, first)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, EmergencyQuestion())
	}
}

func TestFallbackBankSize(t *testing.T) {
	assert.Equal(t, 3, FallbackBankSize(types.ComplexitySimple))
	assert.Equal(t, 3, FallbackBankSize(types.ComplexityExpert))
}

func TestDetectConcepts(t *testing.T) {
	t.Run("canonical order regardless of mention order", func(t *testing.T) {
		got := DetectConcepts("We need this to SCALE for the whole company business unit")
		assert.Equal(t, []string{"business", "scale"}, got)
	})

	t.Run("case insensitive substring matching", func(t *testing.T) {
		got := DetectConcepts("Our Databases need an API integration")
		assert.Equal(t, []string{"technical"}, got)
	})

	t.Run("no concepts", func(t *testing.T) {
		assert.Empty(t, DetectConcepts("hello there"))
	})

	t.Run("multiple concepts", func(t *testing.T) {
		got := DetectConcepts("secure real-time workflow for our users")
		assert.Equal(t, []string{"user_experience", "automation", "real_time", "security"}, got)
	})
}

func TestConceptFollowUps(t *testing.T) {
	t.Run("skips already asked", func(t *testing.T) {
		asked := []string{"What existing systems does this need to integrate with?"}
		got := ConceptFollowUps([]string{"technical"}, asked, 3)
		assert.Equal(t, []string{
			"Are there any technical constraints I should know about?",
			"What's your current technical infrastructure like?",
		}, got)
	})

	t.Run("respects limit", func(t *testing.T) {
		got := ConceptFollowUps([]string{"technical", "security"}, nil, 2)
		assert.Len(t, got, 2)
	})

	t.Run("zero limit", func(t *testing.T) {
		assert.Nil(t, ConceptFollowUps([]string{"technical"}, nil, 0))
	})

	t.Run("first concept dominates", func(t *testing.T) {
		got := ConceptFollowUps([]string{"scale", "business"}, nil, 3)
		assert.Equal(t, []string{
			"How many users do you expect?",
			"What's the expected volume of data or requests?",
			"How quickly do you anticipate growth?",
		}, got)
	})
}

func TestConceptsList(t *testing.T) {
	got := Concepts()
	assert.Len(t, got, 7)
	assert.Equal(t, "business", got[0])

	// Mutating the returned slice must not corrupt the table.
	got[0] = "corrupted"
	assert.Equal(t, "business", Concepts()[0])
}

func TestSynthesizeFromContext(t *testing.T) {
	dc := types.DomainContext{
		Domain:         "healthcare",
		Technologies:   []string{"PostgreSQL", "Redis"},
		ComplianceTags: []string{"hipaa"},
	}

	t.Run("technical includes compliance variants", func(t *testing.T) {
		got := SynthesizeFromContext(dc, types.QuestionTechnical, types.ComplexityAdvanced)
		require.Len(t, got, 5) // 2 phrasings x 2 techs + 1 compliance

		var complianceText string
		for _, tpl := range got {
			assert.Equal(t, "healthcare", tpl.Domain)
			assert.Equal(t, SourceSynthesized, tpl.Source)
			assert.Equal(t, types.ComplexityAdvanced, tpl.Complexity)
			if tpl.Text == "What does HIPAA compliance require from this system?" {
				complianceText = tpl.Text
			}
		}
		assert.NotEmpty(t, complianceText, "compliance tag should produce an upper-cased variant")
	})

	t.Run("compliance skipped at simple tier", func(t *testing.T) {
		got := SynthesizeFromContext(dc, types.QuestionTechnical, types.ComplexitySimple)
		assert.Len(t, got, 4)
	})

	t.Run("validation carries criteria", func(t *testing.T) {
		got := SynthesizeFromContext(dc, types.QuestionValidation, types.ComplexityExpert)
		require.Len(t, got, 2)
		for _, tpl := range got {
			assert.NotEmpty(t, tpl.ValidationCriteria)
		}
	})

	t.Run("technical carries follow ups", func(t *testing.T) {
		got := SynthesizeFromContext(dc, types.QuestionTechnical, types.ComplexityModerate)
		require.NotEmpty(t, got)
		for _, tpl := range got {
			if tpl.Text == "How does PostgreSQL fit into your current architecture?" {
				assert.Equal(t, []string{"What version or scale of PostgreSQL are we talking about?"}, tpl.FollowUps)
			}
		}
	})

	t.Run("no technologies yields nothing for exploratory", func(t *testing.T) {
		empty := types.DomainContext{Domain: "finance"}
		assert.Empty(t, SynthesizeFromContext(empty, types.QuestionExploratory, types.ComplexityModerate))
	})

	t.Run("technology list is capped", func(t *testing.T) {
		wide := types.DomainContext{
			Domain:       "technology",
			Technologies: []string{"a", "b", "c", "d", "e", "f"},
		}
		got := SynthesizeFromContext(wide, types.QuestionFollowUp, types.ComplexityModerate)
		assert.Len(t, got, maxSynthesisTechnologies)
	})

	t.Run("unique ids", func(t *testing.T) {
		got := SynthesizeFromContext(dc, types.QuestionTechnical, types.ComplexityAdvanced)
		ids := make(map[string]struct{})
		for _, tpl := range got {
			ids[tpl.ID] = struct{}{}
		}
		assert.Len(t, ids, len(got))
	})
}
