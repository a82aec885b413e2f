package types

import (
	"testing"
)

func TestComplexityTierOrdering(t *testing.T) {
	if ComplexitySimple.Rank() >= ComplexityModerate.Rank() {
		t.Fatalf("expected simple to rank below moderate")
	}
	if ComplexityAdvanced.Rank() >= ComplexityExpert.Rank() {
		t.Fatalf("expected advanced to rank below expert")
	}
	if ComplexityTier("bogus").Rank() != ComplexitySimple.Rank() {
		t.Fatalf("expected unknown tier to rank as simple")
	}
}

func TestComplexityTierStepsClampAtBounds(t *testing.T) {
	if got := ComplexityExpert.Next(); got != ComplexityExpert {
		t.Fatalf("expected expert.Next() to stay expert, got %s", got)
	}
	if got := ComplexitySimple.Prev(); got != ComplexitySimple {
		t.Fatalf("expected simple.Prev() to stay simple, got %s", got)
	}
	if got := ComplexitySimple.Next(); got != ComplexityModerate {
		t.Fatalf("expected simple.Next() to be moderate, got %s", got)
	}
	if got := ComplexityExpert.Prev(); got != ComplexityAdvanced {
		t.Fatalf("expected expert.Prev() to be advanced, got %s", got)
	}
}

func TestComplexityTierStepsAreReversible(t *testing.T) {
	// From any interior tier, Next then Prev must return to the start.
	for _, tier := range []ComplexityTier{ComplexityModerate, ComplexityAdvanced} {
		if got := tier.Next().Prev(); got != tier {
			t.Fatalf("Next().Prev() from %s gave %s", tier, got)
		}
		if got := tier.Prev().Next(); got != tier {
			t.Fatalf("Prev().Next() from %s gave %s", tier, got)
		}
	}
}

func TestSophisticationForTierClampsDepth(t *testing.T) {
	low := SophisticationForTier(ComplexitySimple, -3)
	if low.Depth != MinDepth {
		t.Fatalf("expected depth clamped to %d, got %d", MinDepth, low.Depth)
	}
	high := SophisticationForTier(ComplexityExpert, 99)
	if high.Depth != MaxDepth {
		t.Fatalf("expected depth clamped to %d, got %d", MaxDepth, high.Depth)
	}
}

func TestSophisticationForTierFlags(t *testing.T) {
	cases := []struct {
		tier            ComplexityTier
		technical       bool
		includeExamples bool
		validation      bool
	}{
		{ComplexitySimple, false, true, false},
		{ComplexityModerate, true, true, false},
		{ComplexityAdvanced, true, false, false},
		{ComplexityExpert, true, false, true},
	}
	for _, tc := range cases {
		level := SophisticationForTier(tc.tier, 2)
		if level.TechnicalDetail != tc.technical {
			t.Fatalf("%s: TechnicalDetail = %v, want %v", tc.tier, level.TechnicalDetail, tc.technical)
		}
		if level.IncludeExamples != tc.includeExamples {
			t.Fatalf("%s: IncludeExamples = %v, want %v", tc.tier, level.IncludeExamples, tc.includeExamples)
		}
		if level.RequiresValidation != tc.validation {
			t.Fatalf("%s: RequiresValidation = %v, want %v", tc.tier, level.RequiresValidation, tc.validation)
		}
	}
}

func TestClampConfidence(t *testing.T) {
	if got := ClampConfidence(0.0); got != MinExpertiseConfidence {
		t.Fatalf("expected floor %v, got %v", MinExpertiseConfidence, got)
	}
	if got := ClampConfidence(1.7); got != MaxExpertiseConfidence {
		t.Fatalf("expected ceiling %v, got %v", MaxExpertiseConfidence, got)
	}
	if got := ClampConfidence(0.62); got != 0.62 {
		t.Fatalf("expected in-range value untouched, got %v", got)
	}
}

func TestExpertiseTierStepsClampAtBounds(t *testing.T) {
	if got := TierAdvanced.Next(); got != TierAdvanced {
		t.Fatalf("expected advanced.Next() to stay advanced, got %s", got)
	}
	if got := TierBeginner.Prev(); got != TierBeginner {
		t.Fatalf("expected beginner.Prev() to stay beginner, got %s", got)
	}
	if got := TierBeginner.Next(); got != TierIntermediate {
		t.Fatalf("expected beginner.Next() to be intermediate, got %s", got)
	}
}

func TestExpertiseLevelCloneIsIndependent(t *testing.T) {
	orig := DefaultExpertise("healthcare")
	orig.History = append(orig.History, AdaptationRecord{
		PreviousTier: TierBeginner,
		NewTier:      TierIntermediate,
		Trigger:      TriggerUserResponse,
	})
	clone := orig.Clone()
	clone.History[0].NewTier = TierAdvanced
	clone.Confidence = 0.9

	if orig.History[0].NewTier != TierIntermediate {
		t.Fatalf("mutating clone history leaked into original")
	}
	if orig.Confidence != 0.5 {
		t.Fatalf("mutating clone confidence leaked into original")
	}
}

func TestCapabilitiesForModes(t *testing.T) {
	full := CapabilitiesFor(ModeFull)
	if !full.ExternalQueries || !full.AdvancedTemplates || !full.ExpertiseTracking || !full.Caching {
		t.Fatalf("full mode should enable everything, got %+v", full)
	}

	limited := CapabilitiesFor(ModeLimited)
	if limited.ExternalQueries {
		t.Fatalf("limited mode must suspend external queries")
	}
	if !limited.AdvancedTemplates || !limited.Caching {
		t.Fatalf("limited mode should keep templates and caching, got %+v", limited)
	}

	offline := CapabilitiesFor(ModeOffline)
	if offline.ExternalQueries || offline.AdvancedTemplates {
		t.Fatalf("offline mode must suspend queries and advanced templates, got %+v", offline)
	}
	if !offline.Caching {
		t.Fatalf("offline mode should keep caching")
	}

	emergency := CapabilitiesFor(ModeEmergency)
	if emergency.ExternalQueries || emergency.AdvancedTemplates || emergency.Caching {
		t.Fatalf("emergency mode should only keep expertise tracking, got %+v", emergency)
	}
	if !emergency.ExpertiseTracking {
		t.Fatalf("emergency mode keeps expertise tracking on")
	}
}

func TestCapabilitySetDisabled(t *testing.T) {
	if got := CapabilitiesFor(ModeFull).Disabled(); len(got) != 0 {
		t.Fatalf("full mode should disable nothing, got %v", got)
	}

	offline := CapabilitiesFor(ModeOffline).Disabled()
	wantOffline := []Capability{CapExternalQueries, CapAdvancedTemplates}
	if len(offline) != len(wantOffline) {
		t.Fatalf("offline disabled list = %v, want %v", offline, wantOffline)
	}
	for i, c := range wantOffline {
		if offline[i] != c {
			t.Fatalf("offline disabled[%d] = %s, want %s", i, offline[i], c)
		}
	}

	emergency := CapabilitiesFor(ModeEmergency).Disabled()
	if len(emergency) != 3 {
		t.Fatalf("emergency should disable three capabilities, got %v", emergency)
	}
}

func TestModeSeverityOrdering(t *testing.T) {
	modes := []DegradationMode{ModeFull, ModeLimited, ModeOffline, ModeEmergency}
	for i := 1; i < len(modes); i++ {
		if modes[i-1].Severity() >= modes[i].Severity() {
			t.Fatalf("expected %s to be less severe than %s", modes[i-1], modes[i])
		}
	}
}

func TestExpectedShapeFor(t *testing.T) {
	simple := SophisticationForTier(ComplexitySimple, 1)
	expert := SophisticationForTier(ComplexityExpert, 4)

	if got := ExpectedShapeFor(QuestionValidation, simple); got != ShapeYesNo {
		t.Fatalf("validation questions expect yes/no, got %s", got)
	}
	if got := ExpectedShapeFor(QuestionTechnical, simple); got != ShapeTechnical {
		t.Fatalf("technical questions expect technical detail, got %s", got)
	}
	if got := ExpectedShapeFor(QuestionFollowUp, simple); got != ShapeExample {
		t.Fatalf("follow-up at example-friendly levels expects a concrete example, got %s", got)
	}
	if got := ExpectedShapeFor(QuestionExploratory, simple); got != ShapeFreeText {
		t.Fatalf("exploratory at simple expects free text, got %s", got)
	}
	if got := ExpectedShapeFor(QuestionExploratory, expert); got != ShapeTechnical {
		t.Fatalf("exploratory at expert expects technical detail, got %s", got)
	}
}
