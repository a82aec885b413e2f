package discovery

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socratic/internal/types"
)

var fixedTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fakeClock lets tests age the knowledge cache without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestEngine() (*Engine, *fakeClock) {
	clock := &fakeClock{now: fixedTime}
	return NewEngineWithClock(clock.Now), clock
}

const healthcareText = "We need a HIPAA compliant patient intake workflow " +
	"with an API to our clinical records database"

func TestExtractIndicators(t *testing.T) {
	indicators := ExtractIndicators(healthcareText)

	// Technology group matches first, then industry, then compliance.
	assert.Equal(t, []string{"api", "database", "patient", "clinical", "hipaa"}, indicators)
}

func TestExtractIndicatorsDeduplicates(t *testing.T) {
	indicators := ExtractIndicators("api calls the api through another api")
	assert.Equal(t, []string{"api"}, indicators)
}

func TestExtractIndicatorsEmptyText(t *testing.T) {
	assert.Empty(t, ExtractIndicators("let me think about what I want"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		indicators     []string
		wantDomain     string
		wantConfidence float64
	}{
		{"no indicators", nil, types.GeneralDomain, 0.1},
		{"unscored indicators", []string{"react", "docker"}, types.GeneralDomain, 0.2},
		{"single healthcare", []string{"patient"}, "healthcare", 0.7},
		{"two healthcare", []string{"patient", "clinical"}, "healthcare", 0.9},
		{"score caps at ceiling", []string{"patient", "clinical", "hipaa"}, "healthcare", 0.9},
		{"corroboration boost", []string{"patient", "clinical", "hipaa", "medical"}, "healthcare", 0.95},
		{"majority wins", []string{"api", "patient", "clinical"}, "healthcare", 0.9},
		{"ordered tie break", []string{"patient", "payment"}, "healthcare", 0.7},
		{"finance", []string{"payment", "banking", "pci"}, "finance", 0.9},
		{"technology", []string{"api", "database"}, "technology", 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			domain, confidence := Classify(tt.indicators)
			assert.Equal(t, tt.wantDomain, domain)
			assert.InDelta(t, tt.wantConfidence, confidence, 1e-9)
		})
	}
}

func TestAnalyzeHealthcareFixture(t *testing.T) {
	e, _ := newTestEngine()

	dc := e.Analyze(healthcareText)

	assert.Equal(t, "healthcare", dc.Domain)
	assert.InDelta(t, 0.95, dc.Confidence, 1e-9)
	assert.Contains(t, dc.Indicators, "hipaa")
	assert.Equal(t, types.SourceConversation, dc.Source)
	assert.Equal(t, fixedTime, dc.DetectedAt)
}

func TestAnalyzeFinanceFixture(t *testing.T) {
	e, _ := newTestEngine()

	dc := e.Analyze("Payment processing for our banking platform with PCI audit requirements")

	assert.Equal(t, "finance", dc.Domain)
	assert.InDelta(t, 0.95, dc.Confidence, 1e-9)
}

func TestAnalyzeVagueTextFallsBackToGeneral(t *testing.T) {
	e, _ := newTestEngine()

	dc := e.Analyze("I want to build something useful")

	assert.Equal(t, types.GeneralDomain, dc.Domain)
	assert.InDelta(t, 0.1, dc.Confidence, 1e-9)
	assert.Empty(t, dc.Indicators)
}

func TestBuildKnowledge(t *testing.T) {
	e, _ := newTestEngine()

	k := e.BuildKnowledge("healthcare", []string{"healthcare api security"})

	assert.Equal(t, "healthcare", k.Domain)
	assert.Equal(t, []string{"api", "security"}, k.Technologies)
	assert.Equal(t, []string{
		"integration", "service", "endpoint",
		"authentication", "authorization", "encryption",
	}, k.Concepts)
	assert.Contains(t, k.BestPractices, "HIPAA compliance required")
	assert.Contains(t, k.BestPractices, "Audit trail implementation")
	assert.Equal(t, fixedTime, k.UpdatedAt)
}

func TestBuildKnowledgeFinanceBestPractices(t *testing.T) {
	e, _ := newTestEngine()

	k := e.BuildKnowledge("finance", []string{"banking database"})

	assert.Contains(t, k.BestPractices, "Transaction audit logs")
	assert.Equal(t, []string{"database"}, k.Technologies)
}

func TestBuildKnowledgeServesFreshCache(t *testing.T) {
	e, clock := newTestEngine()

	first := e.BuildKnowledge("healthcare", []string{"healthcare api"})
	require.NotEmpty(t, first.Technologies)

	// Different hints within the freshness window still return the
	// cached build.
	clock.Advance(time.Hour)
	second := e.BuildKnowledge("healthcare", []string{"something else entirely"})
	assert.Equal(t, first, second)

	// Past the window the knowledge is rebuilt from the new hints.
	clock.Advance(24 * time.Hour)
	third := e.BuildKnowledge("healthcare", []string{"finance database"})
	assert.NotEqual(t, first.UpdatedAt, third.UpdatedAt)
	assert.Equal(t, []string{"database"}, third.Technologies)
}

func TestEnhance(t *testing.T) {
	e, _ := newTestEngine()
	dc := types.DomainContext{
		Domain:     "healthcare",
		Confidence: 0.9,
		Indicators: []string{"patient", "hipaa", "api", "cloud", "security"},
		Source:     types.SourceConversation,
		DetectedAt: fixedTime,
	}

	ec := e.Enhance(dc)

	assert.Equal(t, "healthcare", ec.Domain)
	assert.Equal(t, []string{"integration", "cloud", "security"}, ec.RelatedDomains)
	assert.Equal(t, types.TierBeginner, ec.Expertise)
	assert.Equal(t, []string{"HIPAA"}, ec.ComplianceTags)
	assert.Contains(t, ec.Knowledge.BestPractices, "Patient data protection")
}

func TestEnhanceDetectsMultipleFrameworks(t *testing.T) {
	e, _ := newTestEngine()
	dc := types.DomainContext{
		Domain:     "finance",
		Confidence: 0.9,
		Indicators: []string{"payment", "gdpr", "sox"},
	}

	ec := e.Enhance(dc)

	assert.Equal(t, []string{"GDPR", "SOX", "PCI-DSS"}, ec.ComplianceTags)
}

func TestRecommendationsForHealthcare(t *testing.T) {
	e, _ := newTestEngine()
	ec := e.Enhance(types.DomainContext{
		Domain:     "healthcare",
		Indicators: []string{"patient", "hipaa"},
	})

	recs := Recommendations(ec)

	require.NotEmpty(t, recs)
	assert.Equal(t, "HIPAA Validator", recs[0].Name)

	names := make([]string, len(recs))
	for i, r := range recs {
		names[i] = r.Name
	}
	assert.Contains(t, names, "PHI Data Handler")
	assert.Contains(t, names, "Audit Trail Logger")
}

func TestRecommendationsSortAndCap(t *testing.T) {
	ec := EnhancedContext{
		DomainContext: types.DomainContext{
			Domain:         "technology",
			ComplianceTags: []string{"HIPAA", "GDPR"},
		},
		Knowledge: types.DomainKnowledge{
			Technologies:   []string{"python", "database", "python scripts", "database cluster"},
			CommonPatterns: []string{"authentication flow", "validation rules"},
		},
	}

	recs := Recommendations(ec)

	assert.Len(t, recs, maxRecommendations)
	for i := 1; i < len(recs); i++ {
		if recs[i].DomainSpecific {
			assert.True(t, recs[i-1].DomainSpecific, "domain-specific entries sort first")
		}
	}
	assert.True(t, recs[0].DomainSpecific)
	assert.False(t, recs[len(recs)-1].DomainSpecific)
}

func TestRecommendationsEmptyForGeneralDomain(t *testing.T) {
	recs := Recommendations(EnhancedContext{
		DomainContext: types.DomainContext{Domain: types.GeneralDomain},
	})
	assert.Empty(t, recs)
}

func TestActivateStoresContext(t *testing.T) {
	e, _ := newTestEngine()

	act := e.Activate(healthcareText, "sess-1")

	assert.Equal(t, "healthcare", act.Context.Domain)
	assert.NotEmpty(t, act.Recommendations)
	assert.True(t, strings.HasPrefix(act.PersistenceKey, "sess-1-healthcare-"),
		"persistence key %q", act.PersistenceKey)

	stored, ok := e.ActiveContext("sess-1")
	require.True(t, ok)
	assert.Equal(t, act.Context, stored)
	assert.Equal(t, 1, e.ActiveCount())
}

func TestActiveContextMissingSession(t *testing.T) {
	e, _ := newTestEngine()
	_, ok := e.ActiveContext("nope")
	assert.False(t, ok)
}

func TestSwitchCarriesPreviousDomain(t *testing.T) {
	e, _ := newTestEngine()
	e.Activate(healthcareText, "sess-1")

	act := e.Switch("sess-1", "Payment processing for our banking platform with PCI audit requirements")

	assert.Equal(t, "finance", act.Context.Domain)
	assert.Equal(t, "healthcare", act.Context.PreviousDomain)

	stored, ok := e.ActiveContext("sess-1")
	require.True(t, ok)
	assert.Equal(t, "healthcare", stored.PreviousDomain)
}

func TestSwitchSameDomainKeepsNoHistory(t *testing.T) {
	e, _ := newTestEngine()
	e.Activate(healthcareText, "sess-1")

	act := e.Switch("sess-1", "Another medical records question about patient data")

	assert.Equal(t, "healthcare", act.Context.Domain)
	assert.Empty(t, act.Context.PreviousDomain)
}

func TestDeactivate(t *testing.T) {
	e, _ := newTestEngine()
	e.Activate(healthcareText, "sess-1")

	e.Deactivate("sess-1")

	_, ok := e.ActiveContext("sess-1")
	assert.False(t, ok)
	assert.Equal(t, 0, e.ActiveCount())
}
