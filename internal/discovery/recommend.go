package discovery

import (
	"sort"
	"strings"
)

// maxRecommendations caps how many components a single activation returns.
const maxRecommendations = 10

// ComponentRecommendation suggests one workflow building block with a
// relevance score. Domain-specific components outrank generic ones.
type ComponentRecommendation struct {
	ComponentType  string   `json:"component_type"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	RelevanceScore float64  `json:"relevance_score"`
	DomainSpecific bool     `json:"domain_specific"`
	UsagePatterns  []string `json:"usage_patterns,omitempty"`
}

// Recommendations assembles component suggestions from the enhanced
// context: domain base set, then technology, pattern, and compliance
// driven additions. Sorted domain-specific first, then by relevance, and
// capped at maxRecommendations.
func Recommendations(ec EnhancedContext) []ComponentRecommendation {
	recs := baseComponentsFor(ec.Domain)
	for _, tech := range ec.Knowledge.Technologies {
		recs = append(recs, componentsForTechnology(tech)...)
	}
	for _, pattern := range ec.Knowledge.CommonPatterns {
		recs = append(recs, componentsForPattern(pattern)...)
	}
	for _, framework := range ec.ComplianceTags {
		recs = append(recs, componentsForCompliance(framework)...)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].DomainSpecific != recs[j].DomainSpecific {
			return recs[i].DomainSpecific
		}
		return recs[i].RelevanceScore > recs[j].RelevanceScore
	})
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

func baseComponentsFor(domain string) []ComponentRecommendation {
	switch domain {
	case "technology", "api", "integration":
		return []ComponentRecommendation{
			{
				ComponentType:  "api_connector",
				Name:           "HTTP Request",
				Description:    "Make HTTP API calls with authentication",
				RelevanceScore: 0.9,
				DomainSpecific: true,
				UsagePatterns:  []string{"api-integration", "external-service"},
			},
			{
				ComponentType:  "data_transformer",
				Name:           "JSON Processor",
				Description:    "Parse and transform JSON data",
				RelevanceScore: 0.8,
				DomainSpecific: true,
				UsagePatterns:  []string{"data-processing", "api-response"},
			},
		}
	case "healthcare":
		return []ComponentRecommendation{
			{
				ComponentType:  "data_validator",
				Name:           "HIPAA Validator",
				Description:    "Validate data for HIPAA compliance",
				RelevanceScore: 0.95,
				DomainSpecific: true,
				UsagePatterns:  []string{"compliance", "data-validation"},
			},
			{
				ComponentType:  "audit_logger",
				Name:           "Audit Trail Logger",
				Description:    "Log actions for compliance auditing",
				RelevanceScore: 0.9,
				DomainSpecific: true,
				UsagePatterns:  []string{"compliance", "audit"},
			},
		}
	case "finance":
		return []ComponentRecommendation{
			{
				ComponentType:  "encryption",
				Name:           "Financial Data Encryptor",
				Description:    "Encrypt sensitive financial data",
				RelevanceScore: 0.95,
				DomainSpecific: true,
				UsagePatterns:  []string{"security", "compliance"},
			},
			{
				ComponentType:  "transaction_processor",
				Name:           "Transaction Validator",
				Description:    "Validate financial transactions",
				RelevanceScore: 0.9,
				DomainSpecific: true,
				UsagePatterns:  []string{"validation", "transaction"},
			},
		}
	}
	return nil
}

func componentsForTechnology(technology string) []ComponentRecommendation {
	lower := strings.ToLower(technology)

	var recs []ComponentRecommendation
	if strings.Contains(lower, "python") {
		recs = append(recs, ComponentRecommendation{
			ComponentType:  "code_executor",
			Name:           "Python Code",
			Description:    "Execute Python code snippets",
			RelevanceScore: 0.85,
			UsagePatterns:  []string{"scripting", "data-analysis"},
		})
	}
	if strings.Contains(lower, "database") {
		recs = append(recs, ComponentRecommendation{
			ComponentType:  "database_connector",
			Name:           "Database Query",
			Description:    "Execute database queries",
			RelevanceScore: 0.9,
			UsagePatterns:  []string{"data-access", "query"},
		})
	}
	return recs
}

func componentsForPattern(pattern string) []ComponentRecommendation {
	lower := strings.ToLower(pattern)

	var recs []ComponentRecommendation
	if strings.Contains(lower, "authentication") {
		recs = append(recs, ComponentRecommendation{
			ComponentType:  "auth_handler",
			Name:           "OAuth Authenticator",
			Description:    "Handle OAuth authentication flows",
			RelevanceScore: 0.9,
			DomainSpecific: true,
			UsagePatterns:  []string{"security", "user-auth"},
		})
	}
	if strings.Contains(lower, "validation") {
		recs = append(recs, ComponentRecommendation{
			ComponentType:  "validator",
			Name:           "Data Validator",
			Description:    "Validate data against schemas",
			RelevanceScore: 0.8,
			UsagePatterns:  []string{"validation", "data-quality"},
		})
	}
	return recs
}

func componentsForCompliance(framework string) []ComponentRecommendation {
	switch framework {
	case "HIPAA":
		return []ComponentRecommendation{
			{
				ComponentType:  "phi_handler",
				Name:           "PHI Data Handler",
				Description:    "Handle Protected Health Information securely",
				RelevanceScore: 0.95,
				DomainSpecific: true,
				UsagePatterns:  []string{"hipaa", "healthcare"},
			},
			{
				ComponentType:  "access_logger",
				Name:           "Access Log Monitor",
				Description:    "Monitor and log data access for HIPAA compliance",
				RelevanceScore: 0.9,
				DomainSpecific: true,
				UsagePatterns:  []string{"audit", "compliance"},
			},
		}
	case "GDPR":
		return []ComponentRecommendation{
			{
				ComponentType:  "consent_manager",
				Name:           "Consent Manager",
				Description:    "Manage user consent for data processing",
				RelevanceScore: 0.9,
				DomainSpecific: true,
				UsagePatterns:  []string{"gdpr", "privacy"},
			},
		}
	}
	return nil
}
