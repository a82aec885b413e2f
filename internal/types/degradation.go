package types

import (
	"time"
)

// =============================================================================
// DEGRADATION & RESILIENCE MODEL
// =============================================================================

// DegradationMode identifies which service level the engine is running at.
// Transitions are always accompanied by an updated capability set; the two
// never drift apart.
type DegradationMode string

const (
	ModeFull      DegradationMode = "full"      // everything enabled
	ModeLimited   DegradationMode = "limited"   // external queries suspended
	ModeOffline   DegradationMode = "offline"   // curated banks only
	ModeEmergency DegradationMode = "emergency" // minimal hardcoded service
)

// Valid reports whether the mode is one of the defined service levels.
func (m DegradationMode) Valid() bool {
	switch m {
	case ModeFull, ModeLimited, ModeOffline, ModeEmergency:
		return true
	}
	return false
}

// Severity orders modes from healthiest (0) to most degraded (3).
func (m DegradationMode) Severity() int {
	switch m {
	case ModeFull:
		return 0
	case ModeLimited:
		return 1
	case ModeOffline:
		return 2
	case ModeEmergency:
		return 3
	}
	return 3
}

// Capability names a feature that degradation can switch off.
type Capability string

const (
	CapExternalQueries   Capability = "external_queries"
	CapAdvancedTemplates Capability = "advanced_templates"
	CapExpertiseTracking Capability = "expertise_tracking"
	CapCaching           Capability = "caching"
)

// CapabilitySet is the feature switchboard carried alongside the mode.
type CapabilitySet struct {
	ExternalQueries   bool `json:"external_queries"`
	AdvancedTemplates bool `json:"advanced_templates"`
	ExpertiseTracking bool `json:"expertise_tracking"`
	Caching           bool `json:"caching"`
}

// Enabled reports whether the named capability is on.
func (cs CapabilitySet) Enabled(c Capability) bool {
	switch c {
	case CapExternalQueries:
		return cs.ExternalQueries
	case CapAdvancedTemplates:
		return cs.AdvancedTemplates
	case CapExpertiseTracking:
		return cs.ExpertiseTracking
	case CapCaching:
		return cs.Caching
	}
	return false
}

// Disabled lists the capabilities currently switched off, in declaration
// order. Empty in full mode.
func (cs CapabilitySet) Disabled() []Capability {
	var off []Capability
	if !cs.ExternalQueries {
		off = append(off, CapExternalQueries)
	}
	if !cs.AdvancedTemplates {
		off = append(off, CapAdvancedTemplates)
	}
	if !cs.ExpertiseTracking {
		off = append(off, CapExpertiseTracking)
	}
	if !cs.Caching {
		off = append(off, CapCaching)
	}
	return off
}

// CapabilitiesFor returns the canonical capability set for a mode.
// Emergency keeps expertise tracking on: tier state is cheap, local, and
// losing it would reset the user's level for no operational gain.
func CapabilitiesFor(mode DegradationMode) CapabilitySet {
	switch mode {
	case ModeFull:
		return CapabilitySet{
			ExternalQueries:   true,
			AdvancedTemplates: true,
			ExpertiseTracking: true,
			Caching:           true,
		}
	case ModeLimited:
		return CapabilitySet{
			ExternalQueries:   false,
			AdvancedTemplates: true,
			ExpertiseTracking: true,
			Caching:           true,
		}
	case ModeOffline:
		return CapabilitySet{
			ExternalQueries:   false,
			AdvancedTemplates: false,
			ExpertiseTracking: true,
			Caching:           true,
		}
	case ModeEmergency:
		return CapabilitySet{
			ExternalQueries:   false,
			AdvancedTemplates: false,
			ExpertiseTracking: true,
			Caching:           false,
		}
	}
	return CapabilitySet{}
}

// DegradationState is a snapshot of the resilience manager.
type DegradationState struct {
	Mode         DegradationMode `json:"mode"`
	Capabilities CapabilitySet   `json:"capabilities"`
	Disabled     []Capability    `json:"disabled,omitempty"`
	Reason       string          `json:"reason,omitempty"`
	EnteredAt    time.Time       `json:"entered_at"`
}

// =============================================================================
// CIRCUIT BREAKER
// =============================================================================

// CircuitState is the breaker's position.
type CircuitState string

const (
	CircuitClosed CircuitState = "closed" // calls flow normally
	CircuitOpen   CircuitState = "open"   // calls rejected until timeout
)

// CircuitSnapshot is an observable copy of breaker internals for health
// reporting and tests.
type CircuitSnapshot struct {
	Name             string       `json:"name"`
	State            CircuitState `json:"state"`
	ConsecutiveFails int          `json:"consecutive_fails"`
	LastFailureAt    time.Time    `json:"last_failure_at,omitempty"`
	OpenedAt         time.Time    `json:"opened_at,omitempty"`
}

// =============================================================================
// HEALTH
// =============================================================================

// HealthStatus grades the overall engine.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthCritical HealthStatus = "critical"
)

// HealthReport aggregates component health for diagnostics and the CLI
// health command.
type HealthReport struct {
	Status         HealthStatus      `json:"status"`
	Mode           DegradationMode   `json:"mode"`
	Capabilities   CapabilitySet     `json:"capabilities"`
	Breakers       []CircuitSnapshot `json:"breakers,omitempty"`
	ActiveSessions int               `json:"active_sessions"`
	CachedDomains  int               `json:"cached_domains"`
	HeapAllocBytes uint64            `json:"heap_alloc_bytes"`
	GoroutineCount int               `json:"goroutine_count"`
	Uptime         time.Duration     `json:"uptime"`
	GeneratedAt    time.Time         `json:"generated_at"`
	Notes          []string          `json:"notes,omitempty"`
}
