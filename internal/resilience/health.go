package resilience

import (
	"fmt"
	"runtime"

	"socratic/internal/types"
)

// HealthInputs carries the store sizes only the engine knows.
type HealthInputs struct {
	ActiveSessions int
	CachedDomains  int
}

// heapWarnBytes is the advisory threshold for the heap usage note.
const heapWarnBytes = 512 << 20

// Health builds an advisory report. It never influences behavior: the
// degradation manager is the authority, health just narrates it with
// enough context to act on.
func (m *Manager) Health(in HealthInputs) types.HealthReport {
	state := m.State()
	snap := m.BreakerSnapshot()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	report := types.HealthReport{
		Mode:           state.Mode,
		Capabilities:   state.Capabilities,
		Breakers:       []types.CircuitSnapshot{snap},
		ActiveSessions: in.ActiveSessions,
		CachedDomains:  in.CachedDomains,
		HeapAllocBytes: ms.HeapAlloc,
		GoroutineCount: runtime.NumGoroutine(),
		Uptime:         m.Uptime(),
		GeneratedAt:    m.now(),
	}

	switch state.Mode {
	case types.ModeEmergency:
		report.Status = types.HealthCritical
		report.Notes = append(report.Notes, "emergency mode: only the static question bank is serving; call Reset after fixing the cause")
	case types.ModeOffline:
		report.Status = types.HealthDegraded
		report.Notes = append(report.Notes, "offline mode: curated banks only, external knowledge and synthesis suspended")
	case types.ModeLimited:
		report.Status = types.HealthDegraded
		report.Notes = append(report.Notes, "limited mode: "+state.Reason)
	default:
		report.Status = types.HealthHealthy
	}

	if snap.State == types.CircuitOpen {
		if report.Status == types.HealthHealthy {
			report.Status = types.HealthDegraded
		}
		report.Notes = append(report.Notes, fmt.Sprintf("knowledge breaker open after %d consecutive failures", snap.ConsecutiveFails))
	}
	if !state.Capabilities.Caching {
		report.Notes = append(report.Notes, "caching disabled, expect repeated source lookups")
	}
	if ms.HeapAlloc > heapWarnBytes {
		report.Notes = append(report.Notes, fmt.Sprintf("heap usage high: %d MB", ms.HeapAlloc>>20))
	}

	return report
}
