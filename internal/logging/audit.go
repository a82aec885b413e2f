// Audit logging for the socratic engine. Audit logs are structured JSON
// events written alongside the category logs, one line per event, so a
// session's full decision trail can be replayed or analyzed offline.
package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// =============================================================================
// AUDIT EVENT TYPES
// =============================================================================

// AuditEventType defines the type of audit event
type AuditEventType string

const (
	// Question lifecycle events
	AuditQuestionGenerated AuditEventType = "question_generated"
	AuditQuestionFallback  AuditEventType = "question_fallback"
	AuditQuestionRecovered AuditEventType = "question_recovered"

	// Response analysis events
	AuditResponseAnalyzed AuditEventType = "response_analyzed"

	// Expertise events
	AuditTierChanged AuditEventType = "tier_changed"

	// Resilience events
	AuditDegradationShift AuditEventType = "degradation_transition"
	AuditBreakerOpened    AuditEventType = "breaker_opened"
	AuditBreakerClosed    AuditEventType = "breaker_closed"

	// Session events
	AuditSessionStart   AuditEventType = "session_start"
	AuditSessionEnd     AuditEventType = "session_end"
	AuditSessionEvicted AuditEventType = "session_evicted"

	// Knowledge events
	AuditKnowledgeHit   AuditEventType = "knowledge_hit"
	AuditKnowledgeMiss  AuditEventType = "knowledge_miss"
	AuditKnowledgeError AuditEventType = "knowledge_error"

	// Template pack events
	AuditPackLoaded AuditEventType = "pack_loaded"
	AuditPackFailed AuditEventType = "pack_failed"

	// Performance events
	AuditPerfMetric AuditEventType = "perf_metric"
	AuditPerfSlow   AuditEventType = "perf_slow"

	// Error events
	AuditErrorGeneric  AuditEventType = "error_generic"
	AuditErrorCritical AuditEventType = "error_critical"
	AuditErrorRecovery AuditEventType = "error_recovery"
)

// =============================================================================
// AUDIT EVENT STRUCTURE
// =============================================================================

// AuditEvent represents a structured audit log entry.
type AuditEvent struct {
	Timestamp  int64                  `json:"ts"`      // Unix milliseconds
	EventType  AuditEventType         `json:"event"`   // Event discriminator
	Category   string                 `json:"cat"`     // Log category
	SessionID  string                 `json:"session"` // Session correlation
	Domain     string                 `json:"domain"`  // Domain if applicable
	Target     string                 `json:"target"`  // Target of operation
	Success    bool                   `json:"success"` // Operation succeeded
	DurationMs int64                  `json:"dur_ms"`  // Duration in milliseconds
	Error      string                 `json:"error"`   // Error message if failed
	Message    string                 `json:"msg"`     // Human-readable message
	Fields     map[string]interface{} `json:"fields"`  // Additional structured fields
}

// =============================================================================
// AUDIT LOGGER
// =============================================================================

var (
	auditFile   *os.File
	auditMu     sync.Mutex
	auditLogger *AuditLogger
)

// AuditLogger handles structured audit logging
type AuditLogger struct {
	sessionID string
	category  Category
}

// InitAudit initializes the audit logging system
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		return nil // Already initialized
	}

	date := time.Now().Format("2006-01-02")
	auditPath := filepath.Join(logsDir, fmt.Sprintf("%s_audit.log", date))

	file, err := os.OpenFile(auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = file

	// Write header
	header := fmt.Sprintf("# Audit log started at %s\n# Format: one JSON event per line\n", time.Now().Format(time.RFC3339))
	auditFile.WriteString(header)

	return nil
}

// CloseAudit closes the audit log file
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// Audit returns the global audit logger
func Audit() *AuditLogger {
	if auditLogger == nil {
		auditLogger = &AuditLogger{}
	}
	return auditLogger
}

// AuditWithSession creates an audit logger scoped to a session
func AuditWithSession(sessionID string) *AuditLogger {
	return &AuditLogger{sessionID: sessionID}
}

// AuditWithContext creates a fully-scoped audit logger
func AuditWithContext(sessionID string, category Category) *AuditLogger {
	return &AuditLogger{
		sessionID: sessionID,
		category:  category,
	}
}

// =============================================================================
// AUDIT LOGGING METHODS
// =============================================================================

// Log writes an audit event
func (a *AuditLogger) Log(event AuditEvent) {
	if !IsDebugMode() || auditFile == nil {
		return
	}

	// Fill in defaults
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if event.SessionID == "" && a.sessionID != "" {
		event.SessionID = a.sessionID
	}
	if event.Category == "" && a.category != "" {
		event.Category = string(a.category)
	}
	if event.Fields == nil {
		event.Fields = make(map[string]interface{})
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	// Write JSON line
	data, err := json.Marshal(event)
	if err == nil {
		auditFile.WriteString(string(data) + "\n")
	}
}

// =============================================================================
// CONVENIENCE METHODS FOR COMMON EVENTS
// =============================================================================

// QuestionGenerated logs a successfully generated question
func (a *AuditLogger) QuestionGenerated(sessionID, questionID, provenance string, durationMs int64) {
	eventType := AuditQuestionGenerated
	switch provenance {
	case "fallback":
		eventType = AuditQuestionFallback
	case "recovered":
		eventType = AuditQuestionRecovered
	}
	a.Log(AuditEvent{
		EventType:  eventType,
		SessionID:  sessionID,
		Target:     questionID,
		Success:    true,
		DurationMs: durationMs,
		Fields:     map[string]interface{}{"provenance": provenance},
		Message:    fmt.Sprintf("Question generated: %s (provenance=%s, %dms)", questionID, provenance, durationMs),
	})
}

// ResponseAnalyzed logs a processed user response
func (a *AuditLogger) ResponseAnalyzed(sessionID string, quality float64, signalCount int, followUp bool) {
	a.Log(AuditEvent{
		EventType: AuditResponseAnalyzed,
		SessionID: sessionID,
		Success:   true,
		Fields: map[string]interface{}{
			"quality":      quality,
			"signal_count": signalCount,
			"follow_up":    followUp,
		},
		Message: fmt.Sprintf("Response analyzed: quality=%.2f signals=%d follow_up=%v", quality, signalCount, followUp),
	})
}

// TierChanged logs an expertise tier move
func (a *AuditLogger) TierChanged(sessionID, domain, fromTier, toTier, trigger string) {
	a.Log(AuditEvent{
		EventType: AuditTierChanged,
		SessionID: sessionID,
		Domain:    domain,
		Success:   true,
		Fields: map[string]interface{}{
			"from":    fromTier,
			"to":      toTier,
			"trigger": trigger,
		},
		Message: fmt.Sprintf("Tier changed: %s -> %s (domain=%s, trigger=%s)", fromTier, toTier, domain, trigger),
	})
}

// DegradationTransition logs a service level change
func (a *AuditLogger) DegradationTransition(fromMode, toMode, reason string) {
	a.Log(AuditEvent{
		EventType: AuditDegradationShift,
		Success:   true,
		Fields: map[string]interface{}{
			"from":   fromMode,
			"to":     toMode,
			"reason": reason,
		},
		Message: fmt.Sprintf("Degradation: %s -> %s (%s)", fromMode, toMode, reason),
	})
}

// BreakerState logs a circuit breaker opening or closing
func (a *AuditLogger) BreakerState(name, state string, consecutiveFails int) {
	eventType := AuditBreakerClosed
	if state == "open" {
		eventType = AuditBreakerOpened
	}
	a.Log(AuditEvent{
		EventType: eventType,
		Target:    name,
		Success:   state != "open",
		Fields:    map[string]interface{}{"consecutive_fails": consecutiveFails},
		Message:   fmt.Sprintf("Breaker %s: %s (fails=%d)", name, state, consecutiveFails),
	})
}

// SessionStart logs session start
func (a *AuditLogger) SessionStart(sessionID, domain string) {
	a.Log(AuditEvent{
		EventType: AuditSessionStart,
		SessionID: sessionID,
		Domain:    domain,
		Success:   true,
		Message:   fmt.Sprintf("Session started: %s (domain=%s)", sessionID, domain),
	})
}

// SessionEnd logs session end
func (a *AuditLogger) SessionEnd(sessionID string, questionCount int, durationMs int64) {
	a.Log(AuditEvent{
		EventType:  AuditSessionEnd,
		SessionID:  sessionID,
		Success:    true,
		DurationMs: durationMs,
		Fields:     map[string]interface{}{"question_count": questionCount},
		Message:    fmt.Sprintf("Session ended: %s (%d questions, %dms)", sessionID, questionCount, durationMs),
	})
}

// SessionEvicted logs an idle session eviction
func (a *AuditLogger) SessionEvicted(sessionID string, idle time.Duration) {
	a.Log(AuditEvent{
		EventType: AuditSessionEvicted,
		SessionID: sessionID,
		Success:   true,
		Fields:    map[string]interface{}{"idle_ms": idle.Milliseconds()},
		Message:   fmt.Sprintf("Session evicted: %s (idle %v)", sessionID, idle),
	})
}

// KnowledgeLookup logs a knowledge source query outcome
func (a *AuditLogger) KnowledgeLookup(domain string, cacheHit bool, durationMs int64, errMsg string) {
	eventType := AuditKnowledgeMiss
	success := true
	switch {
	case errMsg != "":
		eventType = AuditKnowledgeError
		success = false
	case cacheHit:
		eventType = AuditKnowledgeHit
	}
	a.Log(AuditEvent{
		EventType:  eventType,
		Domain:     domain,
		Success:    success,
		DurationMs: durationMs,
		Error:      errMsg,
		Message:    fmt.Sprintf("Knowledge lookup: domain=%s hit=%v (%dms)", domain, cacheHit, durationMs),
	})
}

// PackLoaded logs a template pack load attempt
func (a *AuditLogger) PackLoaded(path string, templateCount int, success bool, errMsg string) {
	eventType := AuditPackLoaded
	if !success {
		eventType = AuditPackFailed
	}
	a.Log(AuditEvent{
		EventType: eventType,
		Target:    path,
		Success:   success,
		Error:     errMsg,
		Fields:    map[string]interface{}{"template_count": templateCount},
		Message:   fmt.Sprintf("Pack %s: %d templates (success=%v)", path, templateCount, success),
	})
}

// PerfMetric logs a performance metric
func (a *AuditLogger) PerfMetric(operation string, durationMs int64, threshold int64) {
	eventType := AuditPerfMetric
	success := true
	if threshold > 0 && durationMs > threshold {
		eventType = AuditPerfSlow
		success = false
	}
	fields := map[string]interface{}{}
	if threshold > 0 {
		fields["threshold_ms"] = threshold
	}
	a.Log(AuditEvent{
		EventType:  eventType,
		Target:     operation,
		DurationMs: durationMs,
		Success:    success,
		Fields:     fields,
		Message:    fmt.Sprintf("Perf: %s took %dms (threshold=%dms)", operation, durationMs, threshold),
	})
}

// Error logs an error event
func (a *AuditLogger) Error(category string, err error, critical bool) {
	eventType := AuditErrorGeneric
	if critical {
		eventType = AuditErrorCritical
	}
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	a.Log(AuditEvent{
		EventType: eventType,
		Category:  category,
		Success:   false,
		Error:     errMsg,
		Message:   fmt.Sprintf("Error in %s: %s (critical=%v)", category, errMsg, critical),
	})
}

// Recovery logs a successful recovery after an error
func (a *AuditLogger) Recovery(category, detail string) {
	a.Log(AuditEvent{
		EventType: AuditErrorRecovery,
		Category:  category,
		Success:   true,
		Message:   fmt.Sprintf("Recovered in %s: %s", category, detail),
	})
}
