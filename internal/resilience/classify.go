package resilience

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind buckets errors by which subsystem failed. The degradation
// manager maps each kind to a mode transition.
type ErrorKind int

const (
	// KindKnowledge indicates the external knowledge path failed.
	KindKnowledge ErrorKind = iota

	// KindCache indicates a caching or in-memory store resource issue.
	KindCache

	// KindSession indicates a session or conversation context issue.
	KindSession

	// KindTemplate indicates template lookup, synthesis, or pack issues.
	KindTemplate

	// KindInternal is the fallback for unclassified errors.
	KindInternal
)

// Prefix returns the display prefix for this error kind.
func (k ErrorKind) Prefix() string {
	prefixes := []string{
		"[KNOWLEDGE]",
		"[CACHE]",
		"[SESSION]",
		"[TEMPLATE]",
		"[ERROR]",
	}
	if int(k) < len(prefixes) {
		return prefixes[k]
	}
	return "[ERROR]"
}

// String returns the kind name.
func (k ErrorKind) String() string {
	names := []string{
		"knowledge",
		"cache",
		"session",
		"template",
		"internal",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "internal"
}

// ClassifiedError wraps an error with its kind and remediation steps.
type ClassifiedError struct {
	Original    error
	Kind        ErrorKind
	Summary     string
	Remediation []string
}

// Error implements the error interface.
func (ce *ClassifiedError) Error() string {
	return ce.Format()
}

// Unwrap returns the original error for errors.Is/As compatibility.
func (ce *ClassifiedError) Unwrap() error {
	return ce.Original
}

// Format returns a user-friendly message with remediation.
func (ce *ClassifiedError) Format() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %s\n\n", ce.Kind.Prefix(), ce.Summary))
	sb.WriteString(fmt.Sprintf("Details: %s\n", ce.Original.Error()))

	if len(ce.Remediation) > 0 {
		sb.WriteString("\nSuggested fixes:\n")
		for _, r := range ce.Remediation {
			sb.WriteString(fmt.Sprintf("  - %s\n", r))
		}
	}

	return sb.String()
}

// Classify analyzes an error and returns a classified version. It is the
// catch-all used for recovered panics and errors of unknown origin; code
// that knows which subsystem failed reports to the manager directly.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	classified := &ClassifiedError{
		Original: err,
		Kind:     KindInternal,
		Summary:  "An unexpected error occurred",
		Remediation: []string{
			"Check logs for the originating component",
			"Call Reset to leave emergency mode after fixing the cause",
		},
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, context.DeadlineExceeded) ||
		containsAny(errStr, "knowledge", "lookup", "timed out", "timeout", "deadline", "unavailable"):
		classified.Kind = KindKnowledge
		classified.Summary = "Knowledge collaborator issue"
		classified.Remediation = []string{
			"Check the knowledge collaborator is reachable",
			"Questions keep flowing from templates while degraded",
		}

	case containsAny(errStr, "cache", "capacity", "store", "evict"):
		classified.Kind = KindCache
		classified.Summary = "Cache or store resource issue"
		classified.Remediation = []string{
			"Caching stays off until the manager is reset",
			"Check memory pressure on the host process",
		}

	case containsAny(errStr, "session", "conversation"):
		classified.Kind = KindSession
		classified.Summary = "Session context issue"
		classified.Remediation = []string{
			"A fresh session is started automatically",
			"Check the session ID the host is passing",
		}

	case containsAny(errStr, "template", "synthesis", "pack"):
		classified.Kind = KindTemplate
		classified.Summary = "Template library issue"
		classified.Remediation = []string{
			"Verify pack files are valid YAML",
			"Built-in banks keep serving while packs are broken",
		}
	}

	return classified
}

// containsAny checks if the string contains any of the substrings.
func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
