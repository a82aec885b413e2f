package types

import (
	"context"
	"time"
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// KnowledgeSource answers domain lookups. Implementations are injected by the
// host application; the engine never constructs a concrete source itself.
// Query returns short concept strings relevant to the prompt within the
// domain, or an error when the source is unreachable or times out.
type KnowledgeSource interface {
	Query(ctx context.Context, prompt, domain string) ([]string, error)
}

// KnowledgeSourceFunc adapts a plain function to the KnowledgeSource
// interface, mirroring http.HandlerFunc.
type KnowledgeSourceFunc func(ctx context.Context, prompt, domain string) ([]string, error)

// Query satisfies KnowledgeSource.
func (f KnowledgeSourceFunc) Query(ctx context.Context, prompt, domain string) ([]string, error) {
	return f(ctx, prompt, domain)
}

// Clock abstracts time for stores that evict on idleness, so tests can
// simulate the passage of time without sleeping.
type Clock func() time.Time
