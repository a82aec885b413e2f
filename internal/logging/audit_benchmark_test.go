package logging

import (
	"testing"
)

// BenchmarkAuditLogDisabled measures the no-op path taken on every audit
// call in production mode. This path runs on each generated question, so it
// must stay cheap.
func BenchmarkAuditLogDisabled(b *testing.B) {
	// Reset state so debug mode is off and no audit file is open
	CloseAll()
	CloseAudit()
	config = loggingConfig{}
	configLoaded = true

	a := Audit()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.QuestionGenerated("sess-1", "q-1", "template", 12)
	}
}

func BenchmarkNoOpLogger(b *testing.B) {
	CloseAll()
	config = loggingConfig{}
	configLoaded = true

	l := Get(CategoryEngine)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Debug("question %d generated in %dms", i, 12)
	}
}
