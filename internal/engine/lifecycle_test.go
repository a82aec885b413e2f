package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socratic/internal/knowledge"
	"socratic/internal/types"
)

func TestStartStopIdempotent(t *testing.T) {
	cfg := testConfig()
	cfg.Memory.SweepInterval = "20ms"
	e := New(Options{Config: cfg, Source: knowledge.NewStaticSource()})
	ctx := context.Background()

	e.Start(ctx)
	e.Start(ctx)

	_, err := e.GenerateQuestion(ctx, GenerateRequest{Domain: healthcareDomain()})
	require.NoError(t, err)

	// Let at least one maintenance pass run against live state.
	time.Sleep(60 * time.Millisecond)

	e.Stop()
	e.Stop()
}

func TestStopAfterContextCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Memory.SweepInterval = "20ms"
	e := New(Options{Config: cfg})

	ctx, cancel := context.WithCancel(context.Background())
	e.Start(ctx)
	cancel()

	// Stop must not hang when the loops already exited via the context.
	done := make(chan struct{})
	go func() {
		e.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop hung after context cancellation")
	}
}

func TestMetricsSnapshot(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()

	b, err := e.GenerateQuestion(ctx, GenerateRequest{Domain: types.DomainContext{Domain: "chatbot"}})
	require.NoError(t, err)
	_, err = e.ProcessResponse(ctx, ProcessRequest{SessionID: b.SessionID, QuestionID: b.Question.ID, Response: "a reply"})
	require.NoError(t, err)

	m := e.Metrics()
	assert.Equal(t, int64(1), m.Total())
	assert.Equal(t, int64(1), m.GeneratedTemplate)
	assert.Equal(t, int64(1), m.ResponsesProcessed)
	assert.Equal(t, 1, m.ActiveSessions)
	assert.Equal(t, types.ModeFull, m.Mode)
	assert.Contains(t, m.String(), "generated=1")
}

func TestHealthReflectsDegradation(t *testing.T) {
	e, _ := newTestEngine(t, knowledge.NewStaticSource())

	h := e.Health()
	assert.Equal(t, types.HealthHealthy, h.Status)
	assert.Equal(t, types.ModeFull, h.Mode)

	e.degrade.ReportKnowledgeFailure(errors.New("lookup timed out"))
	h = e.Health()
	assert.NotEqual(t, types.HealthHealthy, h.Status)
	assert.Equal(t, types.ModeLimited, h.Mode)

	e.Reset()
	h = e.Health()
	assert.Equal(t, types.HealthHealthy, h.Status)
}

func TestStateSnapshot(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	st := e.State()
	assert.Equal(t, types.ModeFull, st.Mode)
	assert.True(t, st.Capabilities.AdvancedTemplates)

	e.degrade.ReportCacheFailure(errors.New("cache write failed"))
	st = e.State()
	assert.Equal(t, types.ModeLimited, st.Mode)
	assert.False(t, st.Capabilities.Caching)
}

func TestEndSession(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()

	b, err := e.GenerateQuestion(ctx, GenerateRequest{})
	require.NoError(t, err)

	assert.True(t, e.EndSession(b.SessionID))
	assert.False(t, e.EndSession(b.SessionID), "second end reports the session is gone")

	_, err = e.Progress(b.SessionID)
	require.Error(t, err)
}

func TestSweepDropsExpiredSynthEntries(t *testing.T) {
	e, clock := newTestEngine(t, nil)
	ctx := context.Background()

	// Populate the synthesis cache through the template path.
	_, err := e.GenerateQuestion(ctx, GenerateRequest{Domain: types.DomainContext{Domain: "chatbot"}})
	require.NoError(t, err)
	require.Positive(t, e.synth.Size())

	clock.Advance(synthCacheTTL + time.Minute)
	e.sweep()
	assert.Zero(t, e.synth.Size())
}
