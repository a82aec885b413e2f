package interview

import (
	"context"
	"fmt"
	"sync"

	"socratic/internal/engine"
	"socratic/internal/types"
)

// MockEngine implements QuestionEngine for testing.
type MockEngine struct {
	GenerateQuestionFunc     func(ctx context.Context, req engine.GenerateRequest) (*engine.QuestionBundle, error)
	ProcessResponseFunc      func(ctx context.Context, req engine.ProcessRequest) (*engine.ResponseAnalysis, error)
	AdjustSophisticationFunc func(req engine.AdjustRequest) (*engine.Adjustment, error)
	InsightsFunc             func(sessionID string) (*engine.SessionInsights, error)

	mu        sync.Mutex
	generated int
	processed int
	adjusted  int
}

func (m *MockEngine) GenerateQuestion(ctx context.Context, req engine.GenerateRequest) (*engine.QuestionBundle, error) {
	m.mu.Lock()
	m.generated++
	n := m.generated
	m.mu.Unlock()
	if m.GenerateQuestionFunc != nil {
		return m.GenerateQuestionFunc(ctx, req)
	}
	return &engine.QuestionBundle{
		SessionID: req.SessionID,
		Question: types.AdaptiveQuestion{
			ID:   fmt.Sprintf("mock-q-%d", n),
			Text: fmt.Sprintf("Mock question %d?", n),
			Type: types.QuestionExploratory,
		},
		Mode: types.ModeFull,
	}, nil
}

func (m *MockEngine) ProcessResponse(ctx context.Context, req engine.ProcessRequest) (*engine.ResponseAnalysis, error) {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
	if m.ProcessResponseFunc != nil {
		return m.ProcessResponseFunc(ctx, req)
	}
	return &engine.ResponseAnalysis{
		SessionID:  req.SessionID,
		QuestionID: req.QuestionID,
		Quality:    0.5,
		Concepts:   []string{"technical"},
		Mode:       types.ModeFull,
	}, nil
}

func (m *MockEngine) AdjustSophistication(req engine.AdjustRequest) (*engine.Adjustment, error) {
	m.mu.Lock()
	m.adjusted++
	m.mu.Unlock()
	if m.AdjustSophisticationFunc != nil {
		return m.AdjustSophisticationFunc(req)
	}
	return &engine.Adjustment{Changed: true, Impact: "Mock adjustment impact."}, nil
}

func (m *MockEngine) Insights(sessionID string) (*engine.SessionInsights, error) {
	if m.InsightsFunc != nil {
		return m.InsightsFunc(sessionID)
	}
	return &engine.SessionInsights{
		SessionID: sessionID,
		Domain:    "chatbot",
		Expertise: types.ExpertiseLevel{Tier: types.TierIntermediate, Confidence: 0.6},
		Insights:  []string{"Mock insight"},
	}, nil
}

// Calls reports how many times each operation ran.
func (m *MockEngine) Calls() (generated, processed, adjusted int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generated, m.processed, m.adjusted
}
