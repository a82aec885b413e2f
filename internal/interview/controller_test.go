package interview

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"socratic/internal/config"
	"socratic/internal/engine"
	"socratic/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestController(t *testing.T) (*Controller, *MockEngine) {
	t.Helper()
	mock := &MockEngine{}
	c := NewController(Options{Engine: mock})
	return c, mock
}

// greet runs the throwaway first interaction so tests can start at the
// selection prompt.
func greet(t *testing.T, c *Controller) {
	t.Helper()
	turn, err := c.ProcessInput(context.Background(), "hi")
	require.NoError(t, err)
	require.True(t, turn.RequiresSelection)
}

func TestFirstInteractionPresentsMenu(t *testing.T) {
	c, _ := newTestController(t)

	turn, err := c.ProcessInput(context.Background(), "hello there")
	require.NoError(t, err)

	assert.Equal(t, StageFraming, turn.Stage)
	assert.True(t, turn.RequiresSelection)
	assert.Contains(t, turn.Message, "Socratic Architect")
	assert.Contains(t, turn.Message, "1. chatbot")
	assert.Contains(t, turn.Message, "2. data analysis")
	assert.Contains(t, turn.Message, "3. RAG workflow")
	assert.Contains(t, turn.Message, "4. content generation")
	assert.Contains(t, turn.Message, "Which category best matches what you'd like to build?")
	assert.Equal(t, []string{"chatbot", "data analysis", "RAG workflow", "content generation"}, turn.Categories)
}

func TestSelectionByNumber(t *testing.T) {
	c, mock := newTestController(t)
	greet(t, c)

	turn, err := c.ProcessInput(context.Background(), "2")
	require.NoError(t, err)

	assert.Equal(t, StageInquiry, turn.Stage)
	assert.Equal(t, "data analysis", turn.SelectedCategory)
	assert.Contains(t, turn.Message, "Great choice! You've selected **data analysis**.")
	require.NotNil(t, turn.Question)
	assert.NotEmpty(t, turn.Question.Text)

	generated, _, _ := mock.Calls()
	assert.Equal(t, 1, generated)
}

func TestSelectionByName(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"rag", "RAG workflow"},
		{"I want to build a chatbot for my site", "chatbot"},
		{"Content Generation", "content generation"},
		{"data analysis please", "data analysis"},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			c, _ := newTestController(t)
			greet(t, c)

			turn, err := c.ProcessInput(context.Background(), tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, turn.SelectedCategory)
			assert.Equal(t, StageInquiry, turn.Stage)
		})
	}
}

func TestSelectionPassesCategoryDomain(t *testing.T) {
	mock := &MockEngine{}
	var gotDomain string
	mock.GenerateQuestionFunc = func(ctx context.Context, req engine.GenerateRequest) (*engine.QuestionBundle, error) {
		gotDomain = req.Domain.Domain
		return &engine.QuestionBundle{
			SessionID: req.SessionID,
			Question:  types.AdaptiveQuestion{ID: "q1", Text: "What should it retrieve?", Type: types.QuestionExploratory},
			Mode:      types.ModeFull,
		}, nil
	}
	c := NewController(Options{Engine: mock})
	greet(t, c)

	_, err := c.ProcessInput(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "rag_workflow", gotDomain)
}

func TestInvalidSelectionRepromptsMenu(t *testing.T) {
	c, mock := newTestController(t)
	greet(t, c)

	turn, err := c.ProcessInput(context.Background(), "quantum computing")
	require.NoError(t, err)

	assert.Equal(t, StageFraming, turn.Stage)
	assert.True(t, turn.RequiresSelection)
	assert.True(t, strings.HasPrefix(turn.Message, "I didn't understand your selection. "))
	assert.Contains(t, turn.Message, "1. chatbot")

	generated, _, _ := mock.Calls()
	assert.Zero(t, generated, "no question until a category is chosen")

	// Out-of-range numbers reprompt too.
	turn, err = c.ProcessInput(context.Background(), "7")
	require.NoError(t, err)
	assert.True(t, turn.RequiresSelection)
}

func TestInquiryDepthAndConcepts(t *testing.T) {
	mock := &MockEngine{}
	concepts := [][]string{{"automation"}, {"scale", "automation"}, {"security"}}
	call := 0
	mock.ProcessResponseFunc = func(ctx context.Context, req engine.ProcessRequest) (*engine.ResponseAnalysis, error) {
		a := &engine.ResponseAnalysis{
			SessionID: req.SessionID,
			Quality:   0.4,
			Concepts:  concepts[call],
			Mode:      types.ModeFull,
		}
		call++
		return a, nil
	}
	c := NewController(Options{Engine: mock})
	greet(t, c)
	_, err := c.ProcessInput(context.Background(), "1")
	require.NoError(t, err)

	turn, err := c.ProcessInput(context.Background(), "It should answer support tickets automatically")
	require.NoError(t, err)
	assert.Equal(t, 1, turn.Depth)
	assert.Equal(t, []string{"automation"}, turn.Concepts)
	assert.False(t, turn.SuggestAdvance)

	turn, err = c.ProcessInput(context.Background(), "We get thousands of tickets a day")
	require.NoError(t, err)
	assert.Equal(t, 2, turn.Depth)
	assert.Equal(t, []string{"automation", "scale"}, turn.Concepts, "concepts dedupe and keep first-seen order")

	turn, err = c.ProcessInput(context.Background(), "Customer data must stay private")
	require.NoError(t, err)
	assert.Equal(t, 3, turn.Depth)
	assert.Equal(t, []string{"automation", "scale", "security"}, turn.Concepts)
	require.NotNil(t, turn.Analysis)
	assert.InDelta(t, 0.4, turn.Analysis.Quality, 1e-9)
}

func TestInquiryLinksPreviousQuestion(t *testing.T) {
	mock := &MockEngine{}
	var linked []string
	mock.ProcessResponseFunc = func(ctx context.Context, req engine.ProcessRequest) (*engine.ResponseAnalysis, error) {
		linked = append(linked, req.QuestionID)
		if !req.UpdateExpertise {
			t.Error("inquiry turns must update expertise")
		}
		return &engine.ResponseAnalysis{SessionID: req.SessionID, Mode: types.ModeFull}, nil
	}
	c := NewController(Options{Engine: mock})
	greet(t, c)
	_, err := c.ProcessInput(context.Background(), "1")
	require.NoError(t, err)

	_, err = c.ProcessInput(context.Background(), "first answer")
	require.NoError(t, err)
	_, err = c.ProcessInput(context.Background(), "second answer")
	require.NoError(t, err)

	// Default mock mints mock-q-1, mock-q-2; each answer links the one before.
	assert.Equal(t, []string{"mock-q-1", "mock-q-2"}, linked)
}

func TestTierChangeAdjustsSophistication(t *testing.T) {
	mock := &MockEngine{}
	mock.ProcessResponseFunc = func(ctx context.Context, req engine.ProcessRequest) (*engine.ResponseAnalysis, error) {
		return &engine.ResponseAnalysis{
			SessionID:   req.SessionID,
			Quality:     0.8,
			TierChanged: true,
			Expertise:   types.ExpertiseLevel{Tier: types.TierIntermediate, Confidence: 0.65},
			Mode:        types.ModeFull,
		}, nil
	}
	mock.AdjustSophisticationFunc = func(req engine.AdjustRequest) (*engine.Adjustment, error) {
		assert.Equal(t, engine.Increase, req.Direction)
		return &engine.Adjustment{Changed: true, Impact: "Questions will include more technical detail."}, nil
	}
	c := NewController(Options{Engine: mock})
	greet(t, c)
	_, err := c.ProcessInput(context.Background(), "chatbot")
	require.NoError(t, err)

	turn, err := c.ProcessInput(context.Background(), "A long expert answer about microservice architecture")
	require.NoError(t, err)

	assert.Contains(t, turn.Message, "Questions will include more technical detail.")
	_, _, adjusted := mock.Calls()
	assert.Equal(t, 1, adjusted)
}

func TestNoAdjustmentWithoutTierChange(t *testing.T) {
	c, mock := newTestController(t)
	greet(t, c)
	_, err := c.ProcessInput(context.Background(), "1")
	require.NoError(t, err)

	_, err = c.ProcessInput(context.Background(), "an ordinary answer")
	require.NoError(t, err)

	_, _, adjusted := mock.Calls()
	assert.Zero(t, adjusted)
}

func TestSuggestAdvanceAtDepth(t *testing.T) {
	c, _ := newTestController(t)
	greet(t, c)
	_, err := c.ProcessInput(context.Background(), "1")
	require.NoError(t, err)

	var turn *Turn
	for i := 0; i < suggestAdvanceDepth; i++ {
		turn, err = c.ProcessInput(context.Background(), "another detail about the workflow")
		require.NoError(t, err)
	}
	assert.Equal(t, suggestAdvanceDepth, turn.Depth)
	assert.True(t, turn.SuggestAdvance)
}

func TestAdvanceStageWalksForward(t *testing.T) {
	c, _ := newTestController(t)
	greet(t, c)
	_, err := c.ProcessInput(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, StageResearch, c.AdvanceStage())
	assert.Equal(t, StageGeneration, c.AdvanceStage())
	assert.Equal(t, StageGeneration, c.AdvanceStage(), "generation is terminal")
}

func TestResearchTurnSummarizesFindings(t *testing.T) {
	c, _ := newTestController(t)
	greet(t, c)
	_, err := c.ProcessInput(context.Background(), "chatbot")
	require.NoError(t, err)
	_, err = c.ProcessInput(context.Background(), "it should automate replies")
	require.NoError(t, err)
	c.AdvanceStage()

	turn, err := c.ProcessInput(context.Background(), "what have you learned?")
	require.NoError(t, err)

	assert.Contains(t, turn.Message, "chatbot project")
	assert.Contains(t, turn.Message, "intermediate")
	assert.Contains(t, turn.Message, "technical")
	assert.Equal(t, StageGeneration, turn.Stage, "research hands off to generation")
}

func TestGenerationTurnOutlinesWorkflow(t *testing.T) {
	mock := &MockEngine{}
	mock.ProcessResponseFunc = func(ctx context.Context, req engine.ProcessRequest) (*engine.ResponseAnalysis, error) {
		return &engine.ResponseAnalysis{
			SessionID: req.SessionID,
			Concepts:  []string{"automation", "security"},
			Mode:      types.ModeFull,
		}, nil
	}
	c := NewController(Options{Engine: mock})
	greet(t, c)
	_, err := c.ProcessInput(context.Background(), "chatbot")
	require.NoError(t, err)
	_, err = c.ProcessInput(context.Background(), "automated and secure handling of messages")
	require.NoError(t, err)
	c.AdvanceStage()
	c.AdvanceStage()

	turn, err := c.ProcessInput(context.Background(), "show me the outline")
	require.NoError(t, err)

	assert.Equal(t, StageGeneration, turn.Stage)
	assert.Contains(t, turn.Message, "1. Input")
	assert.Contains(t, turn.Message, "Automation")
	assert.Contains(t, turn.Message, "Protection")
	assert.Contains(t, turn.Message, "Output")
}

func TestStateExportImportRoundTrip(t *testing.T) {
	c, _ := newTestController(t)
	greet(t, c)
	_, err := c.ProcessInput(context.Background(), "1")
	require.NoError(t, err)
	_, err = c.ProcessInput(context.Background(), "it should automate triage")
	require.NoError(t, err)

	data, err := c.ExportJSON()
	require.NoError(t, err)

	restored := NewController(Options{Engine: &MockEngine{}})
	require.NoError(t, restored.ImportJSON(data))

	got := restored.State()
	want := c.State()
	assert.Equal(t, want.SessionID, got.SessionID)
	assert.Equal(t, want.Stage, got.Stage)
	assert.Equal(t, want.Category, got.Category)
	assert.Equal(t, want.Depth, got.Depth)
	assert.Equal(t, want.Concepts, got.Concepts)
	assert.Equal(t, len(want.History), len(got.History))
}

func TestImportJSONDefaultsStage(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.ImportJSON([]byte(`{"session_id":"abc"}`)))
	st := c.State()
	assert.Equal(t, StageFraming, st.Stage)
	assert.Equal(t, "abc", st.SessionID)
}

func TestImportJSONRejectsGarbage(t *testing.T) {
	c, _ := newTestController(t)
	assert.Error(t, c.ImportJSON([]byte("{not json")))
}

func TestResetStartsOver(t *testing.T) {
	c, _ := newTestController(t)
	firstID := c.SessionID()
	greet(t, c)
	_, err := c.ProcessInput(context.Background(), "1")
	require.NoError(t, err)

	c.Reset()

	st := c.State()
	assert.Equal(t, StageFraming, st.Stage)
	assert.True(t, st.FirstInteraction)
	assert.Empty(t, st.Concepts)
	assert.Zero(t, st.Depth)
	assert.NotEqual(t, firstID, c.SessionID())

	// A fresh greeting follows a reset.
	turn, err := c.ProcessInput(context.Background(), "hello again")
	require.NoError(t, err)
	assert.True(t, turn.RequiresSelection)
}

func TestHistoryRecordsBothSides(t *testing.T) {
	c, _ := newTestController(t)
	greet(t, c)

	st := c.State()
	require.Len(t, st.History, 2)
	assert.Equal(t, "user", st.History[0].Role)
	assert.Equal(t, "hi", st.History[0].Message)
	assert.Equal(t, "assistant", st.History[1].Role)
}

// TestFullConversationAgainstRealEngine walks framing through inquiry on
// the actual engine to catch drift between the two packages.
func TestFullConversationAgainstRealEngine(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Templates.PacksDir = ""
	cfg.Templates.Watch = false
	cfg.Knowledge.Enabled = false
	eng := engine.New(engine.Options{Config: cfg})

	c := NewController(Options{Engine: eng})
	ctx := context.Background()

	turn, err := c.ProcessInput(ctx, "hello")
	require.NoError(t, err)
	require.True(t, turn.RequiresSelection)

	turn, err = c.ProcessInput(ctx, "rag workflow")
	require.NoError(t, err)
	require.Equal(t, "RAG workflow", turn.SelectedCategory)
	require.NotNil(t, turn.Question)
	assert.NotEmpty(t, turn.Question.Text)

	turn, err = c.ProcessInput(ctx, "I want to index our product docs and answer support questions from them")
	require.NoError(t, err)
	assert.Equal(t, 1, turn.Depth)
	require.NotNil(t, turn.Question)
	assert.NotEmpty(t, turn.Question.Text)

	c.AdvanceStage()
	turn, err = c.ProcessInput(ctx, "summarize")
	require.NoError(t, err)
	assert.Contains(t, turn.Message, "RAG workflow project")
}
