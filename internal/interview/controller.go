package interview

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"socratic/internal/discovery"
	"socratic/internal/engine"
	"socratic/internal/logging"
	"socratic/internal/types"
)

// Category pairs the label shown to the user with the template-bank
// domain behind it.
type Category struct {
	Label  string
	Domain string
}

// WorkflowCategories is the menu presented during framing.
var WorkflowCategories = []Category{
	{Label: "chatbot", Domain: "chatbot"},
	{Label: "data analysis", Domain: "data_analysis"},
	{Label: "RAG workflow", Domain: "rag_workflow"},
	{Label: "content generation", Domain: "content_generation"},
}

// suggestAdvanceDepth is the inquiry depth at which the controller hints
// that the user has said enough to move on.
const suggestAdvanceDepth = 5

// QuestionEngine is the engine surface the controller drives.
type QuestionEngine interface {
	GenerateQuestion(ctx context.Context, req engine.GenerateRequest) (*engine.QuestionBundle, error)
	ProcessResponse(ctx context.Context, req engine.ProcessRequest) (*engine.ResponseAnalysis, error)
	AdjustSophistication(req engine.AdjustRequest) (*engine.Adjustment, error)
	Insights(sessionID string) (*engine.SessionInsights, error)
}

// Compile-time assertion that the real engine satisfies the surface.
var _ QuestionEngine = (*engine.Engine)(nil)

// Turn is the controller's answer to one user input.
type Turn struct {
	Message           string                   `json:"message"`
	Stage             Stage                    `json:"stage"`
	RequiresSelection bool                     `json:"requires_selection"`
	Categories        []string                 `json:"categories,omitempty"`
	SelectedCategory  string                   `json:"selected_category,omitempty"`
	Concepts          []string                 `json:"concepts,omitempty"`
	Depth             int                      `json:"depth"`
	SuggestAdvance    bool                     `json:"suggest_advance,omitempty"`
	Question          *types.AdaptiveQuestion  `json:"question,omitempty"`
	Analysis          *engine.ResponseAnalysis `json:"analysis,omitempty"`
}

// Options configures a controller.
type Options struct {
	// Engine answers question generation and response analysis. Required.
	Engine QuestionEngine

	// Discovery refines the domain from free text. Optional; without it
	// the category's domain is used as-is.
	Discovery *discovery.Engine

	// SessionID pins the engine session. Empty mints one.
	SessionID string

	// Clock is injectable for tests.
	Clock types.Clock
}

// Controller orchestrates one conversation. State access is locked, so
// concurrent ProcessInput calls cannot corrupt the record, but a single
// conversation is expected to take turns one at a time.
type Controller struct {
	eng  QuestionEngine
	disc *discovery.Engine
	box  *stateBox
}

// NewController builds a controller in the framing stage.
func NewController(opts Options) *Controller {
	c := &Controller{
		eng:  opts.Engine,
		disc: opts.Discovery,
		box:  newStateBox(opts.Clock),
	}
	id := opts.SessionID
	if id == "" {
		id = uuid.New().String()
	}
	c.box.state.SessionID = id
	return c
}

// SessionID returns the engine session this conversation runs under.
func (c *Controller) SessionID() string {
	c.box.mu.Lock()
	defer c.box.mu.Unlock()
	return c.box.state.SessionID
}

// State returns a snapshot of the conversation record.
func (c *Controller) State() State {
	return c.box.snapshot()
}

// ExportJSON serializes the conversation record.
func (c *Controller) ExportJSON() ([]byte, error) {
	return c.box.exportJSON()
}

// ImportJSON restores a previously exported conversation record.
func (c *Controller) ImportJSON(data []byte) error {
	return c.box.importJSON(data)
}

// Reset returns the conversation to a fresh framing stage under a new
// session id.
func (c *Controller) Reset() {
	c.box.reset()
	c.box.mu.Lock()
	c.box.state.SessionID = uuid.New().String()
	c.box.mu.Unlock()
	logging.Interview("conversation reset")
}

// AdvanceStage moves the conversation one stage forward and returns the
// new stage. Hosts call this when the user asks to move on.
func (c *Controller) AdvanceStage() Stage {
	c.box.mu.Lock()
	defer c.box.mu.Unlock()
	from := c.box.state.Stage
	c.box.state.Stage = from.Next()
	c.box.state.UpdatedAt = c.box.now()
	logging.Interview("stage %s -> %s", from, c.box.state.Stage)
	return c.box.state.Stage
}

// ProcessInput handles one user utterance and produces the next turn.
func (c *Controller) ProcessInput(ctx context.Context, input string) (*Turn, error) {
	c.box.mu.Lock()
	now := c.box.now()
	c.box.state.addEntry("user", input, now)
	first := c.box.state.FirstInteraction
	stage := c.box.state.Stage
	c.box.mu.Unlock()

	var (
		turn *Turn
		err  error
	)
	switch {
	case first:
		turn = c.firstInteraction()
	case stage == StageFraming:
		turn, err = c.framingTurn(ctx, input)
	case stage == StageInquiry:
		turn, err = c.inquiryTurn(ctx, input)
	case stage == StageResearch:
		turn, err = c.researchTurn(input)
	default:
		turn = c.generationTurn()
	}
	if err != nil {
		return nil, err
	}

	c.box.mu.Lock()
	c.box.state.addEntry("assistant", turn.Message, c.box.now())
	c.box.mu.Unlock()
	return turn, nil
}

// =============================================================================
// STAGE HANDLERS
// =============================================================================

func (c *Controller) firstInteraction() *Turn {
	c.box.mu.Lock()
	c.box.state.FirstInteraction = false
	c.box.state.UpdatedAt = c.box.now()
	c.box.mu.Unlock()

	msg := introduction() + "\n\n" + categoryMenu()
	logging.Interview("first interaction: presenting %d categories", len(WorkflowCategories))
	return &Turn{
		Message:           msg,
		Stage:             StageFraming,
		RequiresSelection: true,
		Categories:        categoryLabels(),
	}
}

// framingTurn parses the category selection and, on success, opens the
// inquiry with the first question.
func (c *Controller) framingTurn(ctx context.Context, input string) (*Turn, error) {
	cat, ok := parseSelection(input)
	if !ok {
		logging.InterviewDebug("unparseable selection %q", input)
		return &Turn{
			Message:           "I didn't understand your selection. " + categoryMenu(),
			Stage:             StageFraming,
			RequiresSelection: true,
			Categories:        categoryLabels(),
		}, nil
	}

	c.box.mu.Lock()
	c.box.state.Category = cat.Label
	c.box.state.Stage = StageInquiry
	c.box.state.UserGoal = input
	c.box.state.UpdatedAt = c.box.now()
	sessionID := c.box.state.SessionID
	c.box.mu.Unlock()

	dc := c.domainFor(cat, input, sessionID)
	b, err := c.eng.GenerateQuestion(ctx, engine.GenerateRequest{
		SessionID:    sessionID,
		Domain:       dc,
		QuestionType: types.QuestionExploratory,
	})
	if err != nil {
		return nil, fmt.Errorf("open inquiry for %s: %w", cat.Label, err)
	}

	c.rememberQuestion(b.Question.ID)
	logging.Interview("category %s selected, inquiry opened (session=%s)", cat.Label, sessionID)
	return &Turn{
		Message:          fmt.Sprintf("Great choice! You've selected **%s**.\n\n%s", cat.Label, b.Question.Text),
		Stage:            StageInquiry,
		SelectedCategory: cat.Label,
		Question:         &b.Question,
	}, nil
}

// inquiryTurn is the core loop: score the answer, let the engine move
// the expertise estimate, step sophistication up when a tier advance
// says the user can take it, and ask the next question.
func (c *Controller) inquiryTurn(ctx context.Context, input string) (*Turn, error) {
	c.box.mu.Lock()
	sessionID := c.box.state.SessionID
	lastQuestion := c.box.state.LastQuestionID
	depth := c.box.state.Depth + 1
	c.box.state.Depth = depth
	c.box.state.UpdatedAt = c.box.now()
	c.box.mu.Unlock()

	analysis, err := c.eng.ProcessResponse(ctx, engine.ProcessRequest{
		SessionID:       sessionID,
		QuestionID:      lastQuestion,
		Response:        input,
		UpdateExpertise: true,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze inquiry response: %w", err)
	}

	c.box.mu.Lock()
	c.box.state.addConcepts(analysis.Concepts, c.box.now())
	concepts := append([]string(nil), c.box.state.Concepts...)
	c.box.mu.Unlock()

	var impact string
	if analysis.TierChanged {
		adj, err := c.eng.AdjustSophistication(engine.AdjustRequest{
			SessionID: sessionID,
			Direction: engine.Increase,
		})
		if err == nil && adj.Changed {
			impact = adj.Impact
		}
	}

	b, err := c.eng.GenerateQuestion(ctx, engine.GenerateRequest{SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("next inquiry question: %w", err)
	}
	c.rememberQuestion(b.Question.ID)

	msg := b.Question.Text
	if impact != "" {
		msg = impact + "\n\n" + msg
	}
	logging.InterviewDebug("inquiry depth %d: quality=%.2f concepts=%d", depth, analysis.Quality, len(analysis.Concepts))
	return &Turn{
		Message:        msg,
		Stage:          StageInquiry,
		Concepts:       concepts,
		Depth:          depth,
		SuggestAdvance: depth >= suggestAdvanceDepth,
		Question:       &b.Question,
		Analysis:       analysis,
	}, nil
}

// researchTurn consolidates what the inquiry gathered into a findings
// summary with component recommendations.
func (c *Controller) researchTurn(input string) (*Turn, error) {
	c.box.mu.Lock()
	sessionID := c.box.state.SessionID
	category := c.box.state.Category
	concepts := append([]string(nil), c.box.state.Concepts...)
	c.box.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Here's what I've gathered about your %s project so far.\n", displayCategory(category))

	if ins, err := c.eng.Insights(sessionID); err == nil {
		fmt.Fprintf(&b, "\nYou're working at the %s level in the %s domain.\n", ins.Expertise.Tier, ins.Domain)
		if len(ins.Insights) > 0 {
			b.WriteString("Key points from your answers:\n")
			for _, s := range capStrings(ins.Insights, 5) {
				fmt.Fprintf(&b, "- %s\n", s)
			}
		}
	}
	if len(concepts) > 0 {
		fmt.Fprintf(&b, "Themes we covered: %s.\n", strings.Join(concepts, ", "))
	}

	if c.disc != nil {
		if ec, ok := c.disc.ActiveContext(sessionID); ok {
			recs := discovery.Recommendations(ec)
			if len(recs) > 0 {
				b.WriteString("\nComponents worth considering:\n")
				for _, r := range capRecommendations(recs, 5) {
					fmt.Fprintf(&b, "- %s: %s\n", r.Name, r.Description)
				}
			}
		}
	}
	b.WriteString("\nSay anything to continue to the workflow outline.")

	c.box.mu.Lock()
	c.box.state.Stage = StageGeneration
	c.box.state.UpdatedAt = c.box.now()
	c.box.mu.Unlock()

	logging.Interview("research summary produced (session=%s, concepts=%d)", sessionID, len(concepts))
	return &Turn{
		Message:  b.String(),
		Stage:    StageGeneration,
		Concepts: concepts,
	}, nil
}

// generationTurn sketches the workflow outline from everything gathered.
func (c *Controller) generationTurn() *Turn {
	c.box.mu.Lock()
	category := c.box.state.Category
	concepts := append([]string(nil), c.box.state.Concepts...)
	goal := c.box.state.UserGoal
	c.box.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Here's a starting outline for your %s workflow:\n\n", displayCategory(category))
	b.WriteString("1. Input: capture the user's request")
	if goal != "" {
		fmt.Fprintf(&b, " (your goal: %s)", goal)
	}
	b.WriteString("\n")

	step := 2
	for _, concept := range concepts {
		if stage, ok := conceptStages[concept]; ok {
			fmt.Fprintf(&b, "%d. %s\n", step, stage)
			step++
		}
	}
	fmt.Fprintf(&b, "%d. Output: deliver the result and collect feedback\n", step)
	b.WriteString("\nRefine any step by telling me more about it.")

	return &Turn{
		Message:  b.String(),
		Stage:    StageGeneration,
		Concepts: concepts,
	}
}

// conceptStages maps gathered concepts to outline steps.
var conceptStages = map[string]string{
	"business":        "Routing: apply the business rules that decide what happens next",
	"technical":       "Integration: exchange data with your existing systems",
	"user_experience": "Presentation: shape responses for your users",
	"automation":      "Automation: run the repetitive steps without intervention",
	"real_time":       "Streaming: push updates as they happen",
	"security":        "Protection: enforce access control and data handling rules",
	"scale":           "Scaling: queue and parallelize the heavy work",
}

// =============================================================================
// HELPERS
// =============================================================================

// domainFor resolves the domain context for a selected category,
// preferring discovery's enhanced classification when available.
func (c *Controller) domainFor(cat Category, input, sessionID string) types.DomainContext {
	if c.disc != nil {
		act := c.disc.Activate(input, sessionID)
		if act.Context.Domain != types.GeneralDomain {
			return act.Context.DomainContext
		}
	}
	return types.DomainContext{
		Domain:     cat.Domain,
		Confidence: 1, // explicit user selection
		Source:     types.SourceConversation,
	}
}

func (c *Controller) rememberQuestion(id string) {
	c.box.mu.Lock()
	c.box.state.LastQuestionID = id
	c.box.state.UpdatedAt = c.box.now()
	c.box.mu.Unlock()
}

// parseSelection accepts a menu number or a category name. Name matching
// is bidirectional substring, so "rag" hits "RAG workflow" and "the
// chatbot one" hits "chatbot".
func parseSelection(input string) (Category, bool) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return Category{}, false
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= len(WorkflowCategories) {
			return WorkflowCategories[n-1], true
		}
		return Category{}, false
	}

	for _, cat := range WorkflowCategories {
		label := strings.ToLower(cat.Label)
		if strings.Contains(s, label) || strings.Contains(label, s) {
			return cat, true
		}
	}
	return Category{}, false
}

func introduction() string {
	return "Hello! I'm the **Socratic Architect**, your partner for designing workflow automations. " +
		"I work by asking questions: first to understand your goals, then to explore the details together, " +
		"so we end up with a workflow that actually fits what you need."
}

func categoryMenu() string {
	var b strings.Builder
	b.WriteString("To get started, please select one of these common workflow categories:\n\n")
	for i, cat := range WorkflowCategories {
		fmt.Fprintf(&b, "%d. %s\n", i+1, cat.Label)
	}
	b.WriteString("\nWhich category best matches what you'd like to build?")
	return b.String()
}

func categoryLabels() []string {
	out := make([]string, len(WorkflowCategories))
	for i, cat := range WorkflowCategories {
		out[i] = cat.Label
	}
	return out
}

func displayCategory(label string) string {
	if label == "" {
		return "new"
	}
	return label
}

func capStrings(in []string, n int) []string {
	if len(in) <= n {
		return in
	}
	return in[:n]
}

func capRecommendations(in []discovery.ComponentRecommendation, n int) []discovery.ComponentRecommendation {
	if len(in) <= n {
		return in
	}
	return in[:n]
}
