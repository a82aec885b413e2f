package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"socratic/internal/disclosure"
	"socratic/internal/logging"
	"socratic/internal/memory"
	"socratic/internal/templates"
	"socratic/internal/types"
)

// recentWindow is how many prior question texts feed repetition
// avoidance when the config does not say otherwise.
const recentWindow = 5

func (e *Engine) recentWindow() int {
	if n := e.cfg.Engine.RecentTurnWindow; n > 0 {
		return n
	}
	return recentWindow
}

// GenerateQuestion produces the next question for a session. It never
// returns an error for downstream failures; those degrade the engine and
// the call still answers from a lower path. The only errors are
// malformed requests.
func (e *Engine) GenerateQuestion(ctx context.Context, req GenerateRequest) (bundle *QuestionBundle, err error) {
	if req.QuestionType != "" && !req.QuestionType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidQuestionType, req.QuestionType)
	}

	timer := logging.StartTimer(logging.CategoryEngine, "generate_question")
	defer timer.StopWithThreshold(slowGeneration)

	// Worst case recovery: whatever breaks below, the caller still gets
	// a minimal question and the failure escalates degradation state.
	defer func() {
		if r := recover(); r != nil {
			e.degrade.ReportInternalFailure(fmt.Errorf("question generation panic: %v", r))
			logging.Audit().Recovery(string(logging.CategoryEngine), fmt.Sprintf("generation panic: %v", r))
			bundle, err = e.emergencyBundle(req.SessionID, req.QuestionType), nil
		}
	}()

	sess, persisted, created, warnings := e.resolveSession(req)

	// Emergency mode serves the minimal question without touching any
	// subsystem that could fail again.
	if e.degrade.Mode() == types.ModeEmergency {
		b := e.emergencyBundle(sess.ID, req.QuestionType)
		b.Warnings = append(warnings, b.Warnings...)
		b.NewSession = created
		e.appendInteraction(sess.ID, persisted, b.Question)
		return b, nil
	}

	level := sess.Sophistication
	if req.Sophistication != nil {
		level = *req.Sophistication
	}
	qt := req.QuestionType
	if qt == "" {
		qt = questionTypeFor(sess, level)
	}

	var recent []string
	if persisted {
		recent, _ = e.store.RecentQuestions(sess.ID, e.recentWindow())
	}

	q, notice := e.resolveQuestion(ctx, sess.Domain, qt, level, recent)
	if notice != "" {
		warnings = append(warnings, notice)
	}

	e.countProvenance(q.Provenance)
	e.appendInteraction(sess.ID, persisted, q)

	mode := e.degrade.Mode()
	b := &QuestionBundle{
		SessionID:       sess.ID,
		Question:        q,
		Rationale:       rationaleFor(q, sess.Expertise, mode),
		Recommendations: adaptationRecommendations(sess, level),
		Warnings:        warnings,
		Mode:            mode,
		NewSession:      created,
	}

	logging.Audit().QuestionGenerated(sess.ID, q.ID, string(q.Provenance), timer.Elapsed().Milliseconds())
	logging.EngineDebug("session %s: %s question via %s (domain=%s tier=%s)",
		sess.ID, q.Type, q.Provenance, q.Domain, level.Complexity)
	return b, nil
}

// resolveSession finds or creates the conversation, seeding new sessions
// from the request. A full store degrades to a scratch session that is
// served but never remembered. Returns the session, whether it lives in
// the store, whether it is new, and any caller-facing warnings.
func (e *Engine) resolveSession(req GenerateRequest) (memory.Session, bool, bool, []string) {
	var warnings []string

	if req.Domain.Domain == "" && e.cfg.Engine.DefaultDomain != "" {
		req.Domain.Domain = e.cfg.Engine.DefaultDomain
	}
	sess, created, err := e.store.GetOrCreate(req.SessionID, req.Domain)
	if err != nil {
		e.degrade.ReportSessionFailure(err)
		warnings = append(warnings,
			"session store at capacity; this conversation will not be remembered")
		return e.scratchSession(req), false, true, warnings
	}

	if created {
		sess = e.seedNewSession(sess, req)
		return sess, true, true, warnings
	}

	// Existing session: a caller-resolved domain replaces a weaker or
	// different one.
	if req.Domain.Domain != "" && req.Domain.Domain != sess.Domain.Domain {
		if err := e.store.SetDomain(sess.ID, req.Domain); err == nil {
			sess.Domain = req.Domain
		}
	}
	return sess, true, false, warnings
}

// seedNewSession applies the request's seeds to a just-created session.
// Explicit sophistication wins over preferences, preferences over the
// expertise-derived level, and that over the store default.
func (e *Engine) seedNewSession(sess memory.Session, req GenerateRequest) memory.Session {
	if req.Preferences != nil {
		if err := e.store.SetPreferences(sess.ID, *req.Preferences); err == nil {
			sess.Preferences = *req.Preferences
		}
	}
	if req.Expertise != nil {
		lvl := *req.Expertise
		if lvl.Domain == "" {
			lvl.Domain = sess.Domain.Domain
		}
		if err := e.store.UpdateExpertise(sess.ID, lvl); err == nil {
			sess.Expertise = lvl
		}
	}

	level := sess.Sophistication
	switch {
	case req.Sophistication != nil:
		level = *req.Sophistication
	case req.Preferences != nil && req.Preferences.PreferredComplexity != "":
		level = types.SophisticationForTier(req.Preferences.PreferredComplexity, types.MinDepth)
	case req.Expertise != nil:
		level = disclosure.ForExpertiseTier(req.Expertise.Tier, types.MinDepth)
	}
	if sess.Preferences.SkipBasics && level.Complexity == types.ComplexitySimple {
		level = types.SophisticationForTier(types.ComplexityModerate, level.Depth)
	}
	if level != sess.Sophistication {
		if err := e.store.SetSophistication(sess.ID, level); err == nil {
			sess.Sophistication = level
		}
	}
	return sess
}

// scratchSession is the unpersisted stand-in used when the store is full.
func (e *Engine) scratchSession(req GenerateRequest) memory.Session {
	dc := req.Domain
	if dc.Domain == "" {
		dc.Domain = types.GeneralDomain
	}
	id := req.SessionID
	if id == "" {
		id = uuid.New().String()
	}
	now := e.now()
	sess := memory.Session{
		ID:             id,
		Domain:         dc,
		Expertise:      types.DefaultExpertise(dc.Domain),
		Sophistication: types.DefaultSophistication(),
		CreatedAt:      now,
		LastActive:     now,
	}
	if req.Expertise != nil {
		sess.Expertise = *req.Expertise
	}
	if req.Sophistication != nil {
		sess.Sophistication = *req.Sophistication
	}
	return sess
}

// =============================================================================
// RESOLUTION PATHS
// =============================================================================

// resolveQuestion walks the path ladder: knowledge, templates, fixed
// bank. A knowledge failure inside this call routes straight to the
// fixed bank; the template path is only for calls where knowledge was
// skipped or returned nothing.
func (e *Engine) resolveQuestion(ctx context.Context, dc types.DomainContext, qt types.QuestionType, level types.SophisticationLevel, recent []string) (types.AdaptiveQuestion, string) {
	tier := level.Complexity
	caps := e.degrade.Capabilities()

	knowledgeFailed := false
	if e.querier != nil && e.degrade.KnowledgeAllowed() {
		if q, ok, failed := e.knowledgeQuestion(ctx, dc, qt, level, recent); ok {
			return q, ""
		} else if failed {
			knowledgeFailed = true
		}
	}

	if !knowledgeFailed && caps.AdvancedTemplates {
		if q, ok := e.templateQuestion(dc, qt, level, recent, caps.Caching); ok {
			return q, ""
		}
	}

	notice := ""
	if knowledgeFailed {
		notice = "knowledge lookup failed; served from the fallback bank"
	}
	text := templates.FallbackQuestion(tier, recent)
	return e.buildQuestion(text, qt, level, dc.Domain, types.ProvenanceFallback, nil, nil), notice
}

// knowledgeQuestion runs the external lookup and synthesizes phrasings
// from the returned snippets. Returns (question, served, failed).
func (e *Engine) knowledgeQuestion(ctx context.Context, dc types.DomainContext, qt types.QuestionType, level types.SophisticationLevel, recent []string) (types.AdaptiveQuestion, bool, bool) {
	prompt := knowledgePrompt(level.Complexity, qt)

	// The querier audits the lookup itself, including timing and hit status.
	snippets, _, err := e.querier.Lookup(ctx, prompt, dc.Domain)
	if err != nil {
		e.degrade.ReportKnowledgeFailure(err)
		return types.AdaptiveQuestion{}, false, true
	}
	e.degrade.ReportKnowledgeSuccess()

	if len(snippets) == 0 {
		return types.AdaptiveQuestion{}, false, false
	}

	// The snippets stand in as technologies so the synthesizer can build
	// domain-aware phrasings from them.
	kdc := dc
	kdc.Technologies = snippets
	cands := templates.SynthesizeFromContext(kdc, qt, level.Complexity)
	t := e.library.Select(cands, dc.Domain, recent)
	if t == nil {
		return types.AdaptiveQuestion{}, false, false
	}
	q := e.buildQuestion(t.Render(dc.Domain), qt, level, dc.Domain, types.ProvenanceCached, t.FollowUps, t.ValidationCriteria)
	return q, true, false
}

// templateQuestion serves from the per-(domain, type, tier) template
// cache, synthesizing and populating it on miss.
func (e *Engine) templateQuestion(dc types.DomainContext, qt types.QuestionType, level types.SophisticationLevel, recent []string, caching bool) (types.AdaptiveQuestion, bool) {
	tier := level.Complexity
	key := synthKey(dc.Domain, qt, tier)

	var cands []*templates.Template
	if caching {
		if v, ok := e.synth.Get(key); ok {
			cands, _ = v.([]*templates.Template)
		}
	}
	if cands == nil {
		cands = e.library.Lookup(dc.Domain, qt, tier)
		cands = append(cands, templates.SynthesizeFromContext(dc, qt, tier)...)
		if caching && len(cands) > 0 {
			e.synth.Set(key, cands)
		}
	}

	t := e.library.Select(cands, dc.Domain, recent)
	if t == nil {
		return types.AdaptiveQuestion{}, false
	}
	q := e.buildQuestion(t.Render(dc.Domain), qt, level, dc.Domain, types.ProvenanceTemplate, t.FollowUps, t.ValidationCriteria)
	return q, true
}

func synthKey(domain string, qt types.QuestionType, tier types.ComplexityTier) string {
	return domain + "|" + string(qt) + "|" + string(tier)
}

// knowledgePrompt keys the external lookup by tier and question type so
// the querier cache distinguishes asking levels within a domain.
func knowledgePrompt(tier types.ComplexityTier, qt types.QuestionType) string {
	return fmt.Sprintf("%s %s question context", tier, qt)
}

// buildQuestion assembles the immutable question artifact.
func (e *Engine) buildQuestion(text string, qt types.QuestionType, level types.SophisticationLevel, domain string, prov types.Provenance, followUps, criteria []string) types.AdaptiveQuestion {
	return types.AdaptiveQuestion{
		ID:                 uuid.New().String(),
		Type:               qt,
		Text:               text,
		Sophistication:     level,
		Domain:             domain,
		ExpectedShape:      types.ExpectedShapeFor(qt, level),
		FollowUpPrompts:    followUps,
		ValidationCriteria: criteria,
		Provenance:         prov,
		CreatedAt:          e.now(),
	}
}

// emergencyBundle is the minimal answer of last resort. It touches no
// caches, no library, no store.
func (e *Engine) emergencyBundle(sessionID string, qt types.QuestionType) *QuestionBundle {
	if qt == "" || !qt.Valid() {
		qt = types.QuestionExploratory
	}
	level := types.DefaultSophistication()
	q := types.AdaptiveQuestion{
		ID:             uuid.New().String(),
		Type:           qt,
		Text:           templates.EmergencyQuestion(),
		Sophistication: level,
		Domain:         types.GeneralDomain,
		ExpectedShape:  types.ShapeFreeText,
		Provenance:     types.ProvenanceRecovered,
		CreatedAt:      e.now(),
	}
	e.countProvenance(q.Provenance)
	return &QuestionBundle{
		SessionID: sessionID,
		Question:  q,
		Rationale: "service is recovering from an internal error; asking a minimal question to keep the conversation moving",
		Warnings:  []string{"engine in emergency mode"},
		Mode:      types.ModeEmergency,
	}
}

// appendInteraction records the ask. An append failure (session evicted
// between resolve and append) is absorbed; the question was already
// served.
func (e *Engine) appendInteraction(sessionID string, persisted bool, q types.AdaptiveQuestion) {
	if !persisted {
		return
	}
	qi := types.QuestionInteraction{
		QuestionID:     q.ID,
		QuestionText:   q.Text,
		AskedAt:        q.CreatedAt,
		Sophistication: q.Sophistication,
	}
	if err := e.store.AppendInteraction(sessionID, qi); err != nil {
		logging.EngineWarn("session %s: interaction not recorded: %v", sessionID, err)
	}
}

// =============================================================================
// RATIONALE AND RECOMMENDATIONS
// =============================================================================

// questionTypeFor picks the next question type from conversation shape:
// open with exploration, follow up on answers that earned one, weave in
// validation and technical probes at the cadence the level asks for.
func questionTypeFor(sess memory.Session, level types.SophisticationLevel) types.QuestionType {
	asked := len(sess.Interactions)
	if asked == 0 {
		return types.QuestionExploratory
	}
	last := sess.Interactions[asked-1]
	if last.Answered() && last.FollowUpGenerated {
		return types.QuestionFollowUp
	}
	if level.RequiresValidation && asked%4 == 3 {
		return types.QuestionValidation
	}
	if level.TechnicalDetail && asked%3 == 2 {
		return types.QuestionTechnical
	}
	return types.QuestionClarifying
}

// rationaleFor explains why this question was asked and over which path,
// including the degradation notice when service is reduced.
func rationaleFor(q types.AdaptiveQuestion, exp types.ExpertiseLevel, mode types.DegradationMode) string {
	var b strings.Builder

	switch q.Type {
	case types.QuestionExploratory:
		b.WriteString("Opening the topic to map what you want to build")
	case types.QuestionClarifying:
		b.WriteString("Pinning down a detail from the conversation so far")
	case types.QuestionTechnical:
		b.WriteString("Drilling into implementation specifics")
	case types.QuestionValidation:
		b.WriteString("Confirming an assumption before building on it")
	case types.QuestionFollowUp:
		b.WriteString("Continuing the thread your last answer opened")
	default:
		b.WriteString("Continuing the interview")
	}
	fmt.Fprintf(&b, ", pitched at the %s level for a %s-tier responder", q.Sophistication.Complexity, exp.Tier)

	switch q.Provenance {
	case types.ProvenanceCached:
		b.WriteString("; phrasing informed by domain knowledge")
	case types.ProvenanceTemplate:
		b.WriteString("; phrasing from the domain template bank")
	case types.ProvenanceFallback:
		b.WriteString("; phrasing from the general-purpose bank")
	case types.ProvenanceRecovered:
		b.WriteString("; minimal phrasing while the engine recovers")
	}

	if mode != types.ModeFull {
		fmt.Fprintf(&b, " (service degraded: %s mode)", mode)
	}
	b.WriteString(".")
	return b.String()
}

// adaptationRecommendations surfaces next-step hints a host can show
// alongside the question.
func adaptationRecommendations(sess memory.Session, level types.SophisticationLevel) []string {
	var recs []string

	if sess.Expertise.Tier == types.TierAdvanced && level.Complexity.Rank() < types.ComplexityAdvanced.Rank() {
		recs = append(recs, "responses indicate advanced expertise; consider increasing sophistication")
	}
	if sess.Expertise.Confidence < 0.3 && level.Complexity.Rank() > types.ComplexitySimple.Rank() {
		recs = append(recs, "expertise estimate is uncertain; simpler questions may land better")
	}
	if level.Depth >= types.MaxDepth {
		recs = append(recs, "conversation is at maximum depth; consider validating conclusions")
	}
	if sess.Preferences.AdaptiveDifficulty && len(sess.Interactions) > 0 && len(sess.Interactions)%5 == 0 {
		recs = append(recs, "adaptive difficulty is on; review recent answer quality before the next adjustment")
	}
	return recs
}
