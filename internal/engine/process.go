package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"socratic/internal/expertise"
	"socratic/internal/logging"
	"socratic/internal/memory"
	"socratic/internal/templates"
	"socratic/internal/types"
)

const (
	// followUpLimit bounds how many concept follow-ups one response can
	// spawn when the config does not say otherwise.
	followUpLimit = 3

	// followUpDedupeWindow is how many prior questions are checked when
	// skipping follow-ups the session has already seen.
	followUpDedupeWindow = 10

	slowProcessing = 100 * time.Millisecond
)

func (e *Engine) followUpLimit() int {
	if n := e.cfg.Engine.MaxFollowUps; n > 0 {
		return n
	}
	return followUpLimit
}

// ProcessResponse scores an answer, derives follow-ups, and (when asked)
// moves the session's expertise estimate. Like generation it absorbs
// downstream failures; only a malformed request errors.
func (e *Engine) ProcessResponse(ctx context.Context, req ProcessRequest) (analysis *ResponseAnalysis, err error) {
	if req.SessionID == "" {
		return nil, ErrSessionIDRequired
	}
	_ = ctx // no blocking work today; kept for interface symmetry

	timer := logging.StartTimer(logging.CategoryExpertise, "process_response")
	defer timer.StopWithThreshold(slowProcessing)

	defer func() {
		if r := recover(); r != nil {
			e.degrade.ReportInternalFailure(fmt.Errorf("response processing panic: %v", r))
			logging.Audit().Recovery(string(logging.CategoryExpertise), fmt.Sprintf("processing panic: %v", r))
			analysis = &ResponseAnalysis{
				SessionID:  req.SessionID,
				QuestionID: req.QuestionID,
				Expertise:  types.DefaultExpertise(types.GeneralDomain),
				Warnings:   []string{"engine in emergency mode; response not scored"},
				Mode:       types.ModeEmergency,
			}
			err = nil
		}
	}()

	sess, persisted, warnings := e.sessionForProcessing(req.SessionID)

	caps := e.degrade.Capabilities()
	result := e.tracker.Analyze(sess.Expertise, expertise.Input{
		Response:        req.Response,
		Confidence:      req.Confidence,
		UpdateExpertise: req.UpdateExpertise,
		TrackingEnabled: caps.ExpertiseTracking,
	})

	var asked []string
	if persisted {
		asked, _ = e.store.RecentQuestions(sess.ID, followUpDedupeWindow)
	}
	followUps := templates.ConceptFollowUps(result.Concepts, asked, e.followUpLimit())
	followUpGenerated := len(followUps) > 0

	if persisted {
		warnings = append(warnings, e.persistAnalysis(sess.ID, req, result, followUpGenerated)...)
	}

	signals := len(result.TechnicalTerms) + len(result.Concepts)
	logging.Audit().ResponseAnalyzed(sess.ID, result.Quality, signals, followUpGenerated)
	if result.TierChanged {
		logging.Audit().TierChanged(sess.ID, sess.Domain.Domain,
			string(sess.Expertise.Tier), string(result.Level.Tier), string(result.Trigger))
	}
	atomic.AddInt64(&e.processed, 1)

	return &ResponseAnalysis{
		SessionID:         sess.ID,
		QuestionID:        req.QuestionID,
		Quality:           result.Quality,
		WordCount:         result.WordCount,
		Complexity:        result.Complexity,
		Insights:          result.Insights,
		Concepts:          result.Concepts,
		TechnicalTerms:    result.TechnicalTerms,
		Misunderstandings: result.Misunderstandings,
		Expertise:         result.Level,
		TierChanged:       result.TierChanged,
		Trigger:           result.Trigger,
		FollowUps:         followUps,
		FollowUpGenerated: followUpGenerated,
		Warnings:          warnings,
		Mode:              e.degrade.Mode(),
	}, nil
}

// sessionForProcessing resolves the session an answer belongs to. A
// missing session is recreated with a warning; a full store analyzes
// statelessly.
func (e *Engine) sessionForProcessing(id string) (memory.Session, bool, []string) {
	var warnings []string

	sess, err := e.store.Get(id)
	if err == nil {
		return sess, true, nil
	}

	sess, created, err := e.store.GetOrCreate(id, types.DomainContext{})
	if err != nil {
		e.degrade.ReportSessionFailure(err)
		warnings = append(warnings,
			"session store at capacity; this analysis will not be remembered")
		now := e.now()
		return memory.Session{
			ID:             id,
			Domain:         types.DomainContext{Domain: types.GeneralDomain},
			Expertise:      types.DefaultExpertise(types.GeneralDomain),
			Sophistication: types.DefaultSophistication(),
			CreatedAt:      now,
			LastActive:     now,
		}, false, warnings
	}
	if created {
		warnings = append(warnings, "session not found; a fresh session was started")
	}
	return sess, true, warnings
}

// persistAnalysis writes the response linkage and the moved estimate
// back to the store, converting failures into caller warnings.
func (e *Engine) persistAnalysis(sessionID string, req ProcessRequest, result expertise.Analysis, followUp bool) []string {
	var warnings []string

	if req.QuestionID == "" {
		warnings = append(warnings, "no question id supplied; response not linked to an interaction")
	} else if err := e.store.RecordResponse(sessionID, req.QuestionID, req.Response, result.Quality, followUp); err != nil {
		if errors.Is(err, memory.ErrInteractionNotFound) {
			warnings = append(warnings,
				fmt.Sprintf("question %s not found in this session; response not linked", req.QuestionID))
		} else {
			logging.ExpertiseWarn("session %s: response not recorded: %v", sessionID, err)
		}
	}

	if req.UpdateExpertise {
		if err := e.store.UpdateExpertise(sessionID, result.Level); err != nil {
			logging.ExpertiseWarn("session %s: expertise not updated: %v", sessionID, err)
		}
	}
	return warnings
}
