// Package interview drives the staged Socratic conversation: framing
// (category selection), inquiry (question loop), research, and
// generation. The controller owns one conversation and delegates
// question work to the engine.
package interview

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"socratic/internal/types"
)

// Stage is the conversation's position in the workflow.
type Stage string

const (
	StageFraming    Stage = "framing"    // picking a workflow category
	StageInquiry    Stage = "inquiry"    // the Socratic question loop
	StageResearch   Stage = "research"   // consolidating findings
	StageGeneration Stage = "generation" // producing the workflow outline
)

// stageOrder fixes the forward progression for AdvanceStage.
var stageOrder = []Stage{StageFraming, StageInquiry, StageResearch, StageGeneration}

// Next returns the following stage, clamped at generation.
func (s Stage) Next() Stage {
	for i, st := range stageOrder {
		if st == s && i < len(stageOrder)-1 {
			return stageOrder[i+1]
		}
	}
	return StageGeneration
}

// Entry is one utterance in the conversation transcript.
type Entry struct {
	Role    string    `json:"role"` // "user" or "assistant"
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// State is the exportable conversation record. The controller mutates it
// under its own lock; snapshots returned to callers are deep copies.
type State struct {
	SessionID        string    `json:"session_id,omitempty"`
	FirstInteraction bool      `json:"first_interaction"`
	Stage            Stage     `json:"stage"`
	Category         string    `json:"category,omitempty"`
	UserGoal         string    `json:"user_goal,omitempty"`
	History          []Entry   `json:"history,omitempty"`
	Concepts         []string  `json:"concepts,omitempty"`
	Depth            int       `json:"depth"`
	LastQuestionID   string    `json:"last_question_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func newState(now time.Time) State {
	return State{
		FirstInteraction: true,
		Stage:            StageFraming,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (s *State) clone() State {
	out := *s
	if len(s.History) > 0 {
		out.History = append([]Entry(nil), s.History...)
	}
	if len(s.Concepts) > 0 {
		out.Concepts = append([]string(nil), s.Concepts...)
	}
	return out
}

func (s *State) addEntry(role, message string, now time.Time) {
	s.History = append(s.History, Entry{Role: role, Message: message, At: now})
	s.UpdatedAt = now
}

// addConcepts merges new concepts, first occurrence wins.
func (s *State) addConcepts(concepts []string, now time.Time) {
	if len(concepts) == 0 {
		return
	}
	seen := make(map[string]struct{}, len(s.Concepts))
	for _, c := range s.Concepts {
		seen[c] = struct{}{}
	}
	for _, c := range concepts {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		s.Concepts = append(s.Concepts, c)
	}
	s.UpdatedAt = now
}

// stateBox pairs the state with its lock so the controller and the
// export methods share one synchronization point.
type stateBox struct {
	mu    sync.Mutex
	state State
	now   types.Clock
}

func newStateBox(now types.Clock) *stateBox {
	if now == nil {
		now = time.Now
	}
	return &stateBox{state: newState(now()), now: now}
}

func (b *stateBox) snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.clone()
}

func (b *stateBox) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = newState(b.now())
}

// exportJSON serializes the conversation for the host to stash.
func (b *stateBox) exportJSON() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, err := json.MarshalIndent(b.state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export interview state: %w", err)
	}
	return data, nil
}

// importJSON restores a previously exported conversation.
func (b *stateBox) importJSON(data []byte) error {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("import interview state: %w", err)
	}
	if st.Stage == "" {
		st.Stage = StageFraming
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	st.UpdatedAt = b.now()
	b.state = st
	return nil
}
