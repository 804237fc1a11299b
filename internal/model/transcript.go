package model

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation signals a programming error against the transcript's
// rules (e.g. patching a finalized turn). It is never swallowed: callers let
// it fail loudly so the defect surfaces in development.
var ErrInvariantViolation = errors.New("transcript invariant violation")

// Transcript is the ordered, in-memory history of one conversation.
//
// Invariants:
//   - turns are totally ordered by creation
//   - the first turn, if a system prompt is configured, has RoleSystem
//   - at most one turn has TurnInProgress status, and it is always the last
//
// The transcript itself is plain data with no locking; exclusivity is the
// owner's problem. One reconciler session mutates it per send operation, and
// the orchestrator rejects a second concurrent send against the same
// transcript, so reads from the presentation side never observe a torn turn.
type Transcript struct {
	turns []Turn
}

// NewTranscript creates a transcript, seeding a finalized system turn when
// systemPrompt is non-empty.
func NewTranscript(systemPrompt string) *Transcript {
	t := &Transcript{}
	if systemPrompt != "" {
		t.turns = append(t.turns, Turn{
			Role:    RoleSystem,
			Content: systemPrompt,
			Status:  TurnFinal,
		})
	}
	return t
}

// AppendTurn adds a turn at the end. Appending anything after an in-progress
// turn, or appending a turn with an unknown role or status, breaks the
// invariants and is rejected.
func (t *Transcript) AppendTurn(turn Turn) error {
	if !turn.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvariantViolation, turn.Role)
	}
	if turn.Status != TurnInProgress && turn.Status != TurnFinal {
		return fmt.Errorf("%w: unknown status %q", ErrInvariantViolation, turn.Status)
	}
	if last, ok := t.LastTurn(); ok && last.Status == TurnInProgress {
		return fmt.Errorf("%w: cannot append after an in-progress turn", ErrInvariantViolation)
	}
	t.turns = append(t.turns, turn)
	return nil
}

// UpdateLastTurn rewrites the trailing in-progress turn in place.
func (t *Transcript) UpdateLastTurn(patch TurnPatch) error {
	last := t.lastRef()
	if last == nil || last.Status != TurnInProgress {
		return fmt.Errorf("%w: no in-progress turn to update", ErrInvariantViolation)
	}
	last.Content = patch.Content
	last.Thinking = patch.Thinking
	if patch.TokensPerSecond != nil {
		last.TokensPerSecond = patch.TokensPerSecond
	}
	return nil
}

// FinalizeLastTurn freezes the trailing in-progress turn and returns a copy of
// its final state.
func (t *Transcript) FinalizeLastTurn() (Turn, error) {
	last := t.lastRef()
	if last == nil || last.Status != TurnInProgress {
		return Turn{}, fmt.Errorf("%w: no in-progress turn to finalize", ErrInvariantViolation)
	}
	last.Status = TurnFinal
	return *last, nil
}

// LastTurn returns a copy of the last turn, if any.
func (t *Transcript) LastTurn() (Turn, bool) {
	if len(t.turns) == 0 {
		return Turn{}, false
	}
	return t.turns[len(t.turns)-1], true
}

// HasInProgress reports whether a streaming turn is currently open.
func (t *Transcript) HasInProgress() bool {
	last, ok := t.LastTurn()
	return ok && last.Status == TurnInProgress
}

// Len returns the number of turns, system turn included.
func (t *Transcript) Len() int {
	return len(t.turns)
}

// Turns returns a copy of all turns in creation order.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// VisibleTurns returns all turns except a leading system turn. This is what
// the presentation layer renders.
func (t *Transcript) VisibleTurns() []Turn {
	turns := t.turns
	if len(turns) > 0 && turns[0].Role == RoleSystem {
		turns = turns[1:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// ForAPIPayload projects the transcript into role/content pairs for the
// upstream provider. Thinking traces are excluded; the raw Content as held in
// the transcript is sent as-is.
func (t *Transcript) ForAPIPayload() []PromptMessage {
	out := make([]PromptMessage, 0, len(t.turns))
	for _, turn := range t.turns {
		out = append(out, PromptMessage{Role: turn.Role, Content: turn.Content})
	}
	return out
}

func (t *Transcript) lastRef() *Turn {
	if len(t.turns) == 0 {
		return nil
	}
	return &t.turns[len(t.turns)-1]
}
