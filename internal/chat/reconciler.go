package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"bartuchat.app/server/common/logger"
	"bartuchat.app/server/internal/model"
)

// SessionState is the reconciler's position in its lifecycle.
type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateStreaming SessionState = "streaming"
	StateFinalized SessionState = "finalized"
	StateCancelled SessionState = "cancelled"
	StateFailed    SessionState = "failed"
)

// Outcome is how a streaming session ended.
type Outcome string

const (
	OutcomeFinalized Outcome = "finalized"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)

// Result is the terminal state of one streaming session. Raw holds the full
// accumulated upstream text, thinking markup included; Turn is the finalized
// assistant turn (zero value when no delta ever arrived). Err carries the
// cause on the failed outcome and is kept structurally separate from the
// turn's content.
type Result struct {
	Outcome         Outcome
	Raw             string
	Turn            model.Turn
	HasTurn         bool
	DeltaCount      int
	TokensPerSecond *float64
	Err             error
}

// StreamObserver is notified after every transcript mutation with a snapshot
// of the trailing assistant turn and the delta that caused it. The final
// notification carries an empty delta and the finalized turn.
type StreamObserver func(turn model.Turn, delta string)

// Session folds a stream of content deltas into transcript mutations plus
// derived throughput, and guarantees a clean terminal state on every exit
// path: natural completion, cancellation, transport failure, or an internal
// invariant violation.
//
// A session owns its transcript for the duration of one send operation; all
// mutations flow through Apply and the finish path, never concurrently.
// Cancel is the only method safe to call from another goroutine.
type Session struct {
	transcript *model.Transcript
	transport  io.Closer
	observer   StreamObserver
	now        func() time.Time

	state      SessionState
	buf        []byte
	deltaCount int
	firstDelta time.Time
	tps        *float64

	cancelled atomic.Bool
	closeOnce sync.Once
}

type SessionOption func(*Session)

// WithObserver subscribes the presentation side to turn updates.
func WithObserver(fn StreamObserver) SessionOption {
	return func(s *Session) { s.observer = fn }
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession creates a reconciler session over the given transcript and
// transport resource. The transport is released exactly once, on whichever
// exit path ends the session.
func NewSession(transcript *model.Transcript, transport io.Closer, opts ...SessionOption) *Session {
	s := &Session{
		transcript: transcript,
		transport:  transport,
		state:      StateIdle,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() SessionState {
	return s.state
}

// Cancel requests cooperative cancellation: the transport is released
// immediately, which unblocks the decoder within one read cycle. Idempotent,
// and a no-op when the session already ended naturally.
func (s *Session) Cancel() {
	if s.cancelled.Swap(true) {
		return
	}
	s.releaseTransport()
}

// Run drives the session until a terminal state: applies every delta from the
// source in arrival order, then finishes according to how the source ended.
// Buffered deltas that arrive after cancellation are not processed.
func (s *Session) Run(ctx context.Context, src DeltaSource) Result {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "chat.reconciler"})

	for {
		delta, err := src.Next(ctx)
		if err != nil {
			if s.cancelled.Load() {
				return s.finish(ctx, OutcomeCancelled, nil)
			}
			if errors.Is(err, io.EOF) {
				return s.finish(ctx, OutcomeFinalized, nil)
			}
			return s.finish(ctx, OutcomeFailed, err)
		}

		if s.cancelled.Load() {
			return s.finish(ctx, OutcomeCancelled, nil)
		}

		if err := s.apply(delta); err != nil {
			// Invariant violations are defects; fail the session loudly
			// rather than papering over them.
			slog.ErrorContext(ctx, "reconciler invariant violation", "error", err)
			return s.finish(ctx, OutcomeFailed, err)
		}
	}
}

// apply is the single transcript update path: accumulate, re-split, patch or
// open the trailing assistant turn, recompute throughput.
func (s *Session) apply(delta string) error {
	s.state = StateStreaming
	s.buf = append(s.buf, delta...)
	s.deltaCount++

	if s.firstDelta.IsZero() {
		s.firstDelta = s.now()
	} else if elapsed := s.now().Sub(s.firstDelta).Seconds(); elapsed > 0 {
		tps := float64(s.deltaCount) / elapsed
		s.tps = &tps
	}

	thinking, answer := SplitThinking(string(s.buf))
	patch := model.TurnPatch{
		Content:         answer,
		Thinking:        thinking,
		TokensPerSecond: s.tps,
	}

	if s.transcript.HasInProgress() {
		if err := s.transcript.UpdateLastTurn(patch); err != nil {
			return err
		}
	} else {
		if err := s.transcript.AppendTurn(model.Turn{
			Role:            model.RoleAssistant,
			Content:         answer,
			Thinking:        thinking,
			Status:          model.TurnInProgress,
			TokensPerSecond: s.tps,
		}); err != nil {
			return err
		}
	}

	if s.observer != nil {
		if turn, ok := s.transcript.LastTurn(); ok {
			s.observer(turn, delta)
		}
	}
	return nil
}

// finish moves the session to a terminal state: release the transport, re-run
// the splitter over the full buffer, freeze the in-progress turn. Partial
// content is kept on every path, cancellation and failure included, so a user
// never loses an answer that already streamed in.
func (s *Session) finish(ctx context.Context, outcome Outcome, cause error) Result {
	s.releaseTransport()

	result := Result{
		Outcome:         outcome,
		Raw:             string(s.buf),
		DeltaCount:      s.deltaCount,
		TokensPerSecond: s.tps,
		Err:             cause,
	}

	if s.transcript.HasInProgress() {
		thinking, answer := SplitThinking(string(s.buf))
		if err := s.transcript.UpdateLastTurn(model.TurnPatch{
			Content:         answer,
			Thinking:        thinking,
			TokensPerSecond: s.tps,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to apply final split", "error", err)
		}
		turn, err := s.transcript.FinalizeLastTurn()
		if err != nil {
			slog.ErrorContext(ctx, "failed to finalize turn", "error", err)
		} else {
			result.Turn = turn
			result.HasTurn = true
			if s.observer != nil {
				s.observer(turn, "")
			}
		}
	}

	switch outcome {
	case OutcomeFinalized:
		s.state = StateFinalized
	case OutcomeCancelled:
		s.state = StateCancelled
	case OutcomeFailed:
		s.state = StateFailed
	}

	slog.DebugContext(ctx, "stream session ended",
		"outcome", string(outcome),
		"deltas", s.deltaCount,
		"bytes", len(s.buf))

	return result
}

func (s *Session) releaseTransport() {
	s.closeOnce.Do(func() {
		if s.transport != nil {
			if err := s.transport.Close(); err != nil {
				slog.Debug("transport close", "error", err)
			}
		}
	})
}
