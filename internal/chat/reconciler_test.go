package chat_test

import (
	"context"
	"errors"
	"io"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"bartuchat.app/server/internal/chat"
	"bartuchat.app/server/internal/model"
)

var _ = Describe("Session", func() {
	var (
		transcript *model.Transcript
		transport  *closeCounter
	)

	BeforeEach(func() {
		transcript = model.NewTranscript("system prompt")
		transport = &closeCounter{}
	})

	It("folds deltas into a single in-progress turn and finalizes on EOF", func() {
		var snapshots []model.Turn
		session := chat.NewSession(transcript, transport,
			chat.WithObserver(func(turn model.Turn, delta string) {
				snapshots = append(snapshots, turn)
			}))

		src := &scriptedSource{deltas: []string{"Hel", "lo", " there"}}
		result := session.Run(context.Background(), src)

		Expect(result.Outcome).To(Equal(chat.OutcomeFinalized))
		Expect(result.Raw).To(Equal("Hello there"))
		Expect(result.DeltaCount).To(Equal(3))
		Expect(result.HasTurn).To(BeTrue())
		Expect(result.Turn.Content).To(Equal("Hello there"))
		Expect(result.Turn.Status).To(Equal(model.TurnFinal))
		Expect(session.State()).To(Equal(chat.StateFinalized))

		// three streaming snapshots plus the finalize notification
		Expect(snapshots).To(HaveLen(4))
		Expect(snapshots[0].Content).To(Equal("Hel"))
		Expect(snapshots[0].Status).To(Equal(model.TurnInProgress))
		Expect(snapshots[3].Status).To(Equal(model.TurnFinal))

		Expect(transcript.HasInProgress()).To(BeFalse())
		Expect(transport.closed).To(Equal(1))
	})

	It("re-splits thinking markup as it completes", func() {
		session := chat.NewSession(transcript, transport)
		src := &scriptedSource{deltas: []string{"<think>hm", "m</think>", "Answer."}}
		result := session.Run(context.Background(), src)

		Expect(result.Outcome).To(Equal(chat.OutcomeFinalized))
		Expect(result.Raw).To(Equal("<think>hmm</think>Answer."))
		Expect(result.Turn.Thinking).NotTo(BeNil())
		Expect(*result.Turn.Thinking).To(Equal("hmm"))
		Expect(result.Turn.Content).To(Equal("Answer."))
	})

	It("does not touch the transcript when no delta ever arrives", func() {
		session := chat.NewSession(transcript, transport)
		result := session.Run(context.Background(), &scriptedSource{})

		Expect(result.Outcome).To(Equal(chat.OutcomeFinalized))
		Expect(result.Raw).To(Equal(""))
		Expect(result.HasTurn).To(BeFalse())
		Expect(transcript.Len()).To(Equal(1)) // just the system turn
		Expect(transport.closed).To(Equal(1))
	})

	It("measures throughput from the first delta", func() {
		base := time.Unix(1000, 0)
		ticks := []time.Duration{0, time.Second, 2 * time.Second}
		call := 0
		session := chat.NewSession(transcript, transport,
			chat.WithClock(func() time.Time {
				t := base.Add(ticks[call])
				call++
				return t
			}))

		src := &scriptedSource{deltas: []string{"a", "b", "c"}}
		result := session.Run(context.Background(), src)

		Expect(result.TokensPerSecond).NotTo(BeNil())
		// 3 deltas over the 2 seconds since the first one
		Expect(*result.TokensPerSecond).To(BeNumerically("~", 1.5, 1e-9))
		Expect(result.Turn.TokensPerSecond).To(Equal(result.TokensPerSecond))
	})

	It("keeps the partial answer when the transport fails mid-stream", func() {
		session := chat.NewSession(transcript, transport)
		boom := errors.New("connection reset")
		src := &scriptedSource{deltas: []string{"partial "}, err: boom}
		result := session.Run(context.Background(), src)

		Expect(result.Outcome).To(Equal(chat.OutcomeFailed))
		Expect(result.Err).To(MatchError(boom))
		Expect(result.HasTurn).To(BeTrue())
		Expect(result.Turn.Content).To(Equal("partial"))
		Expect(result.Turn.Status).To(Equal(model.TurnFinal))
		Expect(session.State()).To(Equal(chat.StateFailed))
		Expect(transport.closed).To(Equal(1))
	})

	It("stops applying buffered deltas after cancellation", func() {
		var session *chat.Session
		src := &scriptedSource{
			deltas: []string{"kept", " dropped"},
			onNext: func(i int) {
				if i == 1 {
					session.Cancel()
				}
			},
		}
		session = chat.NewSession(transcript, transport)
		result := session.Run(context.Background(), src)

		Expect(result.Outcome).To(Equal(chat.OutcomeCancelled))
		Expect(result.Raw).To(Equal("kept"))
		Expect(result.HasTurn).To(BeTrue())
		Expect(result.Turn.Content).To(Equal("kept"))
		Expect(result.Turn.Status).To(Equal(model.TurnFinal))
		Expect(session.State()).To(Equal(chat.StateCancelled))
	})

	It("treats a transport error after cancellation as cancellation", func() {
		session := chat.NewSession(transcript, transport)
		session.Cancel()
		src := &scriptedSource{err: errors.New("use of closed network connection")}
		result := session.Run(context.Background(), src)

		Expect(result.Outcome).To(Equal(chat.OutcomeCancelled))
		Expect(result.Err).To(BeNil())
	})

	It("releases the transport exactly once even when Cancel races finish", func() {
		session := chat.NewSession(transcript, transport)
		session.Cancel()
		session.Cancel()
		result := session.Run(context.Background(), &scriptedSource{err: io.EOF})

		Expect(result.Outcome).To(Equal(chat.OutcomeCancelled))
		Expect(transport.closed).To(Equal(1))
	})
})
