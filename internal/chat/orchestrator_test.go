package chat_test

import (
	"context"
	"errors"
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"bartuchat.app/server/internal/chat"
	"bartuchat.app/server/internal/model"
)

var _ = Describe("Orchestrator", func() {
	var (
		repo        *mockRepo
		catalog     *mockCatalog
		attachments *mockAttachments
		titles      *mockTitles
		streams     *mockStreams

		persisted     []model.TurnRecord
		titleRequests int
		existing      model.Conversation
		history       []model.TurnRecord
	)

	resolved := model.ResolvedModel{
		EndpointURL:     "https://llm.example.com/v1",
		Credential:      "sk-test",
		UpstreamModelID: "qwen3",
	}

	newOrchestrator := func() *chat.Orchestrator {
		return chat.NewOrchestrator(repo, catalog, attachments, titles, streams, "You are helpful.")
	}

	BeforeEach(func() {
		persisted = nil
		titleRequests = 0
		history = nil
		existing = model.Conversation{ID: 42, OwnerID: "user_1", URL: "abc-123"}

		repo = &mockRepo{
			createConversationFn: func(ctx context.Context, conv model.Conversation) (model.Conversation, error) {
				conv.ID = 99
				return conv, nil
			},
			getConversationByURLFn: func(ctx context.Context, ownerID, url string) (model.Conversation, error) {
				if url == existing.URL && ownerID == existing.OwnerID {
					return existing, nil
				}
				return model.Conversation{}, errors.New("not found")
			},
			appendTurnFn: func(ctx context.Context, rec model.TurnRecord) (model.TurnRecord, error) {
				rec.ID = int64(len(persisted) + 1)
				persisted = append(persisted, rec)
				return rec, nil
			},
			listTurnsFn: func(ctx context.Context, conversationID int64) ([]model.TurnRecord, error) {
				return history, nil
			},
		}
		catalog = &mockCatalog{
			resolveFn: func(ctx context.Context, ownerID, modelID string) (model.ResolvedModel, error) {
				return resolved, nil
			},
		}
		attachments = &mockAttachments{
			fetchFn: func(ctx context.Context, ownerID string, attachmentID int64) (model.Attachment, error) {
				return model.Attachment{}, errors.New("unexpected fetch")
			},
		}
		titles = &mockTitles{
			requestTitleFn: func(ctx context.Context, conversationID int64, ownerID, firstMessage, modelID string) error {
				titleRequests++
				return nil
			},
		}
		streams = &mockStreams{
			openStreamFn: func(ctx context.Context, r model.ResolvedModel, payload []model.PromptMessage) (chat.StreamHandle, error) {
				return &scriptedSource{deltas: []string{"<think>ok</think>", "Hi!"}}, nil
			},
		}
	})

	It("runs a full exchange for a new conversation", func() {
		res, err := newOrchestrator().Send(context.Background(), chat.SendRequest{
			OwnerID: "user_1",
			ModelID: "qwen3",
			Message: "hello",
		}, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Conversation.ID).To(Equal(int64(99)))
		Expect(res.Conversation.URL).NotTo(BeEmpty())
		Expect(res.Result.Outcome).To(Equal(chat.OutcomeFinalized))
		Expect(res.Result.Turn.Content).To(Equal("Hi!"))
		Expect(*res.Result.Turn.Thinking).To(Equal("ok"))

		Expect(persisted).To(HaveLen(2))
		Expect(persisted[0].Sender).To(Equal(model.RoleUser))
		Expect(persisted[0].Content).To(Equal("hello"))
		Expect(persisted[1].Sender).To(Equal(model.RoleAssistant))
		Expect(persisted[1].Content).To(Equal("<think>ok</think>Hi!"))
		Expect(titleRequests).To(Equal(1))
	})

	It("hydrates history and sends the full payload upstream", func() {
		history = []model.TurnRecord{
			{ID: 1, Sender: model.RoleUser, Content: "earlier question"},
			{ID: 2, Sender: model.RoleAssistant, Content: "<think>hm</think>earlier answer"},
		}
		var payload []model.PromptMessage
		streams.openStreamFn = func(ctx context.Context, r model.ResolvedModel, p []model.PromptMessage) (chat.StreamHandle, error) {
			payload = p
			return &scriptedSource{deltas: []string{"next"}}, nil
		}

		_, err := newOrchestrator().Send(context.Background(), chat.SendRequest{
			ConversationURL: existing.URL,
			OwnerID:         "user_1",
			ModelID:         "qwen3",
			Message:         "follow up",
		}, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(payload).To(HaveLen(4))
		Expect(payload[0].Role).To(Equal(model.RoleSystem))
		Expect(payload[1].Content).To(Equal("earlier question"))
		// hydration strips thinking markup before the turn goes back upstream
		Expect(payload[2].Content).To(Equal("earlier answer"))
		Expect(payload[3].Content).To(Equal("follow up"))
		Expect(titleRequests).To(BeZero())
	})

	It("inlines attachment content into the upstream payload only", func() {
		content := "package main"
		attachments.fetchFn = func(ctx context.Context, ownerID string, id int64) (model.Attachment, error) {
			if id == 7 {
				return model.Attachment{FileName: "main.go", Content: &content}, nil
			}
			return model.Attachment{}, errors.New("missing")
		}
		var linked []int64
		attachments.linkFn = func(ctx context.Context, attID, msgID int64) error {
			linked = append(linked, attID)
			return nil
		}
		var payload []model.PromptMessage
		streams.openStreamFn = func(ctx context.Context, r model.ResolvedModel, p []model.PromptMessage) (chat.StreamHandle, error) {
			payload = p
			return &scriptedSource{deltas: []string{"ok"}}, nil
		}

		_, err := newOrchestrator().Send(context.Background(), chat.SendRequest{
			ConversationURL: existing.URL,
			OwnerID:         "user_1",
			ModelID:         "qwen3",
			Message:         "review this",
			AttachmentIDs:   []int64{7, 8},
		}, nil)

		Expect(err).NotTo(HaveOccurred())
		sent := payload[len(payload)-1].Content
		Expect(sent).To(ContainSubstring("**Attached Files:**"))
		Expect(sent).To(ContainSubstring("**main.go:**\n```\npackage main\n```"))
		Expect(sent).To(ContainSubstring("(Error loading file)"))
		// the persisted user turn keeps only what the user typed
		Expect(persisted[0].Content).To(Equal("review this"))
		Expect(linked).To(Equal([]int64{7, 8}))
	})

	It("rejects a concurrent send to the same conversation", func() {
		orch := newOrchestrator()
		var second error
		streams.openStreamFn = func(ctx context.Context, r model.ResolvedModel, p []model.PromptMessage) (chat.StreamHandle, error) {
			_, second = orch.Send(ctx, chat.SendRequest{
				ConversationURL: existing.URL,
				OwnerID:         "user_1",
				ModelID:         "qwen3",
				Message:         "again",
			}, nil)
			return &scriptedSource{deltas: []string{"ok"}}, nil
		}

		_, err := orch.Send(context.Background(), chat.SendRequest{
			ConversationURL: existing.URL,
			OwnerID:         "user_1",
			ModelID:         "qwen3",
			Message:         "first",
		}, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(MatchError(chat.ErrSendInFlight))
	})

	It("fails fast when the model cannot be resolved", func() {
		catalog.resolveFn = func(ctx context.Context, ownerID, modelID string) (model.ResolvedModel, error) {
			return model.ResolvedModel{}, errors.New("unknown model")
		}
		_, err := newOrchestrator().Send(context.Background(), chat.SendRequest{
			OwnerID: "user_1", ModelID: "nope", Message: "hi",
		}, nil)
		Expect(err).To(MatchError(ContainSubstring("resolve model")))
		Expect(persisted).To(BeEmpty())
	})

	It("continues the stream when persisting the user turn fails", func() {
		calls := 0
		repo.appendTurnFn = func(ctx context.Context, rec model.TurnRecord) (model.TurnRecord, error) {
			calls++
			if rec.Sender == model.RoleUser {
				return model.TurnRecord{}, errors.New("db down")
			}
			persisted = append(persisted, rec)
			return rec, nil
		}

		res, err := newOrchestrator().Send(context.Background(), chat.SendRequest{
			ConversationURL: existing.URL,
			OwnerID:         "user_1",
			ModelID:         "qwen3",
			Message:         "hi",
		}, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Result.Outcome).To(Equal(chat.OutcomeFinalized))
		Expect(persisted).To(HaveLen(1))
		Expect(persisted[0].Sender).To(Equal(model.RoleAssistant))
	})

	It("retries the assistant write once before giving up", func() {
		assistantCalls := 0
		repo.appendTurnFn = func(ctx context.Context, rec model.TurnRecord) (model.TurnRecord, error) {
			if rec.Sender == model.RoleAssistant {
				assistantCalls++
				if assistantCalls == 1 {
					return model.TurnRecord{}, errors.New("transient")
				}
			}
			persisted = append(persisted, rec)
			return rec, nil
		}

		_, err := newOrchestrator().Send(context.Background(), chat.SendRequest{
			ConversationURL: existing.URL,
			OwnerID:         "user_1",
			ModelID:         "qwen3",
			Message:         "hi",
		}, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(assistantCalls).To(Equal(2))
		Expect(persisted).To(HaveLen(2))
	})

	It("surfaces stream failures but keeps nothing unpersisted silently", func() {
		boom := errors.New("upstream 500")
		streams.openStreamFn = func(ctx context.Context, r model.ResolvedModel, p []model.PromptMessage) (chat.StreamHandle, error) {
			return &scriptedSource{err: boom}, nil
		}

		res, err := newOrchestrator().Send(context.Background(), chat.SendRequest{
			ConversationURL: existing.URL,
			OwnerID:         "user_1",
			ModelID:         "qwen3",
			Message:         "hi",
		}, nil)

		Expect(err).To(MatchError(boom))
		Expect(res.Result.Outcome).To(Equal(chat.OutcomeFailed))
		// only the user turn made it to storage
		Expect(persisted).To(HaveLen(1))
		Expect(persisted[0].Sender).To(Equal(model.RoleUser))
	})

	It("persists the partial answer of a cancelled stream", func() {
		ctx, cancel := context.WithCancel(context.Background())
		var src *scriptedSource
		src = &scriptedSource{
			deltas: []string{"partial answer", " never seen"},
			closed: make(chan struct{}),
			onNext: func(i int) {
				if i == 1 {
					cancel()
					// wait for cancellation to close the transport so the
					// session has observed it before the next delta lands
					<-src.closed
				}
			},
		}
		streams.openStreamFn = func(ctx context.Context, r model.ResolvedModel, p []model.PromptMessage) (chat.StreamHandle, error) {
			return src, nil
		}

		res, err := newOrchestrator().Send(ctx, chat.SendRequest{
			ConversationURL: existing.URL,
			OwnerID:         "user_1",
			ModelID:         "qwen3",
			Message:         "hi",
		}, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Result.Outcome).To(Equal(chat.OutcomeCancelled))
		Expect(persisted).To(HaveLen(2))
		Expect(persisted[1].Sender).To(Equal(model.RoleAssistant))
		Expect(persisted[1].Content).To(Equal("partial answer"))
	})

	It("propagates upstream connection errors", func() {
		streams.openStreamFn = func(ctx context.Context, r model.ResolvedModel, p []model.PromptMessage) (chat.StreamHandle, error) {
			return nil, &chat.TransportError{Status: 502, Err: io.ErrUnexpectedEOF}
		}
		_, err := newOrchestrator().Send(context.Background(), chat.SendRequest{
			ConversationURL: existing.URL,
			OwnerID:         "user_1",
			ModelID:         "qwen3",
			Message:         "hi",
		}, nil)

		var terr *chat.TransportError
		Expect(errors.As(err, &terr)).To(BeTrue())
		Expect(terr.Status).To(Equal(502))
	})
})
