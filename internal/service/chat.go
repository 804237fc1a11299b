package service

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"bartuchat.app/server/common/id"
	"bartuchat.app/server/internal/chat"
	"bartuchat.app/server/internal/model"
	"bartuchat.app/server/internal/queue"
	"bartuchat.app/server/internal/store"
)

// ChatService is the entry point for send operations. It owns the
// orchestrator and adapts the store and queue layers to its interfaces.
type ChatService interface {
	Send(ctx context.Context, req chat.SendRequest, observer chat.StreamObserver) (chat.SendResult, error)
}

type chatService struct {
	orchestrator *chat.Orchestrator
}

func NewChatService(
	convStore store.ConversationStore,
	turnStore store.TurnStore,
	catalog CatalogService,
	attachments AttachmentService,
	producer queue.Producer,
	streams chat.StreamOpener,
	systemPrompt string,
) ChatService {
	repo := &chatRepo{convStore: convStore, turnStore: turnStore}
	titles := &titleRequester{producer: producer}
	return &chatService{
		orchestrator: chat.NewOrchestrator(repo, catalog, attachments, titles, streams, systemPrompt),
	}
}

func (s *chatService) Send(ctx context.Context, req chat.SendRequest, observer chat.StreamObserver) (chat.SendResult, error) {
	return s.orchestrator.Send(ctx, req, observer)
}

// chatRepo adapts the stores to the orchestrator's persistence contract,
// assigning snowflake IDs on the way in.
type chatRepo struct {
	convStore store.ConversationStore
	turnStore store.TurnStore
}

func (r *chatRepo) CreateConversation(ctx context.Context, conv model.Conversation) (model.Conversation, error) {
	conv.ID = id.New()
	if err := r.convStore.Create(ctx, &conv); err != nil {
		return model.Conversation{}, err
	}
	return conv, nil
}

func (r *chatRepo) GetConversationByURL(ctx context.Context, ownerID string, url string) (model.Conversation, error) {
	conv, err := r.convStore.GetByURL(ctx, ownerID, url)
	if err != nil {
		return model.Conversation{}, err
	}
	return *conv, nil
}

func (r *chatRepo) AppendTurn(ctx context.Context, rec model.TurnRecord) (model.TurnRecord, error) {
	rec.ID = id.New()
	if err := r.turnStore.Create(ctx, &rec); err != nil {
		return model.TurnRecord{}, err
	}
	return rec, nil
}

func (r *chatRepo) ListTurns(ctx context.Context, conversationID int64) ([]model.TurnRecord, error) {
	return r.turnStore.ListByConversation(ctx, conversationID)
}

// titleRequester hands naming work to the queue, carrying the trace across
// the process boundary.
type titleRequester struct {
	producer queue.Producer
}

func (t *titleRequester) RequestTitle(ctx context.Context, conversationID int64, ownerID string, firstMessage string, modelID string) error {
	job := queue.TitleJob{
		ConversationID: conversationID,
		OwnerID:        ownerID,
		FirstMessage:   firstMessage,
		Model:          modelID,
	}

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		traceID := sc.TraceID().String()
		job.TraceID = &traceID
	}

	return t.producer.Enqueue(ctx, job)
}
