package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"bartuchat.app/server/common/logger"
	"bartuchat.app/server/internal/model"
)

// ConversationRepo is the persistence surface the orchestrator needs. The
// store layer implements it over Postgres; tests implement it with func-field
// fakes.
type ConversationRepo interface {
	CreateConversation(ctx context.Context, conv model.Conversation) (model.Conversation, error)
	GetConversationByURL(ctx context.Context, ownerID string, url string) (model.Conversation, error)
	AppendTurn(ctx context.Context, rec model.TurnRecord) (model.TurnRecord, error)
	ListTurns(ctx context.Context, conversationID int64) ([]model.TurnRecord, error)
}

// ModelCatalog resolves a model selection to an upstream endpoint.
type ModelCatalog interface {
	Resolve(ctx context.Context, ownerID string, modelID string) (model.ResolvedModel, error)
}

// AttachmentFetcher loads attachments for prompt inlining and ties them to
// the message that carried them once it exists.
type AttachmentFetcher interface {
	Fetch(ctx context.Context, ownerID string, attachmentID int64) (model.Attachment, error)
	Link(ctx context.Context, attachmentID int64, messageID int64) error
}

// TitleRequester enqueues asynchronous conversation naming.
type TitleRequester interface {
	RequestTitle(ctx context.Context, conversationID int64, ownerID string, firstMessage string, modelID string) error
}

// StreamOpener opens a streaming completion against a resolved upstream.
type StreamOpener interface {
	OpenStream(ctx context.Context, resolved model.ResolvedModel, payload []model.PromptMessage) (StreamHandle, error)
}

// SendRequest is one user message headed for a conversation. An empty
// ConversationURL starts a new conversation.
type SendRequest struct {
	ConversationURL string
	OwnerID         string
	ModelID         string
	Message         string
	AttachmentIDs   []int64
}

// SendResult pairs the conversation (possibly freshly created) with the
// session's terminal result.
type SendResult struct {
	Conversation model.Conversation
	Result       Result
}

// Orchestrator sequences a full send operation: conversation lookup or
// creation, transcript hydration, prompt assembly with attachment inlining,
// upstream streaming through a reconciler session, and persistence of both
// sides of the exchange.
type Orchestrator struct {
	repo         ConversationRepo
	catalog      ModelCatalog
	attachments  AttachmentFetcher
	titles       TitleRequester
	streams      StreamOpener
	systemPrompt string

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewOrchestrator(
	repo ConversationRepo,
	catalog ModelCatalog,
	attachments AttachmentFetcher,
	titles TitleRequester,
	streams StreamOpener,
	systemPrompt string,
) *Orchestrator {
	return &Orchestrator{
		repo:         repo,
		catalog:      catalog,
		attachments:  attachments,
		titles:       titles,
		streams:      streams,
		systemPrompt: systemPrompt,
		inFlight:     make(map[string]struct{}),
	}
}

// Send runs one exchange end to end. The observer, when non-nil, receives
// every transcript mutation so the transport layer can re-frame deltas
// downstream while the stream is still running. At most one send per
// conversation may be in flight; a second concurrent send returns
// ErrSendInFlight.
func (o *Orchestrator) Send(ctx context.Context, req SendRequest, observer StreamObserver) (SendResult, error) {
	resolved, err := o.catalog.Resolve(ctx, req.OwnerID, req.ModelID)
	if err != nil {
		return SendResult{}, fmt.Errorf("resolve model: %w", err)
	}

	conv, created, err := o.getOrCreateConversation(ctx, req)
	if err != nil {
		return SendResult{}, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ConversationID:  logger.Ptr(conv.ID),
		ConversationURL: logger.Ptr(conv.URL),
		OwnerID:         logger.Ptr(req.OwnerID),
		Model:           logger.Ptr(req.ModelID),
	})

	if !o.acquire(conv.URL) {
		return SendResult{}, ErrSendInFlight
	}
	defer o.release(conv.URL)

	transcript, err := o.Hydrate(ctx, conv.ID)
	if err != nil {
		return SendResult{}, fmt.Errorf("hydrate transcript: %w", err)
	}

	augmented := o.inlineAttachments(ctx, req)
	if err := transcript.AppendTurn(model.Turn{
		Role:    model.RoleUser,
		Content: augmented,
		Status:  model.TurnFinal,
	}); err != nil {
		return SendResult{}, fmt.Errorf("append user turn: %w", err)
	}

	// The raw message is what the user typed; the inlined attachment block
	// exists only in the upstream payload.
	userRec, err := o.repo.AppendTurn(ctx, model.TurnRecord{
		ConversationID: conv.ID,
		OwnerID:        req.OwnerID,
		Content:        req.Message,
		Model:          req.ModelID,
		Sender:         model.RoleUser,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to persist user turn", "error", err)
	} else {
		for _, attID := range req.AttachmentIDs {
			if err := o.attachments.Link(ctx, attID, userRec.ID); err != nil {
				slog.WarnContext(ctx, "failed to link attachment", "attachment_id", attID, "error", err)
			}
		}
	}

	handle, err := o.streams.OpenStream(ctx, resolved, transcript.ForAPIPayload())
	if err != nil {
		return SendResult{}, fmt.Errorf("open upstream stream: %w", err)
	}

	session := NewSession(transcript, handle, WithObserver(observer))
	stop := context.AfterFunc(ctx, session.Cancel)
	result := session.Run(ctx, handle)
	stop()

	o.persistAssistantTurn(ctx, conv, req, result)

	if created {
		if err := o.titles.RequestTitle(ctx, conv.ID, req.OwnerID, req.Message, req.ModelID); err != nil {
			slog.WarnContext(ctx, "failed to enqueue title generation", "error", err)
		}
	}

	if result.Outcome == OutcomeFailed {
		return SendResult{Conversation: conv, Result: result}, fmt.Errorf("stream failed: %w", result.Err)
	}
	return SendResult{Conversation: conv, Result: result}, nil
}

// Hydrate rebuilds a transcript from persisted turns. Assistant rows store
// raw upstream output, so the thinking split is re-derived here rather than
// read from a column.
func (o *Orchestrator) Hydrate(ctx context.Context, conversationID int64) (*model.Transcript, error) {
	records, err := o.repo.ListTurns(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	transcript := model.NewTranscript(o.systemPrompt)
	for _, rec := range records {
		turn := model.Turn{
			ID:              rec.ID,
			Role:            rec.Sender,
			Content:         rec.Content,
			Status:          model.TurnFinal,
			TokensPerSecond: rec.TokensPerSecond,
			CreatedAt:       rec.CreatedAt,
		}
		if rec.Sender == model.RoleAssistant {
			thinking, answer := SplitThinking(rec.Content)
			turn.Thinking = thinking
			turn.Content = answer
		}
		if err := transcript.AppendTurn(turn); err != nil {
			return nil, fmt.Errorf("hydrate turn %d: %w", rec.ID, err)
		}
	}
	return transcript, nil
}

func (o *Orchestrator) getOrCreateConversation(ctx context.Context, req SendRequest) (model.Conversation, bool, error) {
	if req.ConversationURL != "" {
		conv, err := o.repo.GetConversationByURL(ctx, req.OwnerID, req.ConversationURL)
		if err != nil {
			return model.Conversation{}, false, fmt.Errorf("lookup conversation: %w", err)
		}
		return conv, false, nil
	}

	conv, err := o.repo.CreateConversation(ctx, model.Conversation{
		OwnerID: req.OwnerID,
		URL:     uuid.NewString(),
	})
	if err != nil {
		return model.Conversation{}, false, fmt.Errorf("create conversation: %w", err)
	}
	return conv, true, nil
}

// inlineAttachments appends a fenced block per attachment to the outgoing
// message. A fetch failure degrades to a placeholder instead of failing the
// send.
func (o *Orchestrator) inlineAttachments(ctx context.Context, req SendRequest) string {
	if len(req.AttachmentIDs) == 0 {
		return req.Message
	}

	var b strings.Builder
	b.WriteString(req.Message)
	b.WriteString("\n\n**Attached Files:**\n")
	for _, id := range req.AttachmentIDs {
		att, err := o.attachments.Fetch(ctx, req.OwnerID, id)
		if err != nil {
			slog.WarnContext(ctx, "failed to load attachment", "attachment_id", id, "error", err)
			b.WriteString("(Error loading file)\n")
			continue
		}
		content := ""
		if att.Content != nil {
			content = *att.Content
		}
		fmt.Fprintf(&b, "**%s:**\n```\n%s\n```\n", att.FileName, content)
	}
	return b.String()
}

// persistAssistantTurn writes the assistant's side of the exchange. Cancelled
// sessions keep their partial answer; failed sessions produced nothing worth
// keeping. The write is retried once since losing a fully streamed answer is
// the worst outcome here.
func (o *Orchestrator) persistAssistantTurn(ctx context.Context, conv model.Conversation, req SendRequest, result Result) {
	if result.Outcome == OutcomeFailed || result.Raw == "" {
		return
	}

	rec := model.TurnRecord{
		ConversationID:  conv.ID,
		OwnerID:         req.OwnerID,
		Content:         result.Raw,
		Model:           req.ModelID,
		Sender:          model.RoleAssistant,
		TokensPerSecond: result.TokensPerSecond,
	}
	_, err := o.repo.AppendTurn(ctx, rec)
	if err != nil {
		slog.WarnContext(ctx, "assistant turn write failed, retrying once", "error", err)
		if _, err = o.repo.AppendTurn(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "failed to persist assistant turn", "error", err)
		}
	}
}

func (o *Orchestrator) acquire(url string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inFlight[url]; busy {
		return false
	}
	o.inFlight[url] = struct{}{}
	return true
}

func (o *Orchestrator) release(url string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, url)
}
