package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bartuchat.app/server/common/logger"
	"bartuchat.app/server/core/config"
	"bartuchat.app/server/internal/model"
	"bartuchat.app/server/internal/queue"
	"bartuchat.app/server/internal/store"
)

// TitleGenerator produces a short conversation title from the opening
// message.
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, resolved model.ResolvedModel, firstMessage string) (string, error)
}

// TitleService processes queued title jobs on the worker. Naming is
// best-effort: a job that keeps failing ends with a deterministic fallback
// name rather than a nameless conversation.
type TitleService interface {
	Process(ctx context.Context, msg queue.Message) error
}

type titleService struct {
	convStore   store.ConversationStore
	catalog     CatalogService
	generator   TitleGenerator
	titleCfg    config.TitleLLMConfig
	maxAttempts int
}

func NewTitleService(
	convStore store.ConversationStore,
	catalog CatalogService,
	generator TitleGenerator,
	titleCfg config.TitleLLMConfig,
	maxAttempts int,
) TitleService {
	return &titleService{
		convStore:   convStore,
		catalog:     catalog,
		generator:   generator,
		titleCfg:    titleCfg,
		maxAttempts: maxAttempts,
	}
}

func (s *titleService) Process(ctx context.Context, msg queue.Message) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ConversationID: logger.Ptr(msg.ConversationID),
		OwnerID:        logger.Ptr(msg.OwnerID),
		Component:      "service.title",
	})

	conv, err := s.convStore.GetByID(ctx, msg.ConversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Conversation deleted while the job was queued.
			slog.InfoContext(ctx, "skipping title job for missing conversation")
			return nil
		}
		return fmt.Errorf("loading conversation: %w", err)
	}

	if conv.Name != "" {
		// Already named, possibly by the user while the job waited.
		return nil
	}

	resolved, err := s.resolveTitleModel(ctx, msg)
	if err != nil {
		return s.giveUpOrRetry(ctx, conv, msg, fmt.Errorf("resolving title model: %w", err))
	}

	title, err := s.generator.GenerateTitle(ctx, resolved, msg.FirstMessage)
	if err != nil {
		return s.giveUpOrRetry(ctx, conv, msg, fmt.Errorf("generating title: %w", err))
	}

	if err := s.convStore.UpdateName(ctx, conv.ID, title); err != nil {
		return fmt.Errorf("saving title: %w", err)
	}

	slog.InfoContext(ctx, "conversation titled", "title", title, "attempt", msg.Attempt)
	return nil
}

// resolveTitleModel prefers the dedicated title model when configured and
// falls back to the model the conversation itself used.
func (s *titleService) resolveTitleModel(ctx context.Context, msg queue.Message) (model.ResolvedModel, error) {
	if s.titleCfg.Enabled() {
		return model.ResolvedModel{
			EndpointURL:     s.titleCfg.BaseURL,
			Credential:      s.titleCfg.APIKey,
			UpstreamModelID: s.titleCfg.Model,
		}, nil
	}
	return s.catalog.Resolve(ctx, msg.OwnerID, msg.Model)
}

// giveUpOrRetry surfaces the error while attempts remain; on the last attempt
// it writes the fallback name so the conversation never stays unnamed.
func (s *titleService) giveUpOrRetry(ctx context.Context, conv *model.Conversation, msg queue.Message, cause error) error {
	if msg.Attempt < s.maxAttempts {
		return cause
	}

	fallback := FallbackTitle(conv)
	if err := s.convStore.UpdateName(ctx, conv.ID, fallback); err != nil {
		return fmt.Errorf("saving fallback title: %w", err)
	}

	slog.WarnContext(ctx, "title generation exhausted retries, used fallback",
		"error", cause,
		"title", fallback)
	return nil
}

// FallbackTitle names a conversation from its creation date when no generated
// title is available.
func FallbackTitle(conv *model.Conversation) string {
	return "Chat - " + conv.CreatedAt.Format("Jan 2, 2006")
}
