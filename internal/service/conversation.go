package service

import (
	"context"
	"fmt"
	"log/slog"

	"bartuchat.app/server/internal/chat"
	"bartuchat.app/server/internal/model"
	"bartuchat.app/server/internal/store"
)

// ConversationView is a conversation with its visible turns, ready for the
// transport layer.
type ConversationView struct {
	Conversation model.Conversation
	Turns        []model.Turn
}

type ConversationService interface {
	List(ctx context.Context, ownerID string) ([]model.Conversation, error)
	GetByURL(ctx context.Context, ownerID string, url string) (*ConversationView, error)
	Rename(ctx context.Context, ownerID string, url string, name string) (*model.Conversation, error)
	Delete(ctx context.Context, ownerID string, url string) error
}

type conversationService struct {
	convStore store.ConversationStore
	turnStore store.TurnStore
}

func NewConversationService(convStore store.ConversationStore, turnStore store.TurnStore) ConversationService {
	return &conversationService{
		convStore: convStore,
		turnStore: turnStore,
	}
}

func (s *conversationService) List(ctx context.Context, ownerID string) ([]model.Conversation, error) {
	return s.convStore.ListByOwner(ctx, ownerID)
}

// GetByURL loads a conversation with its history. Assistant content is stored
// raw, so the thinking split is derived on the way out.
func (s *conversationService) GetByURL(ctx context.Context, ownerID string, url string) (*ConversationView, error) {
	conv, err := s.convStore.GetByURL(ctx, ownerID, url)
	if err != nil {
		return nil, err
	}

	records, err := s.turnStore.ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}

	turns := make([]model.Turn, 0, len(records))
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
			thinking, answer := chat.SplitThinking(rec.Content)
			turn.Thinking = thinking
			turn.Content = answer
		}
		turns = append(turns, turn)
	}

	return &ConversationView{Conversation: *conv, Turns: turns}, nil
}

func (s *conversationService) Rename(ctx context.Context, ownerID string, url string, name string) (*model.Conversation, error) {
	conv, err := s.convStore.GetByURL(ctx, ownerID, url)
	if err != nil {
		return nil, err
	}

	if err := s.convStore.UpdateName(ctx, conv.ID, name); err != nil {
		return nil, fmt.Errorf("renaming conversation: %w", err)
	}

	conv.Name = name
	return conv, nil
}

func (s *conversationService) Delete(ctx context.Context, ownerID string, url string) error {
	conv, err := s.convStore.GetByURL(ctx, ownerID, url)
	if err != nil {
		return err
	}

	if err := s.convStore.Delete(ctx, ownerID, conv.ID); err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}

	slog.InfoContext(ctx, "conversation deleted", "conversation_id", conv.ID)
	return nil
}
