package store

import (
	"context"
	"errors"

	"bartuchat.app/server/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ConversationStore defines the contract for conversation data access
type ConversationStore interface {
	GetByID(ctx context.Context, id int64) (*model.Conversation, error)
	GetByURL(ctx context.Context, ownerID string, url string) (*model.Conversation, error)
	Create(ctx context.Context, conv *model.Conversation) error
	UpdateName(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, ownerID string, id int64) error
	ListByOwner(ctx context.Context, ownerID string) ([]model.Conversation, error)
}

// TurnStore defines the contract for message data access
type TurnStore interface {
	Create(ctx context.Context, rec *model.TurnRecord) error
	ListByConversation(ctx context.Context, conversationID int64) ([]model.TurnRecord, error)
}

// AttachmentStore defines the contract for attachment data access
type AttachmentStore interface {
	GetByID(ctx context.Context, ownerID string, id int64) (*model.Attachment, error)
	Create(ctx context.Context, att *model.Attachment) error
	LinkToMessage(ctx context.Context, id int64, messageID int64) error
	Delete(ctx context.Context, ownerID string, id int64) error
	ListByOwner(ctx context.Context, ownerID string) ([]model.Attachment, error)
}

// CatalogStore defines the contract for the per-user model catalog
type CatalogStore interface {
	GetByID(ctx context.Context, ownerID string, id int64) (*model.CatalogModel, error)
	GetByName(ctx context.Context, ownerID string, name string) (*model.CatalogModel, error)
	Create(ctx context.Context, m *model.CatalogModel) error
	Update(ctx context.Context, m *model.CatalogModel) error
	Delete(ctx context.Context, ownerID string, id int64) error
	ListByOwner(ctx context.Context, ownerID string) ([]model.CatalogModel, error)
}
