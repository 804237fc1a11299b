package service

import (
	"bartuchat.app/server/core/config"
	"bartuchat.app/server/internal/chat"
	"bartuchat.app/server/internal/queue"
	"bartuchat.app/server/internal/store"
)

type Services struct {
	stores   *store.Stores
	cfg      config.Config
	producer queue.Producer
	streams  chat.StreamOpener
}

func NewServices(stores *store.Stores, cfg config.Config, producer queue.Producer, streams chat.StreamOpener) *Services {
	return &Services{
		stores:   stores,
		cfg:      cfg,
		producer: producer,
		streams:  streams,
	}
}

func (s *Services) Auth() AuthService {
	return NewAuthService(s.cfg.WorkOS, s.cfg.WorkOS.RedirectURI)
}

func (s *Services) Conversations() ConversationService {
	return NewConversationService(s.stores.Conversations(), s.stores.Turns())
}

func (s *Services) Catalog() CatalogService {
	return NewCatalogService(s.stores.Catalog(), s.cfg.Upstream)
}

func (s *Services) Attachments() AttachmentService {
	return NewAttachmentService(s.stores.Attachments())
}

func (s *Services) Chat() ChatService {
	return NewChatService(
		s.stores.Conversations(),
		s.stores.Turns(),
		s.Catalog(),
		s.Attachments(),
		s.producer,
		s.streams,
		s.cfg.SystemPrompt,
	)
}
