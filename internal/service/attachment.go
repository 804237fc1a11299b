package service

import (
	"context"
	"fmt"
	"log/slog"

	"bartuchat.app/server/common/id"
	"bartuchat.app/server/internal/model"
	"bartuchat.app/server/internal/store"
)

// maxAttachmentSize caps the content accepted for prompt inlining.
const maxAttachmentSize = 1 << 20

type AttachmentService interface {
	Upload(ctx context.Context, att *model.Attachment) error
	Fetch(ctx context.Context, ownerID string, attachmentID int64) (model.Attachment, error)
	Link(ctx context.Context, attachmentID int64, messageID int64) error
	List(ctx context.Context, ownerID string) ([]model.Attachment, error)
	Delete(ctx context.Context, ownerID string, id int64) error
}

type attachmentService struct {
	attachmentStore store.AttachmentStore
}

func NewAttachmentService(attachmentStore store.AttachmentStore) AttachmentService {
	return &attachmentService{attachmentStore: attachmentStore}
}

func (s *attachmentService) Upload(ctx context.Context, att *model.Attachment) error {
	if att.FileName == "" {
		return fmt.Errorf("file name is required")
	}
	if att.FileSize > maxAttachmentSize {
		return fmt.Errorf("attachment exceeds %d bytes", maxAttachmentSize)
	}

	att.ID = id.New()
	if err := s.attachmentStore.Create(ctx, att); err != nil {
		slog.ErrorContext(ctx, "failed to store attachment",
			"error", err,
			"file_name", att.FileName,
		)
		return fmt.Errorf("storing attachment: %w", err)
	}

	slog.InfoContext(ctx, "attachment stored", "attachment_id", att.ID, "file_name", att.FileName)
	return nil
}

func (s *attachmentService) Fetch(ctx context.Context, ownerID string, attachmentID int64) (model.Attachment, error) {
	att, err := s.attachmentStore.GetByID(ctx, ownerID, attachmentID)
	if err != nil {
		return model.Attachment{}, err
	}
	return *att, nil
}

func (s *attachmentService) Link(ctx context.Context, attachmentID int64, messageID int64) error {
	return s.attachmentStore.LinkToMessage(ctx, attachmentID, messageID)
}

func (s *attachmentService) List(ctx context.Context, ownerID string) ([]model.Attachment, error) {
	return s.attachmentStore.ListByOwner(ctx, ownerID)
}

func (s *attachmentService) Delete(ctx context.Context, ownerID string, id int64) error {
	return s.attachmentStore.Delete(ctx, ownerID, id)
}
