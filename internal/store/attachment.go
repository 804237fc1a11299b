package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"bartuchat.app/server/internal/model"
)

type attachmentStore struct {
	q Querier
}

func newAttachmentStore(q Querier) AttachmentStore {
	return &attachmentStore{q: q}
}

func (s *attachmentStore) GetByID(ctx context.Context, ownerID string, id int64) (*model.Attachment, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, message_id, owner_id, file_name, file_type, file_size, url, content, created_at
		FROM attachments
		WHERE id = $1 AND owner_id = $2`, id, ownerID)

	var a model.Attachment
	err := row.Scan(&a.ID, &a.MessageID, &a.OwnerID, &a.FileName, &a.FileType, &a.FileSize, &a.URL, &a.Content, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *attachmentStore) Create(ctx context.Context, att *model.Attachment) error {
	row := s.q.QueryRow(ctx, `
		INSERT INTO attachments (id, message_id, owner_id, file_name, file_type, file_size, url, content)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		att.ID, att.MessageID, att.OwnerID, att.FileName, att.FileType, att.FileSize, att.URL, att.Content)
	return row.Scan(&att.CreatedAt)
}

func (s *attachmentStore) LinkToMessage(ctx context.Context, id int64, messageID int64) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE attachments
		SET message_id = $2
		WHERE id = $1`, id, messageID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *attachmentStore) Delete(ctx context.Context, ownerID string, id int64) error {
	tag, err := s.q.Exec(ctx, `
		DELETE FROM attachments
		WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *attachmentStore) ListByOwner(ctx context.Context, ownerID string) ([]model.Attachment, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, message_id, owner_id, file_name, file_type, file_size, url, content, created_at
		FROM attachments
		WHERE owner_id = $1
		ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Attachment
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.MessageID, &a.OwnerID, &a.FileName, &a.FileType, &a.FileSize, &a.URL, &a.Content, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
