package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"bartuchat.app/server/internal/model"
)

type conversationStore struct {
	q Querier
}

func newConversationStore(q Querier) ConversationStore {
	return &conversationStore{q: q}
}

func (s *conversationStore) GetByID(ctx context.Context, id int64) (*model.Conversation, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, name, owner_id, url, created_at, updated_at
		FROM chats
		WHERE id = $1`, id)
	return scanConversation(row)
}

func (s *conversationStore) GetByURL(ctx context.Context, ownerID string, url string) (*model.Conversation, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, name, owner_id, url, created_at, updated_at
		FROM chats
		WHERE owner_id = $1 AND url = $2`, ownerID, url)
	return scanConversation(row)
}

func (s *conversationStore) Create(ctx context.Context, conv *model.Conversation) error {
	row := s.q.QueryRow(ctx, `
		INSERT INTO chats (id, name, owner_id, url)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`, conv.ID, conv.Name, conv.OwnerID, conv.URL)
	return row.Scan(&conv.CreatedAt)
}

func (s *conversationStore) UpdateName(ctx context.Context, id int64, name string) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE chats
		SET name = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`, id, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *conversationStore) Delete(ctx context.Context, ownerID string, id int64) error {
	tag, err := s.q.Exec(ctx, `
		DELETE FROM chats
		WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *conversationStore) ListByOwner(ctx context.Context, ownerID string) ([]model.Conversation, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, name, owner_id, url, created_at, updated_at
		FROM chats
		WHERE owner_id = $1
		ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnerID, &c.URL, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanConversation(row pgx.Row) (*model.Conversation, error) {
	var c model.Conversation
	err := row.Scan(&c.ID, &c.Name, &c.OwnerID, &c.URL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
