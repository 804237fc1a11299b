package store

import (
	"context"

	"bartuchat.app/server/internal/model"
)

type turnStore struct {
	q Querier
}

func newTurnStore(q Querier) TurnStore {
	return &turnStore{q: q}
}

func (s *turnStore) Create(ctx context.Context, rec *model.TurnRecord) error {
	row := s.q.QueryRow(ctx, `
		INSERT INTO messages (id, chat_id, owner_id, content, model, sender, tokens_per_second)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		rec.ID, rec.ConversationID, rec.OwnerID, rec.Content, rec.Model, string(rec.Sender), rec.TokensPerSecond)
	return row.Scan(&rec.CreatedAt)
}

func (s *turnStore) ListByConversation(ctx context.Context, conversationID int64) ([]model.TurnRecord, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, chat_id, owner_id, content, model, sender, tokens_per_second, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at, id`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TurnRecord
	for rows.Next() {
		var r model.TurnRecord
		var sender string
		if err := rows.Scan(&r.ID, &r.ConversationID, &r.OwnerID, &r.Content, &r.Model, &sender, &r.TokensPerSecond, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Sender = model.Role(sender)
		out = append(out, r)
	}
	return out, rows.Err()
}
