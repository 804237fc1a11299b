package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx both a pool and a transaction satisfy, so the
// same store code runs inside and outside WithTx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Stores struct {
	q Querier
}

func NewStores(q Querier) *Stores {
	return &Stores{q: q}
}

func (s *Stores) Conversations() ConversationStore {
	return newConversationStore(s.q)
}

func (s *Stores) Turns() TurnStore {
	return newTurnStore(s.q)
}

func (s *Stores) Attachments() AttachmentStore {
	return newAttachmentStore(s.q)
}

func (s *Stores) Catalog() CatalogStore {
	return newCatalogStore(s.q)
}
