package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"bartuchat.app/server/internal/model"
)

type catalogStore struct {
	q Querier
}

func newCatalogStore(q Querier) CatalogStore {
	return &catalogStore{q: q}
}

func (s *catalogStore) GetByID(ctx context.Context, ownerID string, id int64) (*model.CatalogModel, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, name, display_name, owner_id, api_url, api_key, created_at
		FROM ai_models
		WHERE id = $1 AND owner_id = $2`, id, ownerID)
	return scanCatalogModel(row)
}

func (s *catalogStore) GetByName(ctx context.Context, ownerID string, name string) (*model.CatalogModel, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, name, display_name, owner_id, api_url, api_key, created_at
		FROM ai_models
		WHERE owner_id = $1 AND name = $2`, ownerID, name)
	return scanCatalogModel(row)
}

func (s *catalogStore) Create(ctx context.Context, m *model.CatalogModel) error {
	row := s.q.QueryRow(ctx, `
		INSERT INTO ai_models (id, name, display_name, owner_id, api_url, api_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		m.ID, m.Name, m.DisplayName, m.OwnerID, m.APIURL, m.APIKey)
	return row.Scan(&m.CreatedAt)
}

func (s *catalogStore) Update(ctx context.Context, m *model.CatalogModel) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE ai_models
		SET name = $3, display_name = $4, api_url = $5, api_key = $6
		WHERE id = $1 AND owner_id = $2`,
		m.ID, m.OwnerID, m.Name, m.DisplayName, m.APIURL, m.APIKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *catalogStore) Delete(ctx context.Context, ownerID string, id int64) error {
	tag, err := s.q.Exec(ctx, `
		DELETE FROM ai_models
		WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *catalogStore) ListByOwner(ctx context.Context, ownerID string) ([]model.CatalogModel, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, name, display_name, owner_id, api_url, api_key, created_at
		FROM ai_models
		WHERE owner_id = $1
		ORDER BY display_name`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CatalogModel
	for rows.Next() {
		var m model.CatalogModel
		if err := rows.Scan(&m.ID, &m.Name, &m.DisplayName, &m.OwnerID, &m.APIURL, &m.APIKey, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanCatalogModel(row pgx.Row) (*model.CatalogModel, error) {
	var m model.CatalogModel
	err := row.Scan(&m.ID, &m.Name, &m.DisplayName, &m.OwnerID, &m.APIURL, &m.APIKey, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}
