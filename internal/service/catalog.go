package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"bartuchat.app/server/common/id"
	"bartuchat.app/server/core/config"
	"bartuchat.app/server/internal/model"
	"bartuchat.app/server/internal/store"
)

// ErrModelNameTaken is returned when registering a model under a name the
// owner already uses.
var ErrModelNameTaken = errors.New("model name already registered")

// CatalogService manages a user's registered models and resolves a model
// selection to an upstream endpoint.
type CatalogService interface {
	Resolve(ctx context.Context, ownerID string, modelID string) (model.ResolvedModel, error)
	Register(ctx context.Context, m *model.CatalogModel) error
	Update(ctx context.Context, m *model.CatalogModel) error
	Delete(ctx context.Context, ownerID string, id int64) error
	List(ctx context.Context, ownerID string) ([]model.CatalogModel, error)
}

type catalogService struct {
	catalogStore store.CatalogStore
	upstream     config.UpstreamConfig
}

func NewCatalogService(catalogStore store.CatalogStore, upstream config.UpstreamConfig) CatalogService {
	return &catalogService{
		catalogStore: catalogStore,
		upstream:     upstream,
	}
}

// Resolve looks the model up in the owner's catalog first; a name not in the
// catalog falls through to the default upstream, treating the identifier as
// the upstream's own model name.
func (s *catalogService) Resolve(ctx context.Context, ownerID string, modelID string) (model.ResolvedModel, error) {
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return model.ResolvedModel{}, fmt.Errorf("model identifier is required")
	}

	entry, err := s.catalogStore.GetByName(ctx, ownerID, modelID)
	if err == nil {
		return model.ResolvedModel{
			EndpointURL:     entry.APIURL,
			Credential:      entry.APIKey,
			UpstreamModelID: entry.Name,
		}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return model.ResolvedModel{}, fmt.Errorf("looking up model: %w", err)
	}

	return model.ResolvedModel{
		EndpointURL:     s.upstream.BaseURL,
		Credential:      s.upstream.APIKey,
		UpstreamModelID: modelID,
	}, nil
}

func (s *catalogService) Register(ctx context.Context, m *model.CatalogModel) error {
	if _, err := s.catalogStore.GetByName(ctx, m.OwnerID, m.Name); err == nil {
		return ErrModelNameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("checking model name: %w", err)
	}

	m.ID = id.New()
	if m.DisplayName == "" {
		m.DisplayName = m.Name
	}

	if err := s.catalogStore.Create(ctx, m); err != nil {
		slog.ErrorContext(ctx, "failed to register model",
			"error", err,
			"model", m.Name,
		)
		return fmt.Errorf("registering model: %w", err)
	}

	slog.InfoContext(ctx, "model registered", "model_id", m.ID, "model", m.Name)
	return nil
}

func (s *catalogService) Update(ctx context.Context, m *model.CatalogModel) error {
	if err := s.catalogStore.Update(ctx, m); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("updating model: %w", err)
	}
	return nil
}

func (s *catalogService) Delete(ctx context.Context, ownerID string, id int64) error {
	return s.catalogStore.Delete(ctx, ownerID, id)
}

func (s *catalogService) List(ctx context.Context, ownerID string) ([]model.CatalogModel, error) {
	return s.catalogStore.ListByOwner(ctx, ownerID)
}
