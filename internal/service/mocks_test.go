package service_test

import (
	"context"

	"bartuchat.app/server/internal/model"
	"bartuchat.app/server/internal/queue"
)

type mockConversationStore struct {
	getByIDFn     func(ctx context.Context, id int64) (*model.Conversation, error)
	getByURLFn    func(ctx context.Context, ownerID string, url string) (*model.Conversation, error)
	createFn      func(ctx context.Context, conv *model.Conversation) error
	updateNameFn  func(ctx context.Context, id int64, name string) error
	deleteFn      func(ctx context.Context, ownerID string, id int64) error
	listByOwnerFn func(ctx context.Context, ownerID string) ([]model.Conversation, error)
}

func (m *mockConversationStore) GetByID(ctx context.Context, id int64) (*model.Conversation, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockConversationStore) GetByURL(ctx context.Context, ownerID string, url string) (*model.Conversation, error) {
	return m.getByURLFn(ctx, ownerID, url)
}

func (m *mockConversationStore) Create(ctx context.Context, conv *model.Conversation) error {
	return m.createFn(ctx, conv)
}

func (m *mockConversationStore) UpdateName(ctx context.Context, id int64, name string) error {
	return m.updateNameFn(ctx, id, name)
}

func (m *mockConversationStore) Delete(ctx context.Context, ownerID string, id int64) error {
	return m.deleteFn(ctx, ownerID, id)
}

func (m *mockConversationStore) ListByOwner(ctx context.Context, ownerID string) ([]model.Conversation, error) {
	return m.listByOwnerFn(ctx, ownerID)
}

type mockTurnStore struct {
	createFn             func(ctx context.Context, rec *model.TurnRecord) error
	listByConversationFn func(ctx context.Context, conversationID int64) ([]model.TurnRecord, error)
}

func (m *mockTurnStore) Create(ctx context.Context, rec *model.TurnRecord) error {
	return m.createFn(ctx, rec)
}

func (m *mockTurnStore) ListByConversation(ctx context.Context, conversationID int64) ([]model.TurnRecord, error) {
	return m.listByConversationFn(ctx, conversationID)
}

type mockCatalogStore struct {
	getByIDFn     func(ctx context.Context, ownerID string, id int64) (*model.CatalogModel, error)
	getByNameFn   func(ctx context.Context, ownerID string, name string) (*model.CatalogModel, error)
	createFn      func(ctx context.Context, m *model.CatalogModel) error
	updateFn      func(ctx context.Context, m *model.CatalogModel) error
	deleteFn      func(ctx context.Context, ownerID string, id int64) error
	listByOwnerFn func(ctx context.Context, ownerID string) ([]model.CatalogModel, error)
}

func (m *mockCatalogStore) GetByID(ctx context.Context, ownerID string, id int64) (*model.CatalogModel, error) {
	return m.getByIDFn(ctx, ownerID, id)
}

func (m *mockCatalogStore) GetByName(ctx context.Context, ownerID string, name string) (*model.CatalogModel, error) {
	return m.getByNameFn(ctx, ownerID, name)
}

func (m *mockCatalogStore) Create(ctx context.Context, cm *model.CatalogModel) error {
	return m.createFn(ctx, cm)
}

func (m *mockCatalogStore) Update(ctx context.Context, cm *model.CatalogModel) error {
	return m.updateFn(ctx, cm)
}

func (m *mockCatalogStore) Delete(ctx context.Context, ownerID string, id int64) error {
	return m.deleteFn(ctx, ownerID, id)
}

func (m *mockCatalogStore) ListByOwner(ctx context.Context, ownerID string) ([]model.CatalogModel, error) {
	return m.listByOwnerFn(ctx, ownerID)
}

type mockTitleGenerator struct {
	generateTitleFn func(ctx context.Context, resolved model.ResolvedModel, firstMessage string) (string, error)
}

func (m *mockTitleGenerator) GenerateTitle(ctx context.Context, resolved model.ResolvedModel, firstMessage string) (string, error) {
	return m.generateTitleFn(ctx, resolved, firstMessage)
}

type mockProducer struct {
	enqueueFn func(ctx context.Context, job queue.TitleJob) error
}

func (m *mockProducer) Enqueue(ctx context.Context, job queue.TitleJob) error {
	return m.enqueueFn(ctx, job)
}

func (m *mockProducer) Close() error { return nil }
