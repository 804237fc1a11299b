package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"bartuchat.app/server/core/config"
	"bartuchat.app/server/internal/model"
	"bartuchat.app/server/internal/service"
	"bartuchat.app/server/internal/store"
)

var _ = Describe("CatalogService", func() {
	var (
		catalogStore *mockCatalogStore
		svc          service.CatalogService
	)

	upstream := config.UpstreamConfig{
		BaseURL: "https://api.openai.com/v1",
		APIKey:  "sk-default",
	}

	BeforeEach(func() {
		catalogStore = &mockCatalogStore{
			getByNameFn: func(ctx context.Context, ownerID, name string) (*model.CatalogModel, error) {
				return nil, store.ErrNotFound
			},
		}
		svc = service.NewCatalogService(catalogStore, upstream)
	})

	Describe("Resolve", func() {
		It("resolves a registered model to its own endpoint", func() {
			catalogStore.getByNameFn = func(ctx context.Context, ownerID, name string) (*model.CatalogModel, error) {
				return &model.CatalogModel{
					Name:   "local-llama",
					APIURL: "http://localhost:11434/v1",
					APIKey: "sk-local",
				}, nil
			}

			resolved, err := svc.Resolve(context.Background(), "user_1", "local-llama")
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved.EndpointURL).To(Equal("http://localhost:11434/v1"))
			Expect(resolved.Credential).To(Equal("sk-local"))
			Expect(resolved.UpstreamModelID).To(Equal("local-llama"))
		})

		It("falls back to the default upstream for unregistered names", func() {
			resolved, err := svc.Resolve(context.Background(), "user_1", "gpt-4o-mini")
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved.EndpointURL).To(Equal(upstream.BaseURL))
			Expect(resolved.Credential).To(Equal(upstream.APIKey))
			Expect(resolved.UpstreamModelID).To(Equal("gpt-4o-mini"))
		})

		It("rejects an empty model identifier", func() {
			_, err := svc.Resolve(context.Background(), "user_1", "  ")
			Expect(err).To(HaveOccurred())
		})

		It("propagates store failures", func() {
			catalogStore.getByNameFn = func(ctx context.Context, ownerID, name string) (*model.CatalogModel, error) {
				return nil, errors.New("db down")
			}
			_, err := svc.Resolve(context.Background(), "user_1", "anything")
			Expect(err).To(MatchError(ContainSubstring("looking up model")))
		})
	})

	Describe("Register", func() {
		It("assigns an ID and defaults the display name", func() {
			var created *model.CatalogModel
			catalogStore.createFn = func(ctx context.Context, m *model.CatalogModel) error {
				created = m
				return nil
			}

			m := &model.CatalogModel{Name: "local-llama", OwnerID: "user_1", APIURL: "http://localhost:11434/v1"}
			Expect(svc.Register(context.Background(), m)).To(Succeed())
			Expect(created.ID).NotTo(BeZero())
			Expect(created.DisplayName).To(Equal("local-llama"))
		})

		It("rejects duplicate names per owner", func() {
			catalogStore.getByNameFn = func(ctx context.Context, ownerID, name string) (*model.CatalogModel, error) {
				return &model.CatalogModel{Name: name}, nil
			}
			err := svc.Register(context.Background(), &model.CatalogModel{Name: "taken", OwnerID: "user_1"})
			Expect(err).To(MatchError(service.ErrModelNameTaken))
		})
	})
})
