package ports

import (
	"context"

	"github.com/samirrijal/nearbite/internal/core/domain"
)

// PlacesSearchClient performs one remote text-search call per page.
type PlacesSearchClient interface {
	SearchText(ctx context.Context, req domain.TextSearchRequest) (*domain.PlacesPage, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishResults(ctx context.Context, batch *domain.ResultBatch) error
	PublishWarmupRequest(ctx context.Context, req *domain.WarmupRequest) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeWarmupRequests(ctx context.Context, handler func(ctx context.Context, req *domain.WarmupRequest) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
