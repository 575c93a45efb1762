package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/nearbite/internal/adapters/postgres"
	"github.com/samirrijal/nearbite/internal/adapters/valkey"
	"github.com/samirrijal/nearbite/internal/core/ports"
	"github.com/samirrijal/nearbite/internal/core/usecases"
)

// PhotoResolver turns a photo resource name into a URI that clients can
// load without provider credentials.
type PhotoResolver interface {
	ResolvePhoto(ctx context.Context, name string, maxWidth, maxHeight int) (string, error)
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Explore *usecases.ExploreService
	PageLog ports.PageLogRepository
	Photos  PhotoResolver
	NATS    *nats.Conn
	DB      *postgres.DB
	Cache   *valkey.Cache
}
