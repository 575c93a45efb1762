package ports

import (
	"context"

	"github.com/samirrijal/nearbite/internal/core/domain"
)

// PageLogRepository persists one record per applied result page.
type PageLogRepository interface {
	Record(ctx context.Context, fetch *domain.PageFetch) error
	Stats(ctx context.Context) (*domain.SearchStats, error)
}
