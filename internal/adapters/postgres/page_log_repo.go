package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/samirrijal/nearbite/internal/core/domain"
	"github.com/samirrijal/nearbite/internal/pkg/telemetry"
)

// PageLogRepo implements ports.PageLogRepository with pgx.
type PageLogRepo struct {
	db *DB
}

// NewPageLogRepo creates a new PageLogRepo.
func NewPageLogRepo(db *DB) *PageLogRepo {
	return &PageLogRepo{db: db}
}

// Record inserts one applied page.
func (r *PageLogRepo) Record(ctx context.Context, f *domain.PageFetch) error {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanPageLogRecord)
	defer span.End()

	fetchedAt := f.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO page_fetches
			(session_id, epoch, center_lat, center_lon, page_token, received, appended, exhausted, latency_ms, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, f.SessionID, int64(f.Epoch), f.Center.Lat, f.Center.Lon, f.PageToken,
		f.Received, f.Appended, f.Exhausted, f.LatencyMsec, fetchedAt)
	if err != nil {
		return fmt.Errorf("insert page fetch: %w", err)
	}
	return nil
}

// Stats aggregates the whole log.
func (r *PageLogRepo) Stats(ctx context.Context) (*domain.SearchStats, error) {
	var (
		s    domain.SearchStats
		last *time.Time
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT session_id),
		       COUNT(*),
		       COALESCE(SUM(received), 0),
		       COALESCE(SUM(appended), 0),
		       COUNT(DISTINCT session_id || ':' || epoch) FILTER (WHERE exhausted),
		       MAX(fetched_at)
		FROM page_fetches
	`).Scan(&s.Sessions, &s.Pages, &s.PlacesSeen, &s.PlacesKept, &s.Exhausted, &last)
	if err != nil {
		return nil, fmt.Errorf("page log stats: %w", err)
	}
	if last != nil {
		s.LastFetchedAt = last.UTC().Format(time.RFC3339)
	}
	return &s, nil
}
