package places

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/samirrijal/nearbite/internal/core/domain"
	"github.com/samirrijal/nearbite/internal/core/ports"
	"github.com/samirrijal/nearbite/internal/pkg/metrics"
)

// defaultSharedCallTimeout bounds an upstream call that no single caller owns.
const defaultSharedCallTimeout = 30 * time.Second

// CachedClient serves pages from a cache and collapses identical concurrent
// requests into one upstream call. Failures are never cached.
type CachedClient struct {
	next        ports.PlacesSearchClient
	cache       ports.CacheService
	ttlSeconds  int
	group       singleflight.Group
	callTimeout time.Duration
	logger      *slog.Logger
}

// NewCachedClient wraps next. A nil cache or a non-positive TTL disables
// caching but keeps request collapsing.
func NewCachedClient(next ports.PlacesSearchClient, cache ports.CacheService, ttlSeconds int) *CachedClient {
	return &CachedClient{
		next:        next,
		cache:       cache,
		ttlSeconds:  ttlSeconds,
		callTimeout: defaultSharedCallTimeout,
		logger:      slog.Default(),
	}
}

// PageKey is the cache key of one page request.
func PageKey(req domain.TextSearchRequest) string {
	b := req.Bounds
	return fmt.Sprintf("places:page:%s:%s:%d:%.5f:%.5f:%.5f:%.5f:%s",
		req.TextQuery, req.IncludedType, req.PageSize,
		b.Southwest.Lat, b.Southwest.Lon, b.Northeast.Lat, b.Northeast.Lon,
		req.PageToken)
}

// SearchText implements ports.PlacesSearchClient.
func (c *CachedClient) SearchText(ctx context.Context, req domain.TextSearchRequest) (*domain.PlacesPage, error) {
	key := PageKey(req)

	if c.cacheEnabled() {
		if data, err := c.cache.Get(ctx, key); err == nil {
			var page domain.PlacesPage
			if err := json.Unmarshal(data, &page); err == nil {
				metrics.CacheHits.WithLabelValues("places_page").Inc()
				return &page, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("places_page").Inc()
	}

	// The upstream call outlives any one caller: a caller that gives up
	// must not fail the others waiting on the same key.
	ch := c.group.DoChan(key, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.callTimeout)
		defer cancel()

		page, err := c.next.SearchText(callCtx, req)
		if err != nil {
			return nil, err
		}
		if page != nil && c.cacheEnabled() {
			if data, err := json.Marshal(page); err == nil {
				if err := c.cache.Set(callCtx, key, data, c.ttlSeconds); err != nil {
					c.logger.Debug("cache page failed", "error", err)
				}
			}
		}
		return page, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	page, _ := res.Val.(*domain.PlacesPage)
	if page == nil {
		return nil, nil
	}
	if res.Shared {
		// Callers may annotate the places they receive.
		cp := *page
		cp.Places = append([]domain.FoodLocation(nil), page.Places...)
		return &cp, nil
	}
	return page, nil
}

func (c *CachedClient) cacheEnabled() bool {
	return c.cache != nil && c.ttlSeconds > 0
}
