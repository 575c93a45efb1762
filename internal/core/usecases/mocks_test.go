package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/nearbite/internal/core/domain"
)

// --- Mock PlacesSearchClient ---

type mockPlaces struct {
	mu       sync.Mutex
	calls    []domain.TextSearchRequest
	searchFn func(ctx context.Context, req domain.TextSearchRequest) (*domain.PlacesPage, error)
}

func (m *mockPlaces) SearchText(ctx context.Context, req domain.TextSearchRequest) (*domain.PlacesPage, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return &domain.PlacesPage{}, nil
}

func (m *mockPlaces) requests() []domain.TextSearchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.TextSearchRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// pagesByToken serves pages keyed by the request's page token.
func pagesByToken(pages map[string]*domain.PlacesPage) func(context.Context, domain.TextSearchRequest) (*domain.PlacesPage, error) {
	return func(_ context.Context, req domain.TextSearchRequest) (*domain.PlacesPage, error) {
		return pages[req.PageToken], nil
	}
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu       sync.Mutex
	batches  []domain.ResultBatch
	warmups  []domain.WarmupRequest
	resultFn func(ctx context.Context, batch *domain.ResultBatch) error
}

func (m *mockPublisher) PublishResults(ctx context.Context, batch *domain.ResultBatch) error {
	m.mu.Lock()
	m.batches = append(m.batches, *batch)
	m.mu.Unlock()
	if m.resultFn != nil {
		return m.resultFn(ctx, batch)
	}
	return nil
}

func (m *mockPublisher) PublishWarmupRequest(ctx context.Context, req *domain.WarmupRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warmups = append(m.warmups, *req)
	return nil
}

// --- Mock PageLogRepository ---

type mockPageLog struct {
	mu      sync.Mutex
	records []domain.PageFetch
	err     error
}

func (m *mockPageLog) Record(ctx context.Context, fetch *domain.PageFetch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *fetch)
	return m.err
}

func (m *mockPageLog) Stats(ctx context.Context) (*domain.SearchStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &domain.SearchStats{Pages: len(m.records)}, nil
}

// --- Fixtures ---

var newYork = domain.GeoPoint{Lat: 40.0, Lon: -74.0}

func place(id string) domain.FoodLocation {
	return domain.FoodLocation{
		ID:       id,
		Name:     "Cafe " + id,
		Location: domain.GeoPoint{Lat: 40.01, Lon: -74.01},
	}
}

func places(ids ...string) []domain.FoodLocation {
	out := make([]domain.FoodLocation, len(ids))
	for i, id := range ids {
		out[i] = place(id)
	}
	return out
}

func ids(ps []domain.FoodLocation) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
