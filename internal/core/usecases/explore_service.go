package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/nearbite/internal/core/domain"
	"github.com/samirrijal/nearbite/internal/pkg/metrics"
)

// ExploreService keeps one SearchController per client session.
type ExploreService struct {
	params  SearchParams
	deps    SearchControllerDeps
	idleTTL time.Duration
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*SearchController
}

// NewExploreService creates a new ExploreService. Sessions idle for longer
// than idleTTL are removed by Sweep; zero disables expiry.
func NewExploreService(params SearchParams, deps SearchControllerDeps, idleTTL time.Duration) *ExploreService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ExploreService{
		params:   params,
		deps:     deps,
		idleTTL:  idleTTL,
		logger:   logger,
		sessions: make(map[string]*SearchController),
	}
}

// Create registers a new session centered on center.
func (s *ExploreService) Create(ctx context.Context, center domain.GeoPoint) (*SearchController, error) {
	ctrl := NewSearchController(uuid.NewString(), s.params, s.deps)
	if err := ctrl.StartSession(center); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[ctrl.ID()] = ctrl
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	s.requestWarmup(ctx, center)
	return ctrl, nil
}

// Get returns the session with the given ID.
func (s *ExploreService) Get(id string) (*SearchController, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ctrl, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	return ctrl, nil
}

// Recenter starts a new search in an existing session.
func (s *ExploreService) Recenter(ctx context.Context, id string, center domain.GeoPoint) (*SearchController, error) {
	ctrl, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := ctrl.StartSession(center); err != nil {
		return nil, err
	}
	s.requestWarmup(ctx, center)
	return ctrl, nil
}

// Close removes a session. An in-flight page for it is discarded when it lands.
func (s *ExploreService) Close(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	metrics.ActiveSessions.Set(float64(n))
	return nil
}

// Len returns the number of open sessions.
func (s *ExploreService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle since before now-idleTTL and returns how many.
// A session with a page request in flight is never idle.
func (s *ExploreService) Sweep(now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-s.idleTTL)

	s.mu.Lock()
	removed := 0
	for id, ctrl := range s.sessions {
		if ctrl.LastActivity().Before(cutoff) && ctrl.Status().State != domain.StateFetching {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		metrics.ActiveSessions.Set(float64(n))
		s.logger.Info("expired idle sessions", "removed", removed, "open", n)
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is done.
func (s *ExploreService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

func (s *ExploreService) requestWarmup(ctx context.Context, center domain.GeoPoint) {
	if s.deps.Publisher == nil {
		return
	}
	req := &domain.WarmupRequest{Center: center, RequestedAt: time.Now().UTC()}
	if err := s.deps.Publisher.PublishWarmupRequest(ctx, req); err != nil {
		s.logger.Warn("publish warmup request failed", "error", err)
	}
}
