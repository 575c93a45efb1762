package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samirrijal/nearbite/internal/core/domain"
	"github.com/samirrijal/nearbite/internal/core/ports"
	"github.com/samirrijal/nearbite/internal/pkg/geospatial"
	"github.com/samirrijal/nearbite/internal/pkg/metrics"
)

// SearchParams are the fixed query parameters of every page request.
type SearchParams struct {
	TextQuery       string
	IncludedType    string
	PageSize        int
	LatOffsetMeters float64
	LngOffsetMeters float64
}

// DefaultSearchParams searches for cafes in a 10 km x 10 km box.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		TextQuery:       "coffee",
		IncludedType:    "cafe",
		PageSize:        5,
		LatOffsetMeters: 5000,
		LngOffsetMeters: 5000,
	}
}

// SearchControllerDeps are the collaborators of a SearchController.
// Only Places is required.
type SearchControllerDeps struct {
	Places    ports.PlacesSearchClient
	Publisher ports.EventPublisher
	PageLog   ports.PageLogRepository
	Logger    *slog.Logger
}

type searchSession struct {
	center    domain.GeoPoint
	bounds    domain.BoundingRectangle
	pageToken string
	exhausted bool
	inFlight  bool
}

// SearchController drives page-token pagination for one search session and
// owns the session's result sequence and render bookkeeping.
//
// At most one page request is outstanding per session: the in-flight flag is
// checked and set under mu, and the remote call runs without holding it.
// Starting a new session bumps the epoch; a response that arrives for an
// older epoch is dropped.
type SearchController struct {
	id     string
	params SearchParams
	deps   SearchControllerDeps
	logger *slog.Logger

	mu           sync.Mutex
	session      *searchSession
	epoch        uint64
	results      *ResultAggregator
	rendered     *RenderSyncTracker
	pagesFetched int
	lastErr      string
	updatedAt    time.Time
}

// NewSearchController creates a controller with no active session.
func NewSearchController(id string, params SearchParams, deps SearchControllerDeps) *SearchController {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchController{
		id:        id,
		params:    params,
		deps:      deps,
		logger:    logger.With("session_id", id),
		results:   NewResultAggregator(),
		rendered:  NewRenderSyncTracker(),
		updatedAt: time.Now(),
	}
}

// ID returns the session identifier used in events and logs.
func (c *SearchController) ID() string {
	return c.id
}

// StartSession replaces the current session with a fresh one centered on
// center, discarding accumulated results and render state. An unusable
// center is rejected and leaves the current session untouched.
func (c *SearchController) StartSession(center domain.GeoPoint) error {
	if err := center.Validate(); err != nil {
		return err
	}
	bounds := geospatial.ComputeBounds(center, c.params.LatOffsetMeters, c.params.LngOffsetMeters)
	if err := bounds.Validate(); err != nil {
		return fmt.Errorf("center %.5f,%.5f: %w", center.Lat, center.Lon, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.session = &searchSession{center: center, bounds: bounds}
	c.results.Reset()
	c.rendered.Reset()
	c.pagesFetched = 0
	c.lastErr = ""
	c.updatedAt = time.Now()

	c.logger.Debug("search session started", "epoch", c.epoch, "lat", center.Lat, "lon", center.Lon)
	return nil
}

// FetchNext requests the next page of the current session. It is a no-op
// reported through FetchResult.Status when there is no session, a request is
// already outstanding, or the last page was received. A transport failure
// returns the session to idle without advancing the page token, so the same
// page is requested on the next call; the error wraps domain.ErrTransport.
func (c *SearchController) FetchNext(ctx context.Context) (domain.FetchResult, error) {
	c.mu.Lock()
	sess := c.session
	epoch := c.epoch
	switch {
	case sess == nil:
		c.mu.Unlock()
		return domain.FetchResult{Status: domain.FetchNoSession}, nil
	case sess.exhausted:
		c.mu.Unlock()
		return domain.FetchResult{Status: domain.FetchExhausted, Epoch: epoch, Exhausted: true}, nil
	case sess.inFlight:
		c.mu.Unlock()
		return domain.FetchResult{Status: domain.FetchInFlight, Epoch: epoch}, nil
	}
	sess.inFlight = true
	req := domain.TextSearchRequest{
		TextQuery:    c.params.TextQuery,
		IncludedType: c.params.IncludedType,
		PageSize:     c.params.PageSize,
		Bounds:       sess.bounds,
		PageToken:    sess.pageToken,
	}
	c.updatedAt = time.Now()
	c.mu.Unlock()

	start := time.Now()
	page, err := c.deps.Places.SearchText(ctx, req)
	latency := time.Since(start)
	if err == nil && page == nil {
		err = errors.New("empty response")
	}

	c.mu.Lock()
	if current := c.epoch; epoch != current {
		c.mu.Unlock()
		metrics.StaleResponses.Inc()
		c.logger.Info("dropping page for replaced session", "epoch", epoch, "current_epoch", current)
		return domain.FetchResult{Status: domain.FetchStale, Epoch: epoch}, nil
	}
	sess.inFlight = false
	c.updatedAt = time.Now()

	if err != nil {
		c.lastErr = err.Error()
		c.mu.Unlock()
		if !errors.Is(err, domain.ErrTransport) {
			err = fmt.Errorf("%w: %w", domain.ErrTransport, err)
		}
		c.logger.Warn("page fetch failed", "epoch", epoch, "error", err)
		return domain.FetchResult{Status: domain.FetchFailed, Epoch: epoch}, fmt.Errorf("fetch next page: %w", err)
	}

	received := c.annotate(page.Places, sess)
	added := c.results.AppendPage(received)
	usedToken := sess.pageToken
	if page.NextPageToken == "" {
		sess.exhausted = true
	} else {
		sess.pageToken = page.NextPageToken
	}
	c.pagesFetched++
	c.lastErr = ""
	result := domain.FetchResult{
		Status:    domain.FetchApplied,
		Epoch:     epoch,
		Appended:  added,
		Received:  len(page.Places),
		Exhausted: sess.exhausted,
	}
	center := sess.center
	c.mu.Unlock()

	metrics.PagesApplied.Inc()
	metrics.DuplicatesDropped.Add(float64(len(page.Places) - len(added)))
	c.logger.Debug("page applied",
		"epoch", epoch, "received", result.Received, "appended", len(added), "exhausted", result.Exhausted)

	c.afterPage(ctx, result, &domain.PageFetch{
		SessionID:   c.id,
		Epoch:       epoch,
		Center:      center,
		PageToken:   usedToken,
		Received:    result.Received,
		Appended:    len(added),
		Exhausted:   result.Exhausted,
		FetchedAt:   time.Now(),
		LatencyMsec: latency.Milliseconds(),
	})

	return result, nil
}

// annotate sets the distance from the session center on each place.
// Callers hold mu.
func (c *SearchController) annotate(places []domain.FoodLocation, sess *searchSession) []domain.FoodLocation {
	out := make([]domain.FoodLocation, len(places))
	for i, p := range places {
		d := geospatial.Distance(sess.center, p.Location)
		p.DistanceMeters = &d
		if !geospatial.Contains(sess.bounds, p.Location) {
			metrics.PlacesOutsideBounds.Inc()
		}
		out[i] = p
	}
	return out
}

// afterPage notifies observers and the page log. Failures are logged only.
func (c *SearchController) afterPage(ctx context.Context, result domain.FetchResult, fetch *domain.PageFetch) {
	if c.deps.Publisher != nil && (len(result.Appended) > 0 || result.Exhausted) {
		batch := &domain.ResultBatch{
			SessionID: c.id,
			Epoch:     result.Epoch,
			Places:    result.Appended,
			Exhausted: result.Exhausted,
		}
		if err := c.deps.Publisher.PublishResults(ctx, batch); err != nil {
			c.logger.Warn("publish results failed", "error", err)
		}
	}
	if c.deps.PageLog != nil {
		if err := c.deps.PageLog.Record(context.WithoutCancel(ctx), fetch); err != nil {
			c.logger.Warn("record page fetch failed", "error", err)
		}
	}
}

// Results returns a copy of the current result sequence.
func (c *SearchController) Results() []domain.FoodLocation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.results.Current()
}

// ReconcileForRender returns the candidates the surface still has to
// materialize. Candidates that are not part of the current result sequence
// (for example left over from a replaced session) are ignored.
func (c *SearchController) ReconcileForRender(candidates []domain.FoodLocation, surfaceReady bool) []domain.FoodLocation {
	c.mu.Lock()
	defer c.mu.Unlock()

	known := make([]domain.FoodLocation, 0, len(candidates))
	for _, cand := range candidates {
		if c.results.Contains(cand.ID) {
			known = append(known, cand)
		}
	}
	out := c.rendered.Reconcile(known, surfaceReady)
	metrics.PlacesMaterialized.Add(float64(len(out)))
	c.updatedAt = time.Now()
	return out
}

// ReconcileAll offers the whole current sequence for rendering.
func (c *SearchController) ReconcileAll(surfaceReady bool) []domain.FoodLocation {
	return c.ReconcileForRender(c.Results(), surfaceReady)
}

// IsMaterialized reports whether the place has already been handed out for rendering.
func (c *SearchController) IsMaterialized(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rendered.IsMaterialized(id)
}

// ResetRendering forgets everything materialized, for a rebuilt surface.
func (c *SearchController) ResetRendering() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rendered.Reset()
	c.updatedAt = time.Now()
}

// Status returns a snapshot of the session.
func (c *SearchController) Status() domain.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := domain.SessionStatus{
		SessionID:    c.id,
		Epoch:        c.epoch,
		State:        domain.StateNoSession,
		Results:      c.results.Len(),
		Materialized: c.rendered.Len(),
		PagesFetched: c.pagesFetched,
		LastError:    c.lastErr,
		UpdatedAt:    c.updatedAt,
	}
	if s := c.session; s != nil {
		center, bounds := s.center, s.bounds
		st.Center = &center
		st.Bounds = &bounds
		st.HasNextPage = !s.exhausted
		switch {
		case s.exhausted:
			st.State = domain.StateExhausted
		case s.inFlight:
			st.State = domain.StateFetching
		default:
			st.State = domain.StateIdle
		}
	}
	return st
}

// LastActivity returns when the session was last used.
func (c *SearchController) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updatedAt
}
