package usecases

import (
	"github.com/samirrijal/nearbite/internal/core/domain"
)

// RenderSyncTracker remembers which places a rendering surface has already
// materialized (markers on a map, rows in a list). It decides what to draw;
// drawing itself is the surface's job.
type RenderSyncTracker struct {
	materialized map[string]struct{}
}

// NewRenderSyncTracker returns a tracker with nothing materialized.
func NewRenderSyncTracker() *RenderSyncTracker {
	return &RenderSyncTracker{materialized: make(map[string]struct{})}
}

// Reconcile returns the candidates that still need materializing, in
// candidate order, and records them as materialized. When the surface is not
// ready it returns nothing and records nothing, so the caller offers the same
// candidates again once the surface is up.
func (t *RenderSyncTracker) Reconcile(candidates []domain.FoodLocation, surfaceReady bool) []domain.FoodLocation {
	if !surfaceReady {
		return nil
	}
	var pending []domain.FoodLocation
	for _, c := range candidates {
		if _, done := t.materialized[c.ID]; done {
			continue
		}
		t.materialized[c.ID] = struct{}{}
		pending = append(pending, c)
	}
	return pending
}

// IsMaterialized reports whether id has been handed out by Reconcile.
func (t *RenderSyncTracker) IsMaterialized(id string) bool {
	_, ok := t.materialized[id]
	return ok
}

// Len returns the number of materialized places.
func (t *RenderSyncTracker) Len() int {
	return len(t.materialized)
}

// Reset forgets every materialized place, e.g. when the surface is rebuilt.
func (t *RenderSyncTracker) Reset() {
	t.materialized = make(map[string]struct{})
}
