package usecases

import (
	"github.com/samirrijal/nearbite/internal/core/domain"
)

// ResultAggregator accumulates the result sequence of one search session.
// Order is page-arrival order, then order within the page. A place whose ID
// is already present is dropped and keeps its first position, because
// provider pages are not guaranteed to be disjoint.
//
// ResultAggregator is not safe for concurrent use; SearchController
// serializes access to it.
type ResultAggregator struct {
	places []domain.FoodLocation
	index  map[string]int
}

// NewResultAggregator returns an empty aggregator.
func NewResultAggregator() *ResultAggregator {
	return &ResultAggregator{index: make(map[string]int)}
}

// AppendPage appends the places not seen before and returns exactly those.
func (a *ResultAggregator) AppendPage(page []domain.FoodLocation) []domain.FoodLocation {
	var added []domain.FoodLocation
	for _, p := range page {
		if _, ok := a.index[p.ID]; ok {
			continue
		}
		a.index[p.ID] = len(a.places)
		a.places = append(a.places, p)
		added = append(added, p)
	}
	return added
}

// Current returns a copy of the accumulated sequence.
func (a *ResultAggregator) Current() []domain.FoodLocation {
	out := make([]domain.FoodLocation, len(a.places))
	copy(out, a.places)
	return out
}

// Contains reports whether a place with the given ID has been appended.
func (a *ResultAggregator) Contains(id string) bool {
	_, ok := a.index[id]
	return ok
}

// Len returns the number of accumulated places.
func (a *ResultAggregator) Len() int {
	return len(a.places)
}

// Reset discards the sequence.
func (a *ResultAggregator) Reset() {
	a.places = nil
	a.index = make(map[string]int)
}
