package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/nearbite/internal/core/domain"
	"github.com/samirrijal/nearbite/internal/core/usecases"
)

func newExploreService(pub *mockPublisher, ttl time.Duration) *usecases.ExploreService {
	deps := usecases.SearchControllerDeps{Places: &mockPlaces{}}
	if pub != nil {
		deps.Publisher = pub
	}
	return usecases.NewExploreService(usecases.DefaultSearchParams(), deps, ttl)
}

func TestExploreService_CreateAndGet(t *testing.T) {
	pub := &mockPublisher{}
	svc := newExploreService(pub, time.Hour)

	ctrl, err := svc.Create(context.Background(), newYork)
	require.NoError(t, err)
	assert.NotEmpty(t, ctrl.ID())
	assert.Equal(t, 1, svc.Len())

	got, err := svc.Get(ctrl.ID())
	require.NoError(t, err)
	assert.Same(t, ctrl, got)

	require.Len(t, pub.warmups, 1)
	assert.Equal(t, newYork, pub.warmups[0].Center)
}

func TestExploreService_SessionsAreIndependent(t *testing.T) {
	svc := newExploreService(nil, time.Hour)
	ctx := context.Background()

	a, err := svc.Create(ctx, newYork)
	require.NoError(t, err)
	b, err := svc.Create(ctx, domain.GeoPoint{Lat: 43.26, Lon: -2.93})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())

	_, err = a.FetchNext(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Status().PagesFetched)
	assert.Equal(t, 0, b.Status().PagesFetched)
}

func TestExploreService_CreateRejectsBadCenter(t *testing.T) {
	svc := newExploreService(nil, time.Hour)
	_, err := svc.Create(context.Background(), domain.GeoPoint{Lat: -90, Lon: 10})
	assert.ErrorIs(t, err, domain.ErrDegenerateGeometry)
	assert.Equal(t, 0, svc.Len())
}

func TestExploreService_UnknownSession(t *testing.T) {
	svc := newExploreService(nil, time.Hour)

	_, err := svc.Get("missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = svc.Recenter(context.Background(), "missing", newYork)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	assert.ErrorIs(t, svc.Close("missing"), domain.ErrSessionNotFound)
}

func TestExploreService_Recenter(t *testing.T) {
	pub := &mockPublisher{}
	svc := newExploreService(pub, time.Hour)
	ctx := context.Background()

	ctrl, err := svc.Create(ctx, newYork)
	require.NoError(t, err)

	bilbao := domain.GeoPoint{Lat: 43.26, Lon: -2.93}
	_, err = svc.Recenter(ctx, ctrl.ID(), bilbao)
	require.NoError(t, err)

	st := ctrl.Status()
	assert.Equal(t, uint64(2), st.Epoch)
	require.NotNil(t, st.Center)
	assert.Equal(t, bilbao, *st.Center)
	assert.Len(t, pub.warmups, 2)
}

func TestExploreService_Close(t *testing.T) {
	svc := newExploreService(nil, time.Hour)
	ctrl, err := svc.Create(context.Background(), newYork)
	require.NoError(t, err)

	require.NoError(t, svc.Close(ctrl.ID()))
	assert.Equal(t, 0, svc.Len())
	_, err = svc.Get(ctrl.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestExploreService_Sweep(t *testing.T) {
	svc := newExploreService(nil, time.Minute)
	ctrl, err := svc.Create(context.Background(), newYork)
	require.NoError(t, err)

	assert.Equal(t, 0, svc.Sweep(time.Now()))
	assert.Equal(t, 1, svc.Len())

	assert.Equal(t, 1, svc.Sweep(ctrl.LastActivity().Add(2*time.Minute)))
	assert.Equal(t, 0, svc.Len())
}

func TestExploreService_SweepKeepsFetchingSession(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	client := &mockPlaces{searchFn: func(context.Context, domain.TextSearchRequest) (*domain.PlacesPage, error) {
		close(started)
		<-release
		return &domain.PlacesPage{Places: places("a", "b"), NextPageToken: "t1"}, nil
	}}
	svc := usecases.NewExploreService(usecases.DefaultSearchParams(),
		usecases.SearchControllerDeps{Places: client}, time.Minute)
	ctrl, err := svc.Create(context.Background(), newYork)
	require.NoError(t, err)

	done := make(chan domain.FetchResult, 1)
	go func() {
		res, _ := ctrl.FetchNext(context.Background())
		done <- res
	}()
	<-started

	// The provider call outlasts the idle TTL.
	assert.Equal(t, 0, svc.Sweep(ctrl.LastActivity().Add(2*time.Minute)))
	assert.Equal(t, 1, svc.Len())

	close(release)
	res := <-done
	assert.Equal(t, domain.FetchApplied, res.Status)
	_, err = svc.Get(ctrl.ID())
	require.NoError(t, err)

	assert.Equal(t, 1, svc.Sweep(ctrl.LastActivity().Add(2*time.Minute)))
	assert.Equal(t, 0, svc.Len())
}

func TestExploreService_SweepDisabled(t *testing.T) {
	svc := newExploreService(nil, 0)
	_, err := svc.Create(context.Background(), newYork)
	require.NoError(t, err)

	assert.Equal(t, 0, svc.Sweep(time.Now().Add(24*time.Hour)))
	assert.Equal(t, 1, svc.Len())
}
