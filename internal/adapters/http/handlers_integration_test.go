//go:build integration
// +build integration

package http_test

import (
	"context"
	"testing"
	"time"

	handler "github.com/samirrijal/nearbite/internal/adapters/http"
	"github.com/samirrijal/nearbite/internal/adapters/postgres"
	"github.com/samirrijal/nearbite/internal/core/usecases"
	"github.com/samirrijal/nearbite/internal/pkg/config"
)

// setupTestDB connects to the test database and applies the schema.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("nearbite-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := postgres.Migrate(ctx, db, "up"); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// setupTestDeps wires the page log to a real database, with a fake provider.
func setupTestDeps(db *postgres.DB, client *mockPlaces) *handler.Dependencies {
	repo := postgres.NewPageLogRepo(db)
	return &handler.Dependencies{
		Explore: usecases.NewExploreService(usecases.DefaultSearchParams(), usecases.SearchControllerDeps{
			Places:  client,
			PageLog: repo,
		}, time.Hour),
		PageLog: repo,
		DB:      db,
		Photos:  &mockPhotos{},
	}
}

// TestPageLog_Integration_RecordsAppliedPages checks that every applied page
// lands in the page log and shows up in /v1/stats.
func TestPageLog_Integration_RecordsAppliedPages(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupTestDeps(db, twoPages()))

	var before handler.StatsResponse
	decode(t, doJSON(t, app, "GET", "/v1/stats", nil), &before)

	id := createSession(t, app)
	for i := 0; i < 3; i++ {
		resp := doJSON(t, app, "POST", "/v1/sessions/"+id+"/next", nil)
		if resp.StatusCode != 200 {
			t.Fatalf("next #%d: expected 200, got %d", i+1, resp.StatusCode)
		}
	}

	var after handler.StatsResponse
	decode(t, doJSON(t, app, "GET", "/v1/stats", nil), &after)

	// The third call is a no-op on an exhausted session and is not logged.
	if got := after.Pages - before.Pages; got != 2 {
		t.Errorf("expected 2 new pages, got %d", got)
	}
	if got := after.PlacesSeen - before.PlacesSeen; got != 8 {
		t.Errorf("expected 8 places seen, got %d", got)
	}
	if got := after.PlacesKept - before.PlacesKept; got != 7 {
		t.Errorf("expected 7 places kept, got %d", got)
	}
	if after.LastFetchedAt == "" {
		t.Error("expected last fetch timestamp")
	}
}

// TestReady_Integration reports the database as ok.
func TestReady_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupTestDeps(db, &mockPlaces{}))

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	resp := doJSON(t, app, "GET", "/v1/ready", nil)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decode(t, resp, &body)
	if body.Checks["database"] != "ok" {
		t.Errorf("expected database ok, got %q", body.Checks["database"])
	}
}
