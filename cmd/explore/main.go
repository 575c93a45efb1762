package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/samirrijal/nearbite/internal/adapters/places"
	"github.com/samirrijal/nearbite/internal/adapters/valkey"
	"github.com/samirrijal/nearbite/internal/core/domain"
	"github.com/samirrijal/nearbite/internal/core/ports"
	"github.com/samirrijal/nearbite/internal/core/usecases"
	"github.com/samirrijal/nearbite/internal/pkg/config"
	"github.com/samirrijal/nearbite/internal/pkg/logging"
)

func main() {
	lat := flag.Float64("lat", 40.7128, "search center latitude")
	lon := flag.Float64("lon", -74.0060, "search center longitude")
	pages := flag.Int("pages", 3, "maximum pages to fetch")
	asJSON := flag.Bool("json", false, "print results as JSON lines")
	useCache := flag.Bool("cache", false, "read and fill the valkey page cache")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load("nearbite-explore")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	slogger := logging.New(os.Stderr, cfg.Log.Level, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var client ports.PlacesSearchClient = places.NewClient(cfg.Places.BaseURL, cfg.Places.APIKey, cfg.Places.Timeout(),
		places.WithFieldMask(cfg.Places.FieldMask),
		places.WithLogger(slogger),
	)
	if *useCache {
		cache, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			log.Fatalf("valkey: %v", err)
		}
		defer cache.Close()
		client = places.NewCachedClient(client, cache, cfg.Cache.PageTTLSeconds)
	}

	ctrl := usecases.NewSearchController(uuid.NewString(), usecases.SearchParams{
		TextQuery:       cfg.Search.TextQuery,
		IncludedType:    cfg.Search.IncludedType,
		PageSize:        cfg.Search.PageSize,
		LatOffsetMeters: cfg.Search.LatOffsetMeters,
		LngOffsetMeters: cfg.Search.LngOffsetMeters,
	}, usecases.SearchControllerDeps{Places: client, Logger: slogger})

	if err := ctrl.StartSession(domain.GeoPoint{Lat: *lat, Lon: *lon}); err != nil {
		log.Fatalf("start session: %v", err)
	}

	for i := 0; i < *pages; i++ {
		res, err := ctrl.FetchNext(ctx)
		if err != nil {
			log.Fatalf("page %d: %v", i+1, err)
		}
		if res.Status != domain.FetchApplied {
			break
		}
		fmt.Fprintf(os.Stderr, "page %d: received %d, kept %d\n", i+1, res.Received, len(res.Appended))

		// Only entities the surface has not drawn yet are printed.
		if err := printPlaces(ctrl.ReconcileAll(true), *asJSON); err != nil {
			log.Fatalf("print: %v", err)
		}
		if res.Exhausted {
			break
		}
	}

	st := ctrl.Status()
	fmt.Fprintf(os.Stderr, "%d places over %d pages (state %s)\n", st.Results, st.PagesFetched, st.State)
}

func printPlaces(ps []domain.FoodLocation, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		for _, p := range ps {
			if err := enc.Encode(p); err != nil {
				return err
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, p := range ps {
		dist := "-"
		if p.DistanceMeters != nil {
			dist = fmt.Sprintf("%.0fm", *p.DistanceMeters)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.5f,%.5f\t%s\n", p.ID, p.Name, p.Location.Lat, p.Location.Lon, dist)
	}
	return tw.Flush()
}
