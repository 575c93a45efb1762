package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/nearbite/internal/adapters/nats"
	"github.com/samirrijal/nearbite/internal/adapters/places"
	"github.com/samirrijal/nearbite/internal/adapters/valkey"
	"github.com/samirrijal/nearbite/internal/core/ports"
	"github.com/samirrijal/nearbite/internal/core/usecases"
	"github.com/samirrijal/nearbite/internal/pkg/config"
	"github.com/samirrijal/nearbite/internal/pkg/logging"
	"github.com/samirrijal/nearbite/internal/pkg/telemetry"
	"github.com/samirrijal/nearbite/internal/workflows"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	cfg, err := config.Load("nearbite-warmer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	slogger := logging.Setup("nearbite-warmer", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Warming only pays off when pages land in the shared cache.
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()
	var pageCache ports.CacheService = cache

	pc := places.NewClient(cfg.Places.BaseURL, cfg.Places.APIKey, cfg.Places.Timeout(),
		places.WithFieldMask(cfg.Places.FieldMask),
		places.WithLogger(slogger),
	)
	cached := places.NewCachedClient(pc, pageCache, cfg.Cache.PageTTLSeconds)

	// Connect to Temporal
	tc, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
		Logger:   slogger,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer tc.Close()

	w := worker.New(tc, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.WarmupWorkflow)
	w.RegisterActivity(&workflows.WarmupActivities{
		Places: cached,
		Params: usecases.SearchParams{
			TextQuery:       cfg.Search.TextQuery,
			IncludedType:    cfg.Search.IncludedType,
			PageSize:        cfg.Search.PageSize,
			LatOffsetMeters: cfg.Search.LatOffsetMeters,
			LngOffsetMeters: cfg.Search.LngOffsetMeters,
		},
	})

	// Warmup requests from the API arrive over NATS.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer sub.Close()

	starter := workflows.NewStarter(tc, cfg.Temporal.TaskQueue, cfg.Temporal.MaxPages)
	if err := sub.SubscribeWarmupRequests(ctx, starter.Start); err != nil {
		log.Fatalf("subscribe warmup requests: %v", err)
	}

	slog.Info("warmer worker started", "task_queue", cfg.Temporal.TaskQueue, "max_pages", cfg.Temporal.MaxPages)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
