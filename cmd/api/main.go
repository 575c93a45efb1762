package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/samirrijal/nearbite/internal/adapters/http"
	natsadapter "github.com/samirrijal/nearbite/internal/adapters/nats"
	"github.com/samirrijal/nearbite/internal/adapters/places"
	"github.com/samirrijal/nearbite/internal/adapters/postgres"
	"github.com/samirrijal/nearbite/internal/adapters/valkey"
	"github.com/samirrijal/nearbite/internal/core/ports"
	"github.com/samirrijal/nearbite/internal/core/usecases"
	"github.com/samirrijal/nearbite/internal/pkg/config"
	"github.com/samirrijal/nearbite/internal/pkg/logging"
	"github.com/samirrijal/nearbite/internal/pkg/metrics"
	"github.com/samirrijal/nearbite/internal/pkg/telemetry"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	cfg, err := config.Load("nearbite-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	slogger := logging.Setup("nearbite-api", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{}
	sessionDeps := usecases.SearchControllerDeps{Logger: slogger}

	// Database (page log). Sessions work without it.
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		slog.Warn("database unavailable, page log disabled", "error", err)
	} else {
		defer db.Close()
		pageLog := postgres.NewPageLogRepo(db)
		deps.DB = db
		deps.PageLog = pageLog
		sessionDeps.PageLog = pageLog
		go reportPoolStats(ctx, db)
	}

	// Cache
	var pageCache ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		deps.Cache = cache
		pageCache = cache
	}

	// NATS
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		sessionDeps.Publisher = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
		deps.NATS = natsConn
	}

	// Places provider
	if cfg.Places.APIKey == "" {
		slog.Warn("places api key not set, provider calls will be rejected")
	}
	client := places.NewClient(cfg.Places.BaseURL, cfg.Places.APIKey, cfg.Places.Timeout(),
		places.WithFieldMask(cfg.Places.FieldMask),
		places.WithLogger(slogger),
	)
	sessionDeps.Places = places.NewCachedClient(client, pageCache, cfg.Cache.PageTTLSeconds)
	deps.Photos = client

	// Sessions
	params := usecases.SearchParams{
		TextQuery:       cfg.Search.TextQuery,
		IncludedType:    cfg.Search.IncludedType,
		PageSize:        cfg.Search.PageSize,
		LatOffsetMeters: cfg.Search.LatOffsetMeters,
		LngOffsetMeters: cfg.Search.LngOffsetMeters,
	}
	explore := usecases.NewExploreService(params, sessionDeps, cfg.Sessions.IdleTTL())
	go explore.Run(ctx, cfg.Sessions.SweepInterval())
	deps.Explore = explore

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "Nearbite API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, If-None-Match",
		ExposeHeaders:    "Location, Link, ETag, X-Request-Id",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
	cancel()

	slog.Info("server stopped")
}

// reportPoolStats refreshes the DB pool gauges between readiness probes.
func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
