package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/nearbite/internal/pkg/metrics"
)

// upstreamTimeout bounds handlers that may call the places provider.
const upstreamTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")

	// Search sessions
	v1.Post("/sessions", CreateSessionHandler(deps))
	v1.Get("/sessions/:id", GetSessionHandler(deps))
	v1.Delete("/sessions/:id", DeleteSessionHandler(deps))
	v1.Put("/sessions/:id/center", RecenterHandler(deps))
	v1.Post("/sessions/:id/next", timeout.NewWithContext(NextPageHandler(deps), upstreamTimeout))
	v1.Get("/sessions/:id/results", ResultsHandler(deps))
	v1.Get("/sessions/:id/results.geojson", ResultsGeoJSONHandler(deps))

	// Render sync
	v1.Post("/sessions/:id/render", RenderHandler(deps))
	v1.Delete("/sessions/:id/render", ResetRenderHandler(deps))

	v1.Get("/photos", PhotoHandler(deps))
	v1.Get("/stats", timeout.NewWithContext(StatsHandler(deps), upstreamTimeout))

	// GraphQL
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), upstreamTimeout))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS, deps.Explore)))
}
