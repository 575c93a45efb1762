package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nearbite",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nearbite",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nearbite",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Places provider
	PlacesRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nearbite",
		Subsystem: "places",
		Name:      "requests_total",
		Help:      "Text-search requests sent to the places provider, by outcome",
	}, []string{"outcome"})

	PlacesRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nearbite",
		Subsystem: "places",
		Name:      "request_duration_seconds",
		Help:      "Latency of text-search requests",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	// Search engine
	PagesApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nearbite",
		Subsystem: "search",
		Name:      "pages_applied_total",
		Help:      "Result pages appended to a session",
	})

	DuplicatesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nearbite",
		Subsystem: "search",
		Name:      "duplicates_dropped_total",
		Help:      "Places dropped because their ID was already in the session",
	})

	StaleResponses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nearbite",
		Subsystem: "search",
		Name:      "stale_responses_total",
		Help:      "Pages discarded because their session was replaced while in flight",
	})

	PlacesOutsideBounds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nearbite",
		Subsystem: "search",
		Name:      "places_outside_bounds_total",
		Help:      "Places returned by the provider outside the requested rectangle",
	})

	PlacesMaterialized = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nearbite",
		Subsystem: "render",
		Name:      "places_materialized_total",
		Help:      "Places handed to rendering surfaces for materialization",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nearbite",
		Subsystem: "search",
		Name:      "active_sessions",
		Help:      "Open search sessions",
	})

	WarmupsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nearbite",
		Subsystem: "warmup",
		Name:      "workflows_started_total",
		Help:      "Cache warmup workflows started",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nearbite",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nearbite",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nearbite",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nearbite",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nearbite",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "nearbite",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path // route pattern keeps session IDs out of labels
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// PoolStat is the subset of pgxpool.Stat read by UpdateDBPoolMetrics.
type PoolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
}

// UpdateDBPoolMetrics copies pool statistics into the db gauges.
func UpdateDBPoolMetrics(s PoolStat) {
	DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
	DBPoolConnsIdle.Set(float64(s.IdleConns()))
	DBPoolConnsOpen.Set(float64(s.TotalConns()))
}
