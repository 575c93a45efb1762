package places

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/nearbite/internal/core/domain"
	"github.com/samirrijal/nearbite/internal/pkg/metrics"
	"github.com/samirrijal/nearbite/internal/pkg/telemetry"
)

const searchTextPath = "/v1/places:searchText"

// defaultFieldMask lists the response fields the client decodes.
const defaultFieldMask = "nextPageToken,places.id,places.displayName,places.location,places.photos"

// Client calls the Places text-search endpoint, one HTTP request per page.
type Client struct {
	baseURL     string
	apiKey      string
	fieldMask   string
	session     *http.Client
	tracer      trace.Tracer
	logger      *slog.Logger
	maxAttempts int
	backoff     time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.session = hc }
}

// WithFieldMask overrides the default response field mask.
func WithFieldMask(mask string) Option {
	return func(c *Client) {
		if mask != "" {
			c.fieldMask = mask
		}
	}
}

// WithRetry retries 429, 5xx and network failures up to attempts times in
// total, doubling the wait after each try.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
		c.backoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the provider at baseURL.
func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		fieldMask:   defaultFieldMask,
		session:     &http.Client{Timeout: timeout},
		tracer:      telemetry.Tracer(),
		logger:      slog.Default(),
		maxAttempts: 3,
		backoff:     200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the provider base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// SearchText fetches one page. Every failure wraps domain.ErrTransport.
func (c *Client) SearchText(ctx context.Context, req domain.TextSearchRequest) (_ *domain.PlacesPage, err error) {
	ctx, span := c.tracer.Start(ctx, telemetry.SpanPlacesSearch,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Bool(telemetry.AttrHasPageToken, req.PageToken != "")),
	)
	start := time.Now()
	defer func() {
		metrics.PlacesRequestDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.PlacesRequests.WithLabelValues("error").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			metrics.PlacesRequests.WithLabelValues("ok").Inc()
		}
		span.End()
	}()

	body, err := json.Marshal(toWire(req))
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", domain.ErrTransport, err)
	}

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, body)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int(telemetry.AttrHTTPStatus, resp.StatusCode))

	var decoded searchTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrTransport, err)
	}

	page := decoded.toDomain()
	span.SetAttributes(attribute.Int(telemetry.AttrPlaces, len(page.Places)))
	return page, nil
}

func (c *Client) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchTextPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", c.fieldMask)
	return req, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("places returned %d: %s", e.Code, e.Body)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &httpStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

func (c *Client) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	backoff := c.backoff
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, err
		}

		resp, err := c.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err) || attempt == c.maxAttempts {
			return nil, lastErr
		}
		c.logger.Debug("retrying places request", "attempt", attempt, "error", err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}

	return nil, lastErr
}

func retryable(err error) bool {
	var he *httpStatusError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
