package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/nearbite/internal/core/domain"
	"github.com/samirrijal/nearbite/internal/pkg/metrics"
	"github.com/samirrijal/nearbite/internal/pkg/telemetry"
)

// Photo size limits accepted by the media endpoint.
const (
	DefaultPhotoPx = 400
	MaxPhotoPx     = 4800
)

// ErrInvalidPhotoName is returned for names that are not photo resources.
var ErrInvalidPhotoName = errors.New("invalid photo name")

// ClampPhotoPx bounds a requested photo dimension to 1..MaxPhotoPx,
// substituting DefaultPhotoPx for zero or negative values.
func ClampPhotoPx(px int) int {
	switch {
	case px <= 0:
		return DefaultPhotoPx
	case px > MaxPhotoPx:
		return MaxPhotoPx
	default:
		return px
	}
}

// MediaURL builds the media endpoint URL for a photo resource name such as
// "places/ChIJ.../photos/Aaw...". The URL asks for a JSON body carrying the
// photo URI instead of a redirect, and never contains the API key.
func MediaURL(baseURL, photoName string, maxWidth, maxHeight int) (string, error) {
	name := strings.Trim(photoName, "/")
	if name == "" || !strings.HasPrefix(name, "places/") || !strings.Contains(name, "/photos/") {
		return "", fmt.Errorf("%w %q", ErrInvalidPhotoName, photoName)
	}

	q := url.Values{}
	q.Set("maxHeightPx", strconv.Itoa(ClampPhotoPx(maxHeight)))
	q.Set("maxWidthPx", strconv.Itoa(ClampPhotoPx(maxWidth)))
	q.Set("skipHttpRedirect", "true")

	return strings.TrimRight(baseURL, "/") + "/v1/" + name + "/media?" + q.Encode(), nil
}

type photoMediaResponse struct {
	Name     string `json:"name"`
	PhotoURI string `json:"photoUri"`
}

// ResolvePhoto asks the media endpoint for the short-lived, key-free URI of
// a photo. The API key travels in a header only.
func (c *Client) ResolvePhoto(ctx context.Context, photoName string, maxWidth, maxHeight int) (_ string, err error) {
	target, err := MediaURL(c.baseURL, photoName, maxWidth, maxHeight)
	if err != nil {
		return "", err
	}

	ctx, span := c.tracer.Start(ctx, telemetry.SpanPlacesPhoto, trace.WithSpanKind(trace.SpanKindClient))
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

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Goog-Api-Key", c.apiKey)
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int(telemetry.AttrHTTPStatus, resp.StatusCode))

	var decoded photoMediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: decode photo response: %w", domain.ErrTransport, err)
	}
	if decoded.PhotoURI == "" {
		return "", fmt.Errorf("%w: photo response without photoUri", domain.ErrTransport)
	}
	return decoded.PhotoURI, nil
}
