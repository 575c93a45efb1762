package workflows

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/nearbite/internal/core/domain"
	"github.com/samirrijal/nearbite/internal/core/ports"
	"github.com/samirrijal/nearbite/internal/core/usecases"
	"github.com/samirrijal/nearbite/internal/pkg/geospatial"
	"github.com/samirrijal/nearbite/internal/pkg/telemetry"
)

// WarmupActivities holds the activity implementations for the warmup workflow.
// Places should be the cached client so that fetched pages land in the cache.
type WarmupActivities struct {
	Places ports.PlacesSearchClient
	Params usecases.SearchParams
}

// WarmupPageInput identifies one page of a region.
type WarmupPageInput struct {
	Center    domain.GeoPoint
	PageToken string
}

// WarmupPageResult is what the workflow needs to continue paging.
type WarmupPageResult struct {
	Received      int
	NextPageToken string
}

// FetchWarmupPage requests one page for the region around Center, using the
// same query parameters as a user session so the cache keys match.
func (a *WarmupActivities) FetchWarmupPage(ctx context.Context, in WarmupPageInput) (WarmupPageResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanWarmupRegion)
	defer span.End()
	span.SetAttributes(attribute.Bool(telemetry.AttrHasPageToken, in.PageToken != ""))

	if err := in.Center.Validate(); err != nil {
		return WarmupPageResult{}, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidCenter", err)
	}
	bounds := geospatial.ComputeBounds(in.Center, a.Params.LatOffsetMeters, a.Params.LngOffsetMeters)
	if err := bounds.Validate(); err != nil {
		return WarmupPageResult{}, temporal.NewNonRetryableApplicationError(err.Error(), "DegenerateGeometry", err)
	}

	page, err := a.Places.SearchText(ctx, domain.TextSearchRequest{
		TextQuery:    a.Params.TextQuery,
		IncludedType: a.Params.IncludedType,
		PageSize:     a.Params.PageSize,
		Bounds:       bounds,
		PageToken:    in.PageToken,
	})
	if err == nil && page == nil {
		err = fmt.Errorf("%w: empty response", domain.ErrTransport)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return WarmupPageResult{}, fmt.Errorf("warm page: %w", err)
	}

	span.SetAttributes(attribute.Int(telemetry.AttrPlaces, len(page.Places)))
	activity.GetLogger(ctx).Debug("warmup page fetched", "places", len(page.Places), "more", page.NextPageToken != "")
	return WarmupPageResult{Received: len(page.Places), NextPageToken: page.NextPageToken}, nil
}
