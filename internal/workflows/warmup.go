package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/nearbite/internal/core/domain"
)

// WarmupInput is the input for the warmup workflow.
type WarmupInput struct {
	Center   domain.GeoPoint
	MaxPages int
}

// WarmupResult summarizes what a warmup run fetched.
type WarmupResult struct {
	Pages     int
	Places    int
	Exhausted bool
}

// WarmupWorkflow pages through the region around a center, up to MaxPages,
// so the first pages a user asks for are already cached. It stops early when
// the provider reports no further pages.
func WarmupWorkflow(ctx workflow.Context, input WarmupInput) (WarmupResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting warmup workflow", "lat", input.Center.Lat, "lon", input.Center.Lon, "maxPages", input.MaxPages)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var result WarmupResult
	token := ""
	for result.Pages < input.MaxPages {
		var page WarmupPageResult
		err := workflow.ExecuteActivity(ctx, "FetchWarmupPage", WarmupPageInput{
			Center:    input.Center,
			PageToken: token,
		}).Get(ctx, &page)
		if err != nil {
			logger.Warn("warmup page failed", "page", result.Pages+1, "error", err)
			return result, err
		}

		result.Pages++
		result.Places += page.Received
		if page.NextPageToken == "" {
			result.Exhausted = true
			break
		}
		token = page.NextPageToken
	}

	logger.Info("Warmup finished", "pages", result.Pages, "places", result.Places, "exhausted", result.Exhausted)
	return result, nil
}
