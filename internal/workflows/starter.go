package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"go.temporal.io/sdk/client"

	"github.com/samirrijal/nearbite/internal/core/domain"
	"github.com/samirrijal/nearbite/internal/pkg/metrics"
)

// WorkflowStarter is the subset of client.Client used to start workflows.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// WorkflowID names the warmup run for a center. The ID carries the exact
// center the run warms, since cached pages are keyed on the bounds derived
// from it; repeated requests for one center share a run.
func WorkflowID(center domain.GeoPoint) string {
	return "warmup-" + strconv.FormatFloat(center.Lat, 'f', -1, 64) + "," +
		strconv.FormatFloat(center.Lon, 'f', -1, 64)
}

// Starter turns warmup requests into workflow runs.
type Starter struct {
	client    WorkflowStarter
	taskQueue string
	maxPages  int
}

// NewStarter creates a Starter that runs WarmupWorkflow on taskQueue.
func NewStarter(c WorkflowStarter, taskQueue string, maxPages int) *Starter {
	return &Starter{client: c, taskQueue: taskQueue, maxPages: maxPages}
}

// Start launches a warmup run for req. If a run with the same ID is still
// going, Temporal hands back that run instead of starting another.
func (s *Starter) Start(ctx context.Context, req *domain.WarmupRequest) error {
	if err := req.Center.Validate(); err != nil {
		slog.Warn("dropping warmup request", "error", err)
		return nil
	}

	opts := client.StartWorkflowOptions{
		ID:        WorkflowID(req.Center),
		TaskQueue: s.taskQueue,
	}
	run, err := s.client.ExecuteWorkflow(ctx, opts, WarmupWorkflow, WarmupInput{
		Center:   req.Center,
		MaxPages: s.maxPages,
	})
	if err != nil {
		return fmt.Errorf("start warmup workflow: %w", err)
	}

	metrics.WarmupsStarted.Inc()
	slog.Debug("warmup workflow started", "workflow_id", run.GetID(), "run_id", run.GetRunID())
	return nil
}
