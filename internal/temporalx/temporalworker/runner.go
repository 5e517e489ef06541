package temporalworker

import (
	"context"
	"fmt"
	"os"
	"strings"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/services"
	"github.com/ariqhikari/SnaillyJaya/internal/temporalx/retrainwf"
)

// Runner hosts the retrain worker and owns the cron schedule for periodic
// retraining.
type Runner struct {
	log         *logger.Logger
	tc          temporalsdkclient.Client
	coordinator services.RetrainingCoordinator
	readiness   *services.Readiness
}

func NewRunner(
	log *logger.Logger,
	tc temporalsdkclient.Client,
	coordinator services.RetrainingCoordinator,
	readiness *services.Readiness,
) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if coordinator == nil {
		return nil, fmt.Errorf("temporal worker missing deps")
	}
	return &Runner{
		log:         log,
		tc:          tc,
		coordinator: coordinator,
		readiness:   readiness,
	}, nil
}

// Start registers the workflow and activity, starts the worker, and
// ensures the periodic schedule exists. The worker stops when ctx ends.
func (r *Runner) Start(ctx context.Context) error {
	w := worker.New(r.tc, retrainwf.TaskQueue, worker.Options{})

	w.RegisterWorkflowWithOptions(retrainwf.Workflow, workflow.RegisterOptions{Name: retrainwf.WorkflowName})

	acts := &retrainwf.Activities{
		Log:         r.log,
		Coordinator: r.coordinator,
		Readiness:   r.readiness,
	}
	w.RegisterActivityWithOptions(acts.Retrain, activity.RegisterOptions{Name: retrainwf.ActivityRetrain})

	if err := w.Start(); err != nil {
		return fmt.Errorf("start temporal worker: %w", err)
	}
	r.log.Info("Temporal retrain worker started", "task_queue", retrainwf.TaskQueue)

	r.ensureSchedule(ctx)

	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}

// ensureSchedule starts the cron-backed workflow if RETRAIN_CRON is set.
// An already-running schedule is left alone.
func (r *Runner) ensureSchedule(ctx context.Context) {
	cron := strings.TrimSpace(os.Getenv("RETRAIN_CRON"))
	if cron == "" {
		return
	}

	_, err := r.tc.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:                    "retrain-schedule",
		TaskQueue:             retrainwf.TaskQueue,
		CronSchedule:          cron,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}, retrainwf.WorkflowName)
	if err != nil {
		r.log.Warn("Retrain schedule start failed (may already exist)", "cron", cron, "error", err)
		return
	}
	r.log.Info("Retrain schedule ensured", "cron", cron)
}
