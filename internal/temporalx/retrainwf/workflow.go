package retrainwf

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	WorkflowName = "RetrainWorkflow"
	TaskQueue    = "snailly-retrain"

	ActivityRetrain = "RetrainActivity"
)

// Workflow runs one retraining pass. Scheduling (cron or manual start) is
// decided by the caller; the workflow itself is a single activity so a
// failed run surfaces cleanly in Temporal without partial state.
func Workflow(ctx workflow.Context) error {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		HeartbeatTimeout:    2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			InitialInterval:        time.Minute,
			NonRetryableErrorTypes: []string{"insufficient_data", "retrain_in_flight"},
		},
	})

	var result RetrainResult
	return workflow.ExecuteActivity(ctx, ActivityRetrain).Get(ctx, &result)
}
