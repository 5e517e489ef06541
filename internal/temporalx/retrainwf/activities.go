package retrainwf

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/ariqhikari/SnaillyJaya/internal/apperr"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/services"
)

type RetrainResult struct {
	Version            string  `json:"version"`
	NumSamples         int     `json:"num_samples"`
	ValidationAccuracy float64 `json:"validation_accuracy"`
	TestAccuracy       float64 `json:"test_accuracy"`
}

type Activities struct {
	Log         *logger.Logger
	Coordinator services.RetrainingCoordinator
	Readiness   *services.Readiness
}

func (a *Activities) Retrain(ctx context.Context) (RetrainResult, error) {
	var res RetrainResult
	if a == nil || a.Coordinator == nil {
		return res, fmt.Errorf("retrain activity not configured")
	}

	summary, err := a.Coordinator.Retrain(ctx)
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			// typed failures map to non-retryable application errors so the
			// retry policy can distinguish them
			return res, temporal.NewApplicationError(err.Error(), ae.Code)
		}
		return res, err
	}
	if a.Readiness != nil {
		a.Readiness.MarkReady()
	}

	res = RetrainResult{
		Version:            summary.Timestamp,
		NumSamples:         summary.NumSamples,
		ValidationAccuracy: summary.ValidationAccuracy,
		TestAccuracy:       summary.TestAccuracy,
	}
	if a.Log != nil {
		a.Log.Info("Scheduled retrain finished", "version", res.Version, "samples", res.NumSamples)
	}
	return res, nil
}
