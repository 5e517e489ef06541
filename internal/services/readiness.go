package services

import (
	"errors"
	"os"
	"sync/atomic"

	"github.com/ariqhikari/SnaillyJaya/internal/apperr"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
	"github.com/ariqhikari/SnaillyJaya/internal/ml"
)

type ReadinessState string

const (
	StateNotStarted ReadinessState = "not_started"
	StateLoading    ReadinessState = "loading"
	StateReady      ReadinessState = "ready"
	StateFailed     ReadinessState = "failed"
)

// Readiness tracks whether a model is loaded and serving. Liveness is
// separate; a process with no model is alive but not ready.
type Readiness struct {
	state    atomic.Value
	registry *ml.Registry
	store    *ml.Store
	log      *logger.Logger
}

func NewReadiness(registry *ml.Registry, store *ml.Store, baseLog *logger.Logger) *Readiness {
	r := &Readiness{
		registry: registry,
		store:    store,
		log:      baseLog.With("service", "Readiness"),
	}
	r.state.Store(StateNotStarted)
	return r
}

func (r *Readiness) State() ReadinessState {
	return r.state.Load().(ReadinessState)
}

// LoadModel pulls the latest persisted pair into the registry. A missing
// artifact leaves the process in failed state; the first successful
// retrain flips it to ready.
func (r *Readiness) LoadModel() error {
	r.state.Store(StateLoading)

	model, err := r.store.LoadLatest()
	if err != nil {
		r.state.Store(StateFailed)
		if errors.Is(err, os.ErrNotExist) {
			r.log.Warn("No persisted model found; serving requires a retrain first")
		} else {
			r.log.Error("Model load failed", "error", err)
		}
		return err
	}

	r.registry.Swap(model)
	r.state.Store(StateReady)
	r.log.Info("Model loaded", "version", model.Version)
	return nil
}

// MarkReady is called after a successful retrain swap so a process that
// started with no model begins reporting ready.
func (r *Readiness) MarkReady() {
	r.state.Store(StateReady)
}

// Check returns NotReady until a model is active.
func (r *Readiness) Check() error {
	state := r.State()
	if state == StateReady && r.registry.Current() != nil {
		return nil
	}
	return apperr.NotReady(string(state))
}
