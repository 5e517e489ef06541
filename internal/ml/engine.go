package ml

import (
	"errors"
	"strings"

	"github.com/ariqhikari/SnaillyJaya/internal/apperr"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
)

const (
	LabelSafe         = "aman"
	LabelDanger       = "berbahaya"
	LabelEmptySegment = "kosong"
	LabelUnknown      = "unknown"
)

// Engine scores normalized text against the active model pair.
type Engine struct {
	registry *Registry
	log      *logger.Logger
}

func NewEngine(registry *Registry, baseLog *logger.Logger) *Engine {
	return &Engine{
		registry: registry,
		log:      baseLog.With("service", "ClassificationEngine"),
	}
}

func (e *Engine) Registry() *Registry { return e.registry }

// Classify vectorizes and predicts with the active pair. Returns
// ModelUnavailable when no model has been loaded or trained yet.
func (e *Engine) Classify(text string) (string, []float64, error) {
	m := e.registry.Current()
	if m == nil || m.Vectorizer == nil || m.Classifier == nil {
		return "", nil, apperr.ModelUnavailable(errors.New("no active model"))
	}

	vec := m.Vectorizer.Transform(text)
	idx := m.Classifier.Predict(vec)
	proba := m.Classifier.Proba(vec)
	return m.Classifier.Classes[idx], []float64{proba[0], proba[1]}, nil
}

// ClassifySegment labels one video segment from its combined caption and
// transcript text. Empty combined text yields the sentinel label without
// touching the model.
func (e *Engine) ClassifySegment(combined string) string {
	if strings.TrimSpace(combined) == "" {
		return LabelEmptySegment
	}
	label, _, err := e.Classify(combined)
	if err != nil {
		e.log.Warn("Segment classification skipped", "error", err)
		return LabelUnknown
	}
	return label
}
