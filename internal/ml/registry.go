package ml

import (
	"sync/atomic"
	"time"
)

// Model pairs a fitted vectorizer with its classifier. The pair is always
// swapped as a unit; a vectorizer from one training run never serves with a
// classifier from another.
type Model struct {
	Vectorizer *TfidfVectorizer
	Classifier *LinearSVM
	Version    string
	LoadedAt   time.Time
}

// Registry holds the active model behind a single atomic pointer. Readers
// take a snapshot once per request, so a concurrent swap never yields a
// half-replaced pair.
type Registry struct {
	current atomic.Pointer[Model]
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Current returns the active model, or nil when none is loaded yet.
func (r *Registry) Current() *Model {
	return r.current.Load()
}

// Swap atomically replaces the active model.
func (r *Registry) Swap(m *Model) {
	if m != nil && m.LoadedAt.IsZero() {
		m.LoadedAt = time.Now()
	}
	r.current.Store(m)
}

// Version reports the active model version, or "" when none is loaded.
func (r *Registry) Version() string {
	if m := r.current.Load(); m != nil {
		return m.Version
	}
	return ""
}
