package ml

import (
	"sync"
	"testing"
)

func TestRegistryStartsEmpty(t *testing.T) {
	r := NewRegistry()
	if r.Current() != nil {
		t.Fatal("fresh registry must hold no model")
	}
	if r.Version() != "" {
		t.Fatal("fresh registry must report empty version")
	}
}

func TestRegistrySwapReplacesWholePair(t *testing.T) {
	r := NewRegistry()
	first := &Model{Vectorizer: NewTfidfVectorizer(), Classifier: &LinearSVM{}, Version: "v1"}
	second := &Model{Vectorizer: NewTfidfVectorizer(), Classifier: &LinearSVM{}, Version: "v2"}

	r.Swap(first)
	if r.Version() != "v1" {
		t.Fatalf("expected v1, got %q", r.Version())
	}
	r.Swap(second)

	got := r.Current()
	if got.Version != "v2" || got.Vectorizer != second.Vectorizer || got.Classifier != second.Classifier {
		t.Fatal("swap must replace vectorizer and classifier together")
	}
	if got.LoadedAt.IsZero() {
		t.Fatal("swap must stamp LoadedAt")
	}
}

func TestRegistryConcurrentReadersSeeConsistentPair(t *testing.T) {
	r := NewRegistry()
	a := &Model{Version: "a", Vectorizer: NewTfidfVectorizer(), Classifier: &LinearSVM{Classes: [2]string{"a", "a"}}}
	b := &Model{Version: "b", Vectorizer: NewTfidfVectorizer(), Classifier: &LinearSVM{Classes: [2]string{"b", "b"}}}
	r.Swap(a)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if i%2 == 0 {
				r.Swap(a)
			} else {
				r.Swap(b)
			}
		}
		close(stop)
	}()

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				m := r.Current()
				if m == nil {
					t.Error("registry lost its model mid-swap")
					return
				}
				// version and classifier must come from the same snapshot
				if m.Version != string(m.Classifier.Classes[0]) {
					t.Errorf("torn read: version %q classifier %q", m.Version, m.Classifier.Classes[0])
					return
				}
			}
		}()
	}
	wg.Wait()
}
