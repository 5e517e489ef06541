package ml

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/ariqhikari/SnaillyJaya/internal/apperr"
	"github.com/ariqhikari/SnaillyJaya/internal/logger"
)

const minTrainingSamples = 10

// Sample is one labeled training row: normalized text plus its label.
type Sample struct {
	Text  string
	Label string
}

// TrainingSummary mirrors the training_summary.json layout.
type TrainingSummary struct {
	Timestamp          string   `json:"timestamp"`
	ValidationAccuracy float64  `json:"validation_accuracy"`
	TestAccuracy       float64  `json:"test_accuracy"`
	NumFeatures        int      `json:"num_features"`
	NumSamples         int      `json:"num_samples"`
	NumClasses         int      `json:"num_classes"`
	Classes            []string `json:"classes"`
}

// TrainerOptions carries tuning knobs; zero values fall back to defaults.
type TrainerOptions struct {
	C    float64
	Seed int64
}

type Trainer struct {
	log *logger.Logger
}

func NewTrainer(baseLog *logger.Logger) *Trainer {
	return &Trainer{log: baseLog.With("service", "Trainer")}
}

// Train fits a fresh TF-IDF vectorizer and calibrated linear SVM from
// labeled samples. The split is 60/20/20 train/validation/test, stratified
// per label when every class has at least three members, otherwise a plain
// shuffled split.
func (t *Trainer) Train(samples []Sample, opts TrainerOptions) (*Model, *TrainingSummary, error) {
	if len(samples) < minTrainingSamples {
		return nil, nil, apperr.InsufficientData(fmt.Errorf("have %d samples, need at least %d", len(samples), minTrainingSamples))
	}
	if opts.C == 0 {
		opts.C = 1.0
	}
	if opts.Seed == 0 {
		opts.Seed = 42
	}

	labels := distinctLabels(samples)
	if len(labels) != 2 {
		return nil, nil, apperr.InsufficientData(fmt.Errorf("need exactly 2 classes, got %d", len(labels)))
	}
	classes := [2]string{labels[0], labels[1]}

	train, valid, test := split(samples, opts.Seed)

	vec := NewTfidfVectorizer()
	trainTexts := make([]string, len(train))
	for i, s := range train {
		trainTexts[i] = s.Text
	}
	vec.Fit(trainTexts)

	x := make([]SparseVector, len(train))
	y := make([]int, len(train))
	for i, s := range train {
		x[i] = vec.Transform(s.Text)
		y[i] = labelIndex(classes, s.Label)
	}

	clf := TrainLinearSVM(x, y, vec.NumFeatures(), classes, opts.C, opts.Seed)

	version := time.Now().Format("20060102_150405")
	model := &Model{
		Vectorizer: vec,
		Classifier: clf,
		Version:    version,
		LoadedAt:   time.Now(),
	}

	summary := &TrainingSummary{
		Timestamp:          version,
		ValidationAccuracy: t.accuracy(model, classes, valid),
		TestAccuracy:       t.accuracy(model, classes, test),
		NumFeatures:        vec.NumFeatures(),
		NumSamples:         len(samples),
		NumClasses:         len(classes),
		Classes:            []string{classes[0], classes[1]},
	}

	t.log.Info("Training complete",
		"version", version,
		"samples", len(samples),
		"features", summary.NumFeatures,
		"validation_accuracy", summary.ValidationAccuracy,
		"test_accuracy", summary.TestAccuracy)

	return model, summary, nil
}

func (t *Trainer) accuracy(m *Model, classes [2]string, rows []Sample) float64 {
	if len(rows) == 0 {
		return 0
	}
	correct := 0
	for _, s := range rows {
		idx := m.Classifier.Predict(m.Vectorizer.Transform(s.Text))
		if classes[idx] == s.Label {
			correct++
		}
	}
	return float64(correct) / float64(len(rows))
}

// split shuffles and partitions samples 60/20/20. When every class holds at
// least three samples the partition is done per class so each slice keeps
// the label mix; otherwise the whole set is split in one pass.
func split(samples []Sample, seed int64) (train, valid, test []Sample) {
	rng := rand.New(rand.NewSource(seed))

	byLabel := map[string][]Sample{}
	for _, s := range samples {
		byLabel[s.Label] = append(byLabel[s.Label], s)
	}
	stratify := true
	for _, group := range byLabel {
		if len(group) < 3 {
			stratify = false
			break
		}
	}

	if !stratify {
		shuffled := append([]Sample(nil), samples...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		return cut(shuffled)
	}

	labels := make([]string, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		group := append([]Sample(nil), byLabel[l]...)
		rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		tr, va, te := cut(group)
		train = append(train, tr...)
		valid = append(valid, va...)
		test = append(test, te...)
	}
	rng.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })
	return train, valid, test
}

// cut partitions an already-shuffled slice 60/20/20, always leaving at
// least one sample in each part.
func cut(rows []Sample) (train, valid, test []Sample) {
	n := len(rows)
	nTrain := n * 6 / 10
	nValid := n * 2 / 10
	if nTrain < 1 {
		nTrain = 1
	}
	if nValid < 1 {
		nValid = 1
	}
	if nTrain+nValid >= n {
		nValid = 1
		nTrain = n - 2
		if nTrain < 1 {
			nTrain = 1
		}
	}
	return rows[:nTrain], rows[nTrain : nTrain+nValid], rows[nTrain+nValid:]
}

func distinctLabels(samples []Sample) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range samples {
		if _, ok := seen[s.Label]; !ok {
			seen[s.Label] = struct{}{}
			out = append(out, s.Label)
		}
	}
	sort.Strings(out)
	return out
}

func labelIndex(classes [2]string, label string) int {
	if label == classes[1] {
		return 1
	}
	return 0
}
