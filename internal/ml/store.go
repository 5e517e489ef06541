package ml

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ariqhikari/SnaillyJaya/internal/logger"
)

const (
	classifierPrefix = "svm_model_"
	vectorizerPrefix = "tfidf_vectorizer_"
	latestClassifier = "svm_model_latest.gob"
	latestVectorizer = "tfidf_vectorizer_latest.gob"
	summaryFile      = "training_summary.json"
)

// Store persists model pairs under a timestamped name plus a fixed "latest"
// alias, alongside the JSON training summary.
type Store struct {
	dir string
	log *logger.Logger
}

func NewStore(dir string, baseLog *logger.Logger) *Store {
	return &Store{dir: dir, log: baseLog.With("service", "ModelStore")}
}

func (s *Store) Dir() string { return s.dir }

// Save writes the pair under both the timestamped and latest names. The
// timestamped artifacts are written first so a crash mid-save can never
// corrupt the latest alias into a mixed pair.
func (s *Store) Save(m *Model, summary *TrainingSummary) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	stamped := []struct {
		name    string
		payload any
	}{
		{classifierPrefix + m.Version + ".gob", m.Classifier},
		{vectorizerPrefix + m.Version + ".gob", m.Vectorizer},
		{latestClassifier, m.Classifier},
		{latestVectorizer, m.Vectorizer},
	}
	for _, f := range stamped {
		if err := s.writeGob(f.name, f.payload); err != nil {
			return err
		}
	}

	if summary != nil {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal training summary: %w", err)
		}
		if err := os.WriteFile(filepath.Join(s.dir, summaryFile), data, 0o644); err != nil {
			return fmt.Errorf("write training summary: %w", err)
		}
	}

	s.log.Info("Model artifacts saved", "version", m.Version, "dir", s.dir)
	return nil
}

// LoadLatest reads the model pair behind the latest alias. A missing
// artifact is reported as os.ErrNotExist for the caller to treat as
// "no model yet".
func (s *Store) LoadLatest() (*Model, error) {
	var clf LinearSVM
	if err := s.readGob(latestClassifier, &clf); err != nil {
		return nil, err
	}
	var vec TfidfVectorizer
	if err := s.readGob(latestVectorizer, &vec); err != nil {
		return nil, err
	}

	version := "latest"
	if summary, err := s.LoadSummary(); err == nil && summary.Timestamp != "" {
		version = summary.Timestamp
	}

	return &Model{Vectorizer: &vec, Classifier: &clf, Version: version}, nil
}

func (s *Store) LoadSummary() (*TrainingSummary, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, summaryFile))
	if err != nil {
		return nil, err
	}
	var summary TrainingSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ArtifactPaths lists the files written for a version, for callers that
// archive artifacts elsewhere.
func (s *Store) ArtifactPaths(version string) []string {
	return []string{
		filepath.Join(s.dir, classifierPrefix+version+".gob"),
		filepath.Join(s.dir, vectorizerPrefix+version+".gob"),
		filepath.Join(s.dir, summaryFile),
	}
}

// writeGob encodes into a temp file and renames it into place, so a
// reader never observes a partially written artifact.
func (s *Store) writeGob(name string, payload any) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := gob.NewEncoder(tmp).Encode(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func (s *Store) readGob(name string, out any) error {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewDecoder(f).Decode(out)
}
