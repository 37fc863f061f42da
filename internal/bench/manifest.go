// Package bench prepares and launches a run of the external benchmarking
// engine over a validated problem store.
package bench

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/qpsolvers/open-qpbenchmark/internal/store"
)

// ManifestFile is the name of the manifest written into the results
// directory before the engine starts.
const ManifestFile = "manifest.yaml"

// ProblemRef is one problem handed to the engine.
type ProblemRef struct {
	Name  string `yaml:"name"`
	File  string `yaml:"file"`
	N     int    `yaml:"n"`
	MEq   int    `yaml:"meq"`
	MIneq int    `yaml:"mineq"`
}

// Manifest describes one benchmark run: which problems the engine may load
// and what it should know about them beforehand.
type Manifest struct {
	RunID         string               `yaml:"run_id"`
	Created       time.Time            `yaml:"created"`
	Title         string               `yaml:"title"`
	Description   string               `yaml:"description,omitempty"`
	SparseOnly    bool                 `yaml:"sparse_only"`
	DataDir       string               `yaml:"data_dir"`
	Results       string               `yaml:"results"`
	Problems      []ProblemRef         `yaml:"problems"`
	KnownIssues   []store.KnownIssue   `yaml:"known_issues,omitempty"`
	KnownTimeouts []store.KnownTimeout `yaml:"known_timeouts,omitempty"`
}

// ErrEmptyStore is returned by Plan when the store holds no problem.
var ErrEmptyStore = errors.New("problem store is empty")

// Plan checks every problem in s and builds the manifest of a run writing
// its report to results. Any problem that fails to load or validate aborts
// the plan with the combined error.
func Plan(s *store.Store, ts *store.TestSet, results string) (*Manifest, error) {
	report, err := s.Check()
	if err != nil {
		return nil, err
	}
	if err := report.Err(); err != nil {
		return nil, fmt.Errorf("refusing to benchmark an invalid store (%d of %d problems failed): %w",
			len(report.Failed()), len(report.Results), err)
	}
	if len(report.Results) == 0 {
		return nil, fmt.Errorf("%s: %w", s.Dir(), ErrEmptyStore)
	}
	if ts == nil {
		ts = store.DefaultTestSet()
	}

	m := &Manifest{
		RunID:         uuid.NewString(),
		Created:       time.Now().UTC().Truncate(time.Second),
		Title:         ts.Title,
		Description:   ts.Description,
		SparseOnly:    ts.SparseOnly,
		DataDir:       s.Dir(),
		Results:       results,
		KnownIssues:   ts.KnownIssues,
		KnownTimeouts: ts.KnownTimeouts,
	}
	for _, res := range report.Results {
		n, meq, mineq := res.Problem.Dims()
		rel, err := filepath.Rel(s.Dir(), res.Entry.Path)
		if err != nil {
			rel = res.Entry.Path
		}
		m.Problems = append(m.Problems, ProblemRef{
			Name:  res.Entry.Name,
			File:  filepath.ToSlash(rel),
			N:     n,
			MEq:   meq,
			MIneq: mineq,
		})
	}
	return m, nil
}

// WriteManifest writes m as ManifestFile in dir and returns its path.
func WriteManifest(dir string, m *Manifest) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create results directory %s: %w", dir, err)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("cannot marshal manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("cannot write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("cannot write manifest: %w", err)
	}
	return path, nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	if m.RunID == "" {
		return nil, fmt.Errorf("invalid manifest %s: run_id is empty", path)
	}
	return &m, nil
}
