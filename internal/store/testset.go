package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AnySettings matches every solver settings name in a known timeout.
const AnySettings = "*"

// KnownIssue records a solver known to fail on a problem.
type KnownIssue struct {
	Problem string `yaml:"problem"`
	Solver  string `yaml:"solver"`
}

// KnownTimeout overrides the time budget of a solver on a problem.
type KnownTimeout struct {
	Problem  string  `yaml:"problem"`
	Solver   string  `yaml:"solver"`
	Settings string  `yaml:"settings"`
	Seconds  float64 `yaml:"seconds"`
}

// TestSet is the declaration handed to the benchmarking engine alongside
// the problems.
type TestSet struct {
	Title         string         `yaml:"title"`
	Description   string         `yaml:"description"`
	SparseOnly    bool           `yaml:"sparse_only"`
	KnownIssues   []KnownIssue   `yaml:"known_issues,omitempty"`
	KnownTimeouts []KnownTimeout `yaml:"known_timeouts,omitempty"`
}

// DefaultTestSet is used when the store carries no testset.yaml.
func DefaultTestSet() *TestSet {
	return &TestSet{
		Title:       "Free-for-all test set",
		Description: "Community-built test set to benchmark QP solvers.",
		SparseOnly:  true,
	}
}

// LoadTestSet reads the declaration at path, falling back to defaults when
// the file does not exist.
func LoadTestSet(path string) (*TestSet, error) {
	ts := DefaultTestSet()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ts, nil
		}
		return nil, fmt.Errorf("cannot read test set %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, ts); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if err := ts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid test set %s: %w", path, err)
	}
	return ts, nil
}

// Validate checks that every declaration names a problem and a solver and
// that timeouts are positive.
func (ts *TestSet) Validate() error {
	for i, k := range ts.KnownIssues {
		if k.Problem == "" || k.Solver == "" {
			return fmt.Errorf("known_issues[%d]: problem and solver are required", i)
		}
	}
	for i, k := range ts.KnownTimeouts {
		if k.Problem == "" || k.Solver == "" {
			return fmt.Errorf("known_timeouts[%d]: problem and solver are required", i)
		}
		if k.Seconds <= 0 {
			return fmt.Errorf("known_timeouts[%d]: seconds must be > 0, got %g", i, k.Seconds)
		}
	}
	return nil
}

// IsKnownIssue reports whether solver is known to fail on problem.
func (ts *TestSet) IsKnownIssue(problem, solver string) bool {
	for _, k := range ts.KnownIssues {
		if k.Problem == problem && k.Solver == solver {
			return true
		}
	}
	return false
}

// Timeout returns the time budget declared for solver with settings on
// problem. An exact settings match wins over the "*" wildcard.
func (ts *TestSet) Timeout(problem, solver, settings string) (time.Duration, bool) {
	var wildcard *KnownTimeout
	for i := range ts.KnownTimeouts {
		k := &ts.KnownTimeouts[i]
		if k.Problem != problem || k.Solver != solver {
			continue
		}
		if k.Settings == settings {
			return seconds(k.Seconds), true
		}
		if k.Settings == AnySettings || k.Settings == "" {
			wildcard = k
		}
	}
	if wildcard != nil {
		return seconds(wildcard.Seconds), true
	}
	return 0, false
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// References returns the problem names mentioned by the declaration.
func (ts *TestSet) References() []string {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, k := range ts.KnownIssues {
		add(k.Problem)
	}
	for _, k := range ts.KnownTimeouts {
		add(k.Problem)
	}
	return out
}
