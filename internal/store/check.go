package store

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/qpsolvers/open-qpbenchmark/internal/problem"
)

// Result is the outcome of loading and validating one problem.
type Result struct {
	Entry   Entry
	Problem *problem.Problem
	Err     error
}

// Report collects the results of a store check.
type Report struct {
	Results []Result
}

// Failed returns the results that carry an error.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Problems returns the problems that loaded and validated.
func (r *Report) Problems() []*problem.Problem {
	var out []*problem.Problem
	for _, res := range r.Results {
		if res.Err == nil {
			out = append(out, res.Problem)
		}
	}
	return out
}

// Err combines the errors of every failed problem, or returns nil.
func (r *Report) Err() error {
	var errs error
	for _, res := range r.Failed() {
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", res.Entry.Name, res.Err))
	}
	return errs
}

// Check loads and validates the named problems, or every problem when no
// name is given. Every problem is checked even after a failure. The
// returned error reports a store that cannot be scanned; per-problem
// failures live in the report.
func (s *Store) Check(names ...string) (*Report, error) {
	meta, err := s.Metadata()
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if len(names) == 0 {
		if entries, err = s.Discover(); err != nil {
			return nil, err
		}
	} else {
		for _, name := range names {
			e, err := s.Find(name)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
		}
	}

	report := &Report{Results: make([]Result, 0, len(entries))}
	for _, e := range entries {
		res := Result{Entry: e}
		p, err := s.loadEntry(e, meta)
		if err == nil {
			err = problem.ValidateWithTolerance(p, s.tol)
		}
		if err != nil {
			s.log.Debug("problem rejected", zap.String("name", e.Name), zap.Error(err))
			res.Err = err
		} else {
			res.Problem = p
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}
