package problem

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// DefaultInfinityThreshold is the magnitude beyond which a bound is read as
// infinite. Problems converted from SIF use 1e20 as their infinity constant.
const DefaultInfinityThreshold = 9e19

// Loader reads problem files.
type Loader struct {
	// InfinityThreshold maps bounds with |x| > threshold to ±Inf.
	// Zero disables the mapping.
	InfinityThreshold float64
}

// DefaultLoader returns a Loader with the default infinity threshold.
func DefaultLoader() *Loader {
	return &Loader{InfinityThreshold: DefaultInfinityThreshold}
}

// Load reads the problem at path with a default Loader.
func Load(path string) (*Problem, error) {
	return DefaultLoader().Load(path)
}

// Load reads the problem at path. The encoding is selected by extension.
//
// A missing file yields *NotFoundError. Unparseable content, a missing P or
// q, or blocks whose dimensions disagree yield *MalformedProblemError; in the
// last case the error wraps an *InvalidProblemError listing every mismatch.
func (l *Loader) Load(path string) (*Problem, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Path: path, Err: err}
		}
		return nil, fmt.Errorf("cannot stat problem file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, &NotFoundError{Path: path, Err: fmt.Errorf("%s is a directory", path)}
	}

	var p *Problem
	switch EncodingOf(path) {
	case EncodingYAML:
		p, err = l.decodeYAMLFile(path)
	case EncodingNPZ:
		p, err = decodeNPZFile(path)
	default:
		return nil, &MalformedProblemError{Path: path, Err: ErrUnsupportedFormat}
	}
	if err != nil {
		return nil, err
	}

	if p.Name == "" {
		p.Name = NameFromPath(path)
	}
	l.mapInfinities(p)

	if p.P == nil {
		return nil, &MalformedProblemError{Path: path, Field: "P", Reason: "objective matrix is missing"}
	}
	if p.Q == nil {
		return nil, &MalformedProblemError{Path: path, Field: "q", Reason: "objective vector is missing"}
	}
	if vs := checkDims(p); len(vs) > 0 {
		return nil, &MalformedProblemError{
			Path:   path,
			Reason: "inconsistent dimensions",
			Err:    &InvalidProblemError{Name: p.Name, Violations: vs},
		}
	}
	return p, nil
}

func (l *Loader) mapInfinities(p *Problem) {
	if l.InfinityThreshold <= 0 {
		return
	}
	for _, v := range [][]float64{p.H, p.LB, p.UB} {
		clampInf(v, l.InfinityThreshold)
	}
}

func clampInf(v []float64, threshold float64) {
	for i, x := range v {
		switch {
		case x > threshold:
			v[i] = math.Inf(1)
		case x < -threshold:
			v[i] = math.Inf(-1)
		}
	}
}

// Save writes p to path in the encoding selected by its extension.
func Save(path string, p *Problem) error {
	switch EncodingOf(path) {
	case EncodingYAML:
		return saveYAMLFile(path, p)
	case EncodingNPZ:
		return saveNPZFile(path, p)
	}
	return fmt.Errorf("cannot save %s: %w", path, ErrUnsupportedFormat)
}

// Encoding identifies an on-disk problem format.
type Encoding string

const (
	EncodingUnknown Encoding = ""
	EncodingYAML    Encoding = "yaml"
	EncodingNPZ     Encoding = "npz"
)

// EncodingOf returns the encoding implied by the extension of path.
func EncodingOf(path string) Encoding {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return EncodingYAML
	case ".npz":
		return EncodingNPZ
	}
	return EncodingUnknown
}

// NameFromPath derives a problem name from its file name.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
