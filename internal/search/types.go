// Package search finds problems in the store by keyword.
package search

import "github.com/qpsolvers/open-qpbenchmark/internal/problem"

// Doc is the searchable metadata of one problem.
type Doc struct {
	Name           string
	Path           string
	Encoding       problem.Encoding
	Classification string
	// Describe is the human reading of Classification, if it parses.
	Describe   string
	Provenance string
}

// Result is one matched problem.
type Result struct {
	Doc   Doc
	Score float64
	Why   string
}
