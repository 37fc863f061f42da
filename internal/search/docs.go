package search

import (
	"path/filepath"

	"github.com/qpsolvers/open-qpbenchmark/internal/store"
)

// Documents builds the searchable documents of every problem in s from the
// file listing and the metadata table. Problem files are not loaded.
func Documents(s *store.Store) ([]Doc, error) {
	entries, err := s.Discover()
	if err != nil {
		return nil, err
	}
	meta, err := s.Metadata()
	if err != nil {
		return nil, err
	}

	docs := make([]Doc, 0, len(entries))
	for _, e := range entries {
		rel, err := filepath.Rel(s.Dir(), e.Path)
		if err != nil {
			rel = e.Path
		}
		d := Doc{Name: e.Name, Path: filepath.ToSlash(rel), Encoding: e.Encoding}
		if m, ok := meta.Lookup(e.Name); ok {
			d.Classification = m.Classification
			d.Provenance = m.Provenance
			if c, err := store.ParseClassification(m.Classification); err == nil {
				d.Describe = c.Describe()
			}
		}
		docs = append(docs, d)
	}
	return docs, nil
}
