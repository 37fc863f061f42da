package store

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// MetadataEntry documents one problem.
type MetadataEntry struct {
	Name           string   `yaml:"name"`
	Classification string   `yaml:"classification,omitempty"`
	Provenance     string   `yaml:"provenance,omitempty"`
	Links          []string `yaml:"links,omitempty"`
}

// MetadataTable maps problem names to their documentation.
type MetadataTable struct {
	Problems []MetadataEntry `yaml:"problems"`

	byName map[string]int
}

// LoadMetadata reads the metadata table at path. A missing file is an empty
// table. Duplicate names and unparseable classification codes are all
// reported in one error.
func LoadMetadata(path string) (*MetadataTable, error) {
	t := &MetadataTable{}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			t.index()
			return t, nil
		}
		return nil, fmt.Errorf("cannot read metadata %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if err := t.index(); err != nil {
		return nil, fmt.Errorf("invalid metadata %s: %w", path, err)
	}
	return t, nil
}

func (t *MetadataTable) index() error {
	var errs error
	t.byName = make(map[string]int, len(t.Problems))
	for i, e := range t.Problems {
		if e.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("entry %d has no name", i))
			continue
		}
		if _, ok := t.byName[e.Name]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate entry for %q", e.Name))
			continue
		}
		if e.Classification != "" {
			if _, err := ParseClassification(e.Classification); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", e.Name, err))
			}
		}
		t.byName[e.Name] = i
	}
	return errs
}

// Lookup returns the entry for name.
func (t *MetadataTable) Lookup(name string) (MetadataEntry, bool) {
	if t == nil {
		return MetadataEntry{}, false
	}
	i, ok := t.byName[name]
	if !ok {
		return MetadataEntry{}, false
	}
	return t.Problems[i], true
}
