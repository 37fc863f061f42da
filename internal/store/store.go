// Package store manages the Problem Store: a directory of serialized QP
// problems plus the metadata table and test-set declaration kept beside
// them.
package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/qpsolvers/open-qpbenchmark/internal/logging"
	"github.com/qpsolvers/open-qpbenchmark/internal/problem"
)

// Files in the store directory that are not problems.
const (
	MetadataFile = "metadata.yaml"
	TestSetFile  = "testset.yaml"
)

// reservedFile reports whether a file name belongs to the store itself.
func reservedFile(name string) bool {
	return name == MetadataFile || name == TestSetFile
}

// reservedName reports whether a problem name would collide with a store
// file in any encoding.
func reservedName(name string) bool {
	return name == problem.NameFromPath(MetadataFile) || name == problem.NameFromPath(TestSetFile)
}

// Entry is one problem file in the store.
type Entry struct {
	Name     string
	Path     string
	Encoding problem.Encoding
}

// Options configures a Store. Zero values select defaults.
type Options struct {
	Loader    *problem.Loader
	Tolerance *problem.Tolerance
	Logger    *zap.Logger
}

// Store is a directory of problem files.
type Store struct {
	dir    string
	loader *problem.Loader
	tol    problem.Tolerance
	log    *zap.Logger
}

// Open returns the store rooted at dir.
func Open(dir string, opts Options) (*Store, error) {
	dir = filepath.Clean(dir)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot open problem store %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("problem store is not a directory: %s", dir)
	}

	s := &Store{
		dir:    dir,
		loader: opts.Loader,
		tol:    problem.DefaultTolerance(),
		log:    opts.Logger,
	}
	if s.loader == nil {
		s.loader = problem.DefaultLoader()
	}
	if opts.Tolerance != nil {
		s.tol = *opts.Tolerance
	}
	if s.log == nil {
		s.log = logging.Nop()
	}
	return s, nil
}

// Dir returns the store root.
func (s *Store) Dir() string {
	return s.dir
}

// Discover scans the store recursively and returns its problem files sorted
// by name. Hidden files, the metadata table and the test-set declaration are
// skipped. Two files sharing a name is an error.
func (s *Store) Discover() ([]Entry, error) {
	var out []Entry
	seen := map[string]string{}

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if path != s.dir && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if reservedFile(name) {
			return nil
		}
		enc := problem.EncodingOf(name)
		if enc == problem.EncodingUnknown {
			return nil
		}

		id := problem.NameFromPath(name)
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("duplicate problem name %q: %s and %s", id, prev, path)
		}
		seen[id] = path
		out = append(out, Entry{Name: id, Path: path, Encoding: enc})
		return nil
	}

	if err := filepath.WalkDir(s.dir, walkFn); err != nil {
		return nil, fmt.Errorf("cannot scan problem store: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	s.log.Debug("discovered problems", zap.String("dir", s.dir), zap.Int("count", len(out)))
	return out, nil
}

// Find returns the entry named name.
func (s *Store) Find(name string) (Entry, error) {
	entries, err := s.Discover()
	if err != nil {
		return Entry{}, err
	}
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Name >= name })
	if i < len(entries) && entries[i].Name == name {
		return entries[i], nil
	}
	return Entry{}, &problem.NotFoundError{
		Path: filepath.Join(s.dir, name),
		Err:  fmt.Errorf("no problem named %q in %s: %w", name, s.dir, os.ErrNotExist),
	}
}

// Load reads the problem named name and completes its metadata from the
// metadata table.
func (s *Store) Load(name string) (*problem.Problem, error) {
	e, err := s.Find(name)
	if err != nil {
		return nil, err
	}
	meta, err := s.Metadata()
	if err != nil {
		return nil, err
	}
	return s.loadEntry(e, meta)
}

func (s *Store) loadEntry(e Entry, meta *MetadataTable) (*problem.Problem, error) {
	p, err := s.loader.Load(e.Path)
	if err != nil {
		return nil, err
	}
	if p.Name != e.Name {
		return nil, &problem.MalformedProblemError{
			Path:   e.Path,
			Field:  "name",
			Reason: fmt.Sprintf("%q does not match the file name %q", p.Name, e.Name),
		}
	}
	if m, ok := meta.Lookup(e.Name); ok {
		if p.Classification == "" {
			p.Classification = m.Classification
		}
		if p.Provenance == "" {
			p.Provenance = m.Provenance
		}
	}
	s.log.Debug("loaded problem", zap.String("name", e.Name), zap.String("path", e.Path))
	return p, nil
}

// Metadata reads the metadata table of the store.
func (s *Store) Metadata() (*MetadataTable, error) {
	return LoadMetadata(filepath.Join(s.dir, MetadataFile))
}

// TestSet reads the test-set declaration of the store.
func (s *Store) TestSet() (*TestSet, error) {
	return LoadTestSet(filepath.Join(s.dir, TestSetFile))
}
