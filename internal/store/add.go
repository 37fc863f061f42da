package store

import (
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/qpsolvers/open-qpbenchmark/internal/problem"
)

// ErrExists is returned when a contributed problem would overwrite a
// different problem of the same name.
var ErrExists = errors.New("a different problem with this name already exists")

// ErrReservedName is returned when a contributed problem is named after one
// of the store's own files.
var ErrReservedName = errors.New("problem name is reserved by the store")

// Outcome describes what Add did with a contributed file.
type Outcome int

const (
	Added Outcome = iota
	Unchanged
	Replaced
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Unchanged:
		return "unchanged"
	case Replaced:
		return "replaced"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Add validates the problem file at src and copies it to the store root.
//
// An identical file already in the store is skipped. A different file of
// the same name is refused with ErrExists unless force is set; a problem of
// the same name in another encoding is always refused.
func (s *Store) Add(src string, force bool) (Entry, Outcome, error) {
	if problem.EncodingOf(src) == problem.EncodingUnknown {
		return Entry{}, Added, fmt.Errorf("cannot add %s: %w", src, problem.ErrUnsupportedFormat)
	}
	if reservedName(problem.NameFromPath(src)) {
		return Entry{}, Added, fmt.Errorf("cannot add %s: %w", src, ErrReservedName)
	}
	p, err := s.loader.Load(src)
	if err != nil {
		return Entry{}, Added, err
	}
	if err := problem.ValidateWithTolerance(p, s.tol); err != nil {
		return Entry{}, Added, err
	}

	name := problem.NameFromPath(src)
	if p.Name != name {
		return Entry{}, Added, &problem.MalformedProblemError{
			Path:   src,
			Field:  "name",
			Reason: fmt.Sprintf("%q does not match the file name %q", p.Name, name),
		}
	}
	dst := filepath.Join(s.dir, filepath.Base(src))
	entry := Entry{Name: name, Path: dst, Encoding: problem.EncodingOf(src)}

	if existing, err := s.Find(name); err == nil && existing.Path != dst {
		return Entry{}, Added, fmt.Errorf("cannot add %s: %q is already stored as %s: %w",
			src, name, existing.Path, ErrExists)
	}

	outcome := Added
	if _, err := os.Stat(dst); err == nil {
		srcMD5, err := fileMD5(src)
		if err != nil {
			return Entry{}, Added, fmt.Errorf("md5 %s: %w", src, err)
		}
		dstMD5, err := fileMD5(dst)
		if err != nil {
			return Entry{}, Added, fmt.Errorf("md5 %s: %w", dst, err)
		}
		if srcMD5 == dstMD5 {
			return entry, Unchanged, nil
		}
		if !force {
			return Entry{}, Added, fmt.Errorf("cannot add %s: %w", src, ErrExists)
		}
		outcome = Replaced
	}

	if err := copyFile(src, dst); err != nil {
		return Entry{}, Added, fmt.Errorf("copy %s → %s: %w", src, dst, err)
	}
	s.log.Info("problem stored", zap.String("name", name), zap.Stringer("outcome", outcome))
	return entry, outcome, nil
}

// fileMD5 returns the hex-encoded MD5 digest of the file at path.
func fileMD5(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// copyFile copies src to dst, replacing dst if it exists.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
