package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/qpsolvers/open-qpbenchmark/internal/problem"
)

const lp2 = "P:\n  data: [[1, 0], [0, 1]]\nq: [1, 1]\nG:\n  data: [[1, 1]]\nh: [1]\n"

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAdd_Lifecycle(t *testing.T) {
	s := openStore(t, copyFixture(t))
	src := writeSource(t, "NEW2.yaml", lp2)

	entry, outcome, err := s.Add(src, false)
	require.NoError(t, err)
	assert.Equal(t, Added, outcome)
	assert.Equal(t, "NEW2", entry.Name)
	assert.Equal(t, filepath.Join(s.Dir(), "NEW2.yaml"), entry.Path)

	p, err := s.Load("NEW2")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, p.Q)

	_, outcome, err = s.Add(src, false)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)

	changed := writeSource(t, "NEW2.yaml", lp2+"lb: [0, 0]\n")
	_, _, err = s.Add(changed, false)
	assert.ErrorIs(t, err, ErrExists)

	_, outcome, err = s.Add(changed, true)
	require.NoError(t, err)
	assert.Equal(t, Replaced, outcome)

	p, err = s.Load("NEW2")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, p.LB)
}

func TestAdd_NameStoredInSubdirectory(t *testing.T) {
	s := openStore(t, copyFixture(t))
	src := writeSource(t, "BOX2.yaml", lp2)

	_, _, err := s.Add(src, true)
	assert.ErrorIs(t, err, ErrExists, "BOX2 already lives under maros/")
}

func TestAdd_RejectsInvalid(t *testing.T) {
	s := openStore(t, copyFixture(t))

	src := writeSource(t, "ASYM.yaml", "P:\n  data: [[1, 2], [0, 1]]\nq: [0, 0]\n")
	_, _, err := s.Add(src, false)
	var ie *problem.InvalidProblemError
	require.True(t, errors.As(err, &ie))

	src = writeSource(t, "RENAMED.yaml", "name: OTHER\n"+lp2)
	_, _, err = s.Add(src, false)
	var me *problem.MalformedProblemError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "name", me.Field)

	src = writeSource(t, "NOTES.txt", "hello")
	_, _, err = s.Add(src, false)
	assert.ErrorIs(t, err, problem.ErrUnsupportedFormat)

	entries, err := s.Discover()
	require.NoError(t, err)
	assert.Len(t, entries, 3, "nothing was stored")
}

func TestAdd_RejectsReservedNames(t *testing.T) {
	dir := t.TempDir()
	_, err := Init(dir)
	require.NoError(t, err)
	before, err := os.ReadFile(filepath.Join(dir, TestSetFile))
	require.NoError(t, err)
	s := openStore(t, dir)

	for _, name := range []string{TestSetFile, MetadataFile, "testset.npz", "metadata.yml"} {
		src := filepath.Join(t.TempDir(), name)
		require.NoError(t, problem.Save(src, &problem.Problem{
			P: mat.NewDense(1, 1, []float64{1}),
			Q: []float64{0},
		}))
		_, _, err := s.Add(src, true)
		assert.ErrorIs(t, err, ErrReservedName, name)
	}

	after, err := os.ReadFile(filepath.Join(dir, TestSetFile))
	require.NoError(t, err)
	assert.Equal(t, before, after, "the test set declaration is untouched")
	_, err = s.TestSet()
	require.NoError(t, err)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "added", Added.String())
	assert.Equal(t, "unchanged", Unchanged.String())
	assert.Equal(t, "replaced", Replaced.String())
	assert.Equal(t, "Outcome(7)", Outcome(7).String())
}
