package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	created, err := Init(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, MetadataFile),
		filepath.Join(dir, TestSetFile),
	}, created)

	s := openStore(t, dir)
	entries, err := s.Discover()
	require.NoError(t, err)
	assert.Empty(t, entries)

	ts, err := s.TestSet()
	require.NoError(t, err)
	assert.Equal(t, DefaultTestSet(), ts)

	meta, err := s.Metadata()
	require.NoError(t, err)
	assert.Empty(t, meta.Problems)
}

func TestInit_KeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	custom := []byte("title: Mine\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, TestSetFile), custom, 0o644))

	created, err := Init(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, MetadataFile)}, created)

	got, err := os.ReadFile(filepath.Join(dir, TestSetFile))
	require.NoError(t, err)
	assert.Equal(t, custom, got)
}
