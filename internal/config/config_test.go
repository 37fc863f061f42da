package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, FileName))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "results", "qpbenchmark_results.csv"), cfg.ResultsPath())
	assert.Equal(t, "qpbenchmark", cfg.Benchmark.Tool)
	assert.Equal(t, 10*time.Second, cfg.LockTimeout())
	assert.Equal(t, 1e-10, cfg.Tolerance.Abs)
	assert.Equal(t, dir, cfg.Dir())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
data_dir: problems
benchmark:
  tool: /opt/qpbenchmark
  script: set.py
  args: [--solver, osqp]
  lock_timeout: 2s
tolerance:
  abs: 1e-8
  rel: 1e-6
`
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "problems"), cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "results"), cfg.ResultsDir, "unset keys keep defaults")
	assert.Equal(t, "/opt/qpbenchmark", cfg.Benchmark.Tool)
	assert.Equal(t, []string{"--solver", "osqp"}, cfg.Benchmark.Args)
	assert.Equal(t, 2*time.Second, cfg.LockTimeout())
	assert.Equal(t, 1e-8, cfg.Tolerance.Abs)
	assert.Equal(t, 1e-6, cfg.Tolerance.Rel)
}

func TestLoad_EnvAndDotEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvTool+"=dotenv-tool\n"), 0o600))
	abs := filepath.Join(t.TempDir(), "elsewhere")
	t.Setenv(EnvDataDir, abs)

	cfg, err := Load(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, abs, cfg.DataDir)
	assert.Equal(t, "dotenv-tool", cfg.Benchmark.Tool)
}

func TestLoad_Invalid(t *testing.T) {
	for name, content := range map[string]string{
		"yaml":      "data_dir: [\n",
		"tolerance": "tolerance:\n  abs: -1\n",
		"timeout":   "benchmark:\n  tool: x\n  lock_timeout: soon\n",
		"tool":      "benchmark:\n  tool: \"\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, FileName)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Benchmark.Args = []string{"--verbose"}
	path := filepath.Join(dir, FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Benchmark, got.Benchmark)
	assert.Equal(t, cfg.Tolerance, got.Tolerance)
}
