package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/qpsolvers/open-qpbenchmark/internal/problem"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "qpbench.yaml"

// Environment overrides, read from the process environment first and then
// from the .env file next to the configuration.
const (
	EnvDataDir    = "QPBENCH_DATA_DIR"
	EnvResultsDir = "QPBENCH_RESULTS_DIR"
	EnvTool       = "QPBENCH_TOOL"
	EnvScript     = "QPBENCH_SCRIPT"
)

// Benchmark describes how the external benchmarking engine is invoked.
type Benchmark struct {
	Tool        string   `yaml:"tool"`
	Script      string   `yaml:"script"`
	Args        []string `yaml:"args,omitempty"`
	LockTimeout string   `yaml:"lock_timeout,omitempty"`
}

// Config is the in-memory representation of qpbench.yaml.
type Config struct {
	DataDir           string            `yaml:"data_dir"`
	ResultsDir        string            `yaml:"results_dir"`
	ResultsFile       string            `yaml:"results_file"`
	Benchmark         Benchmark         `yaml:"benchmark"`
	Tolerance         problem.Tolerance `yaml:"tolerance"`
	InfinityThreshold float64           `yaml:"infinity_threshold"`

	// dir is the directory relative paths are resolved against.
	dir string
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		DataDir:     "data",
		ResultsDir:  "results",
		ResultsFile: "qpbenchmark_results.csv",
		Benchmark: Benchmark{
			Tool:        "qpbenchmark",
			Script:      "free_for_all.py",
			LockTimeout: "10s",
		},
		Tolerance:         problem.DefaultTolerance(),
		InfinityThreshold: problem.DefaultInfinityThreshold,
	}
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// Load reads and parses the configuration at path. An empty path means
// qpbench.yaml in the working directory. A missing file yields defaults.
// Relative paths in the file are resolved against the file's directory and
// environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FileName
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve config path %s: %w", path, err)
	}

	cfg := DefaultConfig()
	cfg.dir = filepath.Dir(abs)

	data, err := os.ReadFile(abs)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("cannot read config %s: %w", abs, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", abs, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", abs, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	for key, dst := range map[string]*string{
		EnvDataDir:    &c.DataDir,
		EnvResultsDir: &c.ResultsDir,
		EnvTool:       &c.Benchmark.Tool,
		EnvScript:     &c.Benchmark.Script,
	} {
		v, err := GetConfigValue(c.dir, key)
		if err != nil {
			return err
		}
		if v != "" {
			*dst = v
		}
	}
	return nil
}

func (c *Config) resolvePaths() error {
	for _, p := range []*string{&c.DataDir, &c.ResultsDir} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return err
		}
		if expanded != "" && !filepath.IsAbs(expanded) {
			expanded = filepath.Join(c.dir, expanded)
		}
		*p = expanded
	}
	return nil
}

// Validate checks for invalid configuration values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is empty")
	}
	if c.Benchmark.Tool == "" {
		return fmt.Errorf("benchmark.tool is empty")
	}
	if c.Tolerance.Abs < 0 || c.Tolerance.Rel < 0 {
		return fmt.Errorf("tolerance must be non-negative, got abs=%g rel=%g", c.Tolerance.Abs, c.Tolerance.Rel)
	}
	if c.InfinityThreshold < 0 {
		return fmt.Errorf("infinity_threshold must be >= 0, got %g", c.InfinityThreshold)
	}
	if c.Benchmark.LockTimeout != "" {
		if _, err := time.ParseDuration(c.Benchmark.LockTimeout); err != nil {
			return fmt.Errorf("invalid benchmark.lock_timeout: %w", err)
		}
	}
	return nil
}

// LockTimeout returns the configured results lock timeout, 10s by default.
func (c *Config) LockTimeout() time.Duration {
	d, err := time.ParseDuration(c.Benchmark.LockTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// ResultsPath is the report file the engine writes.
func (c *Config) ResultsPath() string {
	return filepath.Join(c.ResultsDir, c.ResultsFile)
}

// Dir returns the directory the configuration was loaded from.
func (c *Config) Dir() string {
	return c.dir
}

// Save marshals cfg and writes it to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
