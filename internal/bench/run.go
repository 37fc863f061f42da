package bench

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/qpsolvers/open-qpbenchmark/internal/config"
	"github.com/qpsolvers/open-qpbenchmark/internal/logging"
)

// Environment passed to the engine.
const (
	EnvManifest = "QPBENCH_MANIFEST"
	EnvResults  = "QPBENCH_RESULTS"
)

// LockFile guards a results directory against concurrent runs.
const LockFile = ".qpbench.lock"

// Invocation describes how the engine is launched.
type Invocation struct {
	Tool        string
	Script      string
	Args        []string
	ResultsDir  string
	LockTimeout time.Duration

	// Set by Run once the manifest is written.
	ManifestPath string
	ResultsPath  string

	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
}

// NewInvocation returns the invocation configured by cfg, with extra
// arguments appended after the configured ones.
func NewInvocation(cfg *config.Config, extra ...string) Invocation {
	args := append([]string{}, cfg.Benchmark.Args...)
	return Invocation{
		Tool:        cfg.Benchmark.Tool,
		Script:      cfg.Benchmark.Script,
		Args:        append(args, extra...),
		ResultsDir:  cfg.ResultsDir,
		LockTimeout: cfg.LockTimeout(),
		ResultsPath: cfg.ResultsPath(),
	}
}

// Command builds "<tool> <script> run [args...]". The process is killed
// when ctx is done.
func Command(ctx context.Context, inv Invocation) *exec.Cmd {
	args := []string{}
	if inv.Script != "" {
		args = append(args, inv.Script)
	}
	args = append(args, "run")
	args = append(args, inv.Args...)

	c := exec.CommandContext(ctx, inv.Tool, args...)
	c.Env = append(os.Environ(),
		EnvManifest+"="+inv.ManifestPath,
		EnvResults+"="+inv.ResultsPath,
	)
	c.Stdout = inv.Stdout
	c.Stderr = inv.Stderr
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	return c
}

// Run locks the results directory, writes m into it and runs the engine to
// completion. The engine's own error is returned unchanged.
func Run(ctx context.Context, inv Invocation, m *Manifest) error {
	log := inv.Logger
	if log == nil {
		log = logging.Nop()
	}
	if err := os.MkdirAll(inv.ResultsDir, 0o755); err != nil {
		return fmt.Errorf("cannot create results directory %s: %w", inv.ResultsDir, err)
	}

	unlock, err := acquireLock(ctx, filepath.Join(inv.ResultsDir, LockFile), inv.LockTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	path, err := WriteManifest(inv.ResultsDir, m)
	if err != nil {
		return err
	}
	inv.ManifestPath = path
	if inv.ResultsPath == "" {
		inv.ResultsPath = m.Results
	}

	c := Command(ctx, inv)
	log.Info("starting benchmark",
		zap.String("run_id", m.RunID),
		zap.Int("problems", len(m.Problems)),
		zap.Strings("argv", c.Args))
	start := time.Now()
	if err := c.Run(); err != nil {
		log.Error("benchmark failed", zap.String("run_id", m.RunID), zap.Error(err))
		return err
	}
	log.Info("benchmark finished",
		zap.String("run_id", m.RunID),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("results", inv.ResultsPath))
	return nil
}

// acquireLock takes the exclusive lock at path, polling until timeout.
func acquireLock(ctx context.Context, path string, timeout time.Duration) (func(), error) {
	l := flock.New(path)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire results lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("another benchmark is writing to this results directory (lock: %s)", path)
		}
		select {
		case <-ctx.Done():
			return func() {}, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}
