package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qpsolvers/open-qpbenchmark/internal/config"
	"github.com/qpsolvers/open-qpbenchmark/internal/logging"
	"github.com/qpsolvers/open-qpbenchmark/internal/problem"
	"github.com/qpsolvers/open-qpbenchmark/internal/store"
)

var (
	flagConfig  string
	flagDataDir string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:          "qpbench",
	Short:        "qpbench: problem store and benchmark launcher for QP solvers",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `qpbench manages a community test set of quadratic programs and hands it
to the qpbenchmark engine.

Problems live in the data directory (data/ by default) as YAML or NPZ files,
next to metadata.yaml and testset.yaml. Every problem is loaded and validated
before a benchmark run starts.`,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "path to "+config.FileName+" (default: ./"+config.FileName+")")
	pf.StringVar(&flagDataDir, "data", "", "problem store directory, overrides data_dir")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// session holds what most commands need: configuration, logger and store.
type session struct {
	cfg   *config.Config
	log   *zap.Logger
	store *store.Store
}

// openSession loads the configuration, applies the persistent flags and
// opens the problem store.
func openSession() (*session, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}

	log, err := logging.New(flagVerbose)
	if err != nil {
		return nil, fmt.Errorf("cannot build logger: %w", err)
	}

	tol := cfg.Tolerance
	st, err := store.Open(cfg.DataDir, store.Options{
		Loader:    newLoader(cfg),
		Tolerance: &tol,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}
	log.Debug("session ready",
		zap.String("config", cfg.Dir()),
		zap.String("data", st.Dir()),
		zap.Float64("tol_abs", tol.Abs),
		zap.Float64("tol_rel", tol.Rel))
	return &session{cfg: cfg, log: log, store: st}, nil
}

func newLoader(cfg *config.Config) *problem.Loader {
	return &problem.Loader{InfinityThreshold: cfg.InfinityThreshold}
}

// close flushes the session logger.
func (s *session) close() {
	_ = s.log.Sync()
}
