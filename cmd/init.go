package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/qpsolvers/open-qpbenchmark/internal/config"
	"github.com/qpsolvers/open-qpbenchmark/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create qpbench.yaml and an empty problem store",
	Long: `Initialize a workspace in dir (default: the current directory):

  qpbench.yaml          default configuration
  data/metadata.yaml    empty metadata table
  data/testset.yaml     default test-set declaration

Existing files are left untouched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	// ── 1. Workspace directory ────────────────────────────────────────────────
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}

	// ── 2. Write qpbench.yaml if missing ──────────────────────────────────────
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.Save(cfgPath, config.DefaultConfig()); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("Config already exists: %s", cfgPath))
	}

	// ── 3. Problem store ──────────────────────────────────────────────────────
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	created, err := store.Init(cfg.DataDir)
	if err != nil {
		return err
	}
	for _, p := range created {
		printOK("", fmt.Sprintf("Created %s", p))
	}
	if len(created) == 0 {
		printSkip("", fmt.Sprintf("Problem store already initialized: %s", cfg.DataDir))
	}
	printInfo("", "Add problems with 'qpbench add <file>', then check them with 'qpbench validate'.")
	return nil
}
