package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qpsolvers/open-qpbenchmark/internal/config"
	"github.com/qpsolvers/open-qpbenchmark/internal/problem"
)

var convertForce bool

var convertCmd = &cobra.Command{
	Use:   "convert <src> <dst>",
	Short: "Convert a problem file between YAML and NPZ",
	Long: `Load and validate a problem file, then save it to dst. The encoding of
each side is chosen by its extension (.yaml, .yml or .npz).

Double-sided YAML documents are written out in the standard form.

Example:
  qpbench convert data/HS21.npz HS21.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().BoolVarP(&convertForce, "force", "f", false, "overwrite dst if it exists")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(_ *cobra.Command, args []string) error {
	src, dst := args[0], args[1]

	// Conversion works outside any store, so only the configuration is loaded.
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}
	if problem.EncodingOf(dst) == problem.EncodingUnknown {
		return fmt.Errorf("cannot write %s: %w", dst, problem.ErrUnsupportedFormat)
	}
	if _, err := os.Stat(dst); err == nil && !convertForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", dst)
	}

	p, err := newLoader(cfg).Load(src)
	if err != nil {
		return err
	}
	if err := problem.ValidateWithTolerance(p, cfg.Tolerance); err != nil {
		return err
	}
	if err := problem.Save(dst, p); err != nil {
		return err
	}
	printOK(p.Name, fmt.Sprintf("%s → %s", src, dst))
	return nil
}
