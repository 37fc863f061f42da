package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qpsolvers/open-qpbenchmark/internal/bench"
)

var runDryRun bool

var runCmd = &cobra.Command{
	Use:   "run [-- engine-args...]",
	Short: "Validate the store and run the benchmark engine",
	Long: `Validate every problem in the store, write the run manifest into the
results directory and invoke the benchmark engine as

  <benchmark.tool> <benchmark.script> run [benchmark.args...] [engine-args...]

The engine receives the manifest path in QPBENCH_MANIFEST and the report
path in QPBENCH_RESULTS. A single invalid problem aborts the run before the
engine starts. The results directory is locked for the duration of the run.

Example:
  qpbench run -- --solver osqp --settings default`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "validate and print the plan without running the engine")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.close()

	ts, err := sess.store.TestSet()
	if err != nil {
		return err
	}
	m, err := bench.Plan(sess.store, ts, sess.cfg.ResultsPath())
	if err != nil {
		return err
	}

	inv := bench.NewInvocation(sess.cfg, args...)
	inv.Logger = sess.log
	inv.Stdout = cmd.OutOrStdout()
	inv.Stderr = cmd.ErrOrStderr()

	if runDryRun {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run:      %s\n", m.RunID)
		fmt.Fprintf(out, "Test set: %s\n", m.Title)
		fmt.Fprintf(out, "Problems: %d\n", len(m.Problems))
		for _, p := range m.Problems {
			fmt.Fprintf(out, "  - %-20s n=%d meq=%d mineq=%d\n", p.Name, p.N, p.MEq, p.MIneq)
		}
		fmt.Fprintf(out, "Results:  %s\n", m.Results)
		fmt.Fprintf(out, "Command:  %s\n", strings.Join(bench.Command(context.Background(), inv).Args, " "))
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	sess.log.Debug("planned run", zap.String("run_id", m.RunID), zap.Int("problems", len(m.Problems)))
	if err := bench.Run(ctx, inv, m); err != nil {
		return fmt.Errorf("benchmark run %s failed: %w", m.RunID, err)
	}
	printOK("", fmt.Sprintf("results written to %s", m.Results))
	return nil
}
