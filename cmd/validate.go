package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qpsolvers/open-qpbenchmark/internal/problem"
	"github.com/qpsolvers/open-qpbenchmark/internal/store"
)

var validateCmd = &cobra.Command{
	Use:   "validate [problem-name...]",
	Short: "Load and validate problems in the store",
	Long: `Load and validate every problem in the store, or only the named ones.

Every violation of every problem is reported; validation does not stop at the
first failure. The metadata table and the test-set declaration are checked
too. Exits non-zero if anything fails.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.close()

	allOK := true
	failD := func(name, format string, a ...any) {
		printErr(name, fmt.Sprintf(format, a...))
		allOK = false
	}

	printSection("qpbench validate")
	fmt.Println()

	// ── Check 1: metadata table ───────────────────────────────────────────────
	fmt.Println("[ " + store.MetadataFile + " ]")
	meta, metaErr := sess.store.Metadata()
	if metaErr != nil {
		failD("", "%v", metaErr)
	} else {
		printOK("", fmt.Sprintf("%d entr(ies)", len(meta.Problems)))
	}
	fmt.Println()

	// ── Check 2: test-set declaration ─────────────────────────────────────────
	fmt.Println("[ " + store.TestSetFile + " ]")
	ts, tsErr := sess.store.TestSet()
	if tsErr != nil {
		failD("", "%v", tsErr)
	} else {
		printOK("", fmt.Sprintf("%q: %d known issue(s), %d known timeout(s)",
			ts.Title, len(ts.KnownIssues), len(ts.KnownTimeouts)))
	}
	fmt.Println()

	// ── Check 3: problems ─────────────────────────────────────────────────────
	fmt.Println("[ Problems ]")
	if metaErr != nil {
		printSkip("", "skipped (metadata table not loaded)")
		return errors.New("validation failed")
	}
	report, err := sess.store.Check(args...)
	if err != nil {
		return err
	}
	known := map[string]bool{}
	for _, res := range report.Results {
		known[res.Entry.Name] = true
		if res.Err != nil {
			printFailure(res)
			allOK = false
			continue
		}
		n, meq, mineq := res.Problem.Dims()
		printOK(res.Entry.Name, fmt.Sprintf("n=%d meq=%d mineq=%d", n, meq, mineq))
	}
	fmt.Println()

	// References can only be checked against the whole store.
	if len(args) == 0 {
		fmt.Println("[ References ]")
		dangling := 0
		for _, e := range meta.Problems {
			if !known[e.Name] {
				printWarn(e.Name, "listed in "+store.MetadataFile+" but no problem file found")
				dangling++
			}
		}
		if ts != nil {
			for _, name := range ts.References() {
				if !known[name] {
					printWarn(name, "named in "+store.TestSetFile+" but no problem file found")
					dangling++
				}
			}
		}
		if dangling == 0 {
			printOK("", "all references resolve")
		}
		fmt.Println()
	}

	failed := len(report.Failed())
	if !allOK {
		if failed > 0 {
			return fmt.Errorf("%d of %d problem(s) failed validation", failed, len(report.Results))
		}
		return errors.New("validation failed")
	}
	fmt.Printf("  ✓  %d problem(s) valid.\n", len(report.Results))
	return nil
}

// printFailure prints every reason a problem was rejected.
func printFailure(res store.Result) {
	var inv *problem.InvalidProblemError
	if errors.As(res.Err, &inv) {
		for _, v := range inv.Violations {
			printErr(res.Entry.Name, v.Block+": "+v.Message)
		}
		return
	}
	printErr(res.Entry.Name, res.Err.Error())
}
