package cmd

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/qpsolvers/open-qpbenchmark/internal/problem"
	"github.com/qpsolvers/open-qpbenchmark/internal/store"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <problem-name>",
	Short: "Show dimensions and metadata of a problem",
	Long: `Load a problem from the store and display a summary: dimensions, which
blocks are present, its classification and provenance, and what the test set
declares about it.

Example:
  qpbench inspect SIMPLEX3`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.close()

	name := args[0]
	entry, err := sess.store.Find(name)
	if err != nil {
		return err
	}
	p, err := sess.store.Load(name)
	if err != nil {
		return err
	}
	meta, err := sess.store.Metadata()
	if err != nil {
		return err
	}
	ts, err := sess.store.TestSet()
	if err != nil {
		return err
	}

	m, _ := meta.Lookup(name)
	printInspect(cmd.OutOrStdout(), entry, p, m, ts)

	if err := problem.ValidateWithTolerance(p, sess.cfg.Tolerance); err != nil {
		return err
	}
	return nil
}

// printInspect displays the summary of one loaded problem.
func printInspect(w io.Writer, e store.Entry, p *problem.Problem, m store.MetadataEntry, ts *store.TestSet) {
	n, meq, mineq := p.Dims()
	fmt.Fprintf(w, "Problem:  %s\n", p.Name)
	fmt.Fprintf(w, "Size:     n=%d  meq=%d  mineq=%d\n", n, meq, mineq)

	if p.Classification != "" {
		line := p.Classification
		if c, err := store.ParseClassification(p.Classification); err == nil {
			line += " (" + c.Describe() + ")"
			if !c.IsQP() {
				line += " ⚠ not a QP"
			}
		}
		fmt.Fprintf(w, "Class:    %s\n", line)
	}
	if p.Provenance != "" {
		fmt.Fprintf(w, "Origin:   %s\n", strings.Join(strings.Fields(p.Provenance), " "))
	}

	fmt.Fprintln(w, "\nBlocks:")
	fmt.Fprintf(w, "  P   %s\n", describeMatrix(p.P))
	fmt.Fprintf(w, "  q   %s\n", describeVector(p.Q))
	if p.A != nil {
		fmt.Fprintf(w, "  A   %s\n", describeMatrix(p.A))
		fmt.Fprintf(w, "  b   %s\n", describeVector(p.B))
	}
	if p.G != nil {
		fmt.Fprintf(w, "  G   %s\n", describeMatrix(p.G))
		fmt.Fprintf(w, "  h   %s\n", describeVector(p.H))
	}
	if p.LB != nil {
		fmt.Fprintf(w, "  lb  %s\n", describeVector(p.LB))
	}
	if p.UB != nil {
		fmt.Fprintf(w, "  ub  %s\n", describeVector(p.UB))
	}

	if len(m.Links) > 0 {
		fmt.Fprintln(w, "\nLinks:")
		for _, l := range m.Links {
			fmt.Fprintf(w, "  - %s\n", l)
		}
	}

	var notes []string
	for _, k := range ts.KnownIssues {
		if k.Problem == p.Name {
			notes = append(notes, fmt.Sprintf("known issue with %s", k.Solver))
		}
	}
	for _, k := range ts.KnownTimeouts {
		if k.Problem == p.Name {
			settings := k.Settings
			if settings == "" {
				settings = store.AnySettings
			}
			notes = append(notes, fmt.Sprintf("timeout %gs for %s (settings %s)", k.Seconds, k.Solver, settings))
		}
	}
	if len(notes) > 0 {
		fmt.Fprintln(w, "\nTest set:")
		for _, n := range notes {
			fmt.Fprintf(w, "  - %s\n", n)
		}
	}
	fmt.Fprintf(w, "\nPath: %s\n", e.Path)
}

// describeMatrix reports shape and density, e.g. "3x3, 5 nonzeros (55.6%)".
func describeMatrix(m *mat.Dense) string {
	if m == nil {
		return "absent"
	}
	r, c := m.Dims()
	nnz := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if m.At(i, j) != 0 {
				nnz++
			}
		}
	}
	return fmt.Sprintf("%dx%d, %d nonzeros (%.1f%%)", r, c, nnz, 100*float64(nnz)/float64(r*c))
}

// describeVector reports length and, when present, infinite entries.
func describeVector(v []float64) string {
	if v == nil {
		return "absent"
	}
	inf := 0
	for _, x := range v {
		if math.IsInf(x, 0) {
			inf++
		}
	}
	if inf == 0 {
		return fmt.Sprintf("%d", len(v))
	}
	return fmt.Sprintf("%d, %d infinite", len(v), inf)
}
