package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/qpsolvers/open-qpbenchmark/internal/search"
)

var flagSearchK int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search problems by name, classification or provenance",
	Long: `Search the store by keyword. Every word of the query must appear in the
problem name, its classification (code or description) or its provenance.

Example:
  qpbench search maros bounds
  qpbench search QLR2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&flagSearchK, "k", 20, "Number of results to show (0 for all)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.close()

	docs, err := search.Documents(sess.store)
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")
	return printSearchResults(cmd.OutOrStdout(), query, search.Keyword(docs, query, flagSearchK))
}

func printSearchResults(out io.Writer, query string, results []search.Result) error {
	fmt.Fprintf(out, "\nqpbench search %q\n\n", query)
	fmt.Fprintf(out, "Results (%d found):\n", len(results))
	if len(results) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, r := range results {
		class := r.Doc.Classification
		if class == "" {
			class = "-"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t(%s)\n", r.Doc.Name, class, r.Doc.Path, r.Why)
	}
	return w.Flush()
}
