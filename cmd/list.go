package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the problems in the store",
	Long: `List every problem file in the data directory with its encoding and the
classification and provenance recorded in metadata.yaml.

Problems are not loaded; run 'qpbench validate' to check them.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.close()

	entries, err := sess.store.Discover()
	if err != nil {
		return err
	}
	meta, err := sess.store.Metadata()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(out, "No problems in %s\n", sess.store.Dir())
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tENCODING\tCLASSIFICATION\tFILE\tPROVENANCE")
	for _, e := range entries {
		class, prov := "-", "-"
		if m, ok := meta.Lookup(e.Name); ok {
			if m.Classification != "" {
				class = m.Classification
			}
			if m.Provenance != "" {
				prov = truncate(m.Provenance, 60)
			}
		}
		rel, err := filepath.Rel(sess.store.Dir(), e.Path)
		if err != nil {
			rel = e.Path
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Name, e.Encoding, class, rel, prov)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d problem(s) in %s\n", len(entries), sess.store.Dir())
	return nil
}

// truncate shortens s to at most n runes on one line.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
