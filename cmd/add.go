package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qpsolvers/open-qpbenchmark/internal/store"
)

var addForce bool

var addCmd = &cobra.Command{
	Use:   "add <problem-file>...",
	Short: "Validate problem files and copy them into the store",
	Long: `Contribute problems to the store. Each file is loaded and validated before
it is copied into the data directory; a file that fails is never stored.

A problem whose name already exists in the store is refused unless the file
is identical, or --force is given and the existing file has the same
encoding.

Example:
  qpbench add ~/Downloads/QPCBLEND.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().BoolVarP(&addForce, "force", "f", false, "replace an existing problem of the same name")
	rootCmd.AddCommand(addCmd)
}

func runAdd(_ *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.close()

	printSection("qpbench add")
	var failed int
	for _, src := range args {
		entry, outcome, err := sess.store.Add(src, addForce)
		if err != nil {
			printErr(src, err.Error())
			failed++
			continue
		}
		switch outcome {
		case store.Unchanged:
			printSkip(entry.Name, "already in the store, unchanged")
		case store.Replaced:
			printWarn(entry.Name, "replaced "+entry.Path)
		default:
			printOK(entry.Name, "added as "+entry.Path)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) could not be added", failed, len(args))
	}
	return nil
}
