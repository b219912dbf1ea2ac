package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gdmigrate/config"
	"gdmigrate/internal/adapter/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent migration runs",
	Long: `List the runs recorded in the project's state database, newest first.
Dry runs are not recorded.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to show (0 = all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	dbPath := config.StateDBPath(GetRootDir())
	out := cmd.OutOrStdout()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return exitErr(ExitIO, err)
	}
	defer st.Close()

	runs, err := st.ListRuns(historyLimit)
	if err != nil {
		return exitErr(ExitIO, fmt.Errorf("failed to read run history: %w", err))
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}

	fmt.Fprintf(out, "%-5s %-20s %9s %8s %8s %8s %6s %10s %8s\n",
		"ID", "STARTED", "DURATION", "SCANNED", "MODIFIED", "CACHED", "FIXES", "UNRESOLVED", "FAILURES")
	for _, r := range runs {
		fmt.Fprintf(out, "%-5d %-20s %9s %8d %8d %8d %6d %10d %8d\n",
			r.ID,
			r.Started.Local().Format("2006-01-02 15:04:05"),
			formatDuration(r.Duration),
			r.Scanned, r.Modified, r.Cached, r.Fixes, r.Unresolved, r.Failures,
		)
	}
	return nil
}
