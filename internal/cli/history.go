package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/me/gotr/internal/store"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past runs, or the unit results of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveDBPath(dbPath)
			if err != nil {
				return err
			}
			st, err := store.NewSQLiteStore(path, logger)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}

			if len(args) == 1 {
				return printUnitResults(cmd, st, args[0])
			}
			return printRuns(cmd, st, limit)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Run-history database path (default ~/.gotr/gotr.db)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to show")

	return cmd
}

func printRuns(cmd *cobra.Command, st store.Store, limit int) error {
	runs, err := st.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	fmt.Printf("%-42s  %-14s  %-10s  %-6s  %s\n", "RUN", "STARTED", "DURATION", "UNITS", "ROOT")
	fmt.Printf("%-42s  %-14s  %-10s  %-6s  %s\n", "---", "-------", "--------", "-----", "----")
	for _, run := range runs {
		duration := "-"
		if run.FinishedAt != nil {
			duration = run.FinishedAt.Sub(run.StartedAt).String()
		}
		fmt.Printf("%-42s  %-14s  %-10s  %-6d  %s\n",
			run.ID, humanize.Time(run.StartedAt), duration, run.Units, run.TestRoot)
	}
	return nil
}

func printUnitResults(cmd *cobra.Command, st store.Store, runID string) error {
	results, err := st.ListUnitResults(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("No unit results for run %s.\n", runID)
		return nil
	}

	fmt.Printf("%-40s  %-10s  %-6s  %-10s  %s\n", "UNIT", "STATUS", "EXIT", "DURATION", "OUTPUT")
	fmt.Printf("%-40s  %-10s  %-6s  %-10s  %s\n", "----", "------", "----", "--------", "------")
	for _, res := range results {
		exit := "-"
		switch {
		case res.LaunchFailed:
			exit = "launch"
		case res.ExitCode != nil:
			exit = fmt.Sprintf("%d", *res.ExitCode)
		}
		duration := "-"
		if res.StartedAt != nil && res.FinishedAt != nil {
			duration = res.FinishedAt.Sub(*res.StartedAt).String()
		}
		fmt.Printf("%-40s  %-10s  %-6s  %-10s  %s\n",
			res.UnitID, res.Status, exit, duration,
			humanize.Bytes(uint64(res.StdoutBytes+res.StderrBytes)))
	}
	return nil
}
