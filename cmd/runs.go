package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/valorant-egr/internal/model"
	"github.com/pable/valorant-egr/internal/report"
	"github.com/pable/valorant-egr/internal/storage"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs [id-prefix]",
	Short: "List recorded inference runs",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to list (0 for all)")
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 1 {
		run, err := db.GetRunByPrefix(args[0])
		if err != nil {
			return fmt.Errorf("get run: %w", err)
		}
		if run == nil {
			return fmt.Errorf("no run found with id prefix %q", args[0])
		}
		report.PrintRunsTable(os.Stdout, []model.RunSummary{*run})
		fmt.Fprintf(os.Stdout, "Model: %s\nScaler: %s\n", run.ModelPath, run.ScalerPath)
		return nil
	}
	return printRuns(os.Stdout, db, runsLimit)
}

func printRuns(w io.Writer, db *storage.DB, limit int) error {
	runs, err := db.ListRuns(limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet. Run 'egr infer <telemetry.csv>' to score one.")
		return nil
	}
	report.PrintRunsTable(w, runs)
	return nil
}
