package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/valorant-egr/internal/report"
	"github.com/pable/valorant-egr/internal/storage"
)

// outcomesCmd compares the EGR of won and lost rounds.
var outcomesCmd = &cobra.Command{
	Use:   "outcomes",
	Short: "Compare mean EGR of won and lost rounds",
	Long: `Summarise the per-round team mean EGR separately for won and lost rounds
(count, mean, median, standard deviation, p90, min and max) across every game
in the result table.`,
	Args: cobra.NoArgs,
	RunE: runOutcomes,
}

func runOutcomes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return printOutcomes(os.Stdout, db, cfg.Table)
}

func printOutcomes(w io.Writer, db *storage.DB, table string) error {
	outcomes, err := db.RoundOutcomes(table)
	if err != nil {
		return fmt.Errorf("query round outcomes: %w", err)
	}
	if len(outcomes) == 0 {
		fmt.Fprintf(w, "No rounds in %s. Run 'egr load <results.csv>' first.\n", table)
		return nil
	}
	return report.PrintOutcomeDistribution(w, outcomes)
}
