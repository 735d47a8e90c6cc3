package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/valorant-egr/internal/assistant"
	"github.com/pable/valorant-egr/internal/report"
)

var sqlWrite bool

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the results database",
	Long: `Run an SQL query against the results database and print the rows as a table.

Tables:
  egr_results (default name; see --table): one row per telemetry event with the
    original columns plus EGR, Target and role.
  inference_runs(id, input_path, output_path, model_path, scaler_path,
    result_table, started_at, finished_at, samples, predictions, merged_rows, warnings)

Queries are read-only unless --write is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func init() {
	sqlCmd.Flags().BoolVar(&sqlWrite, "write", false, "allow statements that modify the database")
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	if !sqlWrite {
		if err := assistant.CheckReadOnly(query); err != nil {
			return fmt.Errorf("%w (use --write to allow)", err)
		}
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	report.PrintQueryResult(os.Stdout, cols, rows)
	return nil
}
