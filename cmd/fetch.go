package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/valorant-egr/internal/report"
)

// fetch command flags.
var (
	// fetchColumns restricts the output to these comma-separated columns.
	fetchColumns string
	// fetchWhere is an SQL condition appended as WHERE.
	fetchWhere string
	// fetchOut writes CSV to this path instead of printing a table.
	fetchOut string
	// fetchLimit caps the number of rows printed as a table.
	fetchLimit int
)

// fetchCmd reads rows back out of the result table.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Read rows from the result table",
	Long: `Read rows from the result table, optionally filtered, as a table or a CSV file.

Examples:
  egr fetch --columns game_id,player,round_num,EGR --where "game_id = 42"
  egr fetch --out results.csv`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchColumns, "columns", "", "comma-separated columns (default all)")
	fetchCmd.Flags().StringVar(&fetchWhere, "where", "", "SQL condition, e.g. \"game_id = 42\"")
	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "", "write CSV to this file instead of printing")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 50, "rows to print when not writing a file (0 for all)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var cols []string
	for _, c := range strings.Split(fetchColumns, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	f, err := db.FetchFrame(cfg.Table, cols, fetchWhere)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", cfg.Table, err)
	}

	if fetchOut != "" {
		if err := f.WriteFile(fetchOut); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Wrote %d rows to %s\n", f.Len(), fetchOut)
		return nil
	}

	n := f.Len()
	if fetchLimit > 0 && n > fetchLimit {
		n = fetchLimit
	}
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = f.Row(i)
	}
	report.PrintQueryResult(os.Stdout, f.Columns(), rows)
	if n < f.Len() {
		fmt.Fprintf(os.Stdout, "(showing %d of %d rows; use --out for all)\n", n, f.Len())
	}
	return nil
}
