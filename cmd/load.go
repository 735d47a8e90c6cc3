package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/valorant-egr/internal/frame"
)

// loadCmd imports a results CSV into the result table.
var loadCmd = &cobra.Command{
	Use:   "load <results.csv>",
	Short: "Import a results CSV into the result table",
	Long: `Import a results_<timestamp>.csv (or any CSV) into the result table.

Pandas index columns ("Unnamed: 0") are dropped. The table is created with
column types inferred from the data when it does not exist yet; otherwise the
rows are appended.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	f, err := frame.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}
	f.DropUnnamed()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.ImportFrame(cfg.Table, f)
	if err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}
	logger.Debug("Imported csv", "path", args[0], "columns", len(f.Columns()))
	fmt.Fprintf(os.Stdout, "Loaded %d rows into %s\n", n, cfg.Table)
	return nil
}
