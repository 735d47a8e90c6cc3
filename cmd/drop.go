package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dropForce bool
	dropAll   bool
)

// dropCmd deletes the result table, or the whole database with --all.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop the result table",
	Long: `Permanently drop the result table. With --all the whole SQLite database file,
including the run log, is deleted instead. Re-run 'egr load' or 'egr infer --store'
afterwards to rebuild.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().BoolVar(&dropAll, "all", false, "delete the database file instead of one table")
}

func runDrop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	target := "table " + cfg.Table + " in " + cfg.DBPath
	if dropAll {
		target = cfg.DBPath
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", target)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}

	if dropAll {
		if err := os.Remove(cfg.DBPath); err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
				return nil
			}
			return fmt.Errorf("remove database: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Deleted: %s\n", cfg.DBPath)
		return nil
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	dropped, err := db.DropTable(cfg.Table)
	if err != nil {
		return fmt.Errorf("drop %s: %w", cfg.Table, err)
	}
	if !dropped {
		fmt.Fprintf(os.Stdout, "Table %s does not exist, nothing to drop.\n", cfg.Table)
		return nil
	}
	fmt.Fprintf(os.Stdout, "Dropped: %s\n", cfg.Table)
	return nil
}
