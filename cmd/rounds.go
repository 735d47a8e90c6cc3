package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/valorant-egr/internal/report"
	"github.com/pable/valorant-egr/internal/storage"
)

// roundsCmd is the cobra command for the per-player drill-down of one round.
var roundsCmd = &cobra.Command{
	Use:   "rounds <game-id> <round>",
	Short: "Every player's final state and EGR in one round",
	Args:  cobra.ExactArgs(2),
	RunE:  runRounds,
}

func runRounds(cmd *cobra.Command, args []string) error {
	round, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid round number %q: %w", args[1], err)
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
	return printRound(os.Stdout, db, cfg.Table, args[0], round)
}

func printRound(w io.Writer, db *storage.DB, table, game string, round int) error {
	rows, err := db.RoundDetail(table, game, round)
	if err != nil {
		return fmt.Errorf("query round detail: %w", err)
	}
	if len(rows) == 0 {
		fmt.Fprintf(w, "no rows for game %s round %d\n", game, round)
		return nil
	}
	fmt.Fprintf(w, "\nGame %s  |  Round %d\n\n", game, round)
	report.PrintRoundDetailTable(w, rows)
	return nil
}
