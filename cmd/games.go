package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/valorant-egr/internal/storage"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List the game ids in the result table",
	Args:  cobra.NoArgs,
	RunE:  runGames,
}

func runGames(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return printGames(os.Stdout, db, cfg.Table)
}

func printGames(w io.Writer, db *storage.DB, table string) error {
	games, err := db.ListGames(table)
	if err != nil {
		return fmt.Errorf("list games: %w", err)
	}
	if len(games) == 0 {
		fmt.Fprintf(w, "No games in %s.\n", table)
		return nil
	}
	for _, g := range games {
		fmt.Fprintln(w, g)
	}
	return nil
}
