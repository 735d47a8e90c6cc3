package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/valorant-egr/internal/report"
	"github.com/pable/valorant-egr/internal/storage"
)

var (
	playersGame      string
	playersHighlight string
)

// playersCmd ranks players by mean EGR.
var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "Mean EGR per player and agent, best first",
	Long: `Rank players by their mean EGR (scaled to 0-100) per team and agent.

Examples:
  egr players
  egr players --game 42 --highlight "Team Liquid,FNATIC"`,
	Args: cobra.NoArgs,
	RunE: runPlayers,
}

func init() {
	playersCmd.Flags().StringVar(&playersGame, "game", "", "only this game id")
	playersCmd.Flags().StringVar(&playersHighlight, "highlight", "", "comma-separated teams to mark")
}

func runPlayers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return printPlayers(os.Stdout, db, cfg.Table, playersGame, parseHighlight(playersHighlight))
}

func parseHighlight(s string) map[string]bool {
	out := make(map[string]bool)
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out[t] = true
		}
	}
	return out
}

func printPlayers(w io.Writer, db *storage.DB, table, game string, highlight map[string]bool) error {
	rows, err := db.PlayerEGR(table, game)
	if err != nil {
		return fmt.Errorf("query player EGR: %w", err)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "no players found")
		return nil
	}
	report.PrintPlayerEGRTable(w, rows, highlight)
	return nil
}
