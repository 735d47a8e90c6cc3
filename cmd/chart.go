package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/valorant-egr/internal/report"
)

var chartOut string

// chartCmd plots every player's EGR across the rounds of one game.
var chartCmd = &cobra.Command{
	Use:   "chart <game-id>",
	Short: "Plot each player's EGR across the rounds of a game",
	Args:  cobra.ExactArgs(1),
	RunE:  runChart,
}

func init() {
	chartCmd.Flags().StringVarP(&chartOut, "out", "o", "", "PNG path (default egr_<game-id>.png)")
}

func runChart(cmd *cobra.Command, args []string) error {
	game := args[0]
	out := chartOut
	if out == "" {
		out = "egr_" + game + ".png"
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

	points, err := db.PlayerRoundEGR(cfg.Table, game)
	if err != nil {
		return fmt.Errorf("query player EGR: %w", err)
	}
	if len(points) == 0 {
		fmt.Fprintf(os.Stdout, "no rounds found for game %s\n", game)
		return nil
	}
	if err := report.PlotEGRAcrossRounds(points, "Player EGR across rounds, game "+game, out); err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Saved: %s\n", out)
	return nil
}
