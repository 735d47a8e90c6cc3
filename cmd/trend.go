package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/valorant-egr/internal/report"
	"github.com/pable/valorant-egr/internal/storage"
)

var trendChart string

var trendCmd = &cobra.Command{
	Use:   "trend <game-id>",
	Short: "Each team's mean EGR round by round",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func init() {
	trendCmd.Flags().StringVar(&trendChart, "chart", "", "also save a PNG line chart to this path")
}

func runTrend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return printTrend(os.Stdout, db, cfg.Table, args[0], trendChart)
}

func printTrend(w io.Writer, db *storage.DB, table, game, chartPath string) error {
	rows, err := db.TeamTrend(table, game)
	if err != nil {
		return fmt.Errorf("query team trend: %w", err)
	}
	if len(rows) == 0 {
		fmt.Fprintf(w, "no rounds found for game %s\n", game)
		return nil
	}
	report.PrintTeamTrendTable(w, rows)
	if chartPath == "" {
		return nil
	}
	if err := report.PlotTeamTrend(rows, "Team EGR by round, game "+game, chartPath); err != nil {
		return fmt.Errorf("plot team trend: %w", err)
	}
	fmt.Fprintf(w, "Chart: %s\n", chartPath)
	return nil
}
