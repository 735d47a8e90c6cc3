package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/valorant-egr/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintRunSummary prints a one-line summary of a finished inference run.
func PrintRunSummary(w io.Writer, s model.RunSummary) {
	id := s.ID
	if len(id) > 8 {
		id = id[:8]
	}
	fmt.Fprintf(w, "\nRun: %s  |  Samples: %d  |  Predictions: %d  |  Rows: %d  |  Warnings: %d  |  Took: %s\nOutput: %s\n\n",
		id, s.Samples, s.Predictions, s.MergedRows, s.Warnings, s.Duration().Round(1e6), s.OutputPath)
}

// PrintRunsTable lists stored inference runs.
func PrintRunsTable(w io.Writer, runs []model.RunSummary) {
	table := newTable(w)
	table.Header("ID", "STARTED", "INPUT", "SAMPLES", "PREDICTIONS", "ROWS", "WARN", "TABLE", "OUTPUT")
	for _, r := range runs {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		resultTable := r.ResultTable
		if resultTable == "" {
			resultTable = "—"
		}
		table.Append(
			id,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.InputPath,
			strconv.Itoa(r.Samples),
			strconv.Itoa(r.Predictions),
			strconv.Itoa(r.MergedRows),
			strconv.Itoa(r.Warnings),
			resultTable,
			r.OutputPath,
		)
	}
	table.Render()
}

// PrintPlayerEGRTable prints mean EGR per player and agent, already ordered by the caller.
// Rows whose team is in highlight are marked with ">".
func PrintPlayerEGRTable(w io.Writer, rows []model.PlayerEGR, highlight map[string]bool) {
	table := newTable(w)
	table.Header(" ", "TEAM", "PLAYER", "AGENT", "ROLE", "AVG_EGR", "ROUNDS")
	for _, r := range rows {
		marker := " "
		if highlight[r.Team] {
			marker = ">"
		}
		role := r.Role
		if role == "" {
			role = "—"
		}
		table.Append(
			marker,
			r.Team,
			r.Player,
			r.Agent,
			role,
			fmt.Sprintf("%.2f", r.MeanEGR),
			strconv.Itoa(r.Rounds),
		)
	}
	table.Render()
}

// PrintRoundDetailTable prints every player's final state in one round.
func PrintRoundDetailTable(w io.Writer, rows []model.RoundDetail) {
	table := newTable(w)
	table.Header("PLAYER", "ROUND", "K", "A", "D", "ALLY_ALIVE", "OPP_ALIVE", "ALIVE", "CS", "EGR", "WON")
	for _, r := range rows {
		table.Append(
			r.Player,
			strconv.Itoa(r.Round),
			fmt.Sprintf("%.0f", r.Kills),
			fmt.Sprintf("%.0f", r.Assists),
			fmt.Sprintf("%.0f", r.Deaths),
			fmt.Sprintf("%.0f", r.OurTeamAlive),
			fmt.Sprintf("%.0f", r.OpponentTeamAlive),
			yesNo(r.IsAlive),
			fmt.Sprintf("%.0f", r.CombatScoreRound),
			fmt.Sprintf("%.3f", r.EGR),
			yesNo(r.Won),
		)
	}
	table.Render()
}

// PrintTeamTrendTable prints each team's mean EGR per round. Won rounds are starred.
func PrintTeamTrendTable(w io.Writer, rows []model.TeamRound) {
	table := newTable(w)
	table.Header("TEAM", "ROUND", "AVG_EGR", "WON")
	for _, r := range rows {
		won := ""
		if r.Won {
			won = "*"
		}
		table.Append(r.Team, strconv.Itoa(r.Round), fmt.Sprintf("%.3f", r.MeanEGR), won)
	}
	table.Render()
}

// PrintPredictionPreview prints up to limit prediction records. A limit of 0 prints all.
func PrintPredictionPreview(w io.Writer, recs []model.PredictionRecord, limit int) {
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	table := newTable(w)
	table.Header("GAME", "PLAYER", "ROUND", "EGR", "TARGET")
	for _, r := range recs {
		table.Append(r.GameID, r.Player, strconv.Itoa(r.Round), fmt.Sprintf("%.4f", r.EGR), fmt.Sprintf("%.4f", r.Target))
	}
	table.Render()
}

// PrintQueryResult prints a raw query result grid followed by the row count.
func PrintQueryResult(w io.Writer, cols []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	table := newTable(w)
	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)
	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(w, "\n(%d rows)\n", len(rows))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
