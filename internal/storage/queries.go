package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pable/valorant-egr/internal/model"
)

// InsertRun records a completed inference run. Uses INSERT OR REPLACE for idempotency.
func (db *DB) InsertRun(s model.RunSummary) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO inference_runs(
			id, input_path, output_path, model_path, scaler_path, result_table,
			started_at, finished_at, samples, predictions, merged_rows, warnings
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.InputPath, s.OutputPath, s.ModelPath, s.ScalerPath, s.ResultTable,
		s.StartedAt.UTC().Format(time.RFC3339Nano), s.FinishedAt.UTC().Format(time.RFC3339Nano),
		s.Samples, s.Predictions, s.MergedRows, s.Warnings,
	)
	return err
}

const runColumns = `id, input_path, output_path, model_path, scaler_path, result_table,
	started_at, finished_at, samples, predictions, merged_rows, warnings`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (model.RunSummary, error) {
	var s model.RunSummary
	var started, finished string
	if err := r.Scan(&s.ID, &s.InputPath, &s.OutputPath, &s.ModelPath, &s.ScalerPath, &s.ResultTable,
		&started, &finished, &s.Samples, &s.Predictions, &s.MergedRows, &s.Warnings); err != nil {
		return s, err
	}
	var err error
	if s.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return s, fmt.Errorf("run %s: started_at: %w", s.ID, err)
	}
	if s.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return s, fmt.Errorf("run %s: finished_at: %w", s.ID, err)
	}
	return s, nil
}

// ListRuns returns the most recent runs first. A limit of 0 returns all runs.
func (db *DB) ListRuns(limit int) ([]model.RunSummary, error) {
	q := "SELECT " + runColumns + " FROM inference_runs ORDER BY started_at DESC"
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		s, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetRunByPrefix finds the most recent run whose id starts with the given prefix.
func (db *DB) GetRunByPrefix(prefix string) (*model.RunSummary, error) {
	s, err := scanRun(db.conn.QueryRow(
		"SELECT "+runColumns+" FROM inference_runs WHERE id LIKE ? ORDER BY started_at DESC LIMIT 1", prefix+"%"))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListGames returns the distinct game ids of a result table in first-seen order.
func (db *DB) ListGames(table string) ([]string, error) {
	quoted, err := quoteTable(table)
	if err != nil {
		return nil, err
	}
	rows, err := db.conn.Query(fmt.Sprintf(`
		SELECT CAST(game_id AS TEXT) FROM %s GROUP BY game_id ORDER BY MIN(rowid)`, quoted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var g sql.NullString
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		if g.Valid {
			out = append(out, g.String)
		}
	}
	return out, rows.Err()
}

// PlayerEGR returns the mean EGR (scaled to 0-100) per team, player, agent and
// role, best first. An empty gameID covers every game.
func (db *DB) PlayerEGR(table, gameID string) ([]model.PlayerEGR, error) {
	quoted, err := quoteTable(table)
	if err != nil {
		return nil, err
	}
	where, args := gameFilter(gameID)
	rows, err := db.conn.Query(fmt.Sprintf(`
		SELECT COALESCE(CAST(team AS TEXT), ''), CAST(player AS TEXT), COALESCE(CAST(agent_name AS TEXT), ''),
		       COALESCE(CAST(role AS TEXT), ''), AVG(EGR) * 100,
		       COUNT(DISTINCT CAST(game_id AS TEXT) || '/' || CAST(round_num AS TEXT))
		FROM %s %s
		GROUP BY team, player, agent_name, role
		ORDER BY AVG(EGR) DESC, player`, quoted, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerEGR
	for rows.Next() {
		var p model.PlayerEGR
		var mean sql.NullFloat64
		if err := rows.Scan(&p.Team, &p.Player, &p.Agent, &p.Role, &mean, &p.Rounds); err != nil {
			return nil, err
		}
		p.MeanEGR = mean.Float64
		out = append(out, p)
	}
	return out, rows.Err()
}

// RoundDetail returns the last recorded event of every player in one round of
// a game, highest EGR first.
func (db *DB) RoundDetail(table, gameID string, round int) ([]model.RoundDetail, error) {
	quoted, err := quoteTable(table)
	if err != nil {
		return nil, err
	}
	rows, err := db.conn.Query(fmt.Sprintf(`
		SELECT CAST(t.player AS TEXT), t.round_num, t.kills, t.assists, t.deaths,
		       t.our_team_alive, t.opponent_team_alive, t.is_alive, t.combat_score_round, t.EGR, t.won
		FROM %[1]s t
		JOIN (
			SELECT MAX(rowid) AS rid FROM %[1]s
			WHERE game_id = ? AND round_num = ?
			GROUP BY player
		) last ON t.rowid = last.rid
		ORDER BY t.EGR DESC, t.player`, quoted), gameID, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RoundDetail
	for rows.Next() {
		var d model.RoundDetail
		var kills, assists, deaths, ours, theirs, alive, cs, egr, won sql.NullFloat64
		if err := rows.Scan(&d.Player, &d.Round, &kills, &assists, &deaths,
			&ours, &theirs, &alive, &cs, &egr, &won); err != nil {
			return nil, err
		}
		d.Kills, d.Assists, d.Deaths = kills.Float64, assists.Float64, deaths.Float64
		d.OurTeamAlive, d.OpponentTeamAlive = ours.Float64, theirs.Float64
		d.IsAlive = alive.Float64 != 0
		d.CombatScoreRound, d.EGR = cs.Float64, egr.Float64
		d.Won = won.Float64 != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

// TeamTrend returns each team's mean EGR per round of a game and whether the
// team won the round.
func (db *DB) TeamTrend(table, gameID string) ([]model.TeamRound, error) {
	quoted, err := quoteTable(table)
	if err != nil {
		return nil, err
	}
	rows, err := db.conn.Query(fmt.Sprintf(`
		SELECT CAST(team AS TEXT), round_num, AVG(EGR), COALESCE(MAX(won), 0)
		FROM %s WHERE game_id = ?
		GROUP BY team, round_num
		ORDER BY team, round_num`, quoted), gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TeamRound
	for rows.Next() {
		var r model.TeamRound
		var mean sql.NullFloat64
		var won int
		if err := rows.Scan(&r.Team, &r.Round, &mean, &won); err != nil {
			return nil, err
		}
		r.MeanEGR = mean.Float64
		r.Won = won != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// RoundOutcomes returns the mean EGR and combat score of every game round,
// split by outcome.
func (db *DB) RoundOutcomes(table string) ([]model.RoundOutcome, error) {
	quoted, err := quoteTable(table)
	if err != nil {
		return nil, err
	}
	rows, err := db.conn.Query(fmt.Sprintf(`
		SELECT CAST(game_id AS TEXT), round_num, COALESCE(won, 0), AVG(EGR), AVG(combat_score_round)
		FROM %s
		GROUP BY game_id, round_num, won
		ORDER BY game_id, round_num, won`, quoted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RoundOutcome
	for rows.Next() {
		var o model.RoundOutcome
		var won int
		var egr, cs sql.NullFloat64
		if err := rows.Scan(&o.GameID, &o.Round, &won, &egr, &cs); err != nil {
			return nil, err
		}
		o.Won = won != 0
		o.MeanEGR, o.MeanCombatScore = egr.Float64, cs.Float64
		out = append(out, o)
	}
	return out, rows.Err()
}

// PlayerRoundEGR returns the mean EGR of every player in every round of a
// game, ordered by player then round.
func (db *DB) PlayerRoundEGR(table, gameID string) ([]model.PlayerRoundPoint, error) {
	quoted, err := quoteTable(table)
	if err != nil {
		return nil, err
	}
	rows, err := db.conn.Query(fmt.Sprintf(`
		SELECT CAST(player AS TEXT), round_num, AVG(EGR)
		FROM %s WHERE game_id = ?
		GROUP BY player, round_num
		ORDER BY player, round_num`, quoted), gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerRoundPoint
	for rows.Next() {
		var p model.PlayerRoundPoint
		var mean sql.NullFloat64
		if err := rows.Scan(&p.Player, &p.Round, &mean); err != nil {
			return nil, err
		}
		p.EGR = mean.Float64
		out = append(out, p)
	}
	return out, rows.Err()
}

func gameFilter(gameID string) (string, []any) {
	if gameID == "" {
		return "", nil
	}
	return "WHERE game_id = ?", []any{gameID}
}
