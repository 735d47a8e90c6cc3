package pipeline

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/pable/valorant-egr/internal/frame"
)

// Identifier and target columns of the telemetry table.
const (
	ColGameID   = "game_id"
	ColTeam     = "team"
	ColPlayer   = "player"
	ColRound    = "round_num"
	ColSeconds  = "seconds"
	ColAgent    = "agent_name"
	ColWon      = "won"
	ColEGR      = "EGR"
	ColTarget   = "Target"
	ColRole     = "role"
	TargetInput = "combat_score_round"
	// TargetColumn is the min-max normalised combat score the model was trained on.
	TargetColumn = "cs_round_normalized"
)

// SortColumns is the row order the sample builder relies on.
var SortColumns = []string{ColGameID, ColTeam, ColPlayer, ColRound, ColSeconds}

// CategoricalColumns are replaced by integer category codes before modelling.
var CategoricalColumns = []string{"agent_name", "map_name", "side", "spike_event", "spike_planted"}

// ExcludedColumns are never model features: identifiers, timestamps, raw
// inventory text, cumulative totals and the target itself.
var ExcludedColumns = []string{
	"game_id", "player", "game_version", "game_datetime", "inventory", "team_id", "attacking_team",
	"event_num", "event_time", "round_start_time", "clock_time", "account_id", "agent_id", "team",
	"opponent_team", "spike_diffused", "teamId_value", "ability1_temp_charges", "ability1_max_charges",
	"ultimate_temp_charges", "ultimate_max_charges", "ability2_max_charges", "ability2_temp_charges",
	"grenade_temp_charges", "grenade_max_charges", "money", "combat_score_total", "damage_dealt",
	"damage_taken", "combat_score_round", "cs_round_normalized", "kills", "deaths", "assists", "won",
}

// Prepare sorts the table, maps the won flag to 0/1 and encodes categorical
// columns in place.
func Prepare(f *frame.Frame) error {
	required := append(append([]string(nil), SortColumns...), CategoricalColumns...)
	if err := requireColumns(f, required...); err != nil {
		return err
	}
	if err := f.SortBy(SortColumns...); err != nil {
		return err
	}
	if f.Has(ColWon) {
		if err := f.ReplaceValues(ColWon, map[string]string{"True": "1", "False": "0", "true": "1", "false": "0"}); err != nil {
			return err
		}
	}
	return f.EncodeCategories(CategoricalColumns...)
}

// NormalizeTarget min-max scales combat_score_round into TargetColumn over the
// whole table. NaNs are skipped when taking the extremes but infinities are not,
// so an infinite score leaves finite rows at 0 (or NaN) like a plain
// (x-min)/(max-min). A constant finite column scales to 0.
func NormalizeTarget(f *frame.Frame) error {
	if err := requireColumns(f, TargetInput); err != nil {
		return err
	}
	raw, err := f.Floats(TargetInput)
	if err != nil {
		return &DataError{Column: TargetInput, Reason: err.Error()}
	}
	present := make([]float64, 0, len(raw))
	for _, v := range raw {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	out := make([]float64, len(raw))
	if len(present) > 0 {
		lo, _ := stats.Min(present)
		hi, _ := stats.Max(present)
		span := hi - lo
		for i, v := range raw {
			switch {
			case math.IsNaN(v):
				out[i] = math.NaN()
			case span == 0:
				out[i] = 0
			default:
				out[i] = (v - lo) / span
			}
		}
	} else {
		for i := range out {
			out[i] = math.NaN()
		}
	}
	cells := make([]string, len(out))
	for i, v := range out {
		cells[i] = frame.FormatFloat(v)
	}
	return f.AddColumn(TargetColumn, cells)
}

// FeatureColumns returns every column that is not excluded, sorted by name.
func FeatureColumns(f *frame.Frame) []string {
	excluded := make(map[string]bool, len(ExcludedColumns))
	for _, c := range ExcludedColumns {
		excluded[c] = true
	}
	var out []string
	for _, c := range f.Columns() {
		if !excluded[c] {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// ExtractFeatures reads the feature columns into a row-major matrix.
func ExtractFeatures(f *frame.Frame, cols []string) ([][]float64, error) {
	if err := requireColumns(f, cols...); err != nil {
		return nil, err
	}
	X := make([][]float64, f.Len())
	for i := range X {
		X[i] = make([]float64, len(cols))
	}
	for j, c := range cols {
		vals, err := f.Floats(c)
		if err != nil {
			return nil, &DataError{Column: c, Reason: err.Error()}
		}
		for i, v := range vals {
			X[i][j] = v
		}
	}
	return X, nil
}
