package pipeline

import (
	"fmt"
	"math"

	"github.com/pable/valorant-egr/internal/frame"
	"github.com/pable/valorant-egr/internal/model"
)

// BuildSamples groups event rows into player-game samples of round sequences,
// reading feature vectors from featureCols.
//
// Rows are grouped by (game_id, player) and then by round_num, both in the
// order they are first encountered, so callers sort by SortColumns first.
// Each round's target is the target value of its last row. Every required
// column is checked before any row is read.
func BuildSamples(f *frame.Frame, featureCols []string, targetCol string) ([]model.PlayerGameSample, error) {
	required := append([]string{ColGameID, ColPlayer, ColRound, targetCol}, featureCols...)
	if err := requireColumns(f, required...); err != nil {
		return nil, err
	}
	X, err := ExtractFeatures(f, featureCols)
	if err != nil {
		return nil, err
	}
	return GroupSamples(f, X, targetCol)
}

// GroupSamples is BuildSamples with the feature vectors given as a row-major
// matrix aligned with the rows of f. Identifiers, round labels and targets are
// still read from f, so X may hold scaled values of those same columns.
func GroupSamples(f *frame.Frame, X [][]float64, targetCol string) ([]model.PlayerGameSample, error) {
	if err := requireColumns(f, ColGameID, ColPlayer, ColRound, targetCol); err != nil {
		return nil, err
	}
	if len(X) != f.Len() {
		return nil, fmt.Errorf("group samples: %d feature rows for %d-row table", len(X), f.Len())
	}
	targets, err := f.Floats(targetCol)
	if err != nil {
		return nil, &DataError{Column: targetCol, Reason: err.Error()}
	}

	type roundRef struct{ sample, round int }
	var samples []model.PlayerGameSample
	sampleIdx := make(map[model.SampleKey]int)
	roundIdx := make(map[model.RoundKey]roundRef)

	for i := 0; i < f.Len(); i++ {
		game := f.Value(i, ColGameID)
		player := f.Value(i, ColPlayer)
		round, err := parseRound(f.Value(i, ColRound))
		if err != nil {
			return nil, &DataError{Column: ColRound, Row: i + 1, Reason: err.Error()}
		}

		sk := model.SampleKey{GameID: game, Player: player}
		si, ok := sampleIdx[sk]
		if !ok {
			si = len(samples)
			sampleIdx[sk] = si
			samples = append(samples, model.PlayerGameSample{GameID: game, Player: player})
		}

		rk := model.RoundKey{GameID: game, Player: player, Round: round}
		ref, ok := roundIdx[rk]
		if !ok {
			ref = roundRef{sample: si, round: len(samples[si].Rounds)}
			roundIdx[rk] = ref
			samples[si].Rounds = append(samples[si].Rounds, model.RoundSequence{Round: round})
		}
		rs := &samples[ref.sample].Rounds[ref.round]
		rs.Features = append(rs.Features, X[i])
		rs.Target = targets[i]
	}
	return samples, nil
}

// parseRound accepts integral round numbers, including pandas-style "3.0".
func parseRound(s string) (int, error) {
	v, err := frame.ParseFloat(s)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("round number %q is not an integer", s)
	}
	return int(v), nil
}
