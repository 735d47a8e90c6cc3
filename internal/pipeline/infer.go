package pipeline

import (
	"context"
	"fmt"

	"github.com/sbwhitecap/tqdm"
	"github.com/sbwhitecap/tqdm/iterators"

	"github.com/pable/valorant-egr/internal/model"
)

// Predictor scores one padded player-game, returning one value per round.
type Predictor interface {
	Predict(ctx context.Context, batch model.PaddedBatch) ([]float64, error)
}

// InferOptions tunes the inference loop.
type InferOptions struct {
	// PositionalRounds labels rounds 1..n by position instead of by their
	// source round_num.
	PositionalRounds bool
	// Progress shows a terminal progress bar.
	Progress bool
}

// InferResult holds the records produced by Infer and any grouping warnings.
type InferResult struct {
	Records  []model.PredictionRecord
	Warnings []GroupingMismatchWarning
}

// Infer runs the predictor once per sample, in order, and emits one record per
// scored round. A score count that differs from the round count is recorded as
// a warning and only the rounds that have a score are emitted. A predictor
// failure aborts the run with a *ModelInferenceError.
func Infer(ctx context.Context, p Predictor, samples []model.PlayerGameSample, opts InferOptions) (*InferResult, error) {
	res := &InferResult{}
	each := func(i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		s := samples[i]
		batch, err := Pad(s.Features())
		if err != nil {
			return fmt.Errorf("pad game %s player %s: %w", s.GameID, s.Player, err)
		}
		scores, err := p.Predict(ctx, batch)
		if err != nil {
			return &ModelInferenceError{GameID: s.GameID, Player: s.Player, Err: err}
		}
		n := len(s.Rounds)
		if len(scores) != n {
			res.Warnings = append(res.Warnings, GroupingMismatchWarning{
				GameID: s.GameID, Player: s.Player, Rounds: n, Predictions: len(scores),
			})
			n = min(n, len(scores))
		}
		for j := 0; j < n; j++ {
			round := s.Rounds[j].Round
			if opts.PositionalRounds {
				round = j + 1
			}
			res.Records = append(res.Records, model.PredictionRecord{
				GameID: s.GameID,
				Player: s.Player,
				Round:  round,
				EGR:    scores[j],
				Target: s.Rounds[j].Target,
			})
		}
		return nil
	}

	if !opts.Progress {
		for i := range samples {
			if err := each(i); err != nil {
				return nil, err
			}
		}
		return res, nil
	}

	var loopErr error
	err := tqdm.With(iterators.Interval(0, len(samples)), "Inferencing", func(v interface{}) (brk bool) {
		if loopErr = each(v.(int)); loopErr != nil {
			return true
		}
		return false
	})
	if loopErr != nil {
		return nil, loopErr
	}
	if err != nil {
		return nil, fmt.Errorf("progress: %w", err)
	}
	return res, nil
}
