package pipeline

import (
	"fmt"

	"github.com/pable/valorant-egr/internal/model"
)

// Pad right-pads every round to the longest round with rows of model.Sentinel
// and returns a (rounds, L, features) tensor. Only the time axis is padded and
// source rows are copied unchanged.
func Pad(rounds [][][]float64) (model.PaddedBatch, error) {
	if len(rounds) == 0 {
		return model.PaddedBatch{}, ErrEmptySample
	}
	width := -1
	longest := 0
	for r, rows := range rounds {
		if len(rows) > longest {
			longest = len(rows)
		}
		for t, row := range rows {
			if width < 0 {
				width = len(row)
				continue
			}
			if len(row) != width {
				return model.PaddedBatch{}, fmt.Errorf("round %d step %d has %d features, want %d: %w", r, t, len(row), width, ErrRaggedFeatures)
			}
		}
	}
	if longest == 0 {
		return model.PaddedBatch{}, ErrEmptySample
	}

	b := model.PaddedBatch{
		Rounds:    len(rounds),
		Timesteps: longest,
		Features:  width,
		Data:      make([]float64, len(rounds)*longest*width),
	}
	for r, rows := range rounds {
		for t := 0; t < longest; t++ {
			step := b.Step(r, t)
			if t < len(rows) {
				copy(step, rows[t])
				continue
			}
			for f := range step {
				step[f] = model.Sentinel
			}
		}
	}
	return b, nil
}
