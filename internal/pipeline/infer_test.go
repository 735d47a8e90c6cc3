package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/valorant-egr/internal/model"
)

// stubPredictor scores round r as r/10 and records every batch it sees.
type stubPredictor struct {
	drop    int
	err     error
	batches []model.PaddedBatch
}

func (p *stubPredictor) Predict(_ context.Context, b model.PaddedBatch) ([]float64, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.batches = append(p.batches, b)
	out := make([]float64, b.Rounds-p.drop)
	for i := range out {
		out[i] = float64(i) / 10
	}
	return out, nil
}

func sample(game, player string, lens map[int]int, order ...int) model.PlayerGameSample {
	s := model.PlayerGameSample{GameID: game, Player: player}
	for _, r := range order {
		s.Rounds = append(s.Rounds, model.RoundSequence{
			Round:    r,
			Features: rows(lens[r], 2, float64(r)),
			Target:   float64(r) * 100,
		})
	}
	return s
}

func TestInferEndToEndShape(t *testing.T) {
	samples := []model.PlayerGameSample{
		sample("g1", "alice", map[int]int{1: 3, 2: 5}, 1, 2),
		sample("g1", "bob", map[int]int{1: 3, 2: 5}, 1, 2),
	}
	p := &stubPredictor{}
	res, err := Infer(context.Background(), p, samples, InferOptions{})
	require.NoError(t, err)
	require.Len(t, p.batches, 2)

	b := p.batches[0]
	r, ts, f := b.Shape()
	assert.Equal(t, [3]int{2, 5, 2}, [3]int{r, ts, f})
	for step := 3; step < 5; step++ {
		for fi := 0; fi < f; fi++ {
			assert.Equal(t, model.Sentinel, b.At(0, step, fi))
		}
	}

	require.Len(t, res.Records, 4)
	assert.Empty(t, res.Warnings)
	for i, player := range []string{"alice", "bob"} {
		got := res.Records[i*2 : i*2+2]
		assert.Equal(t, player, got[0].Player)
		assert.Equal(t, 1, got[0].Round)
		assert.Equal(t, 2, got[1].Round)
		assert.Equal(t, 200.0, got[1].Target)
		assert.Equal(t, 0.1, got[1].EGR)
	}
}

func TestInferSourceAndPositionalRoundLabels(t *testing.T) {
	samples := []model.PlayerGameSample{sample("g1", "alice", map[int]int{4: 1, 7: 2}, 4, 7)}

	res, err := Infer(context.Background(), &stubPredictor{}, samples, InferOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 7}, []int{res.Records[0].Round, res.Records[1].Round})

	res, err = Infer(context.Background(), &stubPredictor{}, samples, InferOptions{PositionalRounds: true})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, []int{res.Records[0].Round, res.Records[1].Round})
}

func TestInferGroupingMismatchIsPartial(t *testing.T) {
	samples := []model.PlayerGameSample{
		sample("g1", "alice", map[int]int{1: 1, 2: 1, 3: 1}, 1, 2, 3),
	}
	res, err := Infer(context.Background(), &stubPredictor{drop: 1}, samples, InferOptions{})
	require.NoError(t, err)
	assert.Len(t, res.Records, 2)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, GroupingMismatchWarning{GameID: "g1", Player: "alice", Rounds: 3, Predictions: 2}, res.Warnings[0])
}

func TestInferModelFailureIsFatal(t *testing.T) {
	boom := errors.New("boom")
	samples := []model.PlayerGameSample{sample("g1", "alice", map[int]int{1: 1}, 1)}
	_, err := Infer(context.Background(), &stubPredictor{err: boom}, samples, InferOptions{})

	var me *ModelInferenceError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "alice", me.Player)
	assert.ErrorIs(t, err, boom)
}

func TestInferHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	samples := []model.PlayerGameSample{sample("g1", "alice", map[int]int{1: 1}, 1)}
	_, err := Infer(ctx, &stubPredictor{}, samples, InferOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInferEmptySampleFails(t *testing.T) {
	_, err := Infer(context.Background(), &stubPredictor{}, []model.PlayerGameSample{{GameID: "g", Player: "p"}}, InferOptions{})
	assert.ErrorIs(t, err, ErrEmptySample)
}
