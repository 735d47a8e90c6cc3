package seqmodel

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/valorant-egr/internal/model"
)

func sigmoid(v float64) float64 { return 1 / (1 + math.Exp(-v)) }

func tinySpec() Spec {
	mask := model.Sentinel
	return Spec{
		InputFeatures: 1,
		MaskValue:     &mask,
		Layers: []LayerSpec{
			{
				Type:            LayerLSTM,
				Units:           1,
				Kernel:          [][]float64{{0.5, -0.25, 1.0, 0.75}},
				RecurrentKernel: [][]float64{{0.1, 0.2, 0.3, 0.4}},
				Bias:            []float64{0, 1, 0, 0},
			},
			{Type: LayerDropout},
			{Type: LayerDense, Units: 1, Kernel: [][]float64{{2}}, Bias: []float64{0.5}},
		},
	}
}

// reference steps the same single-unit cell by hand.
func reference(xs ...float64) float64 {
	var h, c float64
	for _, x := range xs {
		i := sigmoid(0.5*x + 0.1*h)
		f := sigmoid(-0.25*x + 0.2*h + 1)
		g := math.Tanh(1.0*x + 0.3*h)
		o := sigmoid(0.75*x + 0.4*h)
		c = f*c + i*g
		h = o * math.Tanh(c)
	}
	return 2*h + 0.5
}

func batch(rounds [][]float64) model.PaddedBatch {
	longest := 0
	for _, r := range rounds {
		longest = max(longest, len(r))
	}
	b := model.PaddedBatch{Rounds: len(rounds), Timesteps: longest, Features: 1}
	for _, r := range rounds {
		for t := 0; t < longest; t++ {
			v := model.Sentinel
			if t < len(r) {
				v = r[t]
			}
			b.Data = append(b.Data, v)
		}
	}
	return b
}

func TestLSTMMatchesReference(t *testing.T) {
	m, err := NewLSTM(tinySpec())
	require.NoError(t, err)
	assert.Equal(t, 1, m.Features())

	scores, err := m.Predict(context.Background(), batch([][]float64{{0.2, 0.4, 0.6}, {1, -1}}))
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.InDelta(t, reference(0.2, 0.4, 0.6), scores[0], 1e-12)
	assert.InDelta(t, reference(1, -1), scores[1], 1e-12, "padded steps are masked")
}

func TestLSTMWithoutMaskSeesPadding(t *testing.T) {
	spec := tinySpec()
	spec.MaskValue = nil
	m, err := NewLSTM(spec)
	require.NoError(t, err)

	scores, err := m.Predict(context.Background(), batch([][]float64{{0.2, 0.4}, {1}}))
	require.NoError(t, err)
	assert.InDelta(t, reference(1, model.Sentinel), scores[1], 1e-12)
}

func TestLSTMStackedLayers(t *testing.T) {
	spec := tinySpec()
	first := spec.Layers[0]
	first.ReturnSequences = true
	second := spec.Layers[0]
	spec.Layers = append([]LayerSpec{first, second}, spec.Layers[1:]...)

	m, err := NewLSTM(spec)
	require.NoError(t, err)
	scores, err := m.Predict(context.Background(), batch([][]float64{{0.3}}))
	require.NoError(t, err)

	// the second layer sees the first layer's hidden state as its input.
	h1 := (reference(0.3) - 0.5) / 2
	assert.InDelta(t, reference(h1), scores[0], 1e-12)
}

func TestLSTMRejectsBadShapes(t *testing.T) {
	spec := tinySpec()
	spec.Layers[0].Kernel = [][]float64{{1, 2, 3}}
	_, err := NewLSTM(spec)
	assert.ErrorIs(t, err, ErrShape)

	spec = tinySpec()
	spec.Layers[2].Units = 2
	spec.Layers[2].Kernel = [][]float64{{1, 1}}
	spec.Layers[2].Bias = nil
	_, err = NewLSTM(spec)
	assert.ErrorIs(t, err, ErrShape)

	spec = tinySpec()
	spec.Layers[0].Activation = "softsign"
	_, err = NewLSTM(spec)
	assert.Error(t, err)

	m, err := NewLSTM(tinySpec())
	require.NoError(t, err)
	_, err = m.Predict(context.Background(), model.PaddedBatch{Rounds: 1, Timesteps: 1, Features: 2, Data: []float64{1, 2}})
	assert.ErrorIs(t, err, ErrShape)
}

func TestLoadLSTMFromJSON(t *testing.T) {
	data, err := json.Marshal(tinySpec())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	m, err := LoadLSTM(path)
	require.NoError(t, err)
	scores, err := m.Predict(context.Background(), batch([][]float64{{0.5}}))
	require.NoError(t, err)
	assert.InDelta(t, reference(0.5), scores[0], 1e-12)

	_, err = LoadLSTM(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLSTMPredictCancelled(t *testing.T) {
	m, err := NewLSTM(tinySpec())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Predict(ctx, batch([][]float64{{1}}))
	assert.ErrorIs(t, err, context.Canceled)
}
