package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/valorant-egr/internal/frame"
	"github.com/pable/valorant-egr/internal/model"
	"github.com/pable/valorant-egr/internal/seqmodel"
)

type identityScaler struct{ names []string }

func (s identityScaler) Transform([][]float64) error { return nil }
func (s identityScaler) FeatureNames() []string   { return s.names }

const telemetryCSV = `Unnamed: 0,game_id,team,player,round_num,seconds,agent_name,map_name,side,spike_event,spike_planted,won,combat_score_round,health
0,g1,red,alice,2,3,Jett,Ascent,attack,,False,True,200,100
1,g1,red,alice,1,1,Jett,Ascent,attack,,False,False,0,100
2,g1,red,alice,1,2,Jett,Ascent,attack,plant,True,False,50,
3,g1,red,alice,1,3,Jett,Ascent,attack,,True,False,100,80
4,g1,red,alice,2,1,Jett,Ascent,attack,,False,True,120,inf
5,g1,red,alice,2,2,Jett,Ascent,attack,,False,True,150,90
6,g1,blue,bob,1,1,Sage,Ascent,defense,,False,True,10,100
`

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(telemetryCSV), 0o644))
	return path
}

func newRunner(t *testing.T, p Predictor, s Scaler) *Runner {
	return &Runner{
		Predictor: p,
		Scaler:    s,
		Logger:    log.New(&testWriter{t}),
		Now:       func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
		Options:   Options{OutputDir: t.TempDir()},
	}
}

type testWriter struct{ t *testing.T }

func (w *testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestRunWritesMergedResults(t *testing.T) {
	input := writeInput(t)
	p := &stubPredictor{}
	r := newRunner(t, p, identityScaler{})

	res, err := r.Run(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "results_20240102_030405.csv", filepath.Base(res.OutputPath))
	assert.Equal(t, 2, res.Summary.Samples)
	assert.Equal(t, 3, res.Summary.Predictions)
	assert.Equal(t, 7, res.Summary.MergedRows)
	assert.Equal(t, 1, res.Summary.Warnings, "one column with non-finite values")

	// blue sorts before red, so bob is scored first.
	require.Len(t, p.batches, 2)
	alice := p.batches[1]
	rounds, steps, _ := alice.Shape()
	assert.Equal(t, 2, rounds)
	assert.Equal(t, 3, steps)

	// alice round 1 ends at combat score 100, the table maximum is 200.
	assert.Equal(t, "alice", res.Predictions[1].Player)
	assert.Equal(t, 0.5, res.Predictions[1].Target)
	assert.Equal(t, 1, res.Predictions[1].Round)

	written, err := frame.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.True(t, written.Has("Unnamed: 0"), "original columns are kept verbatim")
	assert.Equal(t, "Jett", written.Value(0, ColAgent), "merge uses the unencoded input")
	assert.Equal(t, "Duelists", written.Value(0, ColRole))
	assert.Equal(t, "Sentinels", written.Value(6, ColRole))
}

func TestRunRejectsMismatchedScaler(t *testing.T) {
	input := writeInput(t)
	r := newRunner(t, &stubPredictor{}, identityScaler{names: []string{"health"}})

	_, err := r.Run(context.Background(), input)
	var de *DataError
	require.True(t, errors.As(err, &de), "got %v", err)
}

func TestRunMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("game_id,player\ng1,a\n"), 0o644))
	r := newRunner(t, &stubPredictor{}, identityScaler{})

	_, err := r.Run(context.Background(), path)
	var de *DataError
	require.True(t, errors.As(err, &de))
	assert.Contains(t, de.Missing, ColRound)

	entries, _ := os.ReadDir(r.Options.OutputDir)
	assert.Empty(t, entries, "no output is written on a data error")
}

// telemetryFeatures is the width of FeatureColumns over telemetryCSV.
const telemetryFeatures = 8

func TestRunWithFittedScalerAndModel(t *testing.T) {
	mins := make([]float64, telemetryFeatures)
	scale := make([]float64, telemetryFeatures)
	kernel := make([][]float64, telemetryFeatures)
	for i := range scale {
		scale[i] = 0.5
		kernel[i] = []float64{0.1, -0.1, 0.2, 0.1}
	}
	scaler, err := seqmodel.NewMinMaxScaler(mins, scale, nil)
	require.NoError(t, err)

	mask := model.Sentinel
	lstm, err := seqmodel.NewLSTM(seqmodel.Spec{
		InputFeatures: telemetryFeatures,
		MaskValue:     &mask,
		Layers: []seqmodel.LayerSpec{
			{
				Type:            seqmodel.LayerLSTM,
				Units:           1,
				Kernel:          kernel,
				RecurrentKernel: [][]float64{{0.1, 0.2, 0.3, 0.4}},
				Bias:            []float64{0, 1, 0, 0},
			},
			{Type: seqmodel.LayerDense, Units: 1, Kernel: [][]float64{{2}}, Bias: []float64{0.5}},
		},
	})
	require.NoError(t, err)

	res, err := newRunner(t, lstm, scaler).Run(context.Background(), writeInput(t))
	require.NoError(t, err)

	require.Len(t, res.Predictions, 3)
	var aliceRounds []int
	for _, p := range res.Predictions {
		if p.Player == "alice" {
			aliceRounds = append(aliceRounds, p.Round)
		}
	}
	assert.Equal(t, []int{1, 2}, aliceRounds, "round labels survive scaling of round_num")
	assert.Equal(t, 7, res.Summary.MergedRows)

	written, err := frame.ReadFile(res.OutputPath)
	require.NoError(t, err)
	egr, err := written.Column(ColEGR)
	require.NoError(t, err)
	for i, v := range egr {
		assert.NotEmpty(t, v, "row %d has no EGR", i)
	}
}
