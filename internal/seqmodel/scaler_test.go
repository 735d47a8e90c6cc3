package seqmodel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinMaxScaler(t *testing.T) {
	s, err := NewMinMaxScaler([]float64{0, -1}, []float64{0.5, 2}, []string{"a", "b"})
	require.NoError(t, err)
	X := [][]float64{{2, 1}, {4, 0}}
	require.NoError(t, s.Transform(X))
	assert.Equal(t, [][]float64{{1, 1}, {2, -1}}, X)
	assert.Equal(t, []string{"a", "b"}, s.FeatureNames())
	assert.Equal(t, KindMinMax, s.Kind())
}

func TestStandardScalerZeroScale(t *testing.T) {
	s, err := NewStandardScaler([]float64{1, 5}, []float64{2, 0}, nil)
	require.NoError(t, err)
	X := [][]float64{{3, 7}}
	require.NoError(t, s.Transform(X))
	assert.Equal(t, [][]float64{{1, 2}}, X)
}

func TestScalerWidthMismatch(t *testing.T) {
	s, err := NewMinMaxScaler([]float64{0}, []float64{1}, nil)
	require.NoError(t, err)
	X := [][]float64{{1}, {1, 2}}
	assert.ErrorIs(t, s.Transform(X), ErrShape)
	assert.Equal(t, 1.0, X[0][0], "nothing is scaled when a row is rejected")
}

func TestNewScalerValidation(t *testing.T) {
	_, err := NewScaler(ScalerSpec{Kind: "robust", Scale: []float64{1}})
	assert.Error(t, err)
	_, err = NewScaler(ScalerSpec{Kind: KindMinMax, Scale: []float64{1, 1}, Min: []float64{0}})
	assert.ErrorIs(t, err, ErrShape)
	_, err = NewScaler(ScalerSpec{Kind: KindMinMax, Scale: []float64{1}, Min: []float64{0}, FeatureNames: []string{"a", "b"}})
	assert.ErrorIs(t, err, ErrShape)
}

func TestLoadScaler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scaler.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"kind":"minmax","feature_names":["x"],"min_":[1],"scale_":[10]}`), 0o644))

	s, err := LoadScaler(path)
	require.NoError(t, err)
	X := [][]float64{{0.5}}
	require.NoError(t, s.Transform(X))
	assert.Equal(t, 6.0, X[0][0])
}
