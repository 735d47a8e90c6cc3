package seqmodel

import (
	"encoding/json"
	"fmt"
	"os"
)

// Scaler kinds as exported from scikit-learn.
const (
	KindMinMax   = "minmax"
	KindStandard = "standard"
)

// ScalerSpec is the JSON export of a fitted scikit-learn scaler.
type ScalerSpec struct {
	Kind         string    `json:"kind"`
	FeatureNames []string  `json:"feature_names,omitempty"`
	Min          []float64 `json:"min_,omitempty"`
	Scale        []float64 `json:"scale_"`
	Mean         []float64 `json:"mean_,omitempty"`
}

// Scaler applies a fitted per-column affine transform.
//
// A min-max scaler computes x*scale + min; a standard scaler computes
// (x-mean)/scale, with a zero scale treated as 1.
type Scaler struct {
	kind   string
	names  []string
	offset []float64
	scale  []float64
}

// NewMinMaxScaler builds a min-max scaler from fitted min_ and scale_.
func NewMinMaxScaler(mins, scale []float64, names []string) (*Scaler, error) {
	return NewScaler(ScalerSpec{Kind: KindMinMax, Min: mins, Scale: scale, FeatureNames: names})
}

// NewStandardScaler builds a standard scaler from fitted mean_ and scale_.
func NewStandardScaler(mean, scale []float64, names []string) (*Scaler, error) {
	return NewScaler(ScalerSpec{Kind: KindStandard, Mean: mean, Scale: scale, FeatureNames: names})
}

// NewScaler validates a scaler export.
func NewScaler(spec ScalerSpec) (*Scaler, error) {
	n := len(spec.Scale)
	if n == 0 {
		return nil, fmt.Errorf("scaler has no scale_ values")
	}
	if spec.FeatureNames != nil && len(spec.FeatureNames) != n {
		return nil, fmt.Errorf("scaler has %d feature names for %d columns: %w", len(spec.FeatureNames), n, ErrShape)
	}
	s := &Scaler{kind: spec.Kind, names: spec.FeatureNames, scale: append([]float64(nil), spec.Scale...)}
	switch spec.Kind {
	case KindMinMax:
		if len(spec.Min) != n {
			return nil, fmt.Errorf("scaler min_ has %d values, want %d: %w", len(spec.Min), n, ErrShape)
		}
		s.offset = append([]float64(nil), spec.Min...)
	case KindStandard:
		if spec.Mean == nil {
			s.offset = make([]float64, n)
		} else if len(spec.Mean) != n {
			return nil, fmt.Errorf("scaler mean_ has %d values, want %d: %w", len(spec.Mean), n, ErrShape)
		} else {
			s.offset = append([]float64(nil), spec.Mean...)
		}
		for i, v := range s.scale {
			if v == 0 {
				s.scale[i] = 1
			}
		}
	default:
		return nil, fmt.Errorf("unsupported scaler kind %q", spec.Kind)
	}
	return s, nil
}

// LoadScaler reads a JSON scaler export from path.
func LoadScaler(path string) (*Scaler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler: %w", err)
	}
	var spec ScalerSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decode scaler %s: %w", path, err)
	}
	s, err := NewScaler(spec)
	if err != nil {
		return nil, fmt.Errorf("load scaler %s: %w", path, err)
	}
	return s, nil
}

// Kind returns KindMinMax or KindStandard.
func (s *Scaler) Kind() string { return s.kind }

// FeatureNames returns the columns the scaler was fitted on, if recorded.
func (s *Scaler) FeatureNames() []string { return s.names }

// Transform scales a row-major matrix in place.
func (s *Scaler) Transform(X [][]float64) error {
	for i, row := range X {
		if len(row) != len(s.scale) {
			return fmt.Errorf("row %d has %d features, scaler expects %d: %w", i, len(row), len(s.scale), ErrShape)
		}
	}
	for _, row := range X {
		for j, v := range row {
			if s.kind == KindMinMax {
				row[j] = v*s.scale[j] + s.offset[j]
			} else {
				row[j] = (v - s.offset[j]) / s.scale[j]
			}
		}
	}
	return nil
}
