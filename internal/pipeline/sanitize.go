package pipeline

import (
	"math"

	"github.com/montanaflynn/stats"
)

// SanitizeOptions tunes non-finite value replacement.
type SanitizeOptions struct {
	// LegacyInfinity replaces -Inf with +MaxFloat64 instead of -MaxFloat64.
	LegacyInfinity bool
}

// Sanitize replaces non-finite values in a row-major feature matrix in place.
// NaNs take the column mean over the non-NaN values of the whole matrix;
// infinities take the largest finite float64 of matching sign. A column with
// no values at all is filled with 0. It returns one warning per touched column;
// a clean matrix is left untouched and yields none.
func Sanitize(X [][]float64, cols []string, opts SanitizeOptions) []NonFiniteValueWarning {
	if len(X) == 0 {
		return nil
	}
	width := len(X[0])
	var warnings []NonFiniteValueWarning
	present := make([]float64, 0, len(X))
	for j := 0; j < width; j++ {
		w := NonFiniteValueWarning{Column: columnName(cols, j)}
		present = present[:0]
		for i := range X {
			v := X[i][j]
			switch {
			case math.IsNaN(v):
				w.NaN++
			case math.IsInf(v, 1):
				w.PosInf++
				present = append(present, v)
			case math.IsInf(v, -1):
				w.NegInf++
				present = append(present, v)
			default:
				present = append(present, v)
			}
		}
		if w.NaN == 0 && w.PosInf == 0 && w.NegInf == 0 {
			continue
		}
		if w.NaN > 0 {
			w.Fill = 0
			if len(present) > 0 {
				w.Fill = columnMean(present)
			}
		}
		for i := range X {
			v := X[i][j]
			if math.IsNaN(v) {
				v = w.Fill
			}
			X[i][j] = clampInf(v, opts.LegacyInfinity)
		}
		warnings = append(warnings, w)
	}
	return warnings
}

func columnMean(vals []float64) float64 {
	var hasPos, hasNeg bool
	for _, v := range vals {
		hasPos = hasPos || math.IsInf(v, 1)
		hasNeg = hasNeg || math.IsInf(v, -1)
	}
	switch {
	case hasPos && hasNeg:
		return 0
	case hasPos:
		return math.Inf(1)
	case hasNeg:
		return math.Inf(-1)
	}
	m, err := stats.Mean(vals)
	if err != nil {
		return 0
	}
	return m
}

func clampInf(v float64, legacy bool) float64 {
	switch {
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		if legacy {
			return math.MaxFloat64
		}
		return -math.MaxFloat64
	}
	return v
}

// GuardSentinel keeps scaled features out of the padding value's way: values
// exactly equal to model.Sentinel move up by one ULP and non-finite values are
// clamped. It returns how many cells were changed.
func GuardSentinel(X [][]float64, sentinel float64) int {
	changed := 0
	for i := range X {
		for j, v := range X[i] {
			switch {
			case math.IsNaN(v):
				X[i][j] = 0
			case math.IsInf(v, 0):
				X[i][j] = clampInf(v, false)
			case v == sentinel:
				X[i][j] = math.Nextafter(v, math.Inf(1))
			default:
				continue
			}
			changed++
		}
	}
	return changed
}

func columnName(cols []string, j int) string {
	if j < len(cols) {
		return cols[j]
	}
	return ""
}
