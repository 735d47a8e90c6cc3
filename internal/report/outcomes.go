package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/pable/valorant-egr/internal/model"
)

// Distribution summarises a sample of values.
type Distribution struct {
	N      int
	Mean   float64
	Median float64
	StdDev float64
	P90    float64
	Min    float64
	Max    float64
}

// Describe computes a Distribution. An empty sample yields the zero value.
func Describe(vals []float64) (Distribution, error) {
	if len(vals) == 0 {
		return Distribution{}, nil
	}
	d := Distribution{N: len(vals)}
	var err error
	if d.Mean, err = stats.Mean(vals); err != nil {
		return d, err
	}
	if d.Median, err = stats.Median(vals); err != nil {
		return d, err
	}
	if d.StdDev, err = stats.StandardDeviation(vals); err != nil {
		return d, err
	}
	if d.P90, err = stats.Percentile(vals, 90); err != nil {
		return d, err
	}
	if d.Min, err = stats.Min(vals); err != nil {
		return d, err
	}
	if d.Max, err = stats.Max(vals); err != nil {
		return d, err
	}
	return d, nil
}

// OutcomeSplit holds EGR and combat score distributions for won and lost rounds.
type OutcomeSplit struct {
	WonEGR, LostEGR Distribution
	WonCS, LostCS   Distribution
}

// SplitOutcomes groups per-round means by outcome and describes each group.
func SplitOutcomes(outcomes []model.RoundOutcome) (OutcomeSplit, error) {
	var wonEGR, lostEGR, wonCS, lostCS []float64
	for _, o := range outcomes {
		if o.Won {
			wonEGR = append(wonEGR, o.MeanEGR)
			wonCS = append(wonCS, o.MeanCombatScore)
		} else {
			lostEGR = append(lostEGR, o.MeanEGR)
			lostCS = append(lostCS, o.MeanCombatScore)
		}
	}
	var s OutcomeSplit
	var err error
	for _, p := range []struct {
		dst  *Distribution
		vals []float64
	}{
		{&s.WonEGR, wonEGR}, {&s.LostEGR, lostEGR}, {&s.WonCS, wonCS}, {&s.LostCS, lostCS},
	} {
		if *p.dst, err = Describe(p.vals); err != nil {
			return s, fmt.Errorf("describe outcomes: %w", err)
		}
	}
	return s, nil
}

// PrintOutcomeDistribution prints EGR and combat score distributions of round
// means, split by win status.
func PrintOutcomeDistribution(w io.Writer, outcomes []model.RoundOutcome) error {
	s, err := SplitOutcomes(outcomes)
	if err != nil {
		return err
	}
	table := newTable(w)
	table.Header("METRIC", "WON", "N", "MEAN", "MEDIAN", "STDDEV", "P90", "MIN", "MAX")
	for _, row := range []struct {
		metric string
		won    bool
		d      Distribution
		format string
	}{
		{"EGR", true, s.WonEGR, "%.3f"},
		{"EGR", false, s.LostEGR, "%.3f"},
		{"COMBAT_SCORE", true, s.WonCS, "%.1f"},
		{"COMBAT_SCORE", false, s.LostCS, "%.1f"},
	} {
		d := row.d
		if d.N == 0 {
			table.Append(row.metric, yesNo(row.won), "0", "—", "—", "—", "—", "—", "—")
			continue
		}
		table.Append(
			row.metric,
			yesNo(row.won),
			strconv.Itoa(d.N),
			fmt.Sprintf(row.format, d.Mean),
			fmt.Sprintf(row.format, d.Median),
			fmt.Sprintf(row.format, d.StdDev),
			fmt.Sprintf(row.format, d.P90),
			fmt.Sprintf(row.format, d.Min),
			fmt.Sprintf(row.format, d.Max),
		)
	}
	table.Render()
	return nil
}
