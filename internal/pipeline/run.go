package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pable/valorant-egr/internal/frame"
	"github.com/pable/valorant-egr/internal/model"
)

// Scaler transforms a row-major feature matrix in place.
type Scaler interface {
	Transform(X [][]float64) error
}

// featureNamer is implemented by scalers that remember the columns they were
// fitted on.
type featureNamer interface {
	FeatureNames() []string
}

// Options configures a Runner.
type Options struct {
	OutputDir        string
	LegacyInfinity   bool
	PositionalRounds bool
	Progress         bool
}

// Runner executes the whole batch-inference pipeline for one input file.
type Runner struct {
	Predictor Predictor
	Scaler    Scaler
	Logger    *log.Logger
	Now       func() time.Time
	Options   Options
}

// Result is the outcome of a completed run.
type Result struct {
	Summary     model.RunSummary
	Predictions []model.PredictionRecord
	Merged      *frame.Frame
	OutputPath  string
}

// OutputName returns the results file name for a run finished at t.
func OutputName(t time.Time) string {
	return "results_" + t.Format("20060102_150405") + ".csv"
}

// Run reads inputPath, scores every player-game and writes the merged
// results file into Options.OutputDir.
func (r *Runner) Run(ctx context.Context, inputPath string) (*Result, error) {
	now := r.Now
	if now == nil {
		now = time.Now
	}
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}
	started := now()

	f, err := frame.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	f.DropUnnamed()
	logger.Info("Loaded input", "path", inputPath, "rows", f.Len(), "columns", len(f.Columns()))

	if err := Prepare(f); err != nil {
		return nil, err
	}
	if err := NormalizeTarget(f); err != nil {
		return nil, err
	}
	cols := FeatureColumns(f)
	if len(cols) == 0 {
		return nil, &DataError{Reason: "no feature columns left after exclusions"}
	}
	if err := checkFeatureNames(r.Scaler, cols); err != nil {
		return nil, err
	}

	X, err := ExtractFeatures(f, cols)
	if err != nil {
		return nil, err
	}
	warnings := Sanitize(X, cols, SanitizeOptions{LegacyInfinity: r.Options.LegacyInfinity})
	for _, w := range warnings {
		logger.Warn("Replaced non-finite values", "column", w.Column, "nan", w.NaN, "posinf", w.PosInf, "neginf", w.NegInf, "fill", w.Fill)
	}
	if err := r.Scaler.Transform(X); err != nil {
		return nil, fmt.Errorf("scale features: %w", err)
	}
	if n := GuardSentinel(X, model.Sentinel); n > 0 {
		logger.Warn("Adjusted scaled values colliding with the padding sentinel", "cells", n)
	}
	// round_num is both a feature and the round label; X holds the scaled
	// copy while f keeps the labels.
	samples, err := GroupSamples(f, X, TargetColumn)
	if err != nil {
		return nil, err
	}
	logger.Info("Built samples", "samples", len(samples), "features", len(cols))

	inf, err := Infer(ctx, r.Predictor, samples, InferOptions{
		PositionalRounds: r.Options.PositionalRounds,
		Progress:         r.Options.Progress,
	})
	if err != nil {
		return nil, err
	}
	for _, w := range inf.Warnings {
		logger.Warn("Prediction count does not match round count", "game", w.GameID, "player", w.Player, "rounds", w.Rounds, "predictions", w.Predictions)
	}

	original, err := frame.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("re-read input: %w", err)
	}
	merged, err := Merge(original, inf.Records)
	if err != nil {
		return nil, err
	}

	finished := now()
	out := filepath.Join(r.Options.OutputDir, OutputName(finished))
	if err := merged.WriteFile(out); err != nil {
		return nil, fmt.Errorf("write results: %w", err)
	}
	logger.Info("Wrote results", "path", out, "rows", merged.Len())

	return &Result{
		Summary: model.RunSummary{
			InputPath:   inputPath,
			OutputPath:  out,
			StartedAt:   started,
			FinishedAt:  finished,
			Samples:     len(samples),
			Predictions: len(inf.Records),
			MergedRows:  merged.Len(),
			Warnings:    len(warnings) + len(inf.Warnings),
		},
		Predictions: inf.Records,
		Merged:      merged,
		OutputPath:  out,
	}, nil
}

func checkFeatureNames(s Scaler, cols []string) error {
	fn, ok := s.(featureNamer)
	if !ok {
		return nil
	}
	names := fn.FeatureNames()
	if len(names) == 0 {
		return nil
	}
	if len(names) != len(cols) {
		return &DataError{Reason: fmt.Sprintf("scaler expects %d features, input has %d", len(names), len(cols))}
	}
	for i := range names {
		if names[i] != cols[i] {
			return &DataError{Column: cols[i], Reason: fmt.Sprintf("scaler expects feature %q at position %d (features: %s)", names[i], i, strings.Join(cols, ", "))}
		}
	}
	return nil
}
