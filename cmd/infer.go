package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pable/valorant-egr/internal/pipeline"
	"github.com/pable/valorant-egr/internal/report"
	"github.com/pable/valorant-egr/internal/seqmodel"
)

// infer command flags.
var (
	inferModelPath      string
	inferScalerPath     string
	inferOutDir         string
	inferPredictionsOut string
	inferStore          bool
	inferLegacyInf      bool
	inferPositional     bool
	inferNoProgress     bool
	inferPreview        int
)

// inferCmd scores a telemetry CSV and writes the merged results file.
var inferCmd = &cobra.Command{
	Use:   "infer <telemetry.csv>",
	Short: "Score every player round in a telemetry CSV",
	Long: `Run batch inference over a telemetry CSV.

The input is sorted, encoded, cleaned of non-finite values and scaled, then
grouped into one sequence of rounds per player per game. The model predicts an
EGR value for every round; predictions are joined back onto the original rows
together with the normalised target and the agent role, and written to
results_<timestamp>.csv in the output directory.

Examples:
  egr infer telemetry.csv
  egr infer telemetry.csv --store --predictions-out preds.csv
  egr infer telemetry.csv --model-path model.json --scaler-path scaler.json`,
	Args: cobra.ExactArgs(1),
	RunE: runInfer,
}

func init() {
	inferCmd.Flags().StringVar(&inferModelPath, "model-path", "", "exported model weights (JSON)")
	inferCmd.Flags().StringVar(&inferScalerPath, "scaler-path", "", "exported feature scaler (JSON)")
	inferCmd.Flags().StringVar(&inferOutDir, "out-dir", "", "directory for results_<timestamp>.csv")
	inferCmd.Flags().StringVar(&inferPredictionsOut, "predictions-out", "", "also write the raw prediction records to this CSV")
	inferCmd.Flags().BoolVar(&inferStore, "store", false, "import the merged results into the result table")
	inferCmd.Flags().BoolVar(&inferLegacyInf, "legacy-inf-fill", false, "replace -Inf with +MaxFloat64 like the first release")
	inferCmd.Flags().BoolVar(&inferPositional, "positional-rounds", false, "label predictions 1..n instead of by round_num")
	inferCmd.Flags().BoolVar(&inferNoProgress, "no-progress", false, "disable the progress bar")
	inferCmd.Flags().IntVar(&inferPreview, "preview", 10, "prediction rows to print (0 to skip)")
}

func runInfer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	predictor, err := seqmodel.LoadLSTM(cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	scaler, err := seqmodel.LoadScaler(cfg.ScalerPath)
	if err != nil {
		return fmt.Errorf("load scaler: %w", err)
	}
	logger.Debug("Loaded artifacts", "model", cfg.ModelPath, "features", predictor.Features(), "scaler", scaler.Kind())

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runner := &pipeline.Runner{
		Predictor: predictor,
		Scaler:    scaler,
		Logger:    logger,
		Options: pipeline.Options{
			OutputDir:        cfg.OutputDir,
			LegacyInfinity:   cfg.LegacyInfFill,
			PositionalRounds: cfg.PositionalRounds,
			Progress:         cfg.Progress,
		},
	}
	res, err := runner.Run(ctx, args[0])
	if err != nil {
		return err
	}

	summary := res.Summary
	summary.ID = uuid.NewString()
	summary.ModelPath = cfg.ModelPath
	summary.ScalerPath = cfg.ScalerPath

	if inferPredictionsOut != "" {
		if err := writePredictions(inferPredictionsOut, res); err != nil {
			return err
		}
		logger.Info("Wrote prediction records", "path", inferPredictionsOut, "records", len(res.Predictions))
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if inferStore {
		stored := res.Merged.Clone()
		stored.DropUnnamed()
		n, err := db.ImportFrame(cfg.Table, stored)
		if err != nil {
			return fmt.Errorf("store results: %w", err)
		}
		summary.ResultTable = cfg.Table
		logger.Info("Stored results", "table", cfg.Table, "rows", n)
	}
	if err := db.InsertRun(summary); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	report.PrintRunSummary(os.Stdout, summary)
	if inferPreview > 0 {
		report.PrintPredictionPreview(os.Stdout, res.Predictions, inferPreview)
	}
	return nil
}

func writePredictions(path string, res *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create predictions file: %w", err)
	}
	defer f.Close()
	records := res.Predictions
	if err := gocsv.Marshal(&records, f); err != nil {
		return fmt.Errorf("write predictions: %w", err)
	}
	return nil
}
