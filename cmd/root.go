package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pable/valorant-egr/internal/config"
	"github.com/pable/valorant-egr/internal/storage"
)

// Persistent flags shared by every command.
var (
	configPath string
	dbPath     string
	tableName  string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "egr",
	Short: "Valorant EGR batch inference and analysis",
	Long: `Score Valorant telemetry with the EGR sequence model and explore the results.

EGR is the per-round performance score the model predicts for each player.
'egr infer' turns a telemetry CSV into a results_<timestamp>.csv; the other
commands load, query and chart result tables stored in a local SQLite database.

Settings come from defaults, an optional --config YAML file, EGR_* environment
variables and finally the flags given on the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (default ~/.egr/egr.db)")
	rootCmd.PersistentFlags().StringVar(&tableName, "table", "", "result table name (default egr_results)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(inferCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(gamesCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(roundsCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(outcomesCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(shellCmd)
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"db":                "db_path",
	"table":             "table_name",
	"log-level":         "log_level",
	"model-path":        "model_path",
	"scaler-path":       "scaler_path",
	"out-dir":           "output_dir",
	"legacy-inf-fill":   "legacy_inf_fill",
	"positional-rounds": "positional_rounds",
	"model":             "assistant_model",
	"max-tokens":        "assistant_max_tokens",
	"history":           "history_size",
}

// loadConfig resolves the configuration for cmd. Only flags the user actually
// set override the file and the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	overrides := make(map[string]any)
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}
	if f := cmd.Flags().Lookup("no-progress"); f != nil && f.Changed {
		overrides["progress"] = f.Value.String() != "true"
	}
	return config.Load(configPath, overrides)
}

// newLogger returns a stderr logger at the configured level.
func newLogger(level string) *log.Logger {
	logger := log.New(os.Stderr)
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// openDB opens the configured database, creating its directory first.
func openDB(cfg *config.Config) (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}
