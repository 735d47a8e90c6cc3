// Package config builds the process configuration once at startup. Nothing in
// this package keeps global state; callers pass *Config to the components
// that need it.
package config

import (
	"os"
	"path/filepath"
)

// Config holds every setting the commands need.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DBPath is the SQLite database holding result tables and the run log.
	DBPath string `koanf:"db_path"`

	// Table is the result table dashboards and the assistant query.
	Table string `koanf:"table_name"`

	// ModelPath and ScalerPath point at the exported model artifacts.
	ModelPath  string `koanf:"model_path"`
	ScalerPath string `koanf:"scaler_path"`

	// OutputDir receives results_<timestamp>.csv files.
	OutputDir string `koanf:"output_dir"`

	// LegacyInfFill maps -Inf to +MaxFloat64 like the first release did.
	LegacyInfFill bool `koanf:"legacy_inf_fill"`

	// PositionalRounds labels predictions 1..n instead of by round_num.
	PositionalRounds bool `koanf:"positional_rounds"`

	// Progress enables the inference progress bar.
	Progress bool `koanf:"progress"`

	// AssistantModel and AssistantMaxTokens configure the SQL assistant.
	AssistantModel     string `koanf:"assistant_model"`
	AssistantMaxTokens int    `koanf:"assistant_max_tokens"`

	// HistorySize is how many assistant interactions the shell remembers.
	HistorySize int `koanf:"history_size"`
}

// Default file names of the exported artifacts.
const (
	DefaultModelFile  = "valorant_lstm_model_combatscore_target.json"
	DefaultScalerFile = "scaler_combatscore_target.json"
)

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		DBPath:             filepath.Join(userHome(), ".egr", "egr.db"),
		Table:              "egr_results",
		ModelPath:          DefaultModelFile,
		ScalerPath:         DefaultScalerFile,
		OutputDir:          ".",
		Progress:           true,
		AssistantModel:     "claude-haiku-4-5-20251001",
		AssistantMaxTokens: 1024,
		HistorySize:        5,
	}
}

func userHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
