package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestLoadConfigOnlyChangedFlagsOverride(t *testing.T) {
	t.Setenv("EGR_TABLE_NAME", "from_env")
	t.Setenv("EGR_OUTPUT_DIR", "env_out")

	c := &cobra.Command{Use: "x"}
	var db, out string
	var noProgress bool
	c.Flags().StringVar(&db, "db", "", "")
	c.Flags().StringVar(&out, "out-dir", "", "")
	c.Flags().BoolVar(&noProgress, "no-progress", false, "")

	want := filepath.Join(t.TempDir(), "x.db")
	if err := c.Flags().Set("db", want); err != nil {
		t.Fatal(err)
	}
	if err := c.Flags().Set("no-progress", "true"); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.DBPath != want {
		t.Errorf("db_path: want %s, got %s", want, cfg.DBPath)
	}
	if cfg.Table != "from_env" {
		t.Errorf("table_name: env should win over defaults, got %s", cfg.Table)
	}
	if cfg.OutputDir != "env_out" {
		t.Errorf("output_dir: unset flag must not override env, got %s", cfg.OutputDir)
	}
	if cfg.Progress {
		t.Error("--no-progress should disable the progress bar")
	}
}

func TestParseHighlight(t *testing.T) {
	got := parseHighlight(" Team Liquid, ,FNATIC")
	if len(got) != 2 || !got["Team Liquid"] || !got["FNATIC"] {
		t.Errorf("unexpected highlight set %v", got)
	}
	if len(parseHighlight("")) != 0 {
		t.Error("empty flag should highlight nothing")
	}
}

func TestRootCommandHelp(t *testing.T) {
	if !strings.Contains(rootCmd.Long, "EGR is the per-round performance score") {
		t.Error("root help should describe EGR as the per-round performance score")
	}
	want := []string{"infer", "load", "fetch", "drop", "sql", "runs", "games", "players", "rounds", "trend", "outcomes", "chart", "ask", "shell"}
	for _, name := range want {
		c, _, err := rootCmd.Find([]string{name})
		if err != nil || c.Name() != name {
			t.Errorf("subcommand %s not registered", name)
		}
	}
}
