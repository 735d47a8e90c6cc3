package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/valorant-egr/internal/assistant"
	"github.com/pable/valorant-egr/internal/config"
	"github.com/pable/valorant-egr/internal/report"
	"github.com/pable/valorant-egr/internal/storage"
)

var (
	askAPIKey   string
	askModel    string
	askMaxToken int
	askGames    []string
	askShowSQL  bool
	askShowRows bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the result table (requires ANTHROPIC_API_KEY)",
	Long: `Translate a question into a read-only SQL query over the result table, run it,
and stream a short answer grounded in the returned rows.

Examples:
  egr ask "Which duelist had the highest average EGR?"
  egr ask --game 42 --game 43 "Who carried the pistol rounds?" --show-sql`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")
	askCmd.Flags().StringVar(&askModel, "model", "", "Anthropic model to use")
	askCmd.Flags().IntVar(&askMaxToken, "max-tokens", 0, "response token limit")
	askCmd.Flags().StringArrayVar(&askGames, "game", nil, "restrict the question to this game id (repeatable)")
	askCmd.Flags().BoolVar(&askShowSQL, "show-sql", false, "print the generated SQL")
	askCmd.Flags().BoolVar(&askShowRows, "show-rows", false, "print the rows the answer is based on")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := newAssistant(cfg, db, askAPIKey)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	ans, err := a.Ask(ctx, strings.Join(args, " "), askGames, func(chunk string) {
		fmt.Fprint(os.Stdout, chunk)
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout)
	if askShowSQL {
		fmt.Fprintf(os.Stdout, "\nSQL: %s\n", ans.SQL)
	}
	if askShowRows {
		report.PrintQueryResult(os.Stdout, ans.Columns, ans.Rows)
	}
	return nil
}

func newAssistant(cfg *config.Config, db *storage.DB, apiKey string) (*assistant.Assistant, error) {
	engine, err := assistant.NewAnthropicEngine(apiKey, cfg.AssistantModel)
	if err != nil {
		return nil, err
	}
	return assistant.New(engine, db, assistant.Options{
		Table:       cfg.Table,
		MaxTokens:   cfg.AssistantMaxTokens,
		HistorySize: cfg.HistorySize,
		Logger:      newLogger(cfg.LogLevel),
	}), nil
}
