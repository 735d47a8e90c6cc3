package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/valorant-egr/internal/assistant"
	"github.com/pable/valorant-egr/internal/config"
	"github.com/pable/valorant-egr/internal/report"
	"github.com/pable/valorant-egr/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var (
	shellAPIKey  string
	shellHistory int
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long: `Open a persistent session against the result table. Type 'help' for available commands.

'use <game-id> ...' scopes players, trend and ask to those games until 'use' is
given with no arguments. The assistant remembers recent questions within the
session.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	shellCmd.Flags().StringVar(&shellAPIKey, "api-key", "", "Anthropic API key for 'ask' (falls back to $ANTHROPIC_API_KEY)")
	shellCmd.Flags().IntVar(&shellHistory, "history", 5, "assistant questions remembered as context")
}

// shellSession is the state kept between REPL lines.
type shellSession struct {
	cfg   *config.Config
	db    *storage.DB
	games []string
	asst  *assistant.Assistant
}

func runShell(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	s := &shellSession{cfg: cfg, db: db}

	cGreeting.Println("egr shell")
	cMuted.Printf("table %s in %s; type 'help' or 'exit'\n", cfg.Table, cfg.DBPath)
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("egr")
		if len(s.games) > 0 {
			cMuted.Printf("[%s]", strings.Join(s.games, ","))
		}
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]
		rest := strings.TrimSpace(strings.TrimPrefix(line, name))

		var err error
		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "runs":
			err = printRuns(os.Stdout, db, 20)
		case "games":
			err = printGames(os.Stdout, db, cfg.Table)
		case "use":
			s.games = args
		case "players":
			game := s.scopedGame()
			if len(args) > 0 {
				game = args[0]
			}
			err = printPlayers(os.Stdout, db, cfg.Table, game, nil)
		case "rounds":
			if len(args) != 2 {
				cError.Fprintln(os.Stderr, "usage: rounds <game-id> <round>")
				continue
			}
			round, convErr := strconv.Atoi(args[1])
			if convErr != nil {
				cError.Fprintf(os.Stderr, "invalid round number %q\n", args[1])
				continue
			}
			err = printRound(os.Stdout, db, cfg.Table, args[0], round)
		case "trend":
			game := s.scopedGame()
			if len(args) > 0 {
				game = args[0]
			}
			if game == "" {
				cError.Fprintln(os.Stderr, "usage: trend <game-id>")
				continue
			}
			err = printTrend(os.Stdout, db, cfg.Table, game, "")
		case "outcomes":
			err = printOutcomes(os.Stdout, db, cfg.Table)
		case "sql":
			if rest == "" {
				cError.Fprintln(os.Stderr, "usage: sql <query>")
				continue
			}
			err = s.sql(rest)
		case "ask":
			if rest == "" {
				cError.Fprintln(os.Stderr, "usage: ask <question>")
				continue
			}
			err = s.ask(cmd.Context(), rest)
		case "history":
			s.history()
		case "reset":
			if s.asst != nil {
				s.asst.Reset()
			}
			cMuted.Println("assistant history cleared")
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"runs", "list recorded inference runs"},
		{"games", "list game ids in the result table"},
		{"use [<game-id> ...]", "scope players, trend and ask to games"},
		{"players [<game-id>]", "mean EGR per player and agent"},
		{"rounds <game-id> <round>", "every player's state in one round"},
		{"trend [<game-id>]", "team mean EGR round by round"},
		{"outcomes", "EGR of won vs lost rounds"},
		{"sql <query>", "run a read-only SQL query"},
		{"ask <question>", "ask the assistant about the results"},
		{"history", "show remembered assistant questions"},
		{"reset", "forget assistant history"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-28s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

// scopedGame returns the single game in scope, or "" for none or several.
func (s *shellSession) scopedGame() string {
	if len(s.games) == 1 {
		return s.games[0]
	}
	return ""
}

func (s *shellSession) sql(query string) error {
	if err := assistant.CheckReadOnly(query); err != nil {
		return err
	}
	cols, rows, err := s.db.QueryRaw(query)
	if err != nil {
		return err
	}
	report.PrintQueryResult(os.Stdout, cols, rows)
	return nil
}

func (s *shellSession) ask(ctx context.Context, question string) error {
	if s.asst == nil {
		a, err := newAssistant(s.cfg, s.db, shellAPIKey)
		if err != nil {
			return err
		}
		s.asst = a
	}
	ans, err := s.asst.Ask(ctx, question, s.games, func(chunk string) {
		fmt.Fprint(os.Stdout, chunk)
	})
	if err != nil {
		return err
	}
	fmt.Println()
	cMuted.Printf("(%d rows, %s)\n", len(ans.Rows), ans.Latency.Round(1e6))
	return nil
}

func (s *shellSession) history() {
	if s.asst == nil || len(s.asst.History()) == 0 {
		cMuted.Println("no questions yet")
		return
	}
	for i, it := range s.asst.History() {
		cHeader.Printf("%d. %s\n", i+1, it.Question)
		cMuted.Printf("   %s\n", it.SQL)
	}
}
