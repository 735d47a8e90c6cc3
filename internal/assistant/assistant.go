package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pable/valorant-egr/internal/storage"
)

// Querier is the slice of the store the assistant needs.
type Querier interface {
	QueryRaw(query string, args ...any) ([]string, [][]string, error)
	TableColumns(name string) ([]storage.Column, error)
}

// Options configures an Assistant.
type Options struct {
	Table       string
	MaxTokens   int
	HistorySize int // interactions kept as context
	RowLimit    int // rows shown to the model when answering
	Logger      *log.Logger
}

// Interaction is one answered question.
type Interaction struct {
	Question string
	SQL      string
	Answer   string
}

// Answer is the result of Ask.
type Answer struct {
	SQL     string
	Columns []string
	Rows    [][]string
	Text    string
	Latency time.Duration
}

// Assistant answers questions about one result table. It is not safe for
// concurrent use.
type Assistant struct {
	engine  Engine
	db      Querier
	opts    Options
	logger  *log.Logger
	history []Interaction
}

// New returns an Assistant backed by engine and db.
func New(engine Engine, db Querier, opts Options) *Assistant {
	if opts.RowLimit <= 0 {
		opts.RowLimit = 50
	}
	if opts.HistorySize < 0 {
		opts.HistorySize = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Assistant{engine: engine, db: db, opts: opts, logger: logger.WithPrefix("assistant")}
}

// History returns the remembered interactions, oldest first.
func (a *Assistant) History() []Interaction {
	return append([]Interaction(nil), a.history...)
}

// Reset forgets the interaction history.
func (a *Assistant) Reset() { a.history = nil }

// Ask converts question to SQL, runs it and streams a short answer to
// onChunk. gameIDs, when given, restrict the question to those games.
func (a *Assistant) Ask(ctx context.Context, question string, gameIDs []string, onChunk func(string)) (*Answer, error) {
	start := time.Now()
	schema, err := a.schema()
	if err != nil {
		return nil, err
	}
	scoped := question
	if len(gameIDs) > 0 {
		quoted := make([]string, len(gameIDs))
		for i, g := range gameIDs {
			quoted[i] = "'" + strings.ReplaceAll(g, "'", "''") + "'"
		}
		scoped = fmt.Sprintf("%s\nWhere game_id in (%s)", question, strings.Join(quoted, ", "))
	}

	resp, err := a.engine.Complete(ctx, Request{
		System:    sqlSystemPrompt,
		Messages:  a.sqlMessages(schema, scoped),
		MaxTokens: a.opts.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generate sql: %w", err)
	}
	reply, err := resp.Text()
	if err != nil {
		return nil, fmt.Errorf("generate sql: %w", err)
	}
	query, err := ExtractSQL(reply)
	if err != nil {
		return nil, err
	}
	if err := CheckReadOnly(query); err != nil {
		return nil, err
	}
	a.logger.Debug("Generated SQL", "sql", query)

	cols, rows, err := a.db.QueryRaw(query)
	if err != nil {
		return nil, fmt.Errorf("run generated sql: %w", err)
	}

	resp, err = a.engine.Complete(ctx, Request{
		System:    answerSystemPrompt,
		Messages:  []Message{{Role: "user", Content: a.answerPrompt(scoped, query, cols, rows)}},
		MaxTokens: a.opts.MaxTokens,
		Stream:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}
	text, err := resp.Drain(onChunk)
	if err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}

	a.remember(Interaction{Question: scoped, SQL: query, Answer: text})
	ans := &Answer{SQL: query, Columns: cols, Rows: rows, Text: text, Latency: time.Since(start)}
	a.logger.Debug("Answered", "rows", len(rows), "latency", ans.Latency)
	return ans, nil
}

func (a *Assistant) remember(it Interaction) {
	if a.opts.HistorySize == 0 {
		return
	}
	a.history = append(a.history, it)
	if n := len(a.history); n > a.opts.HistorySize {
		a.history = append([]Interaction(nil), a.history[n-a.opts.HistorySize:]...)
	}
}

func (a *Assistant) schema() (string, error) {
	cols, err := a.db.TableColumns(a.opts.Table)
	if err != nil {
		return "", fmt.Errorf("describe %s: %w", a.opts.Table, err)
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("table %s does not exist; run `egr load` or `egr infer --store` first", a.opts.Table)
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c.Name + " " + c.Type
	}
	return fmt.Sprintf("%s(%s)", a.opts.Table, strings.Join(parts, ", ")), nil
}

// sqlMessages lays out prior interactions as question/SQL turns followed by
// the new question.
func (a *Assistant) sqlMessages(schema, question string) []Message {
	var msgs []Message
	for _, h := range a.history {
		msgs = append(msgs,
			Message{Role: "user", Content: "Question: " + h.Question},
			Message{Role: "assistant", Content: "SQLQuery: " + h.SQL},
		)
	}
	return append(msgs, Message{Role: "user", Content: sqlPrompt(a.opts.Table, schema, question)})
}

func (a *Assistant) answerPrompt(question, query string, cols []string, rows [][]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\nSQLQuery: %s\nSQLResult (%d rows):\n", question, query, len(rows))
	sb.WriteString(strings.Join(cols, ","))
	sb.WriteByte('\n')
	for i, r := range rows {
		if i == a.opts.RowLimit {
			fmt.Fprintf(&sb, "... %d more rows\n", len(rows)-i)
			break
		}
		sb.WriteString(strings.Join(r, ","))
		sb.WriteByte('\n')
	}
	sb.WriteString("Answer:")
	return sb.String()
}
