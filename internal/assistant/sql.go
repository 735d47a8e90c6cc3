package assistant

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNotReadOnly is returned for generated SQL that is not a single SELECT or WITH query.
var ErrNotReadOnly = errors.New("generated SQL is not a read-only query")

var (
	fenceRe      = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)```")
	stringLitRe  = regexp.MustCompile(`'(?:[^']|'')*'`)
	forbiddenRe  = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|attach|detach|pragma|vacuum|reindex)\b|\breplace\s+into\b`)
	leadingVerbs = []string{"select", "with"}
)

// ExtractSQL pulls the query out of a model reply. It prefers the text after
// an "SQLQuery:" marker (up to "SQLResult:" or "Answer:"), then a fenced code
// block, then the whole reply.
func ExtractSQL(reply string) (string, error) {
	s := reply
	if i := strings.Index(s, "SQLQuery:"); i >= 0 {
		s = s[i+len("SQLQuery:"):]
	}
	for _, stop := range []string{"SQLResult:", "Answer:"} {
		if i := strings.Index(s, stop); i >= 0 {
			s = s[:i]
		}
	}
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	if s == "" {
		return "", fmt.Errorf("no SQL found in reply %q", truncate(reply, 80))
	}
	return s, nil
}

// CheckReadOnly rejects anything but a single SELECT or WITH statement.
func CheckReadOnly(query string) error {
	q := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";"))
	bare := stringLitRe.ReplaceAllString(q, "''")
	if strings.Contains(bare, ";") {
		return fmt.Errorf("%w: multiple statements", ErrNotReadOnly)
	}
	fields := strings.Fields(strings.ToLower(bare))
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty query", ErrNotReadOnly)
	}
	ok := false
	for _, v := range leadingVerbs {
		if fields[0] == v {
			ok = true
		}
	}
	if !ok {
		return fmt.Errorf("%w: starts with %q", ErrNotReadOnly, fields[0])
	}
	if m := forbiddenRe.FindString(bare); m != "" {
		return fmt.Errorf("%w: contains %s", ErrNotReadOnly, strings.ToUpper(m))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
