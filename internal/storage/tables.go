package storage

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pable/valorant-egr/internal/frame"
)

var tableNameRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*\.)?[A-Za-z_][A-Za-z0-9_]*$`)

// Column describes one column of a stored table.
type Column struct {
	Name string
	Type string
}

// quoteTable validates a possibly schema-qualified table name and quotes it.
func quoteTable(name string) (string, error) {
	if !tableNameRe.MatchString(name) {
		return "", fmt.Errorf("invalid table name %q", name)
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = quoteIdent(p)
	}
	return strings.Join(parts, "."), nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// splitTable returns the schema (default "main") and bare name.
func splitTable(name string) (string, string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "main", name
}

// TableExists reports whether a table with the given name exists.
func (db *DB) TableExists(name string) (bool, error) {
	if _, err := quoteTable(name); err != nil {
		return false, err
	}
	schema, bare := splitTable(name)
	var count int
	q := fmt.Sprintf("SELECT COUNT(1) FROM %s.sqlite_master WHERE type = 'table' AND name = ?", quoteIdent(schema))
	if err := db.conn.QueryRow(q, bare).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// TableColumns returns the declared columns of a table in order.
func (db *DB) TableColumns(name string) ([]Column, error) {
	if _, err := quoteTable(name); err != nil {
		return nil, err
	}
	schema, bare := splitTable(name)
	rows, err := db.conn.Query(fmt.Sprintf("PRAGMA %s.table_info(%s)", quoteIdent(schema), quoteIdent(bare)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Column
	for rows.Next() {
		var (
			cid     int
			c       Column
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &c.Name, &c.Type, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DropTable drops a table. It reports false when the table did not exist.
func (db *DB) DropTable(name string) (bool, error) {
	quoted, err := quoteTable(name)
	if err != nil {
		return false, err
	}
	exists, err := db.TableExists(name)
	if err != nil || !exists {
		return false, err
	}
	if _, err := db.conn.Exec("DROP TABLE " + quoted); err != nil {
		return false, fmt.Errorf("drop %s: %w", name, err)
	}
	return true, nil
}

// ImportFrame appends every row of f to table, creating the table first when
// it does not exist. New tables get a column type inferred from the cells:
// BOOLEAN for True/False columns, INTEGER, REAL, or TEXT otherwise. Blank
// cells are stored as NULL. It returns the number of rows inserted.
func (db *DB) ImportFrame(table string, f *frame.Frame) (int, error) {
	quoted, err := quoteTable(table)
	if err != nil {
		return 0, err
	}
	cols := f.Columns()
	if len(cols) == 0 {
		return 0, fmt.Errorf("import %s: frame has no columns", table)
	}

	exists, err := db.TableExists(table)
	if err != nil {
		return 0, err
	}
	types := make([]string, len(cols))
	if exists {
		have, err := db.TableColumns(table)
		if err != nil {
			return 0, err
		}
		declared := make(map[string]string, len(have))
		for _, c := range have {
			declared[c.Name] = strings.ToUpper(c.Type)
		}
		var missing []string
		for i, c := range cols {
			t, ok := declared[c]
			if !ok {
				missing = append(missing, c)
			}
			types[i] = t
		}
		if len(missing) > 0 {
			return 0, fmt.Errorf("import %s: table has no column(s) %s", table, strings.Join(missing, ", "))
		}
	} else {
		defs := make([]string, len(cols))
		for i, c := range cols {
			vals, _ := f.Column(c)
			types[i] = inferType(vals)
			defs[i] = quoteIdent(c) + " " + types[i]
		}
		if _, err := db.conn.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", quoted, strings.Join(defs, ", "))); err != nil {
			return 0, fmt.Errorf("create %s: %w", table, err)
		}
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = quoteIdent(c)
	}
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoted, strings.Join(names, ", "), placeholders(len(cols))))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for i := 0; i < f.Len(); i++ {
		for j, cell := range f.Row(i) {
			args[j] = convertCell(cell, types[j])
		}
		if _, err := stmt.Exec(args...); err != nil {
			return 0, fmt.Errorf("insert %s row %d: %w", table, i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return f.Len(), nil
}

// FetchFrame selects columns (all when empty) from table, with an optional
// raw WHERE clause, into a frame.
func (db *DB) FetchFrame(table string, columns []string, where string) (*frame.Frame, error) {
	quoted, err := quoteTable(table)
	if err != nil {
		return nil, err
	}
	sel := "*"
	if len(columns) > 0 {
		q := make([]string, len(columns))
		for i, c := range columns {
			q[i] = quoteIdent(c)
		}
		sel = strings.Join(q, ", ")
	}
	query := fmt.Sprintf("SELECT %s FROM %s", sel, quoted)
	if strings.TrimSpace(where) != "" {
		query += " WHERE " + where
	}
	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", table, err)
	}
	out := frame.New(cols)
	for _, r := range rows {
		if err := out.AppendRow(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// QueryRaw runs an arbitrary query and returns column names and rows as strings.
func (db *DB) QueryRaw(query string, args ...any) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = formatValue(v)
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return frame.FormatFloat(x)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

func inferType(cells []string) string {
	isBool, isInt, isReal := true, true, true
	seen := false
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		seen = true
		if c != "True" && c != "False" {
			isBool = false
		}
		if _, err := strconv.ParseInt(c, 10, 64); err != nil {
			isInt = false
		}
		if _, err := frame.ParseFloat(c); err != nil || c == "True" || c == "False" {
			isReal = false
		}
	}
	switch {
	case !seen:
		return "TEXT"
	case isBool:
		return "BOOLEAN"
	case isInt:
		return "INTEGER"
	case isReal:
		return "REAL"
	}
	return "TEXT"
}

func convertCell(cell, typ string) any {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	switch typ {
	case "BOOLEAN":
		switch cell {
		case "True", "true", "1":
			return 1
		case "False", "false", "0":
			return 0
		}
	case "INTEGER":
		if v, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64); err == nil {
			return v
		}
	case "REAL":
		if v, err := frame.ParseFloat(cell); err == nil {
			return v
		}
	}
	return cell
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
