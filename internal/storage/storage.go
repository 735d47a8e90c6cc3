// Package storage keeps EGR results in a local SQLite database.
//
// Two kinds of table live there. inference_runs is the fixed run log written
// by 'egr infer' (schema.sql). Result tables are created from CSV headers on
// first import, so their columns follow whatever the telemetry export carried
// plus EGR, Target and role; the dashboard queries only rely on those and on
// the identifier columns.
package storage

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// DB is the results database.
type DB struct {
	conn *sql.DB
}

// Open opens or creates the database at path and makes sure the run log
// exists. Pass ":memory:" for a throwaway database.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection: result imports run in a single transaction and an
	// in-memory database would otherwise be private to each connection.
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply run log schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.conn.Close()
}
