// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const defaultSQLitePath = "output/clauses.db"

// SQLiteSink stores artifacts as rows of an artifacts table. Each Put runs
// in its own transaction.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens or creates the database and its schema.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &SQLiteSink{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteSink) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS artifacts (
			name TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			body TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_document ON artifacts(document)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Put inserts or replaces one artifact row.
func (s *SQLiteSink) Put(ctx context.Context, name string, data []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO artifacts (name, document, body) VALUES (?, ?, ?)`,
		name, documentOf(name), string(data),
	); err != nil {
		return fmt.Errorf("storing %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s: %w", name, err)
	}
	return nil
}

// Get returns the stored body of an artifact.
func (s *SQLiteSink) Get(ctx context.Context, name string) ([]byte, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM artifacts WHERE name = ?`, name).Scan(&body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return []byte(body), nil
}

// Prune deletes rows of doc whose name is not in keep, in one transaction.
func (s *SQLiteSink) Prune(ctx context.Context, doc string, keep []string) ([]string, error) {
	kept := make(map[string]bool, len(keep))
	for _, k := range keep {
		kept[k] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT name FROM artifacts WHERE document = ? ORDER BY name`, doc)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", doc, err)
	}
	var stale []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning artifact name: %w", err)
		}
		if !kept[name] {
			stale = append(stale, name)
		}
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, name := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM artifacts WHERE name = ?`, name); err != nil {
			return nil, fmt.Errorf("deleting %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing prune of %s: %w", doc, err)
	}
	return stale, nil
}

// Close releases the database connection.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// documentOf returns the leading path segment of an artifact name.
func documentOf(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			return name[:i]
		}
	}
	return ""
}
