// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index persists extracted CIK fields in a SQLite database so later
// stages can look up a company's CIK by name without re-reading the
// source lists.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Open-Finance-Lab/Chat-XBRL/internal/extract"
)

// Entry is one stored company with its full CIK and extracted field.
type Entry struct {
	Key       string    `json:"key" yaml:"key"`
	Value     string    `json:"value" yaml:"value"`
	Field     string    `json:"field" yaml:"field"`
	Source    string    `json:"source" yaml:"source"`
	Line      int       `json:"line" yaml:"line"`
	IndexedAt time.Time `json:"indexed_at" yaml:"indexed_at"`
}

// IngestSummary holds counts from one ingest run.
type IngestSummary struct {
	Inserted   int
	Duplicates int
}

// Total returns the number of records offered to the store.
func (s IngestSummary) Total() int {
	return s.Inserted + s.Duplicates
}

// Store manages the CIK index database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the index database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			field TEXT NOT NULL,
			source TEXT NOT NULL,
			line INTEGER NOT NULL,
			indexed_at TEXT NOT NULL,
			PRIMARY KEY (key, value)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_companies_field ON companies(field)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Ingest stores records in a single transaction. Entries are unique by key
// and full value; a pair that is already indexed keeps its first source and
// is counted as a duplicate. Companies sharing a field are all kept.
func (s *Store) Ingest(ctx context.Context, source string, records []extract.Record, w io.Writer) (IngestSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO companies (key, value, field, source, line, indexed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	var summary IngestSummary

	for _, rec := range records {
		select {
		case <-ctx.Done():
			return IngestSummary{}, ctx.Err()
		default:
		}

		res, err := stmt.ExecContext(ctx, rec.Key, rec.Value, rec.Field, source, rec.Line, now)
		if err != nil {
			return IngestSummary{}, fmt.Errorf("inserting record %d: %w", rec.Line, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return IngestSummary{}, fmt.Errorf("inserting record %d: %w", rec.Line, err)
		}
		if n == 0 {
			summary.Duplicates++
			continue
		}
		summary.Inserted++
	}

	if err := tx.Commit(); err != nil {
		return IngestSummary{}, fmt.Errorf("committing: %w", err)
	}

	fmt.Fprintf(w, "indexed %s: %d new, %d duplicate (total: %d)\n",
		source, summary.Inserted, summary.Duplicates, summary.Total())
	return summary, nil
}

// List returns every indexed entry ordered by key.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	return s.query(ctx,
		`SELECT key, value, field, source, line, indexed_at FROM companies ORDER BY key, value`)
}

// Lookup returns entries whose key starts with prefix, ignoring ASCII case.
func (s *Store) Lookup(ctx context.Context, prefix string) ([]Entry, error) {
	return s.query(ctx,
		`SELECT key, value, field, source, line, indexed_at FROM companies
		 WHERE key LIKE ? ESCAPE '\' ORDER BY key, value`,
		escapeLike(prefix)+"%")
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e  Entry
			ts string
		)
		if err := rows.Scan(&e.Key, &e.Value, &e.Field, &e.Source, &e.Line, &ts); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		indexedAt, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing indexed_at for %s: %w", e.Key, err)
		}
		e.IndexedAt = indexedAt
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
