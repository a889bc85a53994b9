// Package journal stores top-level definitions in SQLite so that a new
// session can replay them in order.
package journal

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `CREATE TABLE IF NOT EXISTS definitions (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	source     TEXT NOT NULL,
	result     TEXT NOT NULL,
	created_at TEXT NOT NULL
)`

// Entry is one journaled definition.
type Entry struct {
	Seq       int64
	Source    string
	Result    string
	CreatedAt string // RFC 3339
}

// Store is a journal backed by a single SQLite database file.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Open opens (or creates) the journal database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("journal: missing path")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}
	return &Store{path: path, db: db}, nil
}

func (s *Store) Path() string { return s.path }

// Append records a definition and the printed value it produced.
func (s *Store) Append(source, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO definitions (source, result, created_at) VALUES (?, ?, ?)`,
		source, result, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("append: %w", err)
	}
	return nil
}

// Entries returns every entry in the order it was appended.
func (s *Store) Entries() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT seq, source, result, created_at FROM definitions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Seq, &e.Source, &e.Result, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return entries, nil
}

// Sources returns the source of every entry in append order.
func (s *Store) Sources() ([]string, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}
	sources := make([]string, len(entries))
	for i, e := range entries {
		sources[i] = e.Source
	}
	return sources, nil
}

// Truncate removes every entry.
func (s *Store) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM definitions`); err != nil {
		tx.Rollback()
		return fmt.Errorf("truncate: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM sqlite_sequence WHERE name = 'definitions'`); err != nil {
		tx.Rollback()
		return fmt.Errorf("truncate: %w", err)
	}
	return tx.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}
