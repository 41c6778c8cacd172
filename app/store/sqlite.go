package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// SQLite implements Backend with sqlite database
type SQLite struct {
	db   *sqlx.DB
	path string
}

// NewSQLite makes SQLite backend for dbPath and creates the schema
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to set WAL mode: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &SQLite{db: db, path: dbPath}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) initialize() error {
	query := `CREATE TABLE IF NOT EXISTS postings (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		company TEXT NOT NULL,
		salary TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT ''
	)`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create postings table: %w", err)
	}
	return nil
}

// Load retrieves all postings ordered by id
func (s *SQLite) Load() ([]Posting, error) {
	res := []Posting{}
	if err := s.db.Select(&res, `SELECT id, title, company, salary, location, description FROM postings ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to query postings: %w", err)
	}
	return res, nil
}

// Save persists all postings in a transaction
func (s *SQLite) Save(postings []Posting) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, p := range postings {
		_, err := tx.NamedExec(`INSERT OR REPLACE INTO postings (id, title, company, salary, location, description)
			VALUES (:id, :title, :company, :salary, :location, :description)`, p)
		if err != nil {
			return fmt.Errorf("failed to save posting %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) String() string { return "sqlite:" + s.path }
