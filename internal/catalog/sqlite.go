package catalog

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteBackend stores membership sets in a single SQLite database, for
// snapshots too large to hold resident. Lookups pay a query per Contains in
// exchange for bounded memory; the resolver code path is identical either
// way.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLiteBackend opens (or creates) the membership database at path.
// Use ":memory:" for an in-memory database.
func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open membership database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping membership database: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS members (
		set_name TEXT NOT NULL,
		key      TEXT NOT NULL,
		PRIMARY KEY (set_name, key)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize membership schema: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// Set returns the named membership set. Closing a set is a no-op; the
// backend owns the connection.
func (b *SQLiteBackend) Set(name string) Membership {
	return &sqliteSet{db: b.db, name: name}
}

// Close closes the underlying database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

type sqliteSet struct {
	db   *sql.DB
	name string
}

func (s *sqliteSet) Add(key string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO members (set_name, key) VALUES (?, ?)`,
		s.name, key,
	)
	if err != nil {
		return fmt.Errorf("failed to add key to set %s: %w", s.name, err)
	}
	return nil
}

func (s *sqliteSet) Contains(key string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM members WHERE set_name = ? AND key = ?`,
		s.name, key,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up key in set %s: %w", s.name, err)
	}
	return true, nil
}

func (s *sqliteSet) Len() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM members WHERE set_name = ?`, s.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count set %s: %w", s.name, err)
	}
	return n, nil
}

func (s *sqliteSet) Close() error {
	return nil
}
