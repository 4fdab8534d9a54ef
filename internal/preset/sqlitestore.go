package preset

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using a SQLite database, for setups
// where presets are edited from multiple frontends.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) a SQLite database at path and
// creates the presets table.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Set PRAGMAs before any DDL.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}

	ddl := `
CREATE TABLE IF NOT EXISTS presets (
    name       TEXT PRIMARY KEY,
    layout     TEXT NOT NULL,
    updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);
`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

func (s *SQLiteStore) Save(name string, p Preset) error {
	if err := validName(name); err != nil {
		return err
	}
	layout, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
INSERT INTO presets (name, layout) VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET
    layout = excluded.layout,
    updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now')`,
		name, string(layout))
	return err
}

func (s *SQLiteStore) Load(name string) (Preset, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	var layout string
	err := s.db.QueryRow(`SELECT layout FROM presets WHERE name = ?`, name).Scan(&layout)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("preset: %q not found", name)
	}
	if err != nil {
		return nil, err
	}
	var p Preset
	if err := json.Unmarshal([]byte(layout), &p); err != nil {
		return nil, fmt.Errorf("preset: parsing %s: %w", name, err)
	}
	return p, nil
}

func (s *SQLiteStore) List() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM presets ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM presets WHERE name = ?`, name)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string { return s.path }
