package store

import (
	"database/sql"
	"encoding/json"
	"errors"

	_ "github.com/glebarez/go-sqlite"

	"github.com/rahul/chainsmith/internal/apperr"
)

const defaultSelectionKey = "compare"

// SelectionStore persists the comparison target selection in SQLite.
type SelectionStore struct {
	DB  *sql.DB
	Key string
}

func NewSelectionStore(dbPath string) (*SelectionStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Create tables if not exist
	queries := []string{
		`CREATE TABLE IF NOT EXISTS selections (
			name TEXT PRIMARY KEY,
			targets TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	for _, q := range queries {
		_, err = db.Exec(q)
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	return &SelectionStore{DB: db, Key: defaultSelectionKey}, nil
}

// Load returns the saved selection. A missing row is an empty selection;
// an unreadable one is a persistence error.
func (s *SelectionStore) Load() ([]string, error) {
	var raw string
	err := s.DB.QueryRow(`SELECT targets FROM selections WHERE name = ?`, s.Key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("load selection", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, apperr.Persistence("decode selection", err)
	}
	return ids, nil
}

func (s *SelectionStore) Save(targets []string) error {
	if targets == nil {
		targets = []string{}
	}
	data, err := json.Marshal(targets)
	if err != nil {
		return apperr.Persistence("encode selection", err)
	}

	query := `INSERT INTO selections (name, targets, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(name) DO UPDATE SET targets = excluded.targets, updated_at = excluded.updated_at`
	if _, err := s.DB.Exec(query, s.Key, string(data)); err != nil {
		return apperr.Persistence("save selection", err)
	}
	return nil
}

func (s *SelectionStore) Close() error {
	return s.DB.Close()
}
