// Package identity persists the local Player record across sessions.
// Exactly one row ever exists; remote rosters, hands and table state
// are never stored.
package identity

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"cardroom/internal/ids"
	"cardroom/internal/session"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS players (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// LocalPlayer returns the stored Player, minting and persisting one
// on first use. The name is derived from the id tail so it is stable
// across reloads.
func (s *Store) LocalPlayer() (session.Player, error) {
	var p session.Player
	err := s.db.QueryRow("SELECT id, name FROM players LIMIT 1").Scan(&p.ID, &p.Name)
	if err == nil {
		return p, nil
	}
	if err != sql.ErrNoRows {
		return session.Player{}, err
	}

	p.ID = "p-" + strings.ToLower(ids.New())
	p.Name = "player-" + p.ID[len(p.ID)-4:]
	if _, err := s.db.Exec("INSERT INTO players (id, name) VALUES (?, ?)", p.ID, p.Name); err != nil {
		return session.Player{}, err
	}
	return p, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
