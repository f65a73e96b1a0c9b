package profile

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	user_id   INTEGER PRIMARY KEY,
	name      TEXT NOT NULL DEFAULT '',
	username  TEXT NOT NULL DEFAULT '',
	joined_at TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS preferences (
	user_id INTEGER PRIMARY KEY,
	gf_mode INTEGER NOT NULL DEFAULT 0
);`

// SQLiteRepository stores profiles in a SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// single writer: one shared connection serializes callers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		schema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to init database: %w", err)
		}
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) GetProfile(userID int64) (Profile, bool, error) {
	var p Profile
	var joined string
	err := r.db.QueryRow(
		`SELECT user_id, name, username, joined_at FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.Name, &p.Username, &joined)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, false, nil
	}
	if err != nil {
		return Profile{}, false, fmt.Errorf("get profile: %w", err)
	}
	if joined != "" {
		if p.JoinedAt, err = time.Parse(time.RFC3339, joined); err != nil {
			return Profile{}, false, fmt.Errorf("parse joined_at: %w", err)
		}
	}
	return p, true, nil
}

func (r *SQLiteRepository) SaveProfile(p Profile) error {
	joined := ""
	if !p.JoinedAt.IsZero() {
		joined = p.JoinedAt.Format(time.RFC3339)
	}
	_, err := r.db.Exec(`
		INSERT INTO profiles (user_id, name, username, joined_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name = excluded.name,
			username = excluded.username,
			joined_at = excluded.joined_at`,
		p.UserID, p.Name, p.Username, joined)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetPreferences(userID int64) (Preferences, error) {
	p := Preferences{UserID: userID}
	err := r.db.QueryRow(`SELECT gf_mode FROM preferences WHERE user_id = ?`, userID).Scan(&p.GFMode)
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("get preferences: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) SavePreferences(p Preferences) error {
	_, err := r.db.Exec(`
		INSERT INTO preferences (user_id, gf_mode) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET gf_mode = excluded.gf_mode`,
		p.UserID, p.GFMode)
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
