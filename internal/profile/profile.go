package profile

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var ErrUnknownStore = errors.New("unknown profile store")

// Profile is what the bot remembers about a user from /start.
type Profile struct {
	UserID   int64     `json:"user_id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
}

// Preferences are per-user switches that survive restarts.
type Preferences struct {
	UserID int64 `json:"user_id"`
	GFMode bool  `json:"gf_mode"`
}

// Repository stores profiles and preferences.
// GetPreferences returns zero-value preferences for unknown users.
type Repository interface {
	GetProfile(userID int64) (Profile, bool, error)
	SaveProfile(p Profile) error
	GetPreferences(userID int64) (Preferences, error)
	SavePreferences(p Preferences) error
}

// Open builds the repository selected by kind ("file" or "sqlite").
func Open(kind, path string) (Repository, error) {
	switch strings.ToLower(kind) {
	case "", "file":
		return NewFileRepository(path)
	case "sqlite":
		return NewSQLiteRepository(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, kind)
	}
}

// Close releases r if the backend holds a resource. The file store holds none.
func Close(r Repository) error {
	if c, ok := r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
