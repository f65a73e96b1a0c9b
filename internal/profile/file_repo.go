package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

type document struct {
	Profiles    map[string]Profile     `json:"profiles"`
	Preferences map[string]Preferences `json:"preferences"`
}

// FileRepository keeps every profile and preference in one JSON file.
type FileRepository struct {
	path string
	mu   sync.Mutex
}

func NewFileRepository(path string) (*FileRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	// Touch file if not exists
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("touch file: %w", err)
	}
	_ = f.Close()
	return &FileRepository{path: path}, nil
}

func key(userID int64) string { return strconv.FormatInt(userID, 10) }

func (r *FileRepository) GetProfile(userID int64) (Profile, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, err := r.loadUnlocked()
	if err != nil {
		return Profile{}, false, err
	}
	p, ok := doc.Profiles[key(userID)]
	return p, ok, nil
}

func (r *FileRepository) SaveProfile(p Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, err := r.loadUnlocked()
	if err != nil {
		return err
	}
	doc.Profiles[key(p.UserID)] = p
	return r.saveUnlocked(doc)
}

func (r *FileRepository) GetPreferences(userID int64) (Preferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, err := r.loadUnlocked()
	if err != nil {
		return Preferences{}, err
	}
	p, ok := doc.Preferences[key(userID)]
	if !ok {
		return Preferences{UserID: userID}, nil
	}
	return p, nil
}

func (r *FileRepository) SavePreferences(p Preferences) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, err := r.loadUnlocked()
	if err != nil {
		return err
	}
	doc.Preferences[key(p.UserID)] = p
	return r.saveUnlocked(doc)
}

func (r *FileRepository) loadUnlocked() (document, error) {
	doc := document{
		Profiles:    make(map[string]Profile),
		Preferences: make(map[string]Preferences),
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return doc, fmt.Errorf("read profiles: %w", err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode profiles: %w", err)
	}
	if doc.Profiles == nil {
		doc.Profiles = make(map[string]Profile)
	}
	if doc.Preferences == nil {
		doc.Preferences = make(map[string]Preferences)
	}
	return doc, nil
}

func (r *FileRepository) saveUnlocked(doc document) error {
	f, err := os.OpenFile(r.path, os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open write: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
