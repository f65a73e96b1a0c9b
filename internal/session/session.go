package session

import (
	"fmt"
	"sync"

	"ai-chatlog/internal/profile"
)

// State holds the bot's runtime switches: the global assistant toggle and a
// cache of per-user preferences backed by a profile repository.
type State struct {
	mu          sync.RWMutex
	assistantOn bool
	repo        profile.Repository
	prefs       map[int64]profile.Preferences
}

func New(repo profile.Repository) *State {
	return &State{
		assistantOn: true,
		repo:        repo,
		prefs:       make(map[int64]profile.Preferences),
	}
}

func (s *State) AssistantEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assistantOn
}

func (s *State) SetAssistantEnabled(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assistantOn = on
}

// Preferences returns the cached preferences of userID, loading them from the
// repository on first access. A failed load is not cached.
func (s *State) Preferences(userID int64) (profile.Preferences, error) {
	s.mu.RLock()
	p, ok := s.prefs[userID]
	s.mu.RUnlock()
	if ok {
		return p, nil
	}
	if s.repo == nil {
		return profile.Preferences{UserID: userID}, nil
	}
	p, err := s.repo.GetPreferences(userID)
	if err != nil {
		return profile.Preferences{UserID: userID}, fmt.Errorf("load preferences: %w", err)
	}
	s.mu.Lock()
	if cached, ok := s.prefs[userID]; ok {
		// a concurrent write won the race
		p = cached
	} else {
		s.prefs[userID] = p
	}
	s.mu.Unlock()
	return p, nil
}

// Forget drops the cached preferences so the next access reloads them.
func (s *State) Forget(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.prefs, userID)
}

// SetGFMode persists the persona switch and updates the cache once the
// repository accepted it.
func (s *State) SetGFMode(userID int64, on bool) error {
	p := profile.Preferences{UserID: userID, GFMode: on}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repo != nil {
		if err := s.repo.SavePreferences(p); err != nil {
			return fmt.Errorf("save preferences: %w", err)
		}
	}
	s.prefs[userID] = p
	return nil
}
