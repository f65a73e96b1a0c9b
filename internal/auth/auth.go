package auth

import (
	"log"
	"sort"
	"sync"
)

// User is an allow-listed chat. Allow-listed users may talk to the bot and
// receive the daily broadcast.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Repository interface {
	LoadAll() ([]User, error)
	Upsert(user User) error
	Remove(userID int64) error
}

type Service struct {
	mu           sync.RWMutex
	repo         Repository
	adminID      int64
	allowedUsers map[int64]User
}

func NewWithRepo(repo Repository, adminID int64, initial []int64) (*Service, error) {
	s := &Service{repo: repo, adminID: adminID, allowedUsers: make(map[int64]User)}
	// preload from repo
	if repo != nil {
		users, err := repo.LoadAll()
		if err != nil {
			log.Printf("⚠️ Failed to load allowlist, continuing with env users only: %v", err)
		}
		for _, u := range users {
			s.allowedUsers[u.ID] = u
		}
	}
	// merge initial IDs (from env) without usernames
	for _, id := range initial {
		if _, ok := s.allowedUsers[id]; !ok {
			s.allowedUsers[id] = User{ID: id}
		}
	}
	return s, nil
}

func (s *Service) IsAdmin(userID int64) bool {
	return s.adminID != 0 && userID == s.adminID
}

// IsAllowed reports whether userID may chat. The admin is always allowed.
func (s *Service) IsAllowed(userID int64) bool {
	if s.IsAdmin(userID) {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.allowedUsers[userID]
	return ok
}

// Promote adds userID to the allow-list, keeping any known profile fields.
func (s *Service) Promote(userID int64) error {
	s.mu.RLock()
	u, ok := s.allowedUsers[userID]
	s.mu.RUnlock()
	if !ok {
		u = User{ID: userID}
	}
	return s.Upsert(u)
}

// Upsert persists user and then allows it. Nothing changes if saving fails.
func (s *Service) Upsert(user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repo != nil {
		if err := s.repo.Upsert(user); err != nil {
			return err
		}
	}
	s.allowedUsers[user.ID] = user
	return nil
}

// Remove revokes access. Like Upsert it only touches memory after the save.
func (s *Service) Remove(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repo != nil {
		if err := s.repo.Remove(userID); err != nil {
			return err
		}
	}
	delete(s.allowedUsers, userID)
	return nil
}

func (s *Service) List() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.allowedUsers))
	for _, u := range s.allowedUsers {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Recipients returns the sorted chat ids of the daily broadcast.
func (s *Service) Recipients() []int64 {
	users := s.List()
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}
