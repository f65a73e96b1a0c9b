package auth

import (
	"os"
	"path/filepath"
	"testing"
)

type memRepo struct{ users []User }

func (m *memRepo) LoadAll() ([]User, error) { return append([]User{}, m.users...), nil }
func (m *memRepo) Upsert(u User) error {
	for i, x := range m.users {
		if x.ID == u.ID {
			m.users[i] = u
			return nil
		}
	}
	m.users = append(m.users, u)
	return nil
}
func (m *memRepo) Remove(id int64) error {
	out := make([]User, 0, len(m.users))
	for _, x := range m.users {
		if x.ID != id {
			out = append(out, x)
		}
	}
	m.users = out
	return nil
}

func TestServiceBasic(t *testing.T) {
	repo := &memRepo{users: []User{{ID: 10, Username: "alice"}}}
	svc, err := NewWithRepo(repo, 99, []int64{20})
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	if !svc.IsAllowed(10) {
		t.Fatalf("repo preload not effective")
	}
	if !svc.IsAllowed(20) {
		t.Fatalf("initial env list not merged")
	}
	if svc.IsAllowed(30) {
		t.Fatalf("unexpected allowed")
	}
	if !svc.IsAllowed(99) || !svc.IsAdmin(99) {
		t.Fatalf("admin must always be allowed")
	}

	if err := svc.Promote(30); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if !svc.IsAllowed(30) {
		t.Fatalf("promote not effective")
	}
	if len(repo.users) != 2 {
		t.Fatalf("promote not persisted: %+v", repo.users)
	}

	if err := svc.Remove(10); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if svc.IsAllowed(10) {
		t.Fatalf("remove not effective")
	}

	got := svc.Recipients()
	if len(got) != 2 || got[0] != 20 || got[1] != 30 {
		t.Fatalf("unexpected recipients: %v", got)
	}
}

func TestPromoteKeepsKnownFields(t *testing.T) {
	repo := &memRepo{users: []User{{ID: 5, Username: "kasun"}}}
	svc, _ := NewWithRepo(repo, 0, nil)
	if err := svc.Promote(5); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if repo.users[0].Username != "kasun" {
		t.Fatalf("username lost: %+v", repo.users[0])
	}
	if svc.IsAdmin(0) {
		t.Fatalf("zero admin id must not match")
	}
}

func TestFileRepositoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "allowlist.json")
	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if users, err := repo.LoadAll(); err != nil || len(users) != 0 {
		t.Fatalf("empty file: %v %v", users, err)
	}
	_ = repo.Upsert(User{ID: 1})
	_ = repo.Upsert(User{ID: 2, Username: "b"})
	_ = repo.Upsert(User{ID: 1, Username: "a"})
	_ = repo.Remove(2)

	again, _ := NewFileRepository(path)
	users, err := again.LoadAll()
	if err != nil || len(users) != 1 || users[0].Username != "a" {
		t.Fatalf("unexpected users: %+v err=%v", users, err)
	}
}

func TestFileRepository_MalformedFileIsNotOverwritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowlist.json")
	broken := `[{"id":1},{"id":2},{"id":3},]`
	if err := os.WriteFile(path, []byte(broken), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := repo.LoadAll(); err == nil {
		t.Fatalf("malformed allowlist loaded silently")
	}

	svc, _ := NewWithRepo(repo, 0, nil)
	if err := svc.Promote(9); err == nil {
		t.Fatalf("promote over a malformed file must fail")
	}
	if svc.IsAllowed(9) {
		t.Fatalf("failed promotion still granted access")
	}
	data, _ := os.ReadFile(path)
	if string(data) != broken {
		t.Fatalf("allowlist rewritten: %s", data)
	}
}

func TestRemoveKeepsAccessWhenSaveFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowlist.json")
	repo, _ := NewFileRepository(path)
	svc, _ := NewWithRepo(repo, 0, nil)
	if err := svc.Promote(4); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if err := os.WriteFile(path, []byte("{oops"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if err := svc.Remove(4); err == nil {
		t.Fatalf("remove over a malformed file must fail")
	}
	if !svc.IsAllowed(4) {
		t.Fatalf("memory changed although the save failed")
	}
}
