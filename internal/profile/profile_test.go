package profile

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"
)

func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()

	if _, ok, err := repo.GetProfile(1); err != nil || ok {
		t.Fatalf("empty repo: ok=%v err=%v", ok, err)
	}
	prefs, err := repo.GetPreferences(1)
	if err != nil || prefs.GFMode || prefs.UserID != 1 {
		t.Fatalf("default prefs: %+v err=%v", prefs, err)
	}

	joined := time.Date(2024, time.May, 23, 13, 0, 0, 0, time.UTC)
	if err := repo.SaveProfile(Profile{UserID: 1, Name: "Nimal", Username: "nimal", JoinedAt: joined}); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if err := repo.SaveProfile(Profile{UserID: 2, Name: "Kasun"}); err != nil {
		t.Fatalf("save profile 2: %v", err)
	}
	if err := repo.SaveProfile(Profile{UserID: 1, Name: "Nimal P", Username: "nimal", JoinedAt: joined}); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	p, ok, err := repo.GetProfile(1)
	if err != nil || !ok {
		t.Fatalf("get profile: ok=%v err=%v", ok, err)
	}
	if p.Name != "Nimal P" || !p.JoinedAt.Equal(joined) {
		t.Fatalf("unexpected profile: %+v", p)
	}

	if err := repo.SavePreferences(Preferences{UserID: 1, GFMode: true}); err != nil {
		t.Fatalf("save prefs: %v", err)
	}
	prefs, err = repo.GetPreferences(1)
	if err != nil || !prefs.GFMode {
		t.Fatalf("prefs not persisted: %+v err=%v", prefs, err)
	}
	prefs, _ = repo.GetPreferences(2)
	if prefs.GFMode {
		t.Fatalf("prefs leaked across users")
	}
}

func TestFileRepository(t *testing.T) {
	repo, err := NewFileRepository(filepath.Join(t.TempDir(), "data", "profiles.json"))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	exerciseRepository(t, repo)
}

func TestFileRepository_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	first, _ := NewFileRepository(path)
	if err := first.SavePreferences(Preferences{UserID: 9, GFMode: true}); err != nil {
		t.Fatalf("save: %v", err)
	}
	second, _ := NewFileRepository(path)
	prefs, err := second.GetPreferences(9)
	if err != nil || !prefs.GFMode {
		t.Fatalf("reopen lost prefs: %+v err=%v", prefs, err)
	}
}

func TestSQLiteRepository(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "profiles.db"))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer repo.Close()
	exerciseRepository(t, repo)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	if r, err := Open("file", filepath.Join(dir, "p.json")); err != nil {
		t.Fatalf("file: %v", err)
	} else if _, ok := r.(*FileRepository); !ok {
		t.Fatalf("file kind built %T", r)
	}
	r, err := Open("SQLite", filepath.Join(dir, "p.db"))
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	if _, ok := r.(io.Closer); !ok {
		t.Fatalf("sqlite store %T cannot be closed", r)
	}
	if err := Close(r); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, _, err := r.GetProfile(1); err == nil {
		t.Fatalf("closed sqlite store still answers")
	}
	if err := Close(&FileRepository{}); err != nil {
		t.Fatalf("file store close: %v", err)
	}
	if _, err := Open("redis", ""); !errors.Is(err, ErrUnknownStore) {
		t.Fatalf("want ErrUnknownStore, got %v", err)
	}
}
