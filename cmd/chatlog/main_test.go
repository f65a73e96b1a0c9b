package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ai-chatlog/internal/config"
	"ai-chatlog/internal/storage"
)

var testNow = time.Date(2024, time.May, 23, 22, 0, 0, 0, time.UTC)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out, func() time.Time { return testNow }, config.LogConfig{LogsDir: "chat_logs", ReportTimezone: "Local"})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func seed(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "chat_logs")
	st, err := storage.NewDailyFileStore(dir, storage.WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	_ = st.Append(time.Date(2024, time.May, 23, 13, 0, 5, 0, time.UTC), storage.User(1), "hello")
	_ = st.Append(time.Date(2024, time.May, 23, 13, 0, 7, 0, time.UTC), storage.BotSender(), "hi there")
	return dir
}

func TestQueryCommand(t *testing.T) {
	dir := seed(t)
	out, err := run(t, "query", "--dir", dir, "--tz", "UTC", "--from", "2024-05-23 13:00:06", "--to", "2024-05-23 14:00:00")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if strings.TrimSpace(out) != "[2024-05-23 01:00:07 PM] Bot: hi there" {
		t.Fatalf("unexpected output: %q", out)
	}

	if _, err := run(t, "query", "--dir", dir, "--from", "yesterday", "--to", "2024-05-23 14:00:00"); err == nil {
		t.Fatalf("bad --from accepted")
	}
}

func TestShowCommand(t *testing.T) {
	dir := seed(t)
	out, err := run(t, "show", "--dir", dir, "--tz", "UTC")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if strings.Count(out, "\n") != 2 || !strings.Contains(out, "User 1: hello") {
		t.Fatalf("unexpected output: %q", out)
	}

	out, err = run(t, "show", "--dir", dir, "--tz", "UTC", "--date", "2024-01-01")
	if err != nil || !strings.Contains(out, "No logs found for date 2024-01-01") {
		t.Fatalf("missing day: %q err=%v", out, err)
	}
}

func TestNextCommand(t *testing.T) {
	out, err := run(t, "next", "--tz", "UTC", "--at", "21:00")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if strings.TrimSpace(out) != "2024-05-24 21:00:00 UTC" {
		t.Fatalf("unexpected next: %q", out)
	}
	out, _ = run(t, "next", "--tz", "UTC", "--at", "23:30")
	if strings.TrimSpace(out) != "2024-05-23 23:30:00 UTC" {
		t.Fatalf("later today expected: %q", out)
	}
	if _, err := run(t, "next", "--at", "25:00"); err == nil {
		t.Fatalf("invalid time accepted")
	}
}

func TestDefaultsFromLogConfig(t *testing.T) {
	dir := seed(t)
	var out bytes.Buffer
	cmd := newRootCmd(&out, func() time.Time { return testNow }, config.LogConfig{LogsDir: dir, ReportTimezone: "UTC"})
	cmd.SetArgs([]string{"show"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out.String(), "Bot: hi there") {
		t.Fatalf("configured directory not used: %q", out.String())
	}
}
