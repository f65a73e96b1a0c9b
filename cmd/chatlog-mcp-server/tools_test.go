package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"ai-chatlog/internal/config"
	"ai-chatlog/internal/storage"
)

func newHandlers(t *testing.T) *handlers {
	t.Helper()
	st, err := storage.NewDailyFileStore(filepath.Join(t.TempDir(), "chat_logs"), storage.WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	_ = st.Append(time.Date(2024, time.May, 23, 13, 0, 5, 0, time.UTC), storage.User(1), "hello")
	_ = st.Append(time.Date(2024, time.May, 23, 13, 0, 7, 0, time.UTC), storage.BotSender(), "hi there")
	return &handlers{store: st}
}

func text(t *testing.T, res *mcp.CallToolResultFor[any]) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("want one content block, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return tc.Text
}

func TestQueryChatLog(t *testing.T) {
	h := newHandlers(t)
	res, err := h.QueryChatLog(context.Background(), nil, &mcp.CallToolParamsFor[QueryParams]{
		Arguments: QueryParams{Start: "2024-05-23 13:00:00", End: "2024-05-23 13:00:10"},
	})
	if err != nil || res.IsError {
		t.Fatalf("query failed: %v %+v", err, res)
	}
	got := text(t, res)
	if !strings.Contains(got, "Found 2 records") || !strings.Contains(got, "[2024-05-23 01:00:07 PM] Bot: hi there") {
		t.Fatalf("unexpected text: %q", got)
	}
	if res.Meta["total_found"] != 2 {
		t.Fatalf("unexpected meta: %+v", res.Meta)
	}

	res, _ = h.QueryChatLog(context.Background(), nil, &mcp.CallToolParamsFor[QueryParams]{
		Arguments: QueryParams{Start: "today", End: "2024-05-23 13:00:10"},
	})
	if !res.IsError {
		t.Fatalf("bad start accepted")
	}
}

func TestReadChatLogDay(t *testing.T) {
	h := newHandlers(t)
	res, err := h.ReadChatLogDay(context.Background(), nil, &mcp.CallToolParamsFor[DayParams]{
		Arguments: DayParams{Date: "2024-05-23"},
	})
	if err != nil || res.IsError {
		t.Fatalf("read failed: %v %+v", err, res)
	}
	if got := text(t, res); strings.Count(got, "\n") != 1 {
		t.Fatalf("want two lines, got %q", got)
	}

	res, _ = h.ReadChatLogDay(context.Background(), nil, &mcp.CallToolParamsFor[DayParams]{
		Arguments: DayParams{Date: "2024-01-01"},
	})
	if res.IsError || text(t, res) != "No logs found for date 2024-01-01" {
		t.Fatalf("missing day: %+v", res)
	}
}

func TestOpenStoreUsesLogConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bot", "logs")
	st, err := openStore(&config.LogConfig{LogsDir: dir, ReportTimezone: "UTC"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if st.Dir() != dir || st.Location() != time.UTC {
		t.Fatalf("config ignored: dir=%s loc=%s", st.Dir(), st.Location())
	}
	if _, err := openStore(&config.LogConfig{LogsDir: dir, ReportTimezone: "Mars/Olympus"}); err == nil {
		t.Fatalf("bad zone accepted")
	}
}
