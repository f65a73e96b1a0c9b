package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"ai-chatlog/internal/storage"
)

const rangeLayout = "2006-01-02 15:04:05"

type QueryParams struct {
	Start string `json:"start" mcp:"range start, YYYY-MM-DD HH:MM:SS in the log's timezone"`
	End   string `json:"end" mcp:"range end, YYYY-MM-DD HH:MM:SS in the log's timezone"`
}

type DayParams struct {
	Date string `json:"date" mcp:"log date, YYYY-MM-DD"`
}

// RecordResult is one chat log record as returned to MCP clients.
type RecordResult struct {
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
}

type handlers struct {
	store *storage.DailyFileStore
}

func errorResult(format string, args ...any) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

func (h *handlers) QueryChatLog(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[QueryParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	log.Printf("🔎 MCP Server: query chat log %s .. %s", args.Start, args.End)

	start, err := time.ParseInLocation(rangeLayout, args.Start, h.store.Location())
	if err != nil {
		return errorResult("❌ Invalid start %q, want YYYY-MM-DD HH:MM:SS", args.Start), nil
	}
	end, err := time.ParseInLocation(rangeLayout, args.End, h.store.Location())
	if err != nil {
		return errorResult("❌ Invalid end %q, want YYYY-MM-DD HH:MM:SS", args.End), nil
	}

	recs := h.store.Query(start, end)
	results := make([]RecordResult, 0, len(recs))
	lines := make([]string, 0, len(recs))
	for _, r := range recs {
		results = append(results, RecordResult{Timestamp: r.Timestamp, Sender: r.Sender.Label(), Text: r.Text})
		lines = append(lines, r.Line)
	}

	text := fmt.Sprintf("📑 No chat history between %s and %s", args.Start, args.End)
	if len(recs) > 0 {
		text = fmt.Sprintf("📑 Found %d records:\n\n%s", len(recs), strings.Join(lines, "\n"))
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		Meta: map[string]interface{}{
			"records":     results,
			"total_found": len(results),
		},
	}, nil
}

func (h *handlers) ReadChatLogDay(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[DayParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	log.Printf("📖 MCP Server: read chat log for %s", args.Date)

	day, err := time.ParseInLocation(storage.DateLayout, args.Date, h.store.Location())
	if err != nil {
		return errorResult("❌ Invalid date %q, want YYYY-MM-DD", args.Date), nil
	}
	lines, err := h.store.ReadDay(day)
	if errors.Is(err, storage.ErrNoPartition) {
		return &mcp.CallToolResultFor[any]{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("No logs found for date %s", args.Date)},
			},
		}, nil
	}
	if err != nil {
		return errorResult("❌ Failed to read chat log: %v", err), nil
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: strings.Join(lines, "\n")},
		},
		Meta: map[string]interface{}{
			"date":  args.Date,
			"lines": len(lines),
		},
	}, nil
}
