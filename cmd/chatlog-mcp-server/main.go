package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"ai-chatlog/internal/config"
	"ai-chatlog/internal/storage"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.ParseLogConfig()
	if err != nil {
		log.Fatalf("❌ Failed to parse config: %v", err)
	}
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to open chat log: %v", err)
	}

	log.Printf("🚀 Starting chat log MCP server over %s", store.Dir())
	server := newServer(store)

	log.Printf("🔗 Starting chat log MCP server on stdin/stdout...")
	if err := server.Run(context.Background(), mcp.NewStdioTransport()); err != nil {
		log.Fatalf("❌ Chat log MCP server failed: %v", err)
	}
}

func openStore(cfg *config.LogConfig) (*storage.DailyFileStore, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return storage.NewDailyFileStore(cfg.LogsDir, storage.WithLocation(loc))
}

func newServer(store *storage.DailyFileStore) *mcp.Server {
	h := &handlers{store: store}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "ai-chatlog-mcp",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_chat_log",
		Description: "Returns chat log records between start and end. Only the start date's log is read.",
	}, h.QueryChatLog)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_chat_log_day",
		Description: "Returns every line of one day's chat log",
	}, h.ReadChatLogDay)

	log.Printf("📋 Registered chat log MCP tools: query_chat_log, read_chat_log_day")
	return server
}
