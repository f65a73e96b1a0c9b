package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-chatlog/internal/llm"
)

const newsPrompt = `Generate a comprehensive daily news report covering:
1. Latest technological inventions and innovations
2. Global football news and match results
3. Major global conflict updates

Format with emojis and clear sections. Keep it concise but informative.`

// News produces the text broadcast by the daily fire.
type News struct {
	client llm.Client
	prompt string
}

func NewNews(client llm.Client) *News {
	return &News{client: client, prompt: newsPrompt}
}

func (n *News) Generate(ctx context.Context, at time.Time) (string, error) {
	resp, err := n.client.Generate(ctx, llm.Prompt("", n.prompt))
	if err != nil {
		return "", fmt.Errorf("generate news: %w", err)
	}
	body := strings.TrimSpace(resp.Content)
	if body == "" {
		return "", fmt.Errorf("generate news: empty response from %s", resp.Model)
	}
	return FormatNews(body, at), nil
}

func FormatNews(body string, at time.Time) string {
	return fmt.Sprintf("📰 *Daily News Report* 📰\n\n%s\n\n🕘 Generated at %s", body, at.Format("2006-01-02 03:04 PM"))
}
