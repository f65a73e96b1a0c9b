package telegram

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-chatlog/internal/broadcast"
)

// DailyReport generates the news digest, sends it to every allow-listed user
// and gives the admin the day's activity summary. It is the scheduler's fire
// callback. A failing recipient does not stop the others.
func (b *Bot) DailyReport(ctx context.Context, firedAt time.Time) error {
	text, err := b.news.Generate(ctx, firedAt.In(b.loc))
	if err != nil {
		return fmt.Errorf("daily report: %w", err)
	}

	recipients := b.authSvc.Recipients()
	results := broadcast.Send(ctx, chatDeliverer{s: b.s, parseMode: b.parseMode}, recipients, text)
	failed := results.Failed()
	log.Printf("📰 Daily report delivered to %d/%d users", len(results)-len(failed), len(results))

	if b.adminUserID != 0 {
		summary := b.dayStats(firedAt).Summary()
		if len(failed) > 0 {
			summary += fmt.Sprintf("\n\n⚠️ Delivery failed for %d users", len(failed))
		}
		b.sendPlain(b.adminUserID, summary)
	}
	return results.Err()
}
