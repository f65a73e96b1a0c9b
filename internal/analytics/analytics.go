package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"ai-chatlog/internal/storage"
)

// DailyStats summarises one partition of the chat log.
type DailyStats struct {
	Date          string              `json:"date"`
	UserMessages  int                 `json:"user_messages"`
	BotResponses  int                 `json:"bot_responses"`
	UniqueUsers   int                 `json:"unique_users"`
	FirstActivity string              `json:"first_activity,omitempty"`
	LastActivity  string              `json:"last_activity,omitempty"`
	UserStats     map[int64]UserStats `json:"user_stats"`
}

type UserStats struct {
	UserID   int64 `json:"user_id"`
	Messages int   `json:"messages"`
}

// AnalyzeDay counts the records that fall on day's calendar date.
func AnalyzeDay(records []storage.Record, day time.Time) *DailyStats {
	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	stats := &DailyStats{
		Date:      startOfDay.Format(storage.DateLayout),
		UserStats: make(map[int64]UserStats),
	}

	var first, last time.Time
	for _, rec := range records {
		if rec.Timestamp.Before(startOfDay) || !rec.Timestamp.Before(endOfDay) {
			continue
		}
		if first.IsZero() || rec.Timestamp.Before(first) {
			first = rec.Timestamp
		}
		if rec.Timestamp.After(last) {
			last = rec.Timestamp
		}

		if rec.Sender.Bot {
			stats.BotResponses++
			continue
		}
		stats.UserMessages++
		us := stats.UserStats[rec.Sender.UserID]
		us.UserID = rec.Sender.UserID
		us.Messages++
		stats.UserStats[rec.Sender.UserID] = us
	}

	stats.UniqueUsers = len(stats.UserStats)
	if !first.IsZero() {
		stats.FirstActivity = first.In(day.Location()).Format("03:04 PM")
		stats.LastActivity = last.In(day.Location()).Format("03:04 PM")
	}
	return stats
}

// Summary renders the stats as a short text block.
func (ds *DailyStats) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Chat activity for %s\n\n", ds.Date)
	fmt.Fprintf(&b, "- User messages: %d\n", ds.UserMessages)
	fmt.Fprintf(&b, "- Bot responses: %d\n", ds.BotResponses)
	fmt.Fprintf(&b, "- Unique users: %d\n", ds.UniqueUsers)
	if ds.FirstActivity != "" {
		fmt.Fprintf(&b, "- Active from %s to %s\n", ds.FirstActivity, ds.LastActivity)
	}

	if len(ds.UserStats) > 0 {
		ids := make([]int64, 0, len(ds.UserStats))
		for id := range ds.UserStats {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			a, c := ds.UserStats[ids[i]], ds.UserStats[ids[j]]
			if a.Messages != c.Messages {
				return a.Messages > c.Messages
			}
			return ids[i] < ids[j]
		})
		b.WriteString("\nPer user:\n")
		for _, id := range ids {
			fmt.Fprintf(&b, "- User %d: %d messages\n", id, ds.UserStats[id].Messages)
		}
	}
	return b.String()
}

// ToJSON serialises the stats for detailed inspection.
func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
