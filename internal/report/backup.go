package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"ai-chatlog/internal/storage"
)

const (
	BackupHeader  = "📑 Chat Backup Report\n\n"
	NoHistoryText = "No chat history found for the specified time range."
	clockLayout   = "3:04pm"
)

var ErrBadRange = errors.New("bad time range")

// Querier is the read side of the chat log.
type Querier interface {
	Query(start, end time.Time) []storage.Record
}

// ParseClockRange parses "1:00pm - 2:00pm" into two instants on day's date,
// in day's location.
func ParseClockRange(arg string, day time.Time) (time.Time, time.Time, error) {
	parts := strings.Split(strings.ToLower(strings.Join(strings.Fields(arg), "")), "-")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrBadRange, arg)
	}
	start, err := onDay(parts[0], day)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := onDay(parts[1], day)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end before start", ErrBadRange)
	}
	return start, end, nil
}

func onDay(clock string, day time.Time) (time.Time, error) {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadRange, clock)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

// Backup assembles the stored lines in [start, end] into one text block.
func Backup(q Querier, start, end time.Time) string {
	recs := q.Query(start, end)
	if len(recs) == 0 {
		return NoHistoryText
	}
	var b strings.Builder
	b.WriteString(BackupHeader)
	for _, r := range recs {
		b.WriteString(r.Line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Chunk splits text into pieces of at most max bytes, preferring line breaks
// and never cutting a UTF-8 sequence.
func Chunk(text string, max int) []string {
	if max <= 0 || len(text) <= max {
		return []string{text}
	}
	var out []string
	for len(text) > max {
		cut := strings.LastIndexByte(text[:max], '\n') + 1
		if cut <= 0 {
			cut = max
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				_, cut = utf8.DecodeRuneInString(text)
			}
		}
		out = append(out, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
