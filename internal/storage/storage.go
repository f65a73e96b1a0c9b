package storage

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	// TimestampLayout is the on-disk timestamp rendering, e.g. "2024-05-23 01:00:05 PM".
	TimestampLayout = "2006-01-02 03:04:05 PM"
	// DateLayout names partitions.
	DateLayout = "2006-01-02"

	botLabel    = "Bot"
	userPrefix  = "User "
	filePrefix  = "chat_log_"
	fileSuffix  = ".txt"
	lineLimitMB = 10
)

var (
	// ErrAppend wraps every failure on the write path.
	ErrAppend = errors.New("chat log append failed")
	// ErrNoPartition is returned by ReadDay when the day has no log file.
	ErrNoPartition = errors.New("no chat log for date")
)

// Sender identifies who produced a record: a specific user or the bot itself.
type Sender struct {
	UserID int64
	Bot    bool
}

func User(id int64) Sender { return Sender{UserID: id} }

func BotSender() Sender { return Sender{Bot: true} }

// Label renders the sender the way it appears in a log line.
func (s Sender) Label() string {
	if s.Bot {
		return botLabel
	}
	return userPrefix + strconv.FormatInt(s.UserID, 10)
}

// Record is a single timestamped, sender-attributed entry of a partition.
// Line holds the stored line verbatim, without the trailing line break.
type Record struct {
	Timestamp time.Time
	Sender    Sender
	Text      string
	Line      string
}

// Recorder abstracts persistence of chat records.
// Append must serialize writes to the same partition.
// Query is best effort and returns records in write order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	Append(ts time.Time, sender Sender, text string) error
	Record(senderID int64, text string, isBot bool) error
	Query(start, end time.Time) []Record
}

// FormatLine renders a record as a single LF-terminated line.
func FormatLine(ts time.Time, sender Sender, text string) string {
	var b strings.Builder
	b.Grow(len(TimestampLayout) + len(text) + 24)
	b.WriteByte('[')
	b.WriteString(ts.Format(TimestampLayout))
	b.WriteString("] ")
	b.WriteString(sender.Label())
	b.WriteString(": ")
	b.WriteString(escapeText(text))
	b.WriteByte('\n')
	return b.String()
}

// lineTimestamp extracts the substring between the first '[' and the first ']'.
func lineTimestamp(line string) (string, bool) {
	open := strings.IndexByte(line, '[')
	closing := strings.IndexByte(line, ']')
	if open < 0 || closing < 0 || closing < open {
		return "", false
	}
	return line[open+1 : closing], true
}

// ParseLine decodes a stored line. Lines written by other tools only need a
// bracketed timestamp; the sender and text are filled when recognisable.
func ParseLine(line string, loc *time.Location) (Record, error) {
	raw, ok := lineTimestamp(line)
	if !ok {
		return Record{}, errors.New("missing timestamp brackets")
	}
	ts, err := time.ParseInLocation(TimestampLayout, raw, loc)
	if err != nil {
		return Record{}, err
	}
	rec := Record{Timestamp: ts, Line: line}

	rest := strings.TrimPrefix(line[strings.IndexByte(line, ']')+1:], " ")
	label, text, found := strings.Cut(rest, ": ")
	if !found {
		return rec, nil
	}
	switch {
	case label == botLabel:
		rec.Sender = BotSender()
	case strings.HasPrefix(label, userPrefix):
		if id, err := strconv.ParseInt(strings.TrimPrefix(label, userPrefix), 10, 64); err == nil {
			rec.Sender = User(id)
		}
	}
	rec.Text = unescapeText(text)
	return rec, nil
}

var escaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`)

func escapeText(s string) string {
	if !strings.ContainsAny(s, "\\\n\r") {
		return s
	}
	return escaper.Replace(s)
}

func unescapeText(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			// foreign backslash sequences are kept as-is
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
