package storage

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Option configures a DailyFileStore.
type Option func(*DailyFileStore)

// WithLocation sets the zone used to derive partition dates and to parse
// stored timestamps. Default: time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *DailyFileStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides the clock used by Record.
func WithClock(now func() time.Time) Option {
	return func(s *DailyFileStore) {
		if now != nil {
			s.now = now
		}
	}
}

// DailyFileStore keeps one append-only text file per calendar day.
type DailyFileStore struct {
	dir string
	loc *time.Location
	now func() time.Time

	mu    sync.Mutex
	parts map[string]*sync.Mutex
}

func NewDailyFileStore(dir string, opts ...Option) (*DailyFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure logs dir: %w", err)
	}
	s := &DailyFileStore{
		dir:   dir,
		loc:   time.Local,
		now:   time.Now,
		parts: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *DailyFileStore) Dir() string { return s.dir }

func (s *DailyFileStore) Location() *time.Location { return s.loc }

// PartitionPath returns the file holding the records of date's calendar day.
func (s *DailyFileStore) PartitionPath(date time.Time) string {
	return filepath.Join(s.dir, filePrefix+date.In(s.loc).Format(DateLayout)+fileSuffix)
}

func (s *DailyFileStore) partitionLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.parts[key]
	if !ok {
		m = &sync.Mutex{}
		s.parts[key] = m
	}
	return m
}

// Record stamps the current time and appends the message. The timestamp is
// taken while the partition is locked, so concurrent callers land in the file
// in timestamp order.
func (s *DailyFileStore) Record(senderID int64, text string, isBot bool) error {
	sender := User(senderID)
	if isBot {
		sender = BotSender()
	}
	for {
		path := s.PartitionPath(s.now())
		lock := s.partitionLock(path)
		lock.Lock()
		ts := s.now().In(s.loc)
		if s.PartitionPath(ts) != path {
			// crossed midnight while waiting for the lock
			lock.Unlock()
			continue
		}
		err := s.appendLocked(path, FormatLine(ts, sender, text))
		lock.Unlock()
		return err
	}
}

// Append writes one line to the partition of ts and syncs it to disk before
// returning. Errors are not retried.
func (s *DailyFileStore) Append(ts time.Time, sender Sender, text string) error {
	ts = ts.In(s.loc)
	path := s.PartitionPath(ts)

	lock := s.partitionLock(path)
	lock.Lock()
	defer lock.Unlock()
	return s.appendLocked(path, FormatLine(ts, sender, text))
}

func (s *DailyFileStore) appendLocked(path, line string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: ensure dir: %w", ErrAppend, err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrAppend, path, err)
	}
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: write %s: %w", ErrAppend, path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: sync %s: %w", ErrAppend, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrAppend, path, err)
	}
	return nil
}

// Query returns the records of start's partition whose timestamps fall in
// [start, end]. Only start's day is read: a range crossing midnight yields
// just the part on start's date. Read failures are logged and produce an
// empty result. Stored stamps have second precision, so start is truncated
// to the second.
func (s *DailyFileStore) Query(start, end time.Time) []Record {
	start = start.Truncate(time.Second)
	path := s.PartitionPath(start)
	lines, err := s.readLines(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("⚠️ Error reading chat history from %s: %v", path, err)
		}
		return []Record{}
	}

	out := make([]Record, 0, len(lines))
	for _, line := range lines {
		rec, err := ParseLine(line, s.loc)
		if err != nil {
			continue
		}
		if rec.Timestamp.Before(start) || rec.Timestamp.After(end) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// ReadDay returns every line of date's partition in file order.
func (s *DailyFileStore) ReadDay(date time.Time) ([]string, error) {
	path := s.PartitionPath(date)
	lines, err := s.readLines(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w %s", ErrNoPartition, date.In(s.loc).Format(DateLayout))
	}
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *DailyFileStore) readLines(path string) ([]string, error) {
	lock := s.partitionLock(path)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open read: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	sc := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	sc.Buffer(buf, lineLimitMB*1024*1024)
	var lines []string
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return lines, nil
}
