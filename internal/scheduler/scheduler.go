package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const (
	defaultMaxSleep = time.Minute
	dateLayout      = "2006-01-02"
)

var (
	ErrNoReportFunc   = errors.New("report function not set")
	ErrAlreadyRunning = errors.New("scheduler already running")
)

// ReportFunc is invoked once per day. firedAt is the wall-clock time of the fire.
type ReportFunc func(ctx context.Context, firedAt time.Time) error

// Clock abstracts time.Now and time.After so tests can move time by hand.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type Option func(*Scheduler)

// WithLocation sets the zone of the daily fire time. Default: time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(clk Clock) Option {
	return func(s *Scheduler) {
		if clk != nil {
			s.clk = clk
		}
	}
}

// WithMaxSleep bounds a single wait so wall-clock jumps are noticed.
func WithMaxSleep(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.maxSleep = d
		}
	}
}

// Scheduler fires the report function once per day at a fixed wall-clock time.
type Scheduler struct {
	hour     int
	minute   int
	loc      *time.Location
	clk      Clock
	maxSleep time.Duration
	schedule cron.Schedule

	mu         sync.Mutex
	reportFunc ReportFunc
	cancel     context.CancelFunc
	done       chan struct{}
	next       time.Time
	lastFired  time.Time
}

// New creates a daily scheduler for hour:minute.
func New(hour, minute int, opts ...Option) (*Scheduler, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("invalid hour %d", hour)
	}
	if minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid minute %d", minute)
	}
	s := &Scheduler{
		hour:     hour,
		minute:   minute,
		loc:      time.Local,
		clk:      realClock{},
		maxSleep: defaultMaxSleep,
	}
	for _, opt := range opts {
		opt(s)
	}

	sched, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", minute, hour))
	if err != nil {
		return nil, fmt.Errorf("build schedule: %w", err)
	}
	if spec, ok := sched.(*cron.SpecSchedule); ok {
		spec.Location = s.loc
	}
	s.schedule = sched
	return s, nil
}

// SetReportFunction sets the function run at every fire.
func (s *Scheduler) SetReportFunction(f ReportFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportFunc = f
}

// NextAfter returns the first fire time strictly after now. Today's slot is
// used only while now is still before it.
func (s *Scheduler) NextAfter(now time.Time) time.Time {
	return s.schedule.Next(now.In(s.loc))
}

// nextFire returns the first fire after both now and lastFired that falls on a
// later calendar day than lastFired. It absorbs a wall clock stepping back
// past a fire and the repeated hour of a DST fall-back.
func (s *Scheduler) nextFire(now, lastFired time.Time) time.Time {
	from := now
	if lastFired.After(from) {
		from = lastFired
	}
	next := s.NextAfter(from)
	if lastFired.IsZero() {
		return next
	}
	lastDay := lastFired.In(s.loc).Format(dateLayout)
	for next.In(s.loc).Format(dateLayout) == lastDay {
		next = s.NextAfter(next)
	}
	return next
}

// Next returns the fire time the running loop is waiting for.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Start runs the scheduling loop in a background goroutine until ctx is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reportFunc == nil {
		log.Println("⚠️ Report function not set, scheduler will not generate reports")
		return ErrNoReportFunc
	}
	if s.cancel != nil {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	go s.run(runCtx, done)

	log.Printf("📅 Scheduler started - daily reports will be generated at %02d:%02d %s", s.hour, s.minute, s.loc)
	return nil
}

// Stop cancels a pending wait and blocks until the loop has exited.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Println("📅 Scheduler stopped")
}

// IsRunning reports whether the loop goroutine is alive.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		if s.done == done {
			s.cancel()
			s.cancel, s.done = nil, nil
		}
		s.next = time.Time{}
		s.mu.Unlock()
		close(done)
	}()

	for {
		s.mu.Lock()
		next := s.nextFire(s.clk.Now(), s.lastFired)
		s.next = next
		s.mu.Unlock()
		log.Printf("🗓️ Next daily report at %s", next.Format("2006-01-02 15:04:05 MST"))

		if !s.waitUntil(ctx, next) {
			return
		}
		s.mu.Lock()
		s.lastFired = next
		s.mu.Unlock()
		s.fire(ctx)
	}
}

// waitUntil sleeps in bounded steps until the wall clock reaches next. The
// target is fixed for the whole wait: a forward jump past it ends the wait,
// a backward jump only lengthens it.
func (s *Scheduler) waitUntil(ctx context.Context, next time.Time) bool {
	for {
		now := s.clk.Now()
		if !now.Before(next) {
			return ctx.Err() == nil
		}
		d := next.Sub(now)
		if d > s.maxSleep {
			d = s.maxSleep
		}
		select {
		case <-ctx.Done():
			return false
		case <-s.clk.After(d):
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	f := s.reportFunc
	s.mu.Unlock()

	runID := uuid.NewString()
	firedAt := s.clk.Now().In(s.loc)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ [%s] Daily report panicked: %v", runID, r)
		}
	}()

	log.Printf("🕘 [%s] Triggered daily report generation at %s", runID, firedAt.Format("15:04 MST"))
	if err := f(ctx, firedAt); err != nil {
		log.Printf("❌ [%s] Daily report generation failed: %v", runID, err)
		return
	}
	log.Printf("✅ [%s] Daily report done", runID)
}
