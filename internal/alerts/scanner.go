package alerts

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"

	appLog "agendapro/internal/log"
	"agendapro/internal/model"
)

// EventSource supplies the current event list to scan over.
type EventSource interface {
	List() ([]model.Event, error)
}

// Scanner owns the polling loop: one immediate pass on Start, then one pass
// per schedule tick, each merging into the alert store. The clock is
// injectable so tests can evaluate arbitrary "now" values.
type Scanner struct {
	store  *Store
	events EventSource
	loc    *time.Location
	now    func() time.Time
	cron   *cron.Cron
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// NewScanner creates a scanner over the given event source, merging into
// store, evaluating windows in loc.
func NewScanner(store *Store, events EventSource, loc *time.Location, opts ...Option) *Scanner {
	s := &Scanner{
		store:  store,
		events: events,
		loc:    loc,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs one immediate pass and then schedules recurring passes per
// spec (a cron expression or descriptor such as "@every 30s").
func (s *Scanner) Start(spec string) error {
	if s.cron != nil {
		return errors.New("scanner already started")
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, s.RunOnce); err != nil {
		return err
	}
	s.cron = c

	s.RunOnce()
	c.Start()
	appLog.Info("reminder scanner started", "schedule", spec, "timezone", s.loc.String())
	return nil
}

// Stop tears down the polling loop, waiting for an in-flight pass to
// finish. Safe to call when never started.
func (s *Scanner) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron = nil
	appLog.Info("reminder scanner stopped")
}

// RunOnce performs a single synchronous scan pass.
func (s *Scanner) RunOnce() {
	events, err := s.events.List()
	if err != nil {
		appLog.Error("alert scan: listing events failed", err)
		return
	}

	now := s.now().In(s.loc)
	added := s.store.Merge(Scan(events, now, s.loc))
	if added > 0 {
		appLog.Info("alert scan", "new_alerts", added, "event_count", len(events))
	}
}
