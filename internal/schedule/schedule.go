package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/term-dates/internal/logger"
)

// Job is the work run on each tick
type Job func(ctx context.Context)

// NextRun returns the first instant strictly after now that falls on hour:00 in loc
func NextRun(now time.Time, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !local.Before(next) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, 0, 0, 0, loc)
	}
	return next
}

// Scheduler runs a job daily
type Scheduler struct {
	hour  int
	loc   *time.Location
	now   func() time.Time
	after func(time.Duration) <-chan time.Time
	log   *logger.Logger
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock replaces time.Now and time.After
func WithClock(now func() time.Time, after func(time.Duration) <-chan time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
		s.after = after
	}
}

// WithLogger replaces the default logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// New creates a Scheduler firing at hour:00 in loc
func New(hour int, loc *time.Location, opts ...Option) (*Scheduler, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("schedule hour must be between 0 and 23, got %d", hour)
	}
	if loc == nil {
		return nil, errors.New("schedule location is required")
	}

	s := &Scheduler{
		hour:  hour,
		loc:   loc,
		now:   time.Now,
		after: time.After,
		log:   logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Next returns the next firing time after the current time
func (s *Scheduler) Next() time.Time {
	return NextRun(s.now(), s.hour, s.loc)
}

// Run blocks, calling job at each scheduled time, until ctx is cancelled. Runs never
// overlap: the next wait starts after the job returns.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	var last time.Time
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// A wall clock lagging the timer must not rearm for the slot that just fired.
		now := s.now()
		from := now
		if from.Before(last) {
			from = last
		}
		next := NextRun(from, s.hour, s.loc)
		delay := next.Sub(now)
		s.log.Info("Next refresh scheduled", logger.Fields{
			"at":       next.Format(time.RFC3339),
			"in_hours": fmt.Sprintf("%.1f", delay.Hours()),
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.after(delay):
		}

		last = next
		s.runJob(ctx, job)
	}
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error("Scheduled job panicked", logger.Fields{"panic": fmt.Sprint(p)}, nil)
		}
	}()
	job(ctx)
}

// Daily is a shorthand for New followed by Run
func Daily(ctx context.Context, hour int, loc *time.Location, job Job, opts ...Option) error {
	s, err := New(hour, loc, opts...)
	if err != nil {
		return err
	}
	return s.Run(ctx, job)
}
