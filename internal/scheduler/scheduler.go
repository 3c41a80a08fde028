package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/hray3182/BillMe/internal/models"
	"github.com/hray3182/BillMe/internal/reminder"
)

// Runner runs one reminder pass for a calendar day.
type Runner interface {
	Run(ctx context.Context, today time.Time) (*reminder.Result, error)
}

type Scheduler struct {
	job      Runner
	spec     string
	loc      *time.Location
	parser   cron.Parser
	now      func() time.Time
	notifyCh chan struct{}
	group    singleflight.Group
}

// New validates spec up front. An empty spec disables the daily trigger;
// Notify and Run still work.
func New(job Runner, spec string, loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		job:      job,
		spec:     spec,
		loc:      loc,
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		now:      time.Now,
		notifyCh: make(chan struct{}, 1),
	}
	if spec != "" {
		if _, err := s.parser.Parse(spec); err != nil {
			return nil, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
		}
	}
	return s, nil
}

// Today is the current calendar date in the scheduler's timezone.
func (s *Scheduler) Today() time.Time {
	return reminder.Today(s.now(), s.loc)
}

// Notify triggers an immediate run. Non-blocking if a run is already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// Start blocks until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	c := cron.New(cron.WithParser(s.parser), cron.WithLocation(s.loc))
	if s.spec != "" {
		if _, err := c.AddFunc(s.spec, s.Notify); err != nil {
			slog.Error("Failed to register cron schedule", "schedule", s.spec, "error", err)
			return
		}
	}
	c.Start()
	slog.Info("Scheduler started", "schedule", s.spec, "tz", s.loc.String())

	for {
		select {
		case <-ctx.Done():
			<-c.Stop().Done()
			slog.Info("Scheduler stopped")
			return
		case <-s.notifyCh:
			today := s.Today()
			slog.Info("Scheduler triggered", "today", today.Format(models.DateLayout))
			if _, err := s.Run(ctx, today); err != nil {
				slog.Error("Reminder job failed", "error", err)
			}
		}
	}
}

// Run executes the job for today. Concurrent calls for the same day share
// one run and its result. The shared run is detached from the caller's
// cancellation so one caller leaving does not abort it for the others.
func (s *Scheduler) Run(ctx context.Context, today time.Time) (*reminder.Result, error) {
	key := reminder.DateOf(today).Format(models.DateLayout)

	ch := s.group.DoChan(key, func() (any, error) {
		return s.job.Run(context.WithoutCancel(ctx), today)
	})

	select {
	case res := <-ch:
		if res.Shared {
			slog.Debug("Joined in-flight reminder run", "today", key)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*reminder.Result), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
