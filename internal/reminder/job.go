package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/hray3182/BillMe/internal/metrics"
	"github.com/hray3182/BillMe/internal/models"
	"github.com/hray3182/BillMe/internal/notify"
)

var (
	NoBillsMessage = fmt.Sprintf("No bills due within %d days", WindowDays)
	SentMessage    = "Reminders sent"
)

// UnknownChannel labels the report of a dispatcher that panicked.
const UnknownChannel = "unknown"

// Source is the window query of the bill store.
type Source interface {
	DueBills(ctx context.Context, from, to time.Time) ([]*models.DueBill, error)
}

// Dispatcher is one notification channel. Dispatch is best effort and
// reports its outcome instead of failing.
type Dispatcher interface {
	Dispatch(ctx context.Context, reminders []models.BillReminder) notify.Report
}

type BillSummary struct {
	Description  string  `json:"description"`
	Balance      float64 `json:"balance"`
	DueDate      string  `json:"dueDate"`
	DaysUntilDue int     `json:"daysUntilDue"`
}

type Result struct {
	Message string        `json:"message"`
	Count   int           `json:"count"`
	Bills   []BillSummary `json:"bills"`

	Reports []notify.Report `json:"-"`
}

type Job struct {
	source   Source
	channels []Dispatcher
	metrics  *metrics.Metrics
}

func NewJob(source Source, m *metrics.Metrics, channels ...Dispatcher) *Job {
	return &Job{source: source, channels: channels, metrics: m}
}

// Run performs one pass: select, build, dispatch on every channel
// concurrently, summarize. Only a failing window query is returned as an
// error; delivery problems end up in the logs and reports.
func (j *Job) Run(ctx context.Context, today time.Time) (*Result, error) {
	start := time.Now()
	today = DateOf(today)
	w := WindowAround(today)

	slog.Info("Checking for bills in reminder window",
		"today", today.Format(models.DateLayout),
		"from", w.From.Format(models.DateLayout),
		"to", w.To.Format(models.DateLayout),
	)

	rows, err := j.source.DueBills(ctx, w.From, w.To)
	if err != nil {
		j.metrics.ObserveJob(metrics.ResultError, 0, time.Since(start))
		return nil, fmt.Errorf("failed to select due bills: %w", err)
	}

	reminders := BuildReminders(rows, today)
	slog.Info("Found bills in reminder window", "rows", len(rows), "reminders", len(reminders))

	if len(reminders) == 0 {
		j.metrics.ObserveJob(metrics.ResultEmpty, 0, time.Since(start))
		return &Result{Message: NoBillsMessage, Count: 0, Bills: []BillSummary{}}, nil
	}

	reports := j.dispatch(ctx, reminders)
	for _, r := range reports {
		slog.Info("Channel dispatch finished",
			"channel", r.Channel,
			"attempted", r.Attempted,
			"delivered", r.Delivered,
			"skipped", r.Skipped,
			"failed", r.Failed,
		)
	}

	j.metrics.ObserveJob(metrics.ResultOK, len(reminders), time.Since(start))
	return &Result{
		Message: SentMessage,
		Count:   len(reminders),
		Bills:   summarize(reminders),
		Reports: reports,
	}, nil
}

func (j *Job) dispatch(ctx context.Context, reminders []models.BillReminder) []notify.Report {
	reports := make([]notify.Report, len(j.channels))

	var wg sync.WaitGroup
	for i, ch := range j.channels {
		own := slices.Clone(reminders)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					slog.Error("Dispatcher panicked", "index", i, "panic", p)
					reports[i] = notify.Report{
						Channel:   UnknownChannel,
						Attempted: len(own),
						Failed:    len(own),
					}
				}
			}()
			reports[i] = ch.Dispatch(ctx, own)
		}()
	}
	wg.Wait()

	return reports
}

func summarize(reminders []models.BillReminder) []BillSummary {
	bills := make([]BillSummary, len(reminders))
	for i, r := range reminders {
		bills[i] = BillSummary{
			Description:  r.BillDescription,
			Balance:      r.Balance.InexactFloat64(),
			DueDate:      r.DueDateString(),
			DaysUntilDue: r.DaysUntilDue,
		}
	}
	return bills
}
