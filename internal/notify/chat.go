package notify

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/hray3182/BillMe/internal/metrics"
	"github.com/hray3182/BillMe/internal/models"
)

const ChannelChat = "chat"

// ChatSink is one chat destination.
type ChatSink interface {
	Name() string
	Post(ctx context.Context, r models.BillReminder) error
}

type ChatDispatcher struct {
	sinks   []ChatSink
	limiter *rate.Limiter
	timeout time.Duration
	metrics *metrics.Metrics
}

// NewChatDispatcher paces posts at perSecond across all sinks. A
// non-positive rate disables pacing.
func NewChatDispatcher(sinks []ChatSink, perSecond float64, timeout time.Duration, m *metrics.Metrics) *ChatDispatcher {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &ChatDispatcher{
		sinks:   sinks,
		limiter: rate.NewLimiter(limit, 1),
		timeout: timeout,
		metrics: m,
	}
}

func (d *ChatDispatcher) Dispatch(ctx context.Context, reminders []models.BillReminder) Report {
	report := Report{Channel: ChannelChat, Attempted: len(reminders)}

	if len(d.sinks) == 0 {
		slog.Info("No chat sink configured, skipping chat notifications", "reminders", len(reminders))
		report.Skipped = len(reminders)
		return report
	}

	for _, r := range reminders {
		for _, sink := range d.sinks {
			report.Submissions++
			if err := d.post(ctx, sink, r); err != nil {
				slog.Error("Failed to post chat reminder", "sink", sink.Name(), "bill_id", r.BillID, "error", err)
				report.Failed++
				d.metrics.ObserveChat(sink.Name(), metrics.OutcomeFailed)
				continue
			}
			report.Delivered++
			d.metrics.ObserveChat(sink.Name(), metrics.OutcomeDelivered)
		}
	}

	return report
}

// post waits for pacing on the parent context so only the outbound call
// is bounded by the timeout.
func (d *ChatDispatcher) post(ctx context.Context, sink ChatSink, r models.BillReminder) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	return sink.Post(ctx, r)
}
