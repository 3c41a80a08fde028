package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/hray3182/BillMe/internal/format"
	"github.com/hray3182/BillMe/internal/metrics"
	"github.com/hray3182/BillMe/internal/models"
)

const ChannelPush = "push"

type PushDispatcher struct {
	relay     PushRelay
	chunkSize int
	timeout   time.Duration
	metrics   *metrics.Metrics
}

// NewPushDispatcher clamps chunkSize to [1, MaxChunkSize].
func NewPushDispatcher(relay PushRelay, chunkSize int, timeout time.Duration, m *metrics.Metrics) *PushDispatcher {
	if chunkSize <= 0 || chunkSize > MaxChunkSize {
		chunkSize = MaxChunkSize
	}
	return &PushDispatcher{relay: relay, chunkSize: chunkSize, timeout: timeout, metrics: m}
}

// NewPushMessage builds the relay payload for one reminder.
func NewPushMessage(r models.BillReminder) PushMessage {
	return PushMessage{
		To:    r.PushToken,
		Title: format.PushTitle(r.DaysUntilDue),
		Body:  format.PushBody(r),
		Sound: "default",
		Data: map[string]string{
			"userId":  r.UserID,
			"dueDate": r.DueDateString(),
		},
	}
}

func (d *PushDispatcher) Dispatch(ctx context.Context, reminders []models.BillReminder) Report {
	report := Report{Channel: ChannelPush, Attempted: len(reminders)}

	messages := make([]PushMessage, 0, len(reminders))
	for _, r := range reminders {
		if !IsExpoPushToken(r.PushToken) {
			if r.PushToken == "" {
				slog.Debug("No push token registered, skipping push", "bill_id", r.BillID, "user_id", r.UserID)
			} else {
				slog.Warn("Invalid push token, skipping push", "bill_id", r.BillID, "user_id", r.UserID, "token", r.PushToken)
			}
			report.Skipped++
			continue
		}
		messages = append(messages, NewPushMessage(r))
	}
	d.metrics.ObservePush(metrics.OutcomeSkipped, report.Skipped)

	for i, chunk := range Chunk(messages, d.chunkSize) {
		report.Submissions++
		tickets, err := d.send(ctx, chunk)
		if err != nil {
			slog.Error("Failed to send push chunk", "chunk", i, "size", len(chunk), "error", err)
			report.Failed += len(chunk)
			d.metrics.ObservePushChunk(metrics.OutcomeFailed)
			d.metrics.ObservePush(metrics.OutcomeFailed, len(chunk))
			continue
		}
		d.metrics.ObservePushChunk(metrics.OutcomeDelivered)

		delivered, failed := 0, 0
		for j, msg := range chunk {
			if j < len(tickets) && !tickets[j].OK() {
				slog.Warn("Push relay rejected message", "to", msg.To, "message", tickets[j].Message, "details", tickets[j].Details)
				failed++
				continue
			}
			delivered++
		}
		report.Delivered += delivered
		report.Failed += failed
		d.metrics.ObservePush(metrics.OutcomeDelivered, delivered)
		d.metrics.ObservePush(metrics.OutcomeFailed, failed)
		slog.Info("Push chunk sent", "chunk", i, "size", len(chunk), "rejected", failed)
	}

	return report
}

func (d *PushDispatcher) send(ctx context.Context, chunk []PushMessage) ([]PushTicket, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	return d.relay.Send(ctx, chunk)
}

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 1
	}
	var chunks [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
