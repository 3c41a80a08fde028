// Package metrics holds the Prometheus collectors of the reminder job.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "billme"

// Job results.
const (
	ResultOK    = "ok"
	ResultEmpty = "empty"
	ResultError = "error"
)

// Delivery outcomes.
const (
	OutcomeDelivered = "delivered"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

type Metrics struct {
	jobRuns     *prometheus.CounterVec
	jobDuration prometheus.Histogram
	candidates  prometheus.Gauge
	push        *prometheus.CounterVec
	pushChunks  *prometheus.CounterVec
	chat        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_job_runs_total",
			Help:      "Reminder job runs by result.",
		}, []string{"result"}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reminder_job_duration_seconds",
			Help:      "Wall time of a reminder job run.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		candidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reminder_job_candidates",
			Help:      "Reminders built by the last job run.",
		}),
		push: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_messages_total",
			Help:      "Push messages by outcome.",
		}, []string{"outcome"}),
		pushChunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_chunks_total",
			Help:      "Push relay submissions by outcome.",
		}, []string{"outcome"}),
		chat: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Chat messages by sink and outcome.",
		}, []string{"sink", "outcome"}),
	}
	reg.MustRegister(m.jobRuns, m.jobDuration, m.candidates, m.push, m.pushChunks, m.chat)
	return m
}

func (m *Metrics) ObserveJob(result string, candidates int, took time.Duration) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(result).Inc()
	m.jobDuration.Observe(took.Seconds())
	if result != ResultError {
		m.candidates.Set(float64(candidates))
	}
}

func (m *Metrics) ObservePush(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.push.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) ObservePushChunk(outcome string) {
	if m == nil {
		return
	}
	m.pushChunks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveChat(sink, outcome string) {
	if m == nil {
		return
	}
	m.chat.WithLabelValues(sink, outcome).Inc()
}
