package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hray3182/BillMe/internal/config"
)

func sqliteConfig(t *testing.T) *config.Config {
	return &config.Config{
		DatabaseDriver: config.DriverSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "app.db"),
		Timezone:       "UTC",
		CronSchedule:   "0 9 * * *",
		ExpoBaseURL:    "http://127.0.0.1:1",
		PushChunkSize:  100,
		CallTimeout:    time.Second,
	}
}

func TestNewWithSQLite(t *testing.T) {
	a, err := New(context.Background(), sqliteConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.Job == nil || a.Scheduler == nil || a.Metrics == nil {
		t.Fatalf("incomplete app %+v", a)
	}
	if a.Extractor != nil {
		t.Error("extractor should be disabled without an AI key")
	}

	// an empty database runs cleanly without touching the network
	res, err := a.Job.Run(context.Background(), time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Count != 0 {
		t.Errorf("expected no reminders, got %+v", res)
	}
}

func TestNewRejectsBadSchedule(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.CronSchedule = "every day"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected error for invalid cron schedule")
	}
}

func TestChatSinks(t *testing.T) {
	cfg := sqliteConfig(t)

	sinks, err := ChatSinks(cfg)
	if err != nil || len(sinks) != 0 {
		t.Fatalf("expected no sinks, got %v, %v", sinks, err)
	}

	cfg.SlackWebhookURL = "https://hooks.slack.com/services/T/B/X"
	sinks, err = ChatSinks(cfg)
	if err != nil || len(sinks) != 1 || sinks[0].Name() != "slack" {
		t.Fatalf("expected the slack sink, got %v, %v", sinks, err)
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	if _, err := OpenStore(context.Background(), &config.Config{DatabaseDriver: "mysql"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}
