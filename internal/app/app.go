// Package app wires the configured store, channels and job together for the
// server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hray3182/BillMe/internal/ai"
	"github.com/hray3182/BillMe/internal/config"
	"github.com/hray3182/BillMe/internal/database"
	"github.com/hray3182/BillMe/internal/metrics"
	"github.com/hray3182/BillMe/internal/notify"
	"github.com/hray3182/BillMe/internal/reminder"
	"github.com/hray3182/BillMe/internal/repository"
	"github.com/hray3182/BillMe/internal/repository/sqlite"
	"github.com/hray3182/BillMe/internal/scheduler"
)

type App struct {
	Config    *config.Config
	Store     repository.Store
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Job       *reminder.Job
	Scheduler *scheduler.Scheduler
	Extractor ai.Extractor // nil when no AI key is configured
}

// New opens the store and builds the reminder pipeline. The caller owns
// the returned App and must Close it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Open store
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Register metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Initialize push channel
	push := notify.NewPushDispatcher(
		notify.NewExpoClient(cfg.ExpoBaseURL, cfg.ExpoAccessToken, &http.Client{Timeout: cfg.CallTimeout}),
		cfg.PushChunkSize, cfg.CallTimeout, m,
	)

	// Initialize chat channel
	sinks, err := ChatSinks(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	chat := notify.NewChatDispatcher(sinks, cfg.ChatRatePerSec, cfg.CallTimeout, m)

	// Initialize job and scheduler
	job := reminder.NewJob(store, m, push, chat)

	sched, err := scheduler.New(job, cfg.CronSchedule, cfg.Location())
	if err != nil {
		store.Close()
		return nil, err
	}

	return &App{
		Config:    cfg,
		Store:     store,
		Registry:  reg,
		Metrics:   m,
		Job:       job,
		Scheduler: sched,
		Extractor: NewExtractor(cfg),
	}, nil
}

// NewExtractor returns nil when no AI key is configured.
func NewExtractor(cfg *config.Config) ai.Extractor {
	if cfg.AIAPIKey == "" {
		slog.Info("AI extractor not configured, bill extraction disabled")
		return nil
	}
	slog.Info("AI extractor initialized", "model", cfg.AIModel)
	return ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
}

func (a *App) Close() error {
	return a.Store.Close()
}

// OpenStore connects to the configured database and migrates it.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		store, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		slog.Info("Opened sqlite store", "path", cfg.SQLitePath)
		return store, nil

	case config.DriverPostgres:
		db, err := database.New(ctx, cfg.DatabaseURI)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("Connected to database")

		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		slog.Info("Database migrations completed")
		return repository.NewPostgresStore(db), nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}

// ChatSinks builds one sink per configured chat destination.
func ChatSinks(cfg *config.Config) ([]notify.ChatSink, error) {
	var sinks []notify.ChatSink

	if cfg.SlackWebhookURL != "" {
		sinks = append(sinks, notify.NewSlackWebhook(cfg.SlackWebhookURL, &http.Client{Timeout: cfg.CallTimeout}))
		slog.Info("Slack chat sink enabled")
	}

	if cfg.TelegramEnabled() {
		api, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramToken, tgbotapi.APIEndpoint, &http.Client{Timeout: cfg.CallTimeout})
		if err != nil {
			return nil, fmt.Errorf("failed to create Telegram API: %w", err)
		}
		sinks = append(sinks, notify.NewTelegramChat(api, cfg.TelegramChatID))
		slog.Info("Telegram chat sink enabled", "bot", api.Self.UserName, "chat_id", cfg.TelegramChatID)
	}

	return sinks, nil
}
