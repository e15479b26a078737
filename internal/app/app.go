// Package app assembles the contact pipeline shared by the web server and
// the admin CLI.
package app

import (
	"context"
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/toonarmycaptain/website/internal/mailer"
	"github.com/toonarmycaptain/website/internal/metrics"
	"github.com/toonarmycaptain/website/internal/services"
	"github.com/toonarmycaptain/website/internal/workers"
	"github.com/toonarmycaptain/website/pkg/config"
	"github.com/toonarmycaptain/website/pkg/database"
)

type App struct {
	Config   *config.Config
	Log      *logrus.Logger
	DB       *sql.DB
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	Store       *services.ContactStore
	Notifier    *services.NotificationService
	Submissions *services.SubmissionService
}

// New opens and migrates the database and wires the contact services.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	db, err := database.Init(ctx, cfg.Database.Path, database.SchemaParams{
		MessageMaxLength: cfg.Database.MessageMaxLength,
	}, log)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "contact"),
	)
	m := metrics.New(registry)

	store := services.NewContactStore(db, cfg.Database.MessageMaxLength, log)
	notifier := services.NewNotificationService(newTransport(cfg, log), store, cfg.Mail.Recipient, cfg.Notify.Timeout, log, m)

	return &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		Registry:    registry,
		Metrics:     m,
		Store:       store,
		Notifier:    notifier,
		Submissions: services.NewSubmissionService(store, notifier, log, m),
	}, nil
}

func newTransport(cfg *config.Config, log *logrus.Logger) services.Transport {
	if !cfg.MailEnabled() {
		log.Warn("Mail settings incomplete, contact notifications are disabled")
		return mailer.NewDisabledTransport(log)
	}
	return mailer.NewSMTPTransport(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.From, cfg.Mail.Password)
}

// RetryWorker returns the notification retry sweeper. Callers decide whether
// to run it; it requires a positive NOTIFY_RETRY_INTERVAL. It only picks up
// messages older than the notify timeout, so it never races the inline send.
func (a *App) RetryWorker() *workers.NotificationRetryWorker {
	return workers.NewNotificationRetryWorker("notification-retry-1", a.Store, a.Notifier,
		a.Config.Notify.RetryInterval, workers.RetryMinAge(a.Config.Notify.Timeout), a.Log)
}

func (a *App) Close() error {
	return a.DB.Close()
}
