package workers

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/toonarmycaptain/website/internal/models"
)

const (
	DefaultRetryBatchSize = 50

	// DefaultRetryMinAge applies when sends have no timeout.
	DefaultRetryMinAge = 5 * time.Minute
	retryMinAgeMargin  = 30 * time.Second
)

// RetryMinAge is how old an unsent message must be before a retry pass may
// touch it: past the inline send's timeout, so both never send the same
// message.
func RetryMinAge(notifyTimeout time.Duration) time.Duration {
	if notifyTimeout <= 0 {
		return DefaultRetryMinAge
	}
	return notifyTimeout + retryMinAgeMargin
}

// UnsentSource lists stored messages whose notification email never went out.
type UnsentSource interface {
	UnnotifiedMessages(ctx context.Context, minAge time.Duration, limit int) ([]*models.Submission, error)
}

// ContactEmailer delivers the notification for one stored message.
type ContactEmailer interface {
	SendContactEmail(ctx context.Context, messageID int64, contactEmail, contactName, messageBody string) error
}

// NotificationRetryWorker periodically re-sends notification emails for
// messages still flagged as unsent.
type NotificationRetryWorker struct {
	*BaseWorker
	source    UnsentSource
	emailer   ContactEmailer
	interval  time.Duration
	minAge    time.Duration
	batchSize int
	log       *logrus.Logger
}

// NewNotificationRetryWorker creates a retry worker polling every interval.
// Messages younger than minAge are skipped.
func NewNotificationRetryWorker(workerID string, source UnsentSource, emailer ContactEmailer, interval, minAge time.Duration, log *logrus.Logger) *NotificationRetryWorker {
	return &NotificationRetryWorker{
		BaseWorker: NewBaseWorker(workerID),
		source:     source,
		emailer:    emailer,
		interval:   interval,
		minAge:     minAge,
		batchSize:  DefaultRetryBatchSize,
		log:        log,
	}
}

// Start runs a retry pass every interval until stopped
func (w *NotificationRetryWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return errors.New("retry interval must be positive")
	}

	w.setRunning(true)
	defer w.setRunning(false)

	entry := w.log.WithField("worker_id", w.WorkerID)
	entry.WithField("interval", w.interval.String()).Info("Notification retry worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			entry.Info("Notification retry worker stopping due to context cancellation")
			return ctx.Err()
		case <-w.StopChan:
			entry.Info("Notification retry worker stopping")
			return nil
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				entry.WithError(err).Error("Notification retry pass failed")
			}
		}
	}
}

// RunOnce attempts delivery for up to one batch of unsent messages, oldest
// first, and returns how many were attempted. Delivery failures leave the
// message unsent for the next pass.
func (w *NotificationRetryWorker) RunOnce(ctx context.Context) (int, error) {
	pending, err := w.source.UnnotifiedMessages(ctx, w.minAge, w.batchSize)
	if err != nil {
		return 0, err
	}

	attempted := 0
	for _, sub := range pending {
		if ctx.Err() != nil {
			return attempted, ctx.Err()
		}
		attempted++
		if err := w.emailer.SendContactEmail(ctx, sub.Message.ID, sub.Person.Email, sub.Person.Name, sub.Message.Contents); err != nil {
			w.log.WithError(err).WithField("message_id", sub.Message.ID).Error("Failed to record retried notification")
		}
	}

	if attempted > 0 {
		w.log.WithFields(logrus.Fields{
			"worker_id": w.WorkerID,
			"attempted": attempted,
		}).Info("Notification retry pass complete")
	}
	return attempted, nil
}
