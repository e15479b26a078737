package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/toonarmycaptain/website/internal/metrics"
	"github.com/toonarmycaptain/website/internal/models"
)

// Transport delivers a notification to a recipient.
type Transport interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// EmailSentMarker is the one write the notification service may make.
type EmailSentMarker interface {
	MarkEmailSent(ctx context.Context, messageID int64) error
}

// NotificationService forwards stored contact messages to the site owner
type NotificationService struct {
	transport Transport
	store     EmailSentMarker
	recipient string
	timeout   time.Duration
	log       *logrus.Logger
	metrics   *metrics.Metrics
}

func NewNotificationService(transport Transport, store EmailSentMarker, recipient string, timeout time.Duration, log *logrus.Logger, m *metrics.Metrics) *NotificationService {
	return &NotificationService{
		transport: transport,
		store:     store,
		recipient: recipient,
		timeout:   timeout,
		log:       log,
		metrics:   m,
	}
}

// ComposeNotification builds the subject and body for a contact message.
func ComposeNotification(contactEmail, contactName, messageBody string) (subject, body string) {
	subject = fmt.Sprintf("Contact from %s", contactName)
	body = fmt.Sprintf("%s\n\nfrom %s\n%s", messageBody, contactName, contactEmail)
	return subject, body
}

// SendContactEmail notifies the site owner about a stored message and then
// marks the message as emailed. Delivery failures are logged and swallowed:
// the message stays stored with email_sent unset. The returned error is only
// ever a failure to record a successful delivery.
func (s *NotificationService) SendContactEmail(ctx context.Context, messageID int64, contactEmail, contactName, messageBody string) error {
	entry := s.log.WithField("message_id", messageID)
	subject, body := ComposeNotification(contactEmail, contactName, messageBody)

	sendCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.transport.Send(sendCtx, s.recipient, subject, body); err != nil {
		s.metrics.ObserveNotification(metrics.NotificationFailed, time.Since(start).Seconds())
		entry.WithError(fmt.Errorf("%w: %v", models.ErrNotificationDelivery, err)).Error("Failed to send contact email")
		return nil
	}
	elapsed := time.Since(start).Seconds()

	if err := s.store.MarkEmailSent(ctx, messageID); err != nil {
		s.metrics.ObserveNotification(metrics.NotificationMarkFailed, elapsed)
		entry.WithError(err).Error("Contact email sent but not recorded")
		return err
	}

	s.metrics.ObserveNotification(metrics.NotificationSent, elapsed)
	entry.Info("Contact email sent")
	return nil
}
