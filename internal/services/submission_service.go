package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/toonarmycaptain/website/internal/metrics"
	"github.com/toonarmycaptain/website/internal/models"
)

// ContactWriter persists a contact submission and returns the message ID.
type ContactWriter interface {
	StoreContact(ctx context.Context, name, email, message string) (int64, error)
}

// ContactNotifier tells the site owner about a stored message.
type ContactNotifier interface {
	SendContactEmail(ctx context.Context, messageID int64, contactEmail, contactName, messageBody string) error
}

// SubmissionService stores a contact submission and then notifies the site
// owner. The store write commits before notification starts, and the
// submission is accepted whatever the notification outcome.
type SubmissionService struct {
	store    ContactWriter
	notifier ContactNotifier
	validate *validator.Validate
	log      *logrus.Logger
	metrics  *metrics.Metrics
}

func NewSubmissionService(store ContactWriter, notifier ContactNotifier, log *logrus.Logger, m *metrics.Metrics) *SubmissionService {
	return &SubmissionService{
		store:    store,
		notifier: notifier,
		validate: validator.New(),
		log:      log,
		metrics:  m,
	}
}

// Submit stores the submission and sends the notification, returning the new
// message ID. Malformed name or email is models.ErrValidation; message length
// is left to the store, which reports models.ErrConstraintViolation.
func (s *SubmissionService) Submit(ctx context.Context, name, email, message string) (int64, error) {
	if err := s.checkSender(name, email); err != nil {
		s.metrics.ObserveSubmission(metrics.SubmissionInvalid)
		return 0, err
	}

	messageID, err := s.store.StoreContact(ctx, name, email, message)
	if err != nil {
		if errors.Is(err, models.ErrConstraintViolation) {
			s.metrics.ObserveSubmission(metrics.SubmissionRejected)
		} else {
			s.metrics.ObserveSubmission(metrics.SubmissionStoreError)
		}
		return 0, err
	}
	s.metrics.ObserveSubmission(metrics.SubmissionStored)

	// The message is durable from here on; a cancelled request must not
	// abort the notification.
	notifyCtx := context.WithoutCancel(ctx)
	if err := s.notifier.SendContactEmail(notifyCtx, messageID, email, name, message); err != nil {
		s.log.WithError(err).WithField("message_id", messageID).Warn("Notification bookkeeping failed")
	}

	return messageID, nil
}

func (s *SubmissionService) checkSender(name, email string) error {
	if err := s.validate.Var(name, "required,max=255"); err != nil {
		return fmt.Errorf("%w: name must be between 1 and 255 characters", models.ErrValidation)
	}
	if err := s.validate.Var(email, "required,email,max=255"); err != nil {
		return fmt.Errorf("%w: %q is not a valid email address", models.ErrValidation, email)
	}
	return nil
}
