package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toonarmycaptain/website/internal/metrics"
	"github.com/toonarmycaptain/website/internal/models"
)

func newTestPipeline(t *testing.T, transport Transport, maxLength int) (*SubmissionService, *ContactStore, *sql.DB, *metrics.Metrics) {
	t.Helper()
	store, db := newTestStore(t, maxLength)
	m := metrics.New(prometheus.NewRegistry())
	notifier := NewNotificationService(transport, store, "owner@site.tld", time.Second, discardLogger(), m)
	return NewSubmissionService(store, notifier, discardLogger(), m), store, db, m
}

func TestSubmitEndToEnd(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{}
	submissions, store, db, m := newTestPipeline(t, transport, testMessageMaxLength)

	messageID, err := submissions.Submit(ctx, "Sir Lancelot", "contact@host.tld", "Some amusing message.")
	require.NoError(t, err)

	person, err := store.GetPersonByEmail(ctx, "contact@host.tld")
	require.NoError(t, err)
	assert.Equal(t, "Sir Lancelot", person.Name)
	assert.Nil(t, person.AlternateNames)

	message, err := store.GetMessage(ctx, messageID)
	require.NoError(t, err)
	assert.Equal(t, person.ID, message.PersonID)
	assert.Equal(t, "Some amusing message.", message.Contents)
	assert.True(t, message.EmailSent)
	assert.False(t, message.SMSSent)

	var people, messages int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM person`).Scan(&people))
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM message`).Scan(&messages))
	assert.Equal(t, 1, people)
	assert.Equal(t, 1, messages)

	require.Len(t, transport.sent, 1)
	assert.Equal(t, "Contact from Sir Lancelot", transport.sent[0].subject)
	assert.Equal(t, "Some amusing message.\n\nfrom Sir Lancelot\ncontact@host.tld", transport.sent[0].body)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubmissionsTotal.WithLabelValues(metrics.SubmissionStored)))
}

func TestSubmitWithFailingTransport(t *testing.T) {
	ctx := context.Background()
	transport := &fakeTransport{err: errors.New("connection refused")}
	submissions, store, _, _ := newTestPipeline(t, transport, testMessageMaxLength)

	messageID, err := submissions.Submit(ctx, "Sir Lancelot", "contact@host.tld", "Some amusing message.")
	require.NoError(t, err)
	assert.NotZero(t, messageID)

	message, err := store.GetMessage(ctx, messageID)
	require.NoError(t, err)
	assert.False(t, message.EmailSent)
	assert.Equal(t, "Some amusing message.", message.Contents)
}

func TestSubmitValidation(t *testing.T) {
	testCases := []struct {
		name        string
		contactName string
		email       string
		message     string
		expected    error
	}{
		{"Empty name", "", "contact@host.tld", "hello", models.ErrValidation},
		{"Oversized name", strings.Repeat("n", 256), "contact@host.tld", "hello", models.ErrValidation},
		{"Malformed email", "Sir Lancelot", "not-an-email", "hello", models.ErrValidation},
		{"Empty message", "Sir Lancelot", "contact@host.tld", "", models.ErrConstraintViolation},
		{"Oversized message", "Sir Lancelot", "contact@host.tld", strings.Repeat("m", 101), models.ErrConstraintViolation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			transport := &fakeTransport{}
			submissions, _, db, _ := newTestPipeline(t, transport, 100)

			_, err := submissions.Submit(ctx, tc.contactName, tc.email, tc.message)
			assert.ErrorIs(t, err, tc.expected)
			assert.Empty(t, transport.sent)

			var people int
			require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM person`).Scan(&people))
			assert.Zero(t, people)
		})
	}
}

type cancelCheckingNotifier struct {
	ctxErr error
	called bool
}

func (n *cancelCheckingNotifier) SendContactEmail(ctx context.Context, messageID int64, contactEmail, contactName, messageBody string) error {
	n.called = true
	n.ctxErr = ctx.Err()
	return nil
}

func TestSubmitNotifiesDespiteCancelledRequest(t *testing.T) {
	store, _ := newTestStore(t, testMessageMaxLength)
	notifier := &cancelCheckingNotifier{}
	submissions := NewSubmissionService(store, notifier, discardLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	// The request is cancelled right after the store commits.
	wrapped := &cancelAfterStore{ContactWriter: store, cancel: cancel}
	submissions.store = wrapped

	_, err := submissions.Submit(ctx, "Sir Lancelot", "contact@host.tld", "hello there")
	require.NoError(t, err)
	assert.True(t, notifier.called)
	assert.NoError(t, notifier.ctxErr)
}

type cancelAfterStore struct {
	ContactWriter
	cancel context.CancelFunc
}

func (c *cancelAfterStore) StoreContact(ctx context.Context, name, email, message string) (int64, error) {
	id, err := c.ContactWriter.StoreContact(ctx, name, email, message)
	c.cancel()
	return id, err
}

type erroringNotifier struct{}

func (erroringNotifier) SendContactEmail(ctx context.Context, messageID int64, contactEmail, contactName, messageBody string) error {
	return models.ErrNotFound
}

func TestSubmitIgnoresNotifierBookkeepingError(t *testing.T) {
	store, _ := newTestStore(t, testMessageMaxLength)
	submissions := NewSubmissionService(store, erroringNotifier{}, discardLogger(), nil)

	messageID, err := submissions.Submit(context.Background(), "Sir Lancelot", "contact@host.tld", "hello there")
	require.NoError(t, err)
	assert.NotZero(t, messageID)
}
