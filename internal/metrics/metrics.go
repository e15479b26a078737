package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes
const (
	SubmissionStored     = "stored"
	SubmissionInvalid    = "invalid"
	SubmissionRejected   = "rejected"
	SubmissionStoreError = "error"
)

// Notification outcomes
const (
	NotificationSent       = "sent"
	NotificationFailed     = "failed"
	NotificationMarkFailed = "mark_failed"
)

// Metrics holds the Prometheus collectors for the contact pipeline.
// A nil *Metrics is valid and records nothing.
//
// Metrics:
//   - contact_submissions_total{outcome} - form submissions by outcome
//   - contact_notifications_total{outcome} - notification attempts by outcome
//   - contact_notification_duration_seconds - transport send latency
type Metrics struct {
	SubmissionsTotal     *prometheus.CounterVec
	NotificationsTotal   *prometheus.CounterVec
	NotificationDuration prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SubmissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_submissions_total",
				Help: "Total number of contact form submissions by outcome",
			},
			[]string{"outcome"},
		),
		NotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_notifications_total",
				Help: "Total number of contact notification attempts by outcome",
			},
			[]string{"outcome"},
		),
		NotificationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "contact_notification_duration_seconds",
				Help:    "Time spent handing a notification to the mail transport",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
		),
	}
}

func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveNotification(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(outcome).Inc()
	if outcome != NotificationMarkFailed {
		m.NotificationDuration.Observe(seconds)
	}
}
