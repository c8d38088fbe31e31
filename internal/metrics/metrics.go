// Package metrics exposes Prometheus counters for the lead API.
//
// Every method is safe to call on a nil *Metrics so components can run
// without instrumentation in tests.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "vdpulizie"

// Outcomes recorded for lead submissions.
const (
	OutcomeCreated  = "created"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// LabelInvalid replaces label values taken from rejected client input.
const LabelInvalid = "invalid"

// Notification results.
const (
	NotifyEnqueued = "enqueued"
	NotifySkipped  = "skipped"
	NotifyFailed   = "failed"
	NotifySent     = "sent"
)

type Metrics struct {
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	leadsTotal         *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	rateLimitedTotal   *prometheus.CounterVec
}

// New registers the collectors on reg, or on the default registerer when
// reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total handled API requests",
		}, []string{"handler", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of API handlers",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler"}),
		leadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Lead submissions by outcome",
		}, []string{"outcome", "service_type"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leads",
			Name:      "notifications_total",
			Help:      "Staff notifications by result",
		}, []string{"result"}),
		rateLimitedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}, []string{"path"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration, m.leadsTotal, m.notificationsTotal, m.rateLimitedTotal)
	return m
}

func (m *Metrics) ObserveRequest(handler string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(handler, statusClass(status)).Inc()
	m.requestDuration.WithLabelValues(handler).Observe(seconds)
}

// ObserveLead counts a submission. serviceType is empty for submissions
// rejected before a valid service type was known.
func (m *Metrics) ObserveLead(outcome, serviceType string) {
	if m == nil {
		return
	}
	m.leadsTotal.WithLabelValues(outcome, serviceType).Inc()
}

func (m *Metrics) ObserveNotification(result string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRateLimited(path string) {
	if m == nil {
		return
	}
	m.rateLimitedTotal.WithLabelValues(path).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
