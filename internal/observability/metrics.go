package observability

import (
	"io"
	"net/http"
	"time"
)

// Domain event names counted by Metrics.IncEvent.
const (
	EventEnrolled           = "enrolled"
	EventTaskCompleted      = "task_completed"
	EventSubmissionCreated  = "submission_created"
	EventSubmissionReviewed = "submission_reviewed"
	EventCertificateViewed  = "certificate_viewed"
	EventCurriculumImported = "curriculum_imported"
)

type Metrics struct {
	apiRequests      *CounterVec
	apiLatency       *HistogramVec
	apiInflight      *Gauge
	events           *CounterVec
	reconcileRuns    *CounterVec
	reconcileUpdated *CounterVec
	reconcileLatency *HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("certifytrack_api_requests_total", "HTTP requests by route and status.",
			"method", "route", "status"),
		apiLatency: NewHistogramVec("certifytrack_api_request_seconds", "HTTP request latency.", nil,
			"method", "route"),
		apiInflight: NewGauge("certifytrack_api_inflight_requests", "HTTP requests currently being served."),
		events: NewCounterVec("certifytrack_events_total", "Learning events by kind.", "event"),
		reconcileRuns: NewCounterVec("certifytrack_progress_reconcile_runs_total", "Progress reconcile passes.",
			"status"),
		reconcileUpdated: NewCounterVec("certifytrack_progress_reconcile_updated_total",
			"Enrollments whose stored progress was rewritten by reconcile."),
		reconcileLatency: NewHistogramVec("certifytrack_progress_reconcile_seconds", "Progress reconcile duration.",
			[]float64{0.1, 0.5, 1, 5, 15, 60, 240}),
	}
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) APIInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) IncEvent(event string) {
	if m != nil {
		m.events.Inc(event)
	}
}

func (m *Metrics) EventCount(event string) float64 {
	if m == nil {
		return 0
	}
	return m.events.Value(event)
}

// ObserveReconcile records one progress reconcile pass.
func (m *Metrics) ObserveReconcile(updated int, err error, dur time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.reconcileRuns.Inc(status)
	m.reconcileUpdated.Add(float64(updated))
	m.reconcileLatency.Observe(dur.Seconds())
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	type writer interface{ WritePrometheus(io.Writer) error }
	for _, c := range []writer{
		m.apiRequests, m.apiLatency, m.apiInflight, m.events,
		m.reconcileRuns, m.reconcileUpdated, m.reconcileLatency,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

// ServeHTTP serves the exposition text.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}
