package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Attempt outcomes reported by the completion client.
const (
	OutcomeSuccess        = "success"
	OutcomeRateLimited    = "rate_limited"
	OutcomeTimeout        = "timeout"
	OutcomeTransportError = "transport_error"
	OutcomeHTTPError      = "http_error"
	OutcomeEmpty          = "empty"
)

// Metrics holds all application metrics
type Metrics struct {
	// Completion client metrics
	CompletionAttempts *prometheus.CounterVec
	CompletionResults  *prometheus.CounterVec
	CompletionLatency  prometheus.Histogram

	// Assistant metrics
	AssistantResponses *prometheus.CounterVec

	// Event publishing metrics
	EventsPublished *prometheus.CounterVec
	EventsDelivered *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics on reg.
// A nil reg registers on the default prometheus registry.
func NewMetrics(namespace, subsystem string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CompletionAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "completion_attempts_total",
			Help:      "Total number of completion HTTP attempts by outcome",
		}, []string{"outcome"}),
		CompletionResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "completion_results_total",
			Help:      "Total number of completion calls by final result",
		}, []string{"result"}),
		CompletionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "completion_duration_seconds",
			Help:      "Time spent in a completion call including retries",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		AssistantResponses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "assistant_responses_total",
			Help:      "Total number of assistant responses by operation and source",
		}, []string{"operation", "source"}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_published_total",
			Help:      "Total number of assistant events handed to the publisher",
		}, []string{"status"}),
		EventsDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_delivered_total",
			Help:      "Total number of events delivered to the broker",
		}, []string{"status"}),
	}
}

// ObserveAttempt counts a single completion attempt.
func (m *Metrics) ObserveAttempt(outcome string) {
	if m == nil {
		return
	}
	m.CompletionAttempts.WithLabelValues(outcome).Inc()
}

// ObserveResult counts a finished completion call and its duration.
func (m *Metrics) ObserveResult(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CompletionResults.WithLabelValues(result).Inc()
	m.CompletionLatency.Observe(elapsed.Seconds())
}

// ObserveResponse counts an assistant response.
func (m *Metrics) ObserveResponse(operation, source string) {
	if m == nil {
		return
	}
	m.AssistantResponses.WithLabelValues(operation, source).Inc()
}

// ObservePublish counts an event handed to the publisher.
func (m *Metrics) ObservePublish(err error) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(status(err)).Inc()
}

// ObserveDelivery counts an event sent to the broker after retries.
func (m *Metrics) ObserveDelivery(err error) {
	if m == nil {
		return
	}
	m.EventsDelivered.WithLabelValues(status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
