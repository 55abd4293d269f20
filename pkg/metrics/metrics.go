// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// InboundMessagesTotal tracks inbound customer messages by intake source.
	InboundMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbound_messages_total",
			Help: "Total inbound customer messages processed",
		},
		[]string{"source"},
	)

	// AutoResponsesTotal tracks automated replies by kind (keyword, out_of_hours).
	AutoResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auto_responses_total",
			Help: "Total automated replies sent",
		},
		[]string{"kind"},
	)

	// HandoffsTotal tracks conversations flagged for a human operator.
	HandoffsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "handoffs_total",
			Help: "Total conversations flagged for human handoff",
		},
	)

	// ConversationsCreatedTotal tracks new conversations opened by the resolver.
	ConversationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conversations_created_total",
			Help: "Total conversations created",
		},
	)

	// DeliveryFailuresTotal tracks outbound send failures.
	DeliveryFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "delivery_failures_total",
			Help: "Total outbound delivery failures",
		},
	)

	// MatchDuration tracks keyword matching latency.
	MatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "keyword_match_duration_seconds",
			Help:    "Keyword matcher latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}
