package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "travel_planner"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by route, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	itinerariesGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "itineraries_generated_total",
			Help:      "Count of generated itineraries by source (ai or fallback).",
		},
		[]string{"source"},
	)

	bookingAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_attempts_total",
			Help:      "Count of booking attempts by type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	bookingCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_cancellations_total",
			Help:      "Count of cancellation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Count of payment and refund attempts by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

// Register registers metrics with the default registry (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, itinerariesGenerated, bookingAttempts, bookingCancelled, payments)
	})
}

func ObserveHTTP(route, method, status string, seconds float64) {
	httpRequests.WithLabelValues(route, method, status).Inc()
	httpDuration.WithLabelValues(route, method).Observe(seconds)
}

func IncItineraries(source string, n int) {
	itinerariesGenerated.WithLabelValues(source).Add(float64(n))
}

func IncBooking(bookingType string, success bool) {
	bookingAttempts.WithLabelValues(bookingType, outcome(success)).Inc()
}

func IncCancellation(success bool) {
	bookingCancelled.WithLabelValues(outcome(success)).Inc()
}

func IncPayment(kind string, success bool) {
	payments.WithLabelValues(kind, outcome(success)).Inc()
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
