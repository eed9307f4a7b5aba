package metrics

import "github.com/prometheus/client_golang/prometheus"

// APIMetrics exposes counters/histograms for calls to the Carely backend.
type APIMetrics struct {
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	unauthorized   prometheus.Counter
}

func NewAPIMetrics(reg prometheus.Registerer) *APIMetrics {
	m := &APIMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carely",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total requests sent to the Carely API",
		}, []string{"method", "group", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carely",
			Subsystem: "api",
			Name:      "request_latency_seconds",
			Help:      "Latency of Carely API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"group"}),
		unauthorized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "carely",
			Subsystem: "api",
			Name:      "unauthorized_total",
			Help:      "Responses that forced a session logout",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency, m.unauthorized)
	return m
}

// ObserveRequest records one completed request. status is the HTTP code
// as text, or "error" when no response arrived.
func (m *APIMetrics) ObserveRequest(method, group, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, group, status).Inc()
	m.requestLatency.WithLabelValues(group).Observe(seconds)
}

func (m *APIMetrics) ObserveUnauthorized() {
	if m == nil {
		return
	}
	m.unauthorized.Inc()
}

// BookingMetrics counts booking composer submissions by outcome.
type BookingMetrics struct {
	submissions *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carely",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Booking submissions by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissions)
	return m
}

func (m *BookingMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}
