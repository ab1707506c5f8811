package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// Methods are safe to call on a nil *Metrics.
type Metrics struct {
	AdmissionDecisions *prometheus.CounterVec
	AuthFailures       *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AdmissionDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_admission_decisions_total",
			Help: "Total number of bot-defense admission decisions by outcome",
		}, []string{"outcome"}),
		AuthFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_auth_failures_total",
			Help: "Total number of rejected bearer credentials by reason",
		}, []string{"reason"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_http_requests_total",
			Help: "Total number of HTTP requests served",
		}, []string{"method", "route", "status"}),
	}
}

// IncrementAdmissionDecision counts one admission decision.
func (m *Metrics) IncrementAdmissionDecision(outcome string) {
	if m == nil {
		return
	}
	m.AdmissionDecisions.WithLabelValues(outcome).Inc()
}

// IncrementAuthFailure counts one rejected credential.
func (m *Metrics) IncrementAuthFailure(reason string) {
	if m == nil {
		return
	}
	m.AuthFailures.WithLabelValues(reason).Inc()
}

// ObserveRequest counts one served request.
func (m *Metrics) ObserveRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
