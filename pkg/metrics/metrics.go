// Package metrics holds the prometheus counters for sign-in and account events.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dgbcommerce"

// Authentication outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// Account events.
const (
	EventRegister       = "register"
	EventActivate       = "activate"
	EventForgotPassword = "forgot_password"
	EventResetPassword  = "reset_password"
	EventChangePassword = "change_password"
)

// Metrics holds the service counters on a private registry.
type Metrics struct {
	registry      *prometheus.Registry
	authAttempts  *prometheus.CounterVec
	accountEvents *prometheus.CounterVec
}

// New creates the collectors and registers them along with Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Count of merchant authentication attempts by outcome.",
		}, []string{"outcome"}),
		accountEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_events_total",
			Help:      "Count of account lifecycle requests by event and outcome.",
		}, []string{"event", "outcome"}),
	}

	reg.MustRegister(
		m.authAttempts,
		m.accountEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// AuthAttempt counts one authentication attempt.
func (m *Metrics) AuthAttempt(outcome string) {
	m.authAttempts.WithLabelValues(outcome).Inc()
}

// AccountEvent counts one account lifecycle request.
func (m *Metrics) AccountEvent(event, outcome string) {
	m.accountEvents.WithLabelValues(event, outcome).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Outcome classifies an error returned by a service call. Client errors count
// as failures, anything that maps to a 5xx counts as an error.
func Outcome(err error, isClientError func(error) bool) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case isClientError(err):
		return OutcomeFailure
	default:
		return OutcomeError
	}
}
