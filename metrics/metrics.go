// Package metrics exposes Prometheus counters for the passwordless engine.
//
// All metrics live in a private registry so embedding applications never
// collide with the process-global default. A nil *Metrics is a valid
// no-op recorder; every method tolerates it, which lets callers disable
// instrumentation by simply not creating one.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter the engine records.
type Metrics struct {
	OTPIssued          prometheus.Counter
	OTPVerifications   *prometheus.CounterVec
	TokensIssued       *prometheus.CounterVec
	TokenRefreshes     *prometheus.CounterVec
	RateLimitDecisions *prometheus.CounterVec
	SessionsCreated    prometheus.Counter
	SessionsEnded      *prometheus.CounterVec
	StoreTransitions   *prometheus.CounterVec
	StoreConnected     prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		OTPIssued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gopasswordless_otp_issued_total",
				Help: "One-time passwords generated and handed to the mailer.",
			},
		),
		OTPVerifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gopasswordless_otp_verifications_total",
				Help: "OTP verification attempts by result.",
			},
			[]string{"result"},
		),
		TokensIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gopasswordless_tokens_issued_total",
				Help: "JWTs signed by token type.",
			},
			[]string{"type"},
		),
		TokenRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gopasswordless_token_refreshes_total",
				Help: "Refresh-token exchanges by result.",
			},
			[]string{"result"},
		),
		RateLimitDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gopasswordless_rate_limit_decisions_total",
				Help: "Rate limiter verdicts by operation and decision.",
			},
			[]string{"operation", "decision"},
		),
		SessionsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gopasswordless_sessions_created_total",
				Help: "Sessions opened after successful OTP verification.",
			},
		),
		SessionsEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gopasswordless_sessions_ended_total",
				Help: "Sessions removed by reason.",
			},
			[]string{"reason"},
		),
		StoreTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gopasswordless_store_transitions_total",
				Help: "Key-value store connectivity transitions by target state.",
			},
			[]string{"to"},
		),
		StoreConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gopasswordless_store_connected",
				Help: "1 while the key-value store is served by Redis, 0 on the memory fallback.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.OTPIssued)
	reg.MustRegister(m.OTPVerifications)
	reg.MustRegister(m.TokensIssued)
	reg.MustRegister(m.TokenRefreshes)
	reg.MustRegister(m.RateLimitDecisions)
	reg.MustRegister(m.SessionsCreated)
	reg.MustRegister(m.SessionsEnded)
	reg.MustRegister(m.StoreTransitions)
	reg.MustRegister(m.StoreConnected)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordOTPIssued counts a generated one-time password.
func (m *Metrics) RecordOTPIssued() {
	if m == nil {
		return
	}
	m.OTPIssued.Inc()
}

// RecordOTPVerification counts a verification attempt. result is "success",
// "failure", or "rate_limited".
func (m *Metrics) RecordOTPVerification(result string) {
	if m == nil {
		return
	}
	m.OTPVerifications.WithLabelValues(result).Inc()
}

// RecordTokenIssued counts a signed JWT by type.
func (m *Metrics) RecordTokenIssued(tokenType string) {
	if m == nil {
		return
	}
	m.TokensIssued.WithLabelValues(tokenType).Inc()
}

// RecordTokenRefresh counts a refresh exchange. result is "success",
// "failure", or "rate_limited".
func (m *Metrics) RecordTokenRefresh(result string) {
	if m == nil {
		return
	}
	m.TokenRefreshes.WithLabelValues(result).Inc()
}

// RecordRateLimitDecision counts a limiter verdict. decision is "allowed"
// or "denied".
func (m *Metrics) RecordRateLimitDecision(operation, decision string) {
	if m == nil {
		return
	}
	m.RateLimitDecisions.WithLabelValues(operation, decision).Inc()
}

// RecordSessionCreated counts an opened session.
func (m *Metrics) RecordSessionCreated() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
}

// RecordSessionsEnded counts removed sessions. reason is "logout" or
// "logout_all".
func (m *Metrics) RecordSessionsEnded(reason string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.SessionsEnded.WithLabelValues(reason).Add(float64(count))
}

// RecordStoreState registers a connectivity transition of the key-value
// store and keeps the connected gauge in step.
func (m *Metrics) RecordStoreState(to string, connected bool) {
	if m == nil {
		return
	}
	m.StoreTransitions.WithLabelValues(to).Inc()
	if connected {
		m.StoreConnected.Set(1)
	} else {
		m.StoreConnected.Set(0)
	}
}
