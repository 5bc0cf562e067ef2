// Package metricsvc exports authentication and HTTP metrics to Prometheus.
package metricsvc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shuleapp/shule/core/auth"
	"github.com/shuleapp/shule/core/user"
)

const namespace = "shule"

type Metrics struct {
	LoginsTotal   *prometheus.CounterVec
	SignupsTotal  *prometheus.CounterVec
	SignOutsTotal prometheus.Counter
	SessionsTotal *prometheus.CounterVec
	GateTotal     *prometheus.CounterVec

	RequestDuration *prometheus.HistogramVec
}

var _ auth.Recorder = (*Metrics)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		SignupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "signups_total",
			Help:      "Signup attempts by outcome.",
		}, []string{"outcome"}),
		SignOutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "signouts_total",
			Help:      "Sign outs.",
		}),
		SessionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "session_resolutions_total",
			Help:      "Session lookups by outcome.",
		}, []string{"outcome"}),
		GateTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "gate_decisions_total",
			Help:      "Authorization gate decisions by required role and outcome.",
		}, []string{"role", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
	}
	reg.MustRegister(m.LoginsTotal, m.SignupsTotal, m.SignOutsTotal, m.SessionsTotal, m.GateTotal, m.RequestDuration)
	return m
}

func (m *Metrics) Login(outcome string)   { m.LoginsTotal.WithLabelValues(outcome).Inc() }
func (m *Metrics) Signup(outcome string)  { m.SignupsTotal.WithLabelValues(outcome).Inc() }
func (m *Metrics) SignOut()               { m.SignOutsTotal.Inc() }
func (m *Metrics) Session(outcome string) { m.SessionsTotal.WithLabelValues(outcome).Inc() }

func (m *Metrics) Gate(required user.Role, outcome string) {
	m.GateTotal.WithLabelValues(string(required), outcome).Inc()
}

// ObserveRequest records one served request. route is the route pattern, not the raw path.
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
