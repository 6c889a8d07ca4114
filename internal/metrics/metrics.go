package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "thesis_archive"

// Login attempt results.
const (
	LoginSuccess = "success"
	LoginInvalid = "invalid"
	LoginError   = "error"
)

type Metrics struct {
	registry      *prometheus.Registry
	loginAttempts *prometheus.CounterVec
	verdicts      *prometheus.CounterVec
}

// New registers the service counters plus the Go and process collectors on
// a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Credential login attempts by result.",
		}, []string{"result"}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_verdicts_total",
			Help:      "Page access decisions by route tier and verdict.",
		}, []string{"tier", "verdict"}),
	}
	registry.MustRegister(
		m.loginAttempts,
		m.verdicts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) LoginAttempt(result string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) Verdict(tier, verdict string) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(tier, verdict).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
