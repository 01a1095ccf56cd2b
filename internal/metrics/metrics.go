// Package metrics exposes session lifecycle counters for prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtroode/erp-sessions/internal/model"
)

const namespace = "erp_sessions"

// Metrics is safe to use as a nil pointer; every recorder becomes a no-op.
type Metrics struct {
	registry *prometheus.Registry

	created       prometheus.Counter
	suspicious    prometheus.Counter
	revoked       *prometheus.CounterVec
	swept         prometheus.Counter
	cacheFailures *prometheus.CounterVec
}

// New registers the counters on a private registry together with the go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "created_total",
			Help:      "Sessions created.",
		}),
		suspicious: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suspicious_logins_total",
			Help:      "Logins scored at or above the risk threshold.",
		}),
		revoked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revoked_total",
			Help:      "Sessions retired by explicit revocation.",
		}, []string{"reason"}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swept_total",
			Help:      "Sessions retired by the expiry sweep.",
		}),
		cacheFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_failures_total",
			Help:      "Cache operations that failed and were skipped.",
		}, []string{"op"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.created, m.suspicious, m.revoked, m.swept, m.cacheFailures,
	)
	return m
}

func (m *Metrics) SessionCreated(suspicious bool) {
	if m == nil {
		return
	}
	m.created.Inc()
	if suspicious {
		m.suspicious.Inc()
	}
}

func (m *Metrics) SessionRevoked(reason model.RevokeReason) {
	if m == nil {
		return
	}
	m.revoked.WithLabelValues(string(reason)).Inc()
}

func (m *Metrics) SessionsSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.swept.Add(float64(n))
}

func (m *Metrics) CacheFailure(op string) {
	if m == nil {
		return
	}
	m.cacheFailures.WithLabelValues(op).Inc()
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
