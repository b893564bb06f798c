// Package metrics provides Prometheus metrics for the faculty league portal.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "faculty_league"

// Stat edit kinds recorded by StatCommitted.
const (
	EditApply   = "apply"
	EditReverse = "reverse"
	EditReplace = "replace"
)

// Manager owns every collector. A nil *Manager is valid and records nothing.
type Manager struct {
	registry *prometheus.Registry

	statCommits     *prometheus.CounterVec
	statClamps      prometheus.Counter
	statRejections  prometheus.Counter
	scoreUpdates    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	portalLoadTime  prometheus.Histogram
	activityDropped prometheus.Counter
}

// NewManager registers the collectors on a private registry together with
// the Go runtime and process collectors.
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	auto := promauto.With(registry)

	return &Manager{
		registry: registry,
		statCommits: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stats",
			Name:      "commits_total",
			Help:      "Faculty stat edits committed, by kind.",
		}, []string{"kind"}),
		statClamps: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stats",
			Name:      "reversal_clamps_total",
			Help:      "Reversals that floored a counter at zero.",
		}),
		statRejections: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stats",
			Name:      "reversal_rejections_total",
			Help:      "Reversals refused in strict mode.",
		}),
		scoreUpdates: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matches",
			Name:      "score_updates_total",
			Help:      "Score updates accepted, by resulting status.",
		}, []string{"status"}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		portalLoadTime: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "portal",
			Name:      "home_load_seconds",
			Help:      "Time to assemble the portal home aggregate.",
			Buckets:   prometheus.DefBuckets,
		}),
		activityDropped: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "activity",
			Name:      "dropped_total",
			Help:      "Activity log entries that could not be written.",
		}),
	}
}

func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Manager) StatCommitted(kind string) {
	if m == nil {
		return
	}
	m.statCommits.WithLabelValues(kind).Inc()
}

func (m *Manager) ReversalClamped() {
	if m == nil {
		return
	}
	m.statClamps.Inc()
}

func (m *Manager) ReversalRejected() {
	if m == nil {
		return
	}
	m.statRejections.Inc()
}

func (m *Manager) ScoreUpdated(status string) {
	if m == nil {
		return
	}
	m.scoreUpdates.WithLabelValues(status).Inc()
}

func (m *Manager) ObserveHTTP(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Manager) ObservePortalLoad(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.portalLoadTime.Observe(elapsed.Seconds())
}

func (m *Manager) ActivityDropped() {
	if m == nil {
		return
	}
	m.activityDropped.Inc()
}
