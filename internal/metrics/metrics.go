// Package metrics exposes the service's Prometheus collectors. Every method
// is safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "signify"

type Metrics struct {
	registry *prometheus.Registry

	recomputations      prometheus.Counter
	logMutations        *prometheus.CounterVec
	versionConflicts    prometheus.Counter
	categoryTransitions *prometheus.CounterVec
	escalations         *prometheus.CounterVec
	cacheRequests       *prometheus.CounterVec
	busDropped          prometheus.Counter
	streamClients       prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recomputations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeline_recomputations_total",
			Help:      "Total signal log recomputations.",
		}),
		logMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_log_mutations_total",
			Help:      "Committed signal log mutations by operation.",
		}, []string{"op"}),
		versionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_log_version_conflicts_total",
			Help:      "Signal log writes rejected because the log moved on.",
		}),
		categoryTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_category_transitions_total",
			Help:      "Current risk category changes by source and direction.",
		}, []string{"source", "from", "to"}),
		escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "red_escalations_total",
			Help:      "People entering the red category, by source.",
		}, []string{"source"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeline_cache_requests_total",
			Help:      "Timeline cache lookups by result.",
		}, []string{"result"}),
		busDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eventbus_dropped_total",
			Help:      "Domain events dropped because the bus buffer was full.",
		}),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "timeline_stream_clients",
			Help:      "Connected timeline stream websocket clients.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests processed by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.recomputations,
		m.logMutations,
		m.versionConflicts,
		m.categoryTransitions,
		m.escalations,
		m.cacheRequests,
		m.busDropped,
		m.streamClients,
		m.httpRequestsTotal,
		m.httpDuration,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Recomputed() {
	if m == nil {
		return
	}
	m.recomputations.Inc()
}

func (m *Metrics) LogMutation(op string) {
	if m == nil {
		return
	}
	m.logMutations.WithLabelValues(op).Inc()
}

func (m *Metrics) VersionConflict() {
	if m == nil {
		return
	}
	m.versionConflicts.Inc()
}

func (m *Metrics) CategoryTransition(source, from, to string) {
	if m == nil {
		return
	}
	m.categoryTransitions.WithLabelValues(source, from, to).Inc()
}

func (m *Metrics) Escalation(source string) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(source).Inc()
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues("hit").Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues("miss").Inc()
}

func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.busDropped.Inc()
}

func (m *Metrics) StreamConnected() {
	if m == nil {
		return
	}
	m.streamClients.Inc()
}

func (m *Metrics) StreamDisconnected() {
	if m == nil {
		return
	}
	m.streamClients.Dec()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Hijack lets the timeline stream upgrade to a websocket through the
// recorder.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// Middleware records request counts and latency labelled by the matched
// chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		m.httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
