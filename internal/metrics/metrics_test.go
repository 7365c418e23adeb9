package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Recomputed()
		m.LogMutation("add_event")
		m.VersionConflict()
		m.CategoryTransition("signal_log", "amber", "red")
		m.Escalation("signals")
		m.CacheHit()
		m.CacheMiss()
		m.EventDropped()
		m.StreamConnected()
		m.StreamDisconnected()
	})
	assert.Nil(t, m.Registry())

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Middleware(h))
}

func TestCounters(t *testing.T) {
	m := New()

	m.Recomputed()
	m.Recomputed()
	m.LogMutation("update_impact")
	m.LogMutation("update_impact")
	m.LogMutation("delete_event")
	m.VersionConflict()
	m.CategoryTransition("signal_log", "amber", "red")
	m.Escalation("signal_log")
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()
	m.StreamConnected()
	m.StreamConnected()
	m.StreamDisconnected()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.recomputations))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.logMutations.WithLabelValues("update_impact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logMutations.WithLabelValues("delete_event")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.versionConflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.categoryTransitions.WithLabelValues("signal_log", "amber", "red")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.escalations.WithLabelValues("signal_log")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheRequests.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheRequests.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.streamClients))
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/v1/people/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, path := range []string{"/v1/people/1", "/v1/people/2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("/v1/people/{id}", "GET", "418")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.httpDuration))
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New()
	m.Recomputed()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "signify_timeline_recomputations_total 1"), body)
	assert.Contains(t, body, "go_goroutines")
}
