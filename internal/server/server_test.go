package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/matthewbaird/signify/internal/engine"
	"github.com/matthewbaird/signify/internal/handler"
	"github.com/matthewbaird/signify/internal/metrics"
	"github.com/matthewbaird/signify/internal/people"
	"github.com/matthewbaird/signify/internal/signallog"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	ctx := context.Background()
	ps := people.NewMemoryStore()
	require.NoError(t, people.SeedDemoData(ctx, ps))
	logs := signallog.NewMemoryStore()
	require.NoError(t, signallog.SeedDemoData(ctx, logs))

	m := metrics.New()
	e := engine.New(logs, ps, engine.WithMetrics(m))
	return Config{
		API:     handler.NewAPI(e, nil, zap.NewNop()),
		Metrics: m,
		Logger:  zap.NewNop(),
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router := NewRouter(testConfig(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/people/101/signal-log", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "signify_timeline_recomputations_total")
	assert.Contains(t, body, `route="/v1/people/{id}/signal-log`)
}

func TestRouter_StreamDisabled(t *testing.T) {
	router := NewRouter(testConfig(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/people/101/signal-log/stream", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	cfg := testConfig(t)
	cfg.Addr = addr
	cfg.ShutdownTimeout = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
