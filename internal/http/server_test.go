package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexcarney460-hue/skynet/internal/logging"
	"github.com/alexcarney460-hue/skynet/internal/session"
	"github.com/alexcarney460-hue/skynet/pkg/skynet"
)

func TestNewServer(t *testing.T) {
	t.Run("creates server with valid config", func(t *testing.T) {
		cfg := &Config{Host: "localhost", Port: 9464}

		server, err := NewServer(session.NewTracker(session.Config{}), logging.Nop(), cfg, nil)
		require.NoError(t, err)
		assert.NotNil(t, server.echo)
		assert.Equal(t, cfg, server.config)
		assert.Equal(t, "localhost:9464", server.Addr())
	})

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		server, err := NewServer(session.NewTracker(session.Config{}), logging.Nop(), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1", server.config.Host)
		assert.Equal(t, 9464, server.config.Port)
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		_, err := NewServer(session.NewTracker(session.Config{}), nil, nil, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})

	t.Run("returns error when source is nil", func(t *testing.T) {
		_, err := NewServer(nil, logging.Nop(), nil, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "status source cannot be nil")
	})
}

func TestHandleHealth(t *testing.T) {
	server, _ := setupTestServer(t, nil)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)
}

func TestHandleStatus(t *testing.T) {
	t.Run("empty tracker", func(t *testing.T) {
		server, _ := setupTestServer(t, nil)

		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"samples":0,"error_count":0,"memory_pressure_history":[],
			"context_drift_history":[],"token_burn_rate_history":[]}`, rec.Body.String())
	})

	t.Run("after a report", func(t *testing.T) {
		server, tracker := setupTestServer(t, nil)
		_, err := tracker.Observe(session.Sample{MemoryUsedPercent: 70, ContextDriftPercent: 15, TokenBurnRatePerMin: 42})
		require.NoError(t, err)
		pressure := skynet.FallbackPressure()
		pressure.Level = skynet.PressureHigh
		tracker.Record(session.Report{
			Sequence:  1,
			Pressure:  pressure,
			Verbosity: skynet.FallbackVerbosity(),
			HalfLife:  skynet.FallbackHalfLife(),
		})

		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

		var st session.Status
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
		assert.Equal(t, 1, st.Samples)
		assert.Equal(t, skynet.PressureHigh, st.Level)
		assert.Equal(t, []int{70}, st.MemoryPressureHistory)
		require.NotNil(t, st.Last)
		assert.Equal(t, skynet.PressureHigh, st.Last.Pressure.Level)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	t.Run("served when a gatherer is set", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		gauges := NewWatchGauges(reg)
		gauges.Update(session.Report{
			Pressure:  skynet.PressureAssessment{Level: skynet.PressureCritical, SessionViability: 12},
			HalfLife:  skynet.HalfLifeAssessment{RemainingUsefulLifeMinutes: 9},
			Fallbacks: []string{skynet.OpVerbosity},
		})
		server, _ := setupTestServer(t, reg)

		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "skynet_watch_pressure_level 3")
		assert.Contains(t, string(body), "skynet_watch_session_viability 12")
		assert.Contains(t, string(body), "skynet_watch_remaining_life_minutes 9")
		assert.Contains(t, string(body), `skynet_watch_fallback{operation="verbosity"} 1`)
		assert.Contains(t, string(body), `skynet_watch_fallback{operation="pressure"} 0`)
	})

	t.Run("absent without a gatherer", func(t *testing.T) {
		server, _ := setupTestServer(t, nil)

		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServerLifecycle(t *testing.T) {
	cfg := &Config{Host: "127.0.0.1", Port: 0}
	server, err := NewServer(session.NewTracker(session.Config{}), logging.Nop(), cfg, nil)
	require.NoError(t, err)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, server.Shutdown(ctx))

	select {
	case err := <-errChan:
		assert.True(t, err == nil || err == http.ErrServerClosed)
	case <-time.After(6 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestMiddleware(t *testing.T) {
	t.Run("adds request ID to response", func(t *testing.T) {
		server, _ := setupTestServer(t, nil)

		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	})

	t.Run("recovers from panic", func(t *testing.T) {
		server, _ := setupTestServer(t, nil)
		server.echo.GET("/panic", func(c echo.Context) error {
			panic("test panic")
		})

		rec := httptest.NewRecorder()
		assert.NotPanics(t, func() {
			server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("logs requests at debug", func(t *testing.T) {
		tl := logging.NewTestLogger()
		server, err := NewServer(session.NewTracker(session.Config{}), tl.Logger, &Config{Host: "127.0.0.1", Port: 9464}, nil)
		require.NoError(t, err)

		server.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
		tl.AssertField(t, "http request", "uri", "/health")
		tl.AssertField(t, "http request", "status", int64(200))
	})
}

func TestWatchGauges_NilSafe(t *testing.T) {
	var g *WatchGauges
	assert.NotPanics(t, func() { g.Update(session.Report{}) })
}

func setupTestServer(t *testing.T, gatherer prometheus.Gatherer) (*Server, *session.Tracker) {
	t.Helper()

	tracker := session.NewTracker(session.Config{})
	server, err := NewServer(tracker, logging.Nop(), &Config{Host: "localhost", Port: 9464, Version: "test"}, gatherer)
	require.NoError(t, err)
	return server, tracker
}
