package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/alexcarney460-hue/skynet/internal/config"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "skynet", cfg.ServiceName)
	assert.Equal(t, ProtocolGRPC, cfg.Protocol)
	require.NoError(t, cfg.Validate())

	cfg.Enabled = true
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"no endpoint", func(c *Config) { c.Endpoint = "" }, "endpoint is required"},
		{"no service name", func(c *Config) { c.ServiceName = "" }, "service_name"},
		{"no version", func(c *Config) { c.ServiceVersion = "" }, "service_version"},
		{"bad protocol", func(c *Config) { c.Protocol = "thrift" }, "protocol"},
		{"insecure remote", func(c *Config) { c.Endpoint = "otel.example.com:4317" }, "insecure"},
		{"rate above one", func(c *Config) { c.SampleRate = 1.5 }, "sample_rate"},
		{"rate below zero", func(c *Config) { c.SampleRate = -0.1 }, "sample_rate"},
		{"zero interval", func(c *Config) { c.ExportInterval = 0 }, "export_interval"},
		{"zero shutdown", func(c *Config) { c.ShutdownTimeout = 0 }, "shutdown_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			cfg.Enabled = true
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("disabled skips checks", func(t *testing.T) {
		cfg := &Config{Enabled: false}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("secure remote allowed", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Enabled = true
		cfg.Insecure = false
		cfg.Endpoint = "https://otel.example.com:4318"
		cfg.Protocol = ProtocolHTTP
		assert.NoError(t, cfg.Validate())
	})
}

func TestConfig_IsLocalEndpoint(t *testing.T) {
	tests := map[string]bool{
		"localhost:4317":         true,
		"127.0.0.1:4317":         true,
		"127.0.0.53:4317":        true,
		"[::1]:4317":             true,
		"::1":                    true,
		"http://localhost:4318":  true,
		"otel.example.com:4317":  false,
		"10.0.0.5:4317":          false,
		"localhost.evil.com:443": false,
	}
	for endpoint, want := range tests {
		cfg := &Config{Endpoint: endpoint}
		assert.Equal(t, want, cfg.isLocalEndpoint(), endpoint)
	}
}

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	assert.NotNil(t, tel.Tracer("test"))
	assert.NotNil(t, tel.Meter("test"))
	assert.NotNil(t, tel.TracerProvider())
	assert.False(t, tel.IsEnabled())

	health := tel.Health()
	assert.True(t, health.Healthy)
	assert.False(t, health.Degraded)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_InvalidConfig(t *testing.T) {
	tel, err := New(context.Background(), &Config{Enabled: true})
	require.Error(t, err)
	assert.Nil(t, tel)
	assert.Contains(t, err.Error(), "invalid telemetry config")
}

func TestNew_WithSpanExporter(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.MetricsEnabled = false

	tel, err := New(context.Background(), cfg, WithSpanExporter(exp))
	require.NoError(t, err)
	assert.True(t, tel.IsEnabled())

	_, span := tel.Tracer("skynet-test").Start(context.Background(), "skynet.pressure")
	span.End()
	require.NoError(t, tel.ForceFlush(context.Background()))

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "skynet.pressure", spans[0].Name)

	require.NoError(t, tel.Shutdown(context.Background()))
	assert.False(t, tel.IsEnabled())
}

func TestTelemetry_NilSafe(t *testing.T) {
	var tel *Telemetry
	assert.NotPanics(t, func() {
		_ = tel.Tracer("test")
		_ = tel.Meter("test")
		_ = tel.TracerProvider()
		_ = tel.LoggerProvider()
		tel.SetLoggerProvider(nil)
		_ = tel.IsEnabled()
		_ = tel.Shutdown(context.Background())
		_ = tel.ForceFlush(context.Background())
	})
	health := tel.Health()
	assert.False(t, health.Healthy)
	assert.True(t, health.Degraded)
}

func TestTelemetry_SetDegraded(t *testing.T) {
	tel := &Telemetry{config: NewDefaultConfig()}
	tel.setDegraded("meter provider: %v", "dial failed")

	health := tel.Health()
	assert.True(t, health.Degraded)
	assert.Equal(t, []string{"meter provider: dial failed"}, health.Problems)
}

func TestTelemetry_ShutdownHonoursDeadline(t *testing.T) {
	tt := NewTestTelemetry()
	tt.config.ShutdownTimeout = config.Duration(time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, tt.Shutdown(ctx))
}

func TestTestTelemetry_Spans(t *testing.T) {
	tt := NewTestTelemetry()
	tracer := tt.Tracer("test")

	_, span := tracer.Start(context.Background(), "skynet.verbosity")
	span.SetAttributes(
		attribute.String("skynet.endpoint", "http://localhost"),
		attribute.Int("http.status_code", 200),
		attribute.Bool("skynet.fallback", false),
		attribute.Float64("ratio", 0.5),
	)
	span.End()
	_, other := tracer.Start(context.Background(), "skynet.half-life")
	other.End()

	tt.AssertSpanExists(t, "skynet.verbosity")
	tt.AssertSpanAttribute(t, "skynet.verbosity", "skynet.endpoint", "http://localhost")
	tt.AssertSpanAttribute(t, "skynet.verbosity", "http.status_code", int64(200))
	tt.AssertSpanAttribute(t, "skynet.verbosity", "skynet.fallback", false)
	tt.AssertSpanAttribute(t, "skynet.verbosity", "ratio", 0.5)
	assert.Equal(t, []string{"skynet.verbosity", "skynet.half-life"}, tt.SpanNames())
	assert.Nil(t, tt.SpanByName("missing"))
}

func TestTestTelemetry_Metrics(t *testing.T) {
	tt := NewTestTelemetry()
	counter, err := tt.Meter("test").Int64Counter("skynet.watch.samples")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	rm, err := tt.Collect(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, rm.ScopeMetrics)
	assert.Equal(t, "skynet.watch.samples", rm.ScopeMetrics[0].Metrics[0].Name)
}
