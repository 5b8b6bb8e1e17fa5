package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alexcarney460-hue/skynet/internal/config"
)

func jsonConfig(buf *bytes.Buffer) *Config {
	cfg := NewDefaultConfig()
	cfg.Level = "trace"
	cfg.Format = "json"
	cfg.Sampling.Enabled = false
	cfg.Output.Writer = buf
	return cfg
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestNewLogger_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(jsonConfig(&buf), nil)
	require.NoError(t, err)

	logger.Info(context.Background(), "assessment complete", zap.String("operation", "pressure"))
	logger.Trace(context.Background(), "wire detail", zap.Int("bytes", 42))
	require.NoError(t, logger.Sync())

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "assessment complete", lines[0]["msg"])
	assert.Equal(t, "skynet", lines[0]["service"])
	assert.Equal(t, "pressure", lines[0]["operation"])
	assert.Equal(t, "trace", lines[1]["level"])
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	cfg := jsonConfig(&buf)
	cfg.Level = "warn"
	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)

	ctx := context.Background()
	logger.Debug(ctx, "hidden")
	logger.Info(ctx, "hidden")
	logger.Warn(ctx, "shown")
	logger.Error(ctx, "shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.False(t, logger.Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Enabled(zapcore.WarnLevel))
}

func TestNewLogger_RedactsPerEntryFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(jsonConfig(&buf), nil)
	require.NoError(t, err)

	logger.Info(context.Background(), "calling service",
		zap.String("api_token", "sk-live-abcdef"),
		zap.String("header", "Bearer abc.def.ghi"),
		zap.Error(errors.New("upstream rejected Bearer xyz")),
		zap.String("endpoint", "https://skynetx.io/api/v1"),
	)
	logger.With(zap.String("authorization", "Bearer zzz")).Info(context.Background(), "child")

	out := buf.String()
	assert.NotContains(t, out, "sk-live-abcdef")
	assert.NotContains(t, out, "abc.def.ghi")
	assert.NotContains(t, out, "xyz")
	assert.NotContains(t, out, "zzz")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "[REDACTED]", lines[0]["api_token"])
	assert.Equal(t, "[REDACTED:pattern]", lines[0]["header"])
	assert.Equal(t, "[REDACTED:pattern]", lines[0]["error"])
	assert.Equal(t, "https://skynetx.io/api/v1", lines[0]["endpoint"])
	assert.Equal(t, "[REDACTED]", lines[1]["authorization"])
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad level", func(c *Config) { c.Level = "loud" }},
		{"bad format", func(c *Config) { c.Format = "xml" }},
		{"no outputs", func(c *Config) { c.Output.Stderr = false }},
		{"zero tick", func(c *Config) { c.Sampling.Tick = 0 }},
		{"bad pattern", func(c *Config) { c.Redaction.Patterns = []string{"("} }},
		{"empty field value", func(c *Config) { c.Fields = map[string]string{"env": ""} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			_, err := NewLogger(cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestNewLogger_OTELOnlyNeedsProvider(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output.Stderr = false
	cfg.Output.OTEL = true

	_, err := NewLogger(cfg, nil)
	assert.Error(t, err, "otel-only output needs a provider")
}

func TestLevelFromString(t *testing.T) {
	lvl, err := LevelFromString("trace")
	require.NoError(t, err)
	assert.Equal(t, TraceLevel, lvl)

	lvl, err = LevelFromString("debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	_, err = LevelFromString("verbose")
	assert.Error(t, err)
}

func TestSampling_ErrorsNeverDropped(t *testing.T) {
	var buf bytes.Buffer
	cfg := jsonConfig(&buf)
	cfg.Sampling = SamplingConfig{Enabled: true, Tick: config.Duration(1 << 40), Initial: 2, Thereafter: 0}
	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		logger.Info(ctx, "repeated")
		logger.Error(ctx, "failure")
	}

	var infos, errs int
	for _, line := range decodeLines(t, &buf) {
		switch line["level"] {
		case "info":
			infos++
		case "error":
			errs++
		}
	}
	assert.Equal(t, 2, infos)
	assert.Equal(t, 10, errs)
}

func TestContextFields(t *testing.T) {
	tp := trace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	ctx = WithSessionID(ctx, "sess_1")
	ctx = WithRequestID(ctx, "2f1c7a9e-4b0d-4c36-9d0e-1f1a2b3c4d5e")

	tl := NewTestLogger()
	tl.Info(ctx, "correlated")

	tl.AssertField(t, "correlated", "session.id", "sess_1")
	tl.AssertField(t, "correlated", "request.id", "2f1c7a9e-4b0d-4c36-9d0e-1f1a2b3c4d5e")
	tl.AssertField(t, "correlated", "trace_id", span.SpanContext().TraceID().String())
}

func TestContextIDs_InvalidDropped(t *testing.T) {
	ctx := context.Background()
	for _, id := range []string{"", "has space", "semi;colon", strings.Repeat("a", 200)} {
		assert.Empty(t, SessionIDFromContext(WithSessionID(ctx, id)), id)
		assert.Empty(t, RequestIDFromContext(WithRequestID(ctx, id)), id)
	}
	assert.Empty(t, ContextFields(ctx))
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	FromContext(ctx).Warn(ctx, "via context")
	tl.AssertLogged(t, zapcore.WarnLevel, "via context")
}

func TestFromZap(t *testing.T) {
	assert.NotNil(t, FromZap(nil))
	assert.NotPanics(t, func() { FromZap(nil).Info(context.Background(), "dropped") })

	tl := NewTestLogger()
	FromZap(tl.Underlying()).Named("skynet").Info(context.Background(), "wrapped")
	tl.AssertLogged(t, zapcore.InfoLevel, "wrapped")
}

func TestSecretFields(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(context.Background(), "loaded",
		Secret("api_token", config.Secret("sk-0123456789")),
		RedactedString("authorization", "Bearer abc"),
	)

	tl.AssertField(t, "loaded", "api_token", "[REDACTED:13]")
	tl.AssertField(t, "loaded", "authorization", "[REDACTED:10]")
	tl.AssertNoSecrets(t)
}

func TestTestLogger_AssertNoSecretsCatchesLeak(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(context.Background(), "leak", zap.String("token", "plain"))

	rec := &recordingTB{}
	tl.AssertNoSecrets(rec)
	assert.True(t, rec.failed)

	tl.Reset()
	assert.Empty(t, tl.All())
	tl.AssertNotLogged(t, "leak")
}

// recordingTB captures failures from assertion helpers under test.
type recordingTB struct {
	testing.TB
	failed bool
}

func (r *recordingTB) Helper()                       {}
func (r *recordingTB) Errorf(string, ...interface{}) { r.failed = true }
func (r *recordingTB) Fatalf(string, ...interface{}) { r.failed = true }
