package logging

import (
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger is a Logger that records every entry for assertions.
type TestLogger struct {
	*Logger
	observed *observer.ObservedLogs
}

// NewTestLogger records entries at TraceLevel and above.
func NewTestLogger() *TestLogger {
	core, observed := observer.New(TraceLevel)
	return &TestLogger{
		Logger:   &Logger{zap: zap.New(core)},
		observed: observed,
	}
}

// All returns every recorded entry.
func (t *TestLogger) All() []observer.LoggedEntry {
	return t.observed.All()
}

// FilterMessage returns entries whose message contains msg.
func (t *TestLogger) FilterMessage(msg string) *observer.ObservedLogs {
	return t.observed.FilterMessageSnippet(msg)
}

// Reset drops recorded entries.
func (t *TestLogger) Reset() {
	t.observed.TakeAll()
}

// AssertLogged fails tb unless an entry at level contains msg.
func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	for _, e := range t.observed.All() {
		if e.Level == level && strings.Contains(e.Message, msg) {
			return
		}
	}
	tb.Errorf("expected log at %v containing %q, got %d entries", level, msg, t.observed.Len())
}

// AssertNotLogged fails tb if any entry contains msg.
func (t *TestLogger) AssertNotLogged(tb testing.TB, msg string) {
	tb.Helper()
	if n := t.observed.FilterMessageSnippet(msg).Len(); n > 0 {
		tb.Errorf("unexpected %d log entries containing %q", n, msg)
	}
}

// AssertField fails tb unless an entry containing msg has key=expected.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, expected interface{}) {
	tb.Helper()
	for _, e := range t.observed.FilterMessageSnippet(msg).All() {
		if got, ok := e.ContextMap()[key]; ok && reflect.DeepEqual(got, expected) {
			return
		}
	}
	tb.Errorf("field %q=%v not found in entries containing %q", key, expected, msg)
}

// AssertNoSecrets fails tb if any string field or message carries an
// unmasked value under a sensitive key or matching a sensitive pattern.
func (t *TestLogger) AssertNoSecrets(tb testing.TB) {
	tb.Helper()
	enc, err := NewRedactingEncoder(zapcore.NewJSONEncoder(zapcore.EncoderConfig{}), NewDefaultConfig().Redaction)
	if err != nil {
		tb.Fatalf("building redaction rules: %v", err)
	}
	for _, e := range t.observed.All() {
		if enc.matches(e.Message) {
			tb.Errorf("sensitive pattern in message: %q", e.Message)
		}
		for _, f := range e.Context {
			if f.Type != zapcore.StringType || f.String == "" {
				continue
			}
			if enc.sensitive(f.Key) && !strings.HasPrefix(f.String, "[REDACTED") {
				tb.Errorf("sensitive field %q not redacted", f.Key)
			}
			if enc.matches(f.String) {
				tb.Errorf("sensitive pattern in field %q", f.Key)
			}
		}
	}
}
