package logging

import (
	"fmt"
	"io"
	"regexp"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/alexcarney460-hue/skynet/internal/config"
)

// TraceLevel sits below Debug and is used for wire-level detail.
const TraceLevel = zapcore.Level(-2)

// Config holds logging configuration. It is decoded from the "logging"
// section of the skynet config.
type Config struct {
	Level      string            `koanf:"level" yaml:"level"`
	Format     string            `koanf:"format" yaml:"format"`
	Output     OutputConfig      `koanf:"output" yaml:"output"`
	Sampling   SamplingConfig    `koanf:"sampling" yaml:"sampling"`
	Caller     bool              `koanf:"caller" yaml:"caller"`
	Stacktrace string            `koanf:"stacktrace" yaml:"stacktrace"`
	Fields     map[string]string `koanf:"fields" yaml:"fields"`
	Redaction  RedactionConfig   `koanf:"redaction" yaml:"redaction"`
}

// OutputConfig controls where logs are written. Stdout is reserved for
// command output, so the console sink is stderr.
type OutputConfig struct {
	Stderr bool `koanf:"stderr" yaml:"stderr"`
	OTEL   bool `koanf:"otel" yaml:"otel"`

	// Writer replaces os.Stderr when set.
	Writer io.Writer `koanf:"-" yaml:"-"`
}

// SamplingConfig limits repeated entries below Error per tick.
type SamplingConfig struct {
	Enabled    bool            `koanf:"enabled" yaml:"enabled"`
	Tick       config.Duration `koanf:"tick" yaml:"tick"`
	Initial    int             `koanf:"initial" yaml:"initial"`
	Thereafter int             `koanf:"thereafter" yaml:"thereafter"`
}

// RedactionConfig lists field names and value patterns to mask.
type RedactionConfig struct {
	Enabled  bool     `koanf:"enabled" yaml:"enabled"`
	Fields   []string `koanf:"fields" yaml:"fields"`
	Patterns []string `koanf:"patterns" yaml:"patterns"`
}

// NewDefaultConfig returns the CLI defaults: info-level console logs on
// stderr so notices do not interleave with command output.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "console",
		Output: OutputConfig{
			Stderr: true,
		},
		Sampling: SamplingConfig{
			Enabled:    true,
			Tick:       config.Duration(time.Second),
			Initial:    100,
			Thereafter: 10,
		},
		Caller:     false,
		Stacktrace: "error",
		Fields: map[string]string{
			"service": "skynet",
		},
		Redaction: RedactionConfig{
			Enabled: true,
			Fields: []string{
				"password", "secret", "token", "api_token", "api_key",
				"authorization", "bearer", "credential", "private_key",
			},
			Patterns: []string{
				`(?i)bearer\s+\S+`,
				`(?i)api[_-]?(key|token)[=:]\s*\S+`,
			},
		},
	}
}

// LevelFromString parses a level name. "trace" maps to TraceLevel.
func LevelFromString(level string) (zapcore.Level, error) {
	if level == "trace" {
		return TraceLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if _, err := LevelFromString(c.Level); err != nil {
		return fmt.Errorf("invalid level %q: %w", c.Level, err)
	}
	if c.Stacktrace != "" {
		if _, err := LevelFromString(c.Stacktrace); err != nil {
			return fmt.Errorf("invalid stacktrace level %q: %w", c.Stacktrace, err)
		}
	}
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	if !c.Output.Stderr && !c.Output.OTEL {
		return fmt.Errorf("at least one output must be enabled (stderr or otel)")
	}
	if c.Sampling.Enabled {
		if c.Sampling.Tick.Duration() <= 0 {
			return fmt.Errorf("sampling tick must be > 0 when sampling enabled")
		}
		if c.Sampling.Initial < 1 || c.Sampling.Thereafter < 0 {
			return fmt.Errorf("sampling initial must be >= 1 and thereafter >= 0")
		}
	}
	if c.Redaction.Enabled {
		for _, pattern := range c.Redaction.Patterns {
			if len(pattern) > maxPatternLen {
				return fmt.Errorf("redaction pattern too long (max %d chars): %q", maxPatternLen, pattern)
			}
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("invalid redaction pattern %q: %w", pattern, err)
			}
		}
	}
	for k, v := range c.Fields {
		if k == "" {
			return fmt.Errorf("field key cannot be empty")
		}
		if v == "" {
			return fmt.Errorf("field %q has empty value", k)
		}
	}
	return nil
}
