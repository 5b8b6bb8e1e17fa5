// Package config loads skynet configuration.
//
// Values come from built-in defaults, then an optional YAML or TOML file,
// then SKYNET_* environment variables. Logging and telemetry sections are
// decoded by their owning packages through Config.Section.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/knadh/koanf/v2"
)

// Config holds the skynet configuration.
type Config struct {
	Client ClientConfig `koanf:"client" yaml:"client"`
	Server ServerConfig `koanf:"server" yaml:"server"`

	k *koanf.Koanf
}

// ClientConfig configures the assessment client.
type ClientConfig struct {
	Endpoint   string   `koanf:"endpoint" yaml:"endpoint"`
	Timeout    Duration `koanf:"timeout" yaml:"timeout"`
	APIToken   Secret   `koanf:"api_token" yaml:"api_token"`
	SystemMode string   `koanf:"system_mode" yaml:"system_mode"`
	UserAgent  string   `koanf:"user_agent" yaml:"user_agent,omitempty"`
	// RateLimit is requests per second; 0 disables client-side limiting.
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit"`
	Burst     int     `koanf:"burst" yaml:"burst"`
	// TLS client certificate, key and CA bundle. All three or none.
	TLSCert string `koanf:"tls_cert" yaml:"tls_cert,omitempty"`
	TLSKey  string `koanf:"tls_key" yaml:"tls_key,omitempty"`
	TLSCA   string `koanf:"tls_ca" yaml:"tls_ca,omitempty"`
}

// ServerConfig configures the local status listener used by watch.
type ServerConfig struct {
	Enabled         bool     `koanf:"enabled" yaml:"enabled"`
	Host            string   `koanf:"host" yaml:"host"`
	Port            int      `koanf:"port" yaml:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// TLSEnabled reports whether client certificates are configured.
func (c ClientConfig) TLSEnabled() bool {
	return c.TLSCert != "" || c.TLSKey != "" || c.TLSCA != ""
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			Endpoint:   "https://skynetx.io/api/v1",
			Timeout:    Duration(5 * time.Second),
			SystemMode: "production",
			Burst:      1,
		},
		Server: ServerConfig{
			Enabled:         false,
			Host:            "127.0.0.1",
			Port:            9464,
			ShutdownTimeout: Duration(5 * time.Second),
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Client.Endpoint)
	if err != nil {
		return fmt.Errorf("client.endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("client.endpoint must use http or https, got %q", c.Client.Endpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("client.endpoint has no host: %q", c.Client.Endpoint)
	}
	if c.Client.Timeout.Duration() <= 0 {
		return errors.New("client.timeout must be positive")
	}
	if c.Client.RateLimit < 0 {
		return fmt.Errorf("client.rate_limit must be >= 0, got %v", c.Client.RateLimit)
	}
	if c.Client.RateLimit > 0 && c.Client.Burst < 1 {
		return fmt.Errorf("client.burst must be >= 1 when rate_limit is set, got %d", c.Client.Burst)
	}
	if c.Client.TLSEnabled() && (c.Client.TLSCert == "" || c.Client.TLSKey == "" || c.Client.TLSCA == "") {
		return errors.New("client.tls_cert, client.tls_key and client.tls_ca must be set together")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("server.shutdown_timeout must be positive")
	}
	return nil
}

// Section decodes the sub-tree at path over out. Fields absent from the
// loaded sources keep the values already in out.
func (c *Config) Section(path string, out any) error {
	if c.k == nil || !c.k.Exists(path) {
		return nil
	}
	if err := c.k.Unmarshal(path, out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
