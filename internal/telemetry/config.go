package telemetry

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/alexcarney460-hue/skynet/internal/config"
)

// Supported OTLP protocols.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http/protobuf"
)

// Config holds telemetry configuration, decoded from the "telemetry"
// section. Keys are flat so every field has a SKYNET_TELEMETRY_* override.
type Config struct {
	Enabled        bool   `koanf:"enabled" yaml:"enabled"`
	Endpoint       string `koanf:"endpoint" yaml:"endpoint"`
	Protocol       string `koanf:"protocol" yaml:"protocol"`
	ServiceName    string `koanf:"service_name" yaml:"service_name"`
	ServiceVersion string `koanf:"service_version" yaml:"service_version"`
	// Insecure disables TLS. Only allowed for loopback endpoints.
	Insecure      bool `koanf:"insecure" yaml:"insecure"`
	TLSSkipVerify bool `koanf:"tls_skip_verify" yaml:"tls_skip_verify"`
	// SampleRate is the trace sampling ratio, 0.0-1.0.
	SampleRate      float64         `koanf:"sample_rate" yaml:"sample_rate"`
	MetricsEnabled  bool            `koanf:"metrics_enabled" yaml:"metrics_enabled"`
	ExportInterval  config.Duration `koanf:"export_interval" yaml:"export_interval"`
	ShutdownTimeout config.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// NewDefaultConfig returns disabled telemetry pointed at a local collector.
func NewDefaultConfig() *Config {
	return &Config{
		Enabled:         false,
		Endpoint:        "localhost:4317",
		Protocol:        ProtocolGRPC,
		ServiceName:     "skynet",
		ServiceVersion:  "0.1.0",
		Insecure:        true,
		SampleRate:      1.0,
		MetricsEnabled:  true,
		ExportInterval:  config.Duration(15 * time.Second),
		ShutdownTimeout: config.Duration(5 * time.Second),
	}
}

// Validate checks configuration for errors. Disabled configs always pass.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when telemetry is enabled")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required when telemetry is enabled")
	}
	if c.ServiceVersion == "" {
		return fmt.Errorf("service_version is required when telemetry is enabled")
	}
	if c.Protocol != "" && c.Protocol != ProtocolGRPC && c.Protocol != ProtocolHTTP {
		return fmt.Errorf("protocol must be %q or %q, got %q", ProtocolGRPC, ProtocolHTTP, c.Protocol)
	}
	if c.Insecure && !c.isLocalEndpoint() {
		return fmt.Errorf("insecure connections to remote endpoints are not allowed; set insecure=false or use a loopback endpoint")
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("sample_rate must be between 0 and 1, got %f", c.SampleRate)
	}
	if c.MetricsEnabled && c.ExportInterval.Duration() <= 0 {
		return fmt.Errorf("export_interval must be positive when metrics are enabled")
	}
	if c.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	return nil
}

func (c *Config) protocol() string {
	if c.Protocol == "" {
		return ProtocolGRPC
	}
	return c.Protocol
}

// isLocalEndpoint reports whether the endpoint host is loopback.
func (c *Config) isLocalEndpoint() bool {
	hostport := stripScheme(c.Endpoint)
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		host = strings.Trim(hostport, "[]")
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// stripScheme removes http:// or https://; the OTLP exporters want host:port.
func stripScheme(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return strings.TrimPrefix(endpoint, "http://")
}
