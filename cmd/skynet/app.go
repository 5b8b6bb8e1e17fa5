package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"
	"go.uber.org/zap"

	"github.com/alexcarney460-hue/skynet/internal/config"
	"github.com/alexcarney460-hue/skynet/internal/logging"
	"github.com/alexcarney460-hue/skynet/internal/telemetry"
	"github.com/alexcarney460-hue/skynet/internal/transport"
	"github.com/alexcarney460-hue/skynet/pkg/skynet"
)

// app holds the dependencies shared by every command.
type app struct {
	cfg      *config.Config
	logger   *logging.Logger
	tel      *telemetry.Telemetry
	registry *prometheus.Registry
	client   *skynet.Client
}

// loadConfig loads the config file and environment, then applies the
// persistent flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if endpointOverride != "" {
		cfg.Client.Endpoint = endpointOverride
	}
	if timeoutOverride > 0 {
		cfg.Client.Timeout = config.Duration(timeoutOverride)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newApp initializes config, telemetry, logging and the assessment client.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	telCfg := telemetry.NewDefaultConfig()
	if err := cfg.Section("telemetry", telCfg); err != nil {
		return nil, err
	}
	tel, err := telemetry.New(ctx, telCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logCfg := logging.NewDefaultConfig()
	if err := cfg.Section("logging", logCfg); err != nil {
		return nil, err
	}
	logger, err := logging.NewLogger(logCfg, tel.LoggerProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if health := tel.Health(); health.Degraded {
		logger.Warn(ctx, "telemetry degraded", zap.Strings("problems", health.Problems))
	}

	hc, err := transport.New(transport.Config{
		CertFile: cfg.Client.TLSCert,
		KeyFile:  cfg.Client.TLSKey,
		CAFile:   cfg.Client.TLSCA,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build transport: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []skynet.Option{
		skynet.WithEndpoint(cfg.Client.Endpoint),
		skynet.WithTimeout(cfg.Client.Timeout.Duration()),
		skynet.WithHTTPClient(hc),
		skynet.WithAPIToken(cfg.Client.APIToken.Value()),
		skynet.WithUserAgent(cfg.Client.UserAgent),
		skynet.WithLogger(logger.Underlying()),
		skynet.WithMetrics(skynet.NewMetrics(reg)),
		skynet.WithTracerProvider(tel.TracerProvider()),
	}
	if cfg.Client.RateLimit > 0 {
		opts = append(opts, skynet.WithRateLimit(rate.Limit(cfg.Client.RateLimit), cfg.Client.Burst))
	}

	logger.Debug(ctx, "client configured",
		zap.String("endpoint", cfg.Client.Endpoint),
		zap.Duration("timeout", cfg.Client.Timeout.Duration()),
		zap.Bool("mtls", cfg.Client.TLSEnabled()),
		zap.Bool("authenticated", cfg.Client.APIToken.IsSet()),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		tel:      tel,
		registry: reg,
		client:   skynet.New(opts...),
	}, nil
}

// systemMode returns flagValue, or the configured mode when it is empty.
func (a *app) systemMode(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if a.cfg.Client.SystemMode != "" {
		return a.cfg.Client.SystemMode
	}
	return skynet.DefaultSystemMode
}

// Close flushes logs and telemetry.
func (a *app) Close(ctx context.Context) {
	if err := a.tel.Shutdown(ctx); err != nil {
		a.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}
