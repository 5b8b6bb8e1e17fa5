package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alexcarney460-hue/skynet/internal/config"
	"github.com/alexcarney460-hue/skynet/internal/logging"
	"github.com/alexcarney460-hue/skynet/internal/telemetry"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect skynet configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration after defaults, the config file, environment
variables and command-line overrides are applied. Secrets are redacted.

Examples:
  skynet config show
  SKYNET_CLIENT_TIMEOUT=2s skynet config show`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		eff, err := effective(cfg)
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(eff); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return enc.Close()
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the default config directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := config.Dir()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dir)
		return nil
	},
}

// effectiveConfig is every section of the configuration, resolved.
type effectiveConfig struct {
	Client    config.ClientConfig `yaml:"client"`
	Server    config.ServerConfig `yaml:"server"`
	Logging   *logging.Config     `yaml:"logging"`
	Telemetry *telemetry.Config   `yaml:"telemetry"`
}

func effective(cfg *config.Config) (effectiveConfig, error) {
	logCfg := logging.NewDefaultConfig()
	if err := cfg.Section("logging", logCfg); err != nil {
		return effectiveConfig{}, err
	}
	telCfg := telemetry.NewDefaultConfig()
	if err := cfg.Section("telemetry", telCfg); err != nil {
		return effectiveConfig{}, err
	}
	return effectiveConfig{
		Client:    cfg.Client,
		Server:    cfg.Server,
		Logging:   logCfg,
		Telemetry: telCfg,
	}, nil
}
