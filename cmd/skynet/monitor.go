package main

import (
	"fmt"
	"net"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/alexcarney460-hue/skynet/internal/monitor"
)

var (
	// monitorURL is the base URL of a running 'skynet watch --serve'
	monitorURL string
	// monitorInterval is the polling interval
	monitorInterval time.Duration
)

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().StringVar(&monitorURL, "url", "", "watch server URL (default from config server.host/port)")
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 2*time.Second, "polling interval")
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live dashboard for a running watch",
	Long: `Open a terminal dashboard that polls the status server of a running
'skynet watch --serve' and shows the latest assessments and history.

Keys: q quits, r refreshes now.

Examples:
  skynet monitor
  skynet monitor --url http://127.0.0.1:9464 --interval 5s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := resolveMonitorURL()
		if err != nil {
			return err
		}
		if monitorInterval <= 0 {
			return fmt.Errorf("--interval must be positive, got %s", monitorInterval)
		}

		p := tea.NewProgram(monitor.NewModel(url, monitorInterval), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		return nil
	},
}

// resolveMonitorURL returns --url, or the configured watch server address.
func resolveMonitorURL() (string, error) {
	if monitorURL != "" {
		return monitorURL, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return "http://" + net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)), nil
}
