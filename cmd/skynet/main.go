// Package main implements the skynet CLI for querying the assessment service.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const (
	outputText = "text"
	outputJSON = "json"
)

var (
	// configPath overrides the default ~/.config/skynet/config.yaml
	configPath string
	// outputFormat is text or json
	outputFormat string
	// endpointOverride replaces client.endpoint when set
	endpointOverride string
	// timeoutOverride replaces client.timeout when positive
	timeoutOverride time.Duration

	// version information, set via ldflags
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "skynet",
	Short: "Query the skynet assessment service",
	Long: `skynet asks the remote assessment service how an agent session is doing:
cognitive pressure, output verbosity drift and session half-life.

When the service cannot be reached or answers with something unusable, the
command prints a conservative fallback assessment instead of failing.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch outputFormat {
		case outputText, outputJSON:
			return nil
		default:
			return fmt.Errorf("--output must be %q or %q, got %q", outputText, outputJSON, outputFormat)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/skynet/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", outputText, "output format: text or json")
	rootCmd.PersistentFlags().StringVar(&endpointOverride, "endpoint", "", "assessment service base URL")
	rootCmd.PersistentFlags().DurationVar(&timeoutOverride, "timeout", 0, "per-call timeout")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "skynet %s\n", version)
		fmt.Fprintf(out, "Commit:     %s\n", gitCommit)
		fmt.Fprintf(out, "Build Date: %s\n", buildDate)
	},
}
