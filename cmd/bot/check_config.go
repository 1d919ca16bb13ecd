package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// checkConfigCmd validates the environment without contacting any service.
var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate configuration and exit",
	Long: `Load configuration from the environment and .env files and check that
every required value is present.

Exit codes:
  0 - Configuration is valid
  1 - Configuration is invalid (every missing value is listed)`,
	RunE: runCheckConfig,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bot %s (commit %s)\n", version, commit)
	},
}

func init() {
	rootCmd.AddCommand(checkConfigCmd, versionCmd)
}

func runCheckConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	schedule := fmt.Sprintf("every %s", cfg.RetryPeriod)
	if cfg.PollCronSpec != "" {
		schedule = cfg.PollCronSpec
	}
	fmt.Fprintln(out, "Config is valid!")
	fmt.Fprintf(out, "  Endpoint:        %s\n", cfg.Endpoint)
	fmt.Fprintf(out, "  Chat id:         %d\n", cfg.TelegramChatID)
	fmt.Fprintf(out, "  Poll schedule:   %s\n", schedule)
	fmt.Fprintf(out, "  Request timeout: %s\n", cfg.RequestTimeout)
	fmt.Fprintf(out, "  Journal:         %t\n", cfg.DatabaseURL != "")
	return nil
}
