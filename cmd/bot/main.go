// Package main is the entry point for the homework status bot.
//
// Usage:
//
//	bot                      # Poll the status endpoint and notify on change
//	bot check-config         # Validate configuration and exit
//	bot version              # Show version info
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "bot",
	Short: "Telegram notifications about homework review status",
	Long: `Polls the homework status endpoint every RETRY_PERIOD seconds and
sends a Telegram message to TELEGRAM_CHAT_ID whenever the review status of the
latest homework changes or the check keeps failing.

Required environment variables (can be placed in a .env file):
  PRACTICUM_TOKEN   OAuth token for the status endpoint
  TELEGRAM_TOKEN    Telegram bot token
  TELEGRAM_CHAT_ID  Destination chat id`,
	SilenceUsage: true,
	RunE:         runBot,
}

func init() {
	rootCmd.PersistentFlags().StringSlice("env-file", nil, "path to a .env file (default .env)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}
