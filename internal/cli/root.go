// Package cli implements the welli command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/welli-app/retention-go/internal/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "welli",
	Short: "Wellness retention engine",
	Long: "Welli is an AI-powered wellness retention engine with goal matching, " +
		"behavioral clustering, churn prediction, and micro-coaching.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logging.Config{Level: logLevel})
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(trainCmd)
}
