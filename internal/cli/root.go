// Package cli implements the gotr command line interface.
package cli

import (
	"log/slog"

	"github.com/me/gotr/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
)

// NewRootCmd creates the root cobra command for the gotr CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gotr",
		Short: "gotr is a dependency-ordered test runner",
		Long: "gotr discovers test cases, honors their declared ordering constraints\n" +
			"(dependency plus post-completion delay), and runs them as concurrent\n" +
			"external processes until none remain.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newRunCmd(),
		newListCmd(),
		newHistoryCmd(),
	)

	return root
}
