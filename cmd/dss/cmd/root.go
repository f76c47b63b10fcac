// Package cmd holds the dss CLI commands.
package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/irfndi/dss-scanner/internal/config"
	"github.com/irfndi/dss-scanner/internal/logging"
)

const serviceName = "dss-scanner"

// version is set at build time with -ldflags "-X .../cmd.version=...".
var version = "dev"

var (
	logLevel string

	cfg    *config.Config
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dss",
	Short: "DSS Bressert multi-timeframe scanner",
	Long: `DSS Bressert multi-timeframe scanner

Ranks assets by market cap, keeps the pairs listed on the configured exchange
and labels each one Bullish, Bearish or Flat per timeframe. A pair is Long when
every timeframe is Bullish and Short when every timeframe is Bearish.

Commands:
    scan     run one scan and print the table
    serve    serve the latest scan over HTTP
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")
	rootCmd.Version = version

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serveCmd)
}

// initConfig loads configuration and builds the logger. Logs go to stderr so
// JSON output on stdout stays clean.
func initConfig(cmd *cobra.Command) error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		loaded.LogLevel = logLevel
	}

	cfg = loaded
	logger = logging.NewLoggerWithOutput(cfg.LogLevel, cfg.Environment, cmd.ErrOrStderr())
	return nil
}
