package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/irfndi/dss-scanner/internal/report"
	"github.com/irfndi/dss-scanner/internal/services"
)

var (
	scanFormat string
	noColor    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan and print the result",
	Long: `Run one scan over the ranked universe and print the table.

Examples:
  dss scan                  # colored table
  dss scan --format json    # ScanResult as JSON`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanFormat, "format", string(report.FormatTable), "output format: table or json")
	scanCmd.Flags().BoolVar(&noColor, "no-color", false, "disable ANSI colors in the table")
}

func runScan(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(scanFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	renderer := report.NewRenderer(format == report.FormatTable && !noColor)

	app, err := newApplication(cfg, logger, report.NewSink(out, renderer, format))
	if err != nil {
		return err
	}
	defer app.Close()

	progress := newProgressLogger(logger, func() string { return app.scanner.Progress().RunID })
	if _, err := app.scanner.Scan(ctx, progress); err != nil {
		if services.IsProviderFatal(err) {
			_ = renderer.RenderError(out, err, app.timeframes, format)
		}
		return err
	}
	return nil
}
