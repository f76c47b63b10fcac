package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/irfndi/dss-scanner/internal/api"
	"github.com/irfndi/dss-scanner/internal/api/handlers"
	"github.com/irfndi/dss-scanner/internal/logging"
	"github.com/irfndi/dss-scanner/internal/middleware"
	"github.com/irfndi/dss-scanner/internal/models"
	"github.com/irfndi/dss-scanner/internal/services"
)

var scanInterval time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the latest scan over HTTP",
	Long: `Start the HTTP API. A scan runs at startup, on every --scan-interval tick
and on POST /api/v1/scan/refresh. Ctrl+C stops the server.

Endpoints:
  GET  /health
  GET  /metrics
  GET  /api/v1/scan
  POST /api/v1/scan/refresh
  GET  /api/v1/scan/progress`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().DurationVar(&scanInterval, "scan-interval", 0, "rescan periodically; 0 scans only at startup and on refresh")
}

type scanRunner interface {
	Scan(ctx context.Context, onProgress services.ProgressFunc) (*models.ScanResult, error)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newRouter(ctx, app),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       15 * time.Second,
	}

	go scheduleScans(ctx, app.scanner, scanInterval, logging.WithComponent(logger, "scheduler"))

	serverErr := make(chan error, 1)
	go func() {
		logging.LogStartup(logger, serviceName, version, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}
	logging.LogShutdown(logger, serviceName, "signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited gracefully")
	return nil
}

func newRouter(ctx context.Context, app *application) *gin.Engine {
	router := gin.New()
	router.Use(otelgin.Middleware(serviceName))
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(app.logger))

	api.SetupRoutes(router, api.Dependencies{
		Health:  handlers.NewHealthHandler(version, app.healthChecks()),
		Scan:    handlers.NewScanHandler(ctx, app.scanner, app.timeframes, app.logger),
		Metrics: app.metrics.Handler(),
	})
	return router
}

// scheduleScans runs a scan immediately and then every interval until ctx is done.
func scheduleScans(ctx context.Context, scanner scanRunner, interval time.Duration, log *logrus.Entry) {
	run := func() {
		_, err := scanner.Scan(ctx, nil)
		switch {
		case err == nil, ctx.Err() != nil:
		case errors.Is(err, services.ErrScanInProgress):
			log.Debug("Skipping scheduled scan, one is already running")
		default:
			log.WithError(err).Warn("Scheduled scan failed")
		}
	}

	run()
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
