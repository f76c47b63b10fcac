package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/irfndi/dss-scanner/internal/api/handlers"
	"github.com/irfndi/dss-scanner/internal/cache"
	"github.com/irfndi/dss-scanner/internal/config"
	"github.com/irfndi/dss-scanner/internal/database"
	"github.com/irfndi/dss-scanner/internal/indicators"
	"github.com/irfndi/dss-scanner/internal/logging"
	"github.com/irfndi/dss-scanner/internal/marketdata"
	"github.com/irfndi/dss-scanner/internal/metrics"
	"github.com/irfndi/dss-scanner/internal/models"
	"github.com/irfndi/dss-scanner/internal/notify"
	"github.com/irfndi/dss-scanner/internal/services"
	"github.com/irfndi/dss-scanner/internal/telemetry"
	"github.com/irfndi/dss-scanner/pkg/ccxt"
	"github.com/irfndi/dss-scanner/pkg/coinmarketcap"
)

// application is the wired scanner shared by the scan and serve commands.
type application struct {
	cfg        *config.Config
	logger     *logrus.Logger
	timeframes []models.Timeframe
	scanner    *services.Scanner
	metrics    *metrics.Recorder
	ccxt       *ccxt.Client
	redis      *database.RedisClient
	tracing    telemetry.ShutdownFunc
}

func newApplication(cfg *config.Config, logger *logrus.Logger, sinks ...services.ResultSink) (*application, error) {
	timeframes, err := cfg.Scanner.ParseTimeframes()
	if err != nil {
		return nil, err
	}

	app := &application{cfg: cfg, logger: logger, timeframes: timeframes}

	app.tracing, err = telemetry.InitTelemetry(telemetry.TelemetryConfig{
		Enabled:        cfg.Telemetry.Enabled,
		Exporter:       cfg.Telemetry.Exporter,
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    cfg.Environment,
		SampleRate:     cfg.Telemetry.SampleRate,
	}, os.Stderr)
	if err != nil {
		return nil, err
	}

	var listCache cache.ListCache
	cacheBackend := "memory"
	if cfg.Redis.Enabled {
		app.redis, err = database.NewRedisConnection(cfg.Redis, logger)
		if err != nil {
			app.Close()
			return nil, err
		}
		listCache = cache.NewRedisListCache(app.redis.Client, "", logger)
		cacheBackend = "redis"
	} else {
		listCache = cache.NewMemoryListCache()
	}

	exchange := cfg.CCXT.Exchange
	app.ccxt = ccxt.NewClient(&cfg.CCXT)
	if rps := cfg.RateLimit.RequestsPerSecond; rps > 0 {
		app.ccxt.WithRateLimiter(rate.NewLimiter(rate.Limit(rps), max(cfg.RateLimit.Burst, 1)))
	}
	cmc := coinmarketcap.NewClient(&cfg.CoinMarketCap)

	ranking := cache.NewCachedRanking(marketdata.NewRanking(cmc), listCache, cfg.Cache.RankingTTL, logger)
	catalog := cache.NewCachedCatalog(marketdata.NewCatalog(app.ccxt, exchange, logger), listCache, exchange, cfg.Cache.CatalogTTL, logger)

	app.metrics = metrics.New()
	app.metrics.RegisterCache(cacheBackend, listCache)

	builder := services.NewUniverseBuilder(ranking, catalog, services.UniverseConfig{
		RankingLimit:  cfg.Scanner.RankingLimit,
		Excluded:      cfg.Scanner.ExcludedSet(),
		QuoteCurrency: cfg.Scanner.QuoteCurrency,
	}, logger)

	fetcher := services.NewCandleFetcher(
		marketdata.NewCandleSource(app.ccxt, exchange, logger),
		services.RetryPolicy{MaxAttempts: cfg.Scanner.Retry.MaxAttempts, Backoff: cfg.Scanner.Retry.Backoff},
		app.metrics,
		logger,
	)

	osc := cfg.Scanner.Oscillator
	processor := services.NewSymbolProcessor(fetcher, indicators.DSSParams{
		Lookback:     osc.Lookback,
		SmoothingLen: osc.SmoothingLen,
		TriggerLen:   osc.TriggerLen,
	}, cfg.Scanner.CandleLimit, app.metrics, logger)

	telegram := cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0
	if telegram {
		notifier, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
		if err != nil {
			app.Close()
			return nil, err
		}
		sinks = append(sinks, notifier)
	}

	app.scanner = services.NewScanner(
		builder,
		services.NewPipeline(processor, app.metrics, logger),
		services.ScanSettings{
			Exchange:       exchange,
			Timeframes:     timeframes,
			MaxConcurrency: cfg.Scanner.MaxConcurrency,
		},
		app.metrics,
		logger,
		sinks...,
	)

	logging.WithExchange(logger, exchange).WithFields(logrus.Fields{
		"timeframes":    len(timeframes),
		"ranking_limit": cfg.Scanner.RankingLimit,
		"redis":         cfg.Redis.Enabled,
		"telegram":      telegram,
		"tracing":       cfg.Telemetry.Enabled,
	}).Debug("Scanner wired")

	return app, nil
}

// healthChecks lists the dependencies reported by /health. Redis is nil when disabled.
func (a *application) healthChecks() map[string]handlers.HealthCheckFunc {
	checks := map[string]handlers.HealthCheckFunc{
		"ccxt": func(ctx context.Context) error {
			resp, err := a.ccxt.HealthCheck(ctx)
			if err != nil {
				return err
			}
			if resp.Status != "" && resp.Status != "ok" && resp.Status != "healthy" {
				return fmt.Errorf("ccxt service status %q", resp.Status)
			}
			return nil
		},
		"redis": nil,
	}
	if a.redis != nil {
		checks["redis"] = a.redis.HealthCheck
	}
	return checks
}

func (a *application) Close() {
	if a.tracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.tracing(ctx); err != nil {
			a.logger.WithError(err).Warn("Failed to flush traces")
		}
		cancel()
	}
	if a.ccxt != nil {
		_ = a.ccxt.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

// newProgressLogger logs once per completed tenth of the universe.
// It is only called from the pipeline's collector goroutine.
func newProgressLogger(logger *logrus.Logger, runID func() string) services.ProgressFunc {
	lastStep := 0
	return func(completed, total int) {
		if total <= 0 {
			return
		}
		step := completed * 10 / total
		if step <= lastStep {
			return
		}
		lastStep = step
		logging.LogScanProgress(logger, runID(), completed, total)
	}
}
