package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/dss-scanner/internal/models"
	"github.com/irfndi/dss-scanner/internal/telemetry"
)

// ErrScanInProgress is returned when a scan is requested while one is running.
var ErrScanInProgress = errors.New("scan already in progress")

// ScanSettings are the per-run pipeline parameters.
type ScanSettings struct {
	Exchange       string
	Timeframes     []models.Timeframe
	MaxConcurrency int
}

// ScanProgress is a snapshot of the running or last finished scan.
type ScanProgress struct {
	RunID     string  `json:"run_id"`
	Running   bool    `json:"running"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Fraction  float64 `json:"fraction"`
}

// Scanner runs complete scans and keeps the latest result.
type Scanner struct {
	universe *UniverseBuilder
	pipeline *Pipeline
	settings ScanSettings
	sinks    []ResultSink
	metrics  MetricsRecorder
	tracer   trace.Tracer
	logger   *logrus.Logger

	mu       sync.RWMutex
	latest   *models.ScanResult
	lastErr  error
	progress ScanProgress
}

// NewScanner creates a scanner publishing every completed result to sinks.
func NewScanner(universe *UniverseBuilder, pipeline *Pipeline, settings ScanSettings, metrics MetricsRecorder, logger *logrus.Logger, sinks ...ResultSink) *Scanner {
	return &Scanner{
		universe: universe,
		pipeline: pipeline,
		settings: settings,
		sinks:    sinks,
		metrics:  metricsOrNoop(metrics),
		tracer:   telemetry.GetScanTracer(),
		logger:   logger,
	}
}

// Scan builds the universe, runs the pipeline and publishes the result.
// Ranking or catalog failures and an empty universe abort the run and
// return a ProviderFatalError with no result. A cancelled run returns the partial rows with ctx's error
// and is neither stored nor published.
func (s *Scanner) Scan(ctx context.Context, onProgress ProgressFunc) (*models.ScanResult, error) {
	runID := uuid.NewString()
	if !s.begin(runID) {
		return nil, ErrScanInProgress
	}
	defer s.finish()
	return s.run(ctx, runID, onProgress)
}

// StartScan claims the scanner and runs the scan in the background. It
// returns the run id, or ErrScanInProgress when another run holds the
// scanner. The outcome is available through Latest once Progress reports
// the run as finished.
func (s *Scanner) StartScan(ctx context.Context, onProgress ProgressFunc) (string, error) {
	runID := uuid.NewString()
	if !s.begin(runID) {
		return "", ErrScanInProgress
	}
	go func() {
		defer s.finish()
		_, _ = s.run(ctx, runID, onProgress)
	}()
	return runID, nil
}

func (s *Scanner) run(ctx context.Context, runID string, onProgress ProgressFunc) (*models.ScanResult, error) {
	ctx, span := s.tracer.Start(ctx, "scanner.scan", trace.WithAttributes(
		attribute.String("scan.run_id", runID),
		attribute.String("scan.exchange", s.settings.Exchange),
	))
	defer span.End()

	start := time.Now()
	log := s.logger.WithFields(logrus.Fields{"run_id": runID, "exchange": s.settings.Exchange})
	log.Info("Scan started")

	universe, err := s.universe.Build(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		log.WithError(err).Error("Scan aborted")
		s.metrics.ObserveScan(time.Since(start), 0, err)
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return nil, err
	}

	s.setTotal(len(universe))
	span.SetAttributes(attribute.Int("scan.universe_size", len(universe)))
	rows := s.pipeline.Run(ctx, universe, s.settings.Timeframes, s.settings.MaxConcurrency, func(completed, total int) {
		s.setCompleted(completed, total)
		if onProgress != nil {
			onProgress(completed, total)
		}
	})

	result := &models.ScanResult{
		RunID:      runID,
		Exchange:   s.settings.Exchange,
		StartedAt:  start.UTC(),
		FinishedAt: time.Now().UTC(),
		Timeframes: s.settings.Timeframes,
		Rows:       rows,
	}

	span.SetAttributes(attribute.Int("scan.rows", len(rows)))
	if err := ctx.Err(); err != nil {
		telemetry.RecordError(span, err)
		log.WithField("rows", len(rows)).Warn("Scan cancelled")
		s.metrics.ObserveScan(time.Since(start), len(rows), err)
		return result, err
	}

	s.mu.Lock()
	s.latest = result
	s.lastErr = nil
	s.mu.Unlock()

	s.metrics.ObserveScan(time.Since(start), len(rows), nil)
	counts := result.SignalCounts()
	span.SetAttributes(
		attribute.Int("scan.long", counts[models.SignalLong]),
		attribute.Int("scan.short", counts[models.SignalShort]),
	)
	log.WithFields(logrus.Fields{
		"rows":     len(rows),
		"long":     counts[models.SignalLong],
		"short":    counts[models.SignalShort],
		"neutral":  counts[models.SignalNeutral],
		"duration": time.Since(start),
	}).Info("Scan completed")

	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, result); err != nil {
			log.WithError(err).Warn("Failed to publish scan result")
		}
	}

	return result, nil
}

// Latest returns the last completed result and the error of the last run,
// if that run failed. Both are nil before the first scan.
func (s *Scanner) Latest() (*models.ScanResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.lastErr
}

// Progress returns a snapshot of the current progress.
func (s *Scanner) Progress() ScanProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

func (s *Scanner) begin(runID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.progress.Running {
		return false
	}
	s.progress = ScanProgress{RunID: runID, Running: true}
	s.metrics.SetProgress(0)
	return true
}

func (s *Scanner) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.Running = false
}

func (s *Scanner) setTotal(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.Total = total
}

func (s *Scanner) setCompleted(completed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress.Completed = completed
	s.progress.Total = total
	if total > 0 {
		s.progress.Fraction = float64(completed) / float64(total)
	}
}
