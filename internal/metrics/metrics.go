// Package metrics exposes scan instrumentation through Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/irfndi/dss-scanner/internal/cache"
	"github.com/irfndi/dss-scanner/internal/models"
)

// CacheStatsSource is satisfied by every cache.ListCache.
type CacheStatsSource interface {
	GetStats() cache.CacheStats
}

// Recorder implements services.MetricsRecorder using Prometheus.
type Recorder struct {
	registry *prometheus.Registry

	candleFetches  *prometheus.CounterVec
	fetchAttempts  prometheus.Histogram
	symbolSignals  *prometheus.CounterVec
	symbolDuration prometheus.Histogram
	scansTotal     *prometheus.CounterVec
	scanDuration   prometheus.Histogram
	scanRows       prometheus.Gauge
	scanProgress   prometheus.Gauge
}

// New creates a recorder on its own registry, including Go and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(reg)
}

// NewWithRegistry registers the scan metrics on reg.
func NewWithRegistry(reg *prometheus.Registry) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		candleFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dss_candle_fetches_total",
				Help: "Candle fetches by timeframe and outcome",
			},
			[]string{"timeframe", "outcome"},
		),
		fetchAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dss_candle_fetch_attempts",
			Help:    "Provider calls per candle fetch",
			Buckets: []float64{1, 2, 3, 5},
		}),
		symbolSignals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dss_symbol_signals_total",
				Help: "Processed symbols by composite signal",
			},
			[]string{"signal"},
		),
		symbolDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dss_symbol_duration_seconds",
			Help:    "Time to label one symbol on every timeframe",
			Buckets: prometheus.DefBuckets,
		}),
		scansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dss_scans_total",
				Help: "Completed scans by status",
			},
			[]string{"status"},
		),
		scanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dss_scan_duration_seconds",
			Help:    "Duration of a full scan",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		scanRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dss_scan_rows",
			Help: "Rows in the last scan",
		}),
		scanProgress: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dss_scan_progress_ratio",
			Help: "Completed fraction of the running scan",
		}),
	}
}

// ObserveCandleFetch records one fetch outcome and its attempt count.
func (r *Recorder) ObserveCandleFetch(timeframe, outcome string, attempts int) {
	r.candleFetches.WithLabelValues(timeframe, outcome).Inc()
	if attempts > 0 {
		r.fetchAttempts.Observe(float64(attempts))
	}
}

// ObserveSymbol records a processed symbol.
func (r *Recorder) ObserveSymbol(signal models.Signal, duration time.Duration) {
	r.symbolSignals.WithLabelValues(string(signal)).Inc()
	r.symbolDuration.Observe(duration.Seconds())
}

// ObserveScan records a finished or aborted scan.
func (r *Recorder) ObserveScan(duration time.Duration, rows int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.scansTotal.WithLabelValues(status).Inc()
	r.scanDuration.Observe(duration.Seconds())
	if err == nil {
		r.scanRows.Set(float64(rows))
	}
}

// SetProgress sets the running scan's completed fraction.
func (r *Recorder) SetProgress(fraction float64) {
	r.scanProgress.Set(fraction)
}

// RegisterCache exports the provider cache counters and hit ratio, labelled
// with backend. Values are read from source on every scrape.
func (r *Recorder) RegisterCache(backend string, source CacheStatsSource) {
	factory := promauto.With(r.registry)
	labels := prometheus.Labels{"backend": backend}

	factory.NewCounterFunc(prometheus.CounterOpts{
		Name:        "dss_cache_hits_total",
		Help:        "Provider cache lookups served from the cache",
		ConstLabels: labels,
	}, func() float64 { return float64(source.GetStats().Hits) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Name:        "dss_cache_misses_total",
		Help:        "Provider cache lookups that went upstream",
		ConstLabels: labels,
	}, func() float64 { return float64(source.GetStats().Misses) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Name:        "dss_cache_sets_total",
		Help:        "Provider lists written to the cache",
		ConstLabels: labels,
	}, func() float64 { return float64(source.GetStats().Sets) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "dss_cache_hit_ratio",
		Help:        "Share of provider cache lookups served from the cache",
		ConstLabels: labels,
	}, func() float64 { return source.GetStats().HitRate() / 100 })
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
