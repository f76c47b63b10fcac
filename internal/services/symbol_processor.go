package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/dss-scanner/internal/indicators"
	"github.com/irfndi/dss-scanner/internal/logging"
	"github.com/irfndi/dss-scanner/internal/models"
	"github.com/irfndi/dss-scanner/internal/telemetry"
)

// SymbolProcessor labels one pair on every timeframe and aggregates the labels.
type SymbolProcessor struct {
	fetcher     *CandleFetcher
	params      indicators.DSSParams
	candleLimit int
	metrics     MetricsRecorder
	tracer      trace.Tracer
	logger      *logrus.Logger
}

// NewSymbolProcessor creates a processor fetching candleLimit candles per timeframe.
func NewSymbolProcessor(fetcher *CandleFetcher, params indicators.DSSParams, candleLimit int, metrics MetricsRecorder, logger *logrus.Logger) *SymbolProcessor {
	return &SymbolProcessor{
		fetcher:     fetcher,
		params:      params,
		candleLimit: candleLimit,
		metrics:     metricsOrNoop(metrics),
		tracer:      telemetry.GetScanTracer(),
		logger:      logger,
	}
}

// Process produces the row for entry. It never fails: missing data turns into
// Unavailable labels and therefore a Neutral signal.
func (p *SymbolProcessor) Process(ctx context.Context, entry models.UniverseEntry, timeframes []models.Timeframe) models.SymbolRow {
	ctx, span := p.tracer.Start(ctx, "symbol.process", trace.WithAttributes(
		attribute.String("symbol.pair", entry.Pair),
		attribute.Int("symbol.rank_index", entry.RankIndex),
	))
	defer span.End()

	start := time.Now()

	row := models.SymbolRow{
		Symbol:    entry.Symbol,
		Pair:      entry.Pair,
		RankIndex: entry.RankIndex,
		Labels:    make(map[string]models.TimeframeLabel, len(timeframes)),
	}

	ordered := make([]models.TimeframeLabel, 0, len(timeframes))
	for _, tf := range timeframes {
		label := p.labelTimeframe(ctx, entry.Pair, tf)
		row.Labels[tf.Label] = label
		ordered = append(ordered, label)
		span.SetAttributes(attribute.String("symbol.direction."+tf.Label, string(label.Direction)))
	}
	row.Signal = AggregateSignal(ordered)
	span.SetAttributes(attribute.String("symbol.signal", string(row.Signal)))

	p.metrics.ObserveSymbol(row.Signal, time.Since(start))
	logging.WithSymbol(p.logger, entry.Symbol).WithFields(logrus.Fields{
		"pair":     entry.Pair,
		"signal":   row.Signal,
		"duration": time.Since(start),
	}).Debug("Symbol processed")

	return row
}

func (p *SymbolProcessor) labelTimeframe(ctx context.Context, pair string, tf models.Timeframe) models.TimeframeLabel {
	series, ok := p.fetcher.Fetch(ctx, pair, tf.Code, p.candleLimit)
	if !ok {
		return models.UnavailableLabel()
	}

	result := indicators.ComputeDSS(series.Highs(), series.Lows(), series.Closes(), p.params)
	return Classify(result.Signal, result.Trigger)
}

// AggregateSignal is Long when every label is Bullish, Short when every label
// is Bearish and Neutral otherwise, including for an empty set.
func AggregateSignal(labels []models.TimeframeLabel) models.Signal {
	if len(labels) == 0 {
		return models.SignalNeutral
	}

	allBullish, allBearish := true, true
	for _, l := range labels {
		if l.Direction != models.DirectionBullish {
			allBullish = false
		}
		if l.Direction != models.DirectionBearish {
			allBearish = false
		}
	}

	switch {
	case allBullish:
		return models.SignalLong
	case allBearish:
		return models.SignalShort
	default:
		return models.SignalNeutral
	}
}
