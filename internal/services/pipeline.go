package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/dss-scanner/internal/models"
)

// DefaultMaxConcurrency is the worker count used when none is configured.
const DefaultMaxConcurrency = 15

// RowProcessor turns a universe entry into a row. *SymbolProcessor implements it.
type RowProcessor interface {
	Process(ctx context.Context, entry models.UniverseEntry, timeframes []models.Timeframe) models.SymbolRow
}

// Pipeline fans a universe out over a fixed pool of workers.
type Pipeline struct {
	processor RowProcessor
	metrics   MetricsRecorder
	logger    *logrus.Logger
}

// NewPipeline creates a pipeline around processor.
func NewPipeline(processor RowProcessor, metrics MetricsRecorder, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		processor: processor,
		metrics:   metricsOrNoop(metrics),
		logger:    logger,
	}
}

// Run processes every entry with at most maxConcurrency in flight and returns
// the rows sorted by RankIndex. progress is called after each completion.
// When ctx is cancelled queued entries are skipped, in-flight entries finish
// and the rows produced so far are returned.
func (p *Pipeline) Run(ctx context.Context, universe models.Universe, timeframes []models.Timeframe, maxConcurrency int, progress ProgressFunc) []models.SymbolRow {
	total := len(universe)
	rows := make([]models.SymbolRow, 0, total)
	if total == 0 {
		return rows
	}

	workers := maxConcurrency
	if workers < 1 {
		workers = DefaultMaxConcurrency
	}
	if workers > total {
		workers = total
	}

	tasks := make(chan models.UniverseEntry, total)
	for _, entry := range universe {
		tasks <- entry
	}
	close(tasks)

	results := make(chan models.SymbolRow, total)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range tasks {
				if ctx.Err() != nil {
					continue
				}
				results <- p.processor.Process(ctx, entry, timeframes)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	start := time.Now()
	completed := 0
	for row := range results {
		rows = append(rows, row)
		completed++
		p.metrics.SetProgress(float64(completed) / float64(total))
		if progress != nil {
			progress(completed, total)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].RankIndex < rows[j].RankIndex
	})

	fields := logrus.Fields{
		"workers":   workers,
		"completed": completed,
		"total":     total,
		"duration":  time.Since(start),
	}
	if ctx.Err() != nil {
		p.logger.WithFields(fields).Warn("Pipeline cancelled, returning partial rows")
	} else {
		p.logger.WithFields(fields).Info("Pipeline finished")
	}

	return rows
}
