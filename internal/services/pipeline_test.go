package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/dss-scanner/internal/models"
)

// orderedProcessor lets each symbol finish only after the symbol named in after.
type orderedProcessor struct {
	after    map[string]string
	done     map[string]chan struct{}
	mu       sync.Mutex
	finished []string
}

func newOrderedProcessor(symbols []string, after map[string]string) *orderedProcessor {
	done := make(map[string]chan struct{}, len(symbols))
	for _, s := range symbols {
		done[s] = make(chan struct{})
	}
	return &orderedProcessor{after: after, done: done}
}

func (o *orderedProcessor) Process(ctx context.Context, entry models.UniverseEntry, _ []models.Timeframe) models.SymbolRow {
	if prev, ok := o.after[entry.Symbol]; ok {
		<-o.done[prev]
	}
	o.mu.Lock()
	o.finished = append(o.finished, entry.Symbol)
	o.mu.Unlock()
	close(o.done[entry.Symbol])
	return models.SymbolRow{Symbol: entry.Symbol, Pair: entry.Pair, RankIndex: entry.RankIndex, Signal: models.SignalNeutral}
}

func universeOf(symbols ...string) models.Universe {
	u := make(models.Universe, len(symbols))
	for i, s := range symbols {
		u[i] = models.UniverseEntry{Symbol: s, Pair: models.PairID(s, "USDT"), RankIndex: i}
	}
	return u
}

func TestPipeline_RestoresRankOrder(t *testing.T) {
	processor := newOrderedProcessor([]string{"A", "B", "C"}, map[string]string{"A": "B", "B": "C"})
	pipeline := NewPipeline(processor, nil, quietLogger())

	rows := pipeline.Run(context.Background(), universeOf("A", "B", "C"), nil, 3, nil)

	assert.Equal(t, []string{"C", "B", "A"}, processor.finished)
	require.Len(t, rows, 3)
	assert.Equal(t, "A", rows[0].Symbol)
	assert.Equal(t, "B", rows[1].Symbol)
	assert.Equal(t, "C", rows[2].Symbol)
}

func TestPipeline_Progress(t *testing.T) {
	processor := newOrderedProcessor([]string{"A", "B", "C", "D"}, nil)
	pipeline := NewPipeline(processor, nil, quietLogger())

	var calls [][2]int
	rows := pipeline.Run(context.Background(), universeOf("A", "B", "C", "D"), nil, 2, func(completed, total int) {
		calls = append(calls, [2]int{completed, total})
	})

	assert.Len(t, rows, 4)
	assert.Equal(t, [][2]int{{1, 4}, {2, 4}, {3, 4}, {4, 4}}, calls)
}

type countingProcessor struct {
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	calls       atomic.Int32
}

func (c *countingProcessor) Process(ctx context.Context, entry models.UniverseEntry, _ []models.Timeframe) models.SymbolRow {
	c.calls.Add(1)
	n := c.inFlight.Add(1)
	for {
		m := c.maxInFlight.Load()
		if n <= m || c.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	c.inFlight.Add(-1)
	return models.SymbolRow{Symbol: entry.Symbol, RankIndex: entry.RankIndex}
}

func TestPipeline_BoundsConcurrency(t *testing.T) {
	symbols := make([]string, 30)
	for i := range symbols {
		symbols[i] = string(rune('A'+i%26)) + string(rune('a'+i/26))
	}

	processor := &countingProcessor{}
	rows := NewPipeline(processor, nil, quietLogger()).Run(context.Background(), universeOf(symbols...), nil, 4, nil)

	assert.Len(t, rows, 30)
	assert.LessOrEqual(t, processor.maxInFlight.Load(), int32(4))
	for i, row := range rows {
		assert.Equal(t, i, row.RankIndex)
	}
}

func TestPipeline_DefaultsConcurrency(t *testing.T) {
	processor := &countingProcessor{}
	rows := NewPipeline(processor, nil, quietLogger()).Run(context.Background(), universeOf("A", "B"), nil, 0, nil)
	assert.Len(t, rows, 2)
}

func TestPipeline_EmptyUniverse(t *testing.T) {
	called := false
	rows := NewPipeline(&countingProcessor{}, nil, quietLogger()).Run(context.Background(), nil, nil, 3, func(int, int) { called = true })
	assert.Empty(t, rows)
	assert.NotNil(t, rows)
	assert.False(t, called)
}

type cancellingProcessor struct {
	cancel context.CancelFunc
	calls  atomic.Int32
}

func (c *cancellingProcessor) Process(ctx context.Context, entry models.UniverseEntry, _ []models.Timeframe) models.SymbolRow {
	c.calls.Add(1)
	c.cancel()
	return models.SymbolRow{Symbol: entry.Symbol, RankIndex: entry.RankIndex}
}

func TestPipeline_CancellationReturnsPartialRows(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	processor := &cancellingProcessor{cancel: cancel}
	rows := NewPipeline(processor, nil, quietLogger()).Run(ctx, universeOf("A", "B", "C", "D", "E"), nil, 1, nil)

	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].Symbol)
	assert.Equal(t, int32(1), processor.calls.Load())
}
