package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/dss-scanner/internal/models"
)

func sampleResult() *models.ScanResult {
	return &models.ScanResult{
		RunID:      "run-1",
		Exchange:   "binance",
		FinishedAt: time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC),
		Timeframes: []models.Timeframe{{Label: "1W", Code: "1w"}, {Label: "1D", Code: "1d"}},
		Rows: []models.SymbolRow{
			{
				Symbol: "BTC", Pair: "BTC/USDT", RankIndex: 0, Signal: models.SignalLong,
				Labels: map[string]models.TimeframeLabel{
					"1W": models.NewTimeframeLabel(models.DirectionBullish, 63.6),
					"1D": models.NewTimeframeLabel(models.DirectionBullish, 70.2),
				},
			},
			{
				Symbol: "ETH", Pair: "ETH/USDT", RankIndex: 1, Signal: models.SignalNeutral,
				Labels: map[string]models.TimeframeLabel{
					"1W": models.UnavailableLabel(),
					"1D": models.NewTimeframeLabel(models.DirectionBearish, 30),
				},
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("table")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	_, err = ParseFormat("csv")
	assert.Error(t, err)
}

func TestBuildTable(t *testing.T) {
	table := BuildTable(sampleResult())

	assert.Equal(t, []string{"#", "Symbol", "1W", "1W_DSS", "1D", "1D_DSS", "Signal"}, table.Columns)
	assert.Equal(t, "DSS Bressert scan | Binance | 2024-06-01 12:30 UTC", table.Title)
	require.Len(t, table.Rows, 2)

	first := table.Rows[0]
	assert.Equal(t, "1", first[0].Text)
	assert.Equal(t, "BTC/USDT", first[1].Text)
	assert.Equal(t, Cell{Text: "Bullish", Category: models.CategoryPositive}, first[2])
	assert.Equal(t, "64", first[3].Text)
	assert.Equal(t, Cell{Text: "Long", Category: models.CategoryPositive}, first[6])

	second := table.Rows[1]
	assert.Equal(t, "2", second[0].Text)
	assert.Equal(t, Cell{Text: "N/A", Category: models.CategoryNone}, second[2])
	assert.Equal(t, "N/A", second[3].Text)
	assert.Equal(t, Cell{Text: "Bearish", Category: models.CategoryNegative}, second[4])
	assert.Equal(t, Cell{Text: "Neutral", Category: models.CategoryNeutral}, second[6])
}

func TestRenderer_PlainTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(false).Render(&buf, sampleResult(), FormatTable))

	out := buf.String()
	assert.NotContains(t, out, "\x1b[")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, []string{"#", "Symbol", "1W", "1W_DSS", "1D", "1D_DSS", "Signal"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"1", "BTC/USDT", "Bullish", "64", "Bullish", "70", "Long"}, strings.Fields(lines[4]))
	assert.Equal(t, []string{"2", "ETH/USDT", "N/A", "N/A", "Bearish", "30", "Neutral"}, strings.Fields(lines[5]))

	// columns are aligned: every row has the same width up to the signal column
	assert.Equal(t, strings.Index(lines[2], "Signal"), strings.Index(lines[4], "Long"))
}

func TestRenderer_ColoredTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(true).Render(&buf, sampleResult(), FormatTable))

	out := buf.String()
	assert.Contains(t, out, ansiGreen+"Bullish")
	assert.Contains(t, out, ansiRed+"Bearish")
	assert.Contains(t, out, ansiGray+"Neutral")
}

func TestRenderer_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(false).Render(&buf, sampleResult(), FormatJSON))

	var decoded models.ScanResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	require.Len(t, decoded.Rows, 2)
	assert.Nil(t, decoded.Rows[1].Labels["1W"].Reading)
	assert.Equal(t, 64, *decoded.Rows[0].Labels["1W"].Reading)
}

func TestRenderer_RenderError(t *testing.T) {
	timeframes := []models.Timeframe{{Label: "1W", Code: "1w"}}

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(false).RenderError(&buf, errors.New("ranking provider failed"), timeframes, FormatTable))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Error: ranking provider failed"))
	assert.Contains(t, out, "1W_DSS")

	buf.Reset()
	require.NoError(t, NewRenderer(false).RenderError(&buf, errors.New("boom"), timeframes, FormatJSON))
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "boom", decoded["error"])
	assert.Equal(t, []interface{}{}, decoded["rows"])
}

func TestSink_Publish(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf, NewRenderer(false), FormatTable)
	require.NoError(t, sink.Publish(context.Background(), sampleResult()))
	assert.Contains(t, buf.String(), "ETH/USDT")
}
