package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogrusLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"DEBUG", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"info", logrus.InfoLevel},
		{"", logrus.InfoLevel},
		{"verbose", logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLogrusLevel(tt.input))
		})
	}
}

func TestNewLogger_Formatters(t *testing.T) {
	dev := NewLogger("debug", "development")
	assert.IsType(t, &logrus.TextFormatter{}, dev.Formatter)
	assert.Equal(t, logrus.DebugLevel, dev.GetLevel())

	prod := NewLogger("warn", "production")
	assert.IsType(t, &logrus.JSONFormatter{}, prod.Formatter)
	assert.Equal(t, logrus.WarnLevel, prod.GetLevel())
}

func TestNewLoggerWithOutput_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("info", "production", &buf)

	WithSymbol(logger, "BTC/USDT").WithError(errors.New("boom")).Warn("fetch failed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "BTC/USDT", entry["symbol"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "fetch failed", entry["msg"])
	assert.Equal(t, "warning", entry["level"])
}

func TestStandardEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("debug", "production", &buf)

	LogScanProgress(logger, "run-1", 5, 20)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scan_progress", entry["event"])
	assert.Equal(t, float64(25), entry["percent"])
	assert.Equal(t, "run-1", entry["run_id"])

	buf.Reset()
	LogScanProgress(logger, "run-2", 0, 0)
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, float64(0), entry["percent"])

	buf.Reset()
	LogStartup(logger, "dss-scanner", "1.0.0", 8080)
	assert.Contains(t, buf.String(), `"event":"startup"`)

	buf.Reset()
	LogShutdown(logger, "dss-scanner", "signal")
	assert.Contains(t, buf.String(), `"reason":"signal"`)

	buf.Reset()
	LogCacheOperation(logger, "get", "catalog:binance", true, 3)
	assert.Contains(t, buf.String(), `"hit":true`)

	buf.Reset()
	LogAPIRequest(logger, "GET", "/api/v1/scan", 200, 12)
	assert.Contains(t, buf.String(), `"status":200`)

	buf.Reset()
	WithComponent(logger, "pipeline").Info("x")
	assert.Contains(t, buf.String(), `"component":"pipeline"`)
	buf.Reset()
	WithExchange(logger, "binance").Info("x")
	assert.Contains(t, buf.String(), `"exchange":"binance"`)
}
