package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/dss-scanner/internal/models"
	"github.com/irfndi/dss-scanner/internal/utils"
)

func TestCCXTConfig_Getters(t *testing.T) {
	config := CCXTConfig{
		ServiceURL: "http://localhost:3001",
		Timeout:    30,
		Exchange:   "binance",
	}

	assert.Equal(t, "http://localhost:3001", config.GetServiceURL())
	assert.Equal(t, 30, config.GetTimeout())
}

func TestLoad_WithDefaults(t *testing.T) {
	// Clear any existing environment variables that might interfere
	os.Clearenv()

	config, err := Load()
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, 8080, config.Server.Port)
	assert.False(t, config.Redis.Enabled)
	assert.Equal(t, "localhost", config.Redis.Host)
	assert.Equal(t, 6379, config.Redis.Port)
	assert.Equal(t, "http://localhost:3001", config.CCXT.ServiceURL)
	assert.Equal(t, "binance", config.CCXT.Exchange)
	assert.Equal(t, "https://pro-api.coinmarketcap.com", config.CoinMarketCap.BaseURL)
	assert.Equal(t, time.Hour, config.Cache.CatalogTTL)
	assert.Equal(t, 5*time.Minute, config.Cache.RankingTTL)
	assert.Equal(t, TelemetryConfig{Enabled: false, Exporter: "stdout", SampleRate: 1}, config.Telemetry)

	s := config.Scanner
	assert.Equal(t, 200, s.RankingLimit)
	assert.Equal(t, 15, s.MaxConcurrency)
	assert.Equal(t, 300, s.CandleLimit)
	assert.Equal(t, "USDT", s.QuoteCurrency)
	assert.Equal(t, []string{"USDT", "USDC", "BUSD", "DAI", "TUSD", "FDUSD", "GUSD"}, s.ExcludedSymbols)
	assert.Equal(t, OscillatorConfig{Lookback: 10, SmoothingLen: 9, TriggerLen: 5}, s.Oscillator)
	assert.Equal(t, RetryConfig{MaxAttempts: 3, Backoff: 2 * time.Second}, s.Retry)

	timeframes, err := s.ParseTimeframes()
	require.NoError(t, err)
	assert.Equal(t, []models.Timeframe{{Label: "1W", Code: "1w"}, {Label: "1D", Code: "1d"}}, timeframes)
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	t.Setenv("ENVIRONMENT", "Production")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_HOST", "prod-redis.example.com")
	t.Setenv("CCXT_SERVICE_URL", "http://prod-ccxt.example.com:3000")
	t.Setenv("CCXT_EXCHANGE", "kraken")
	t.Setenv("CMC_API_KEY", "prod-key")
	t.Setenv("SCANNER_MAX_CONCURRENCY", "4")
	t.Setenv("SCANNER_QUOTE_CURRENCY", "usdc")
	t.Setenv("SCANNER_TIMEFRAMES", "4H:4h,1D:1d")
	t.Setenv("SCANNER_RETRY_BACKOFF", "500ms")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", config.Environment)
	assert.Equal(t, "error", config.LogLevel)
	assert.Equal(t, 9000, config.Server.Port)
	assert.True(t, config.Redis.Enabled)
	assert.Equal(t, "prod-redis.example.com", config.Redis.Host)
	assert.Equal(t, "http://prod-ccxt.example.com:3000", config.CCXT.ServiceURL)
	assert.Equal(t, "kraken", config.CCXT.Exchange)
	assert.Equal(t, "prod-key", config.CoinMarketCap.APIKey)
	assert.Equal(t, 4, config.Scanner.MaxConcurrency)
	assert.Equal(t, "USDC", config.Scanner.QuoteCurrency)
	assert.Equal(t, 500*time.Millisecond, config.Scanner.Retry.Backoff)

	timeframes, err := config.Scanner.ParseTimeframes()
	require.NoError(t, err)
	assert.Equal(t, []models.Timeframe{{Label: "4H", Code: "4h"}, {Label: "1D", Code: "1d"}}, timeframes)
}

func TestLoad_ProductionRequiresAPIKey(t *testing.T) {
	os.Clearenv()
	t.Setenv("ENVIRONMENT", "production")

	config, err := Load()
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "CMC_API_KEY")
}

func TestLoad_InvalidScannerValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		field string
	}{
		{name: "zero concurrency", key: "SCANNER_MAX_CONCURRENCY", value: "0", field: "scanner.max_concurrency"},
		{name: "negative candle limit", key: "SCANNER_CANDLE_LIMIT", value: "-1", field: "scanner.candle_limit"},
		{name: "short lookback", key: "SCANNER_OSCILLATOR_LOOKBACK", value: "1", field: "scanner.oscillator.lookback"},
		{name: "malformed timeframe", key: "SCANNER_TIMEFRAMES", value: "1W", field: "scanner.timeframes"},
		{name: "no attempts", key: "SCANNER_RETRY_MAX_ATTEMPTS", value: "0", field: "scanner.retry.max_attempts"},
		{name: "sample rate above one", key: "TELEMETRY_SAMPLE_RATE", value: "1.5", field: "telemetry.sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			var validationErr *utils.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}

func TestValidate_TelemetryExporter(t *testing.T) {
	os.Clearenv()
	t.Setenv("TELEMETRY_ENABLED", "true")
	t.Setenv("TELEMETRY_EXPORTER", "otlp")

	_, err := Load()
	var validationErr *utils.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "telemetry.exporter", validationErr.Field)

	t.Setenv("TELEMETRY_EXPORTER", "stdout")
	config, err := Load()
	require.NoError(t, err)
	assert.True(t, config.Telemetry.Enabled)
}

func TestScannerConfig_ParseTimeframes(t *testing.T) {
	tests := []struct {
		name        string
		input       []string
		expected    []models.Timeframe
		expectError bool
	}{
		{
			name:     "keeps order",
			input:    []string{"1D:1d", " 1W : 1w "},
			expected: []models.Timeframe{{Label: "1D", Code: "1d"}, {Label: "1W", Code: "1w"}},
		},
		{name: "missing code", input: []string{"1D:"}, expectError: true},
		{name: "duplicate label", input: []string{"1D:1d", "1D:1w"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeframes, err := ScannerConfig{Timeframes: tt.input}.ParseTimeframes()
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, timeframes)
		})
	}
}

func TestScannerConfig_ExcludedSet(t *testing.T) {
	set := ScannerConfig{ExcludedSymbols: []string{"usdt", " DAI "}}.ExcludedSet()

	assert.Len(t, set, 2)
	assert.Contains(t, set, "USDT")
	assert.Contains(t, set, "DAI")
}
