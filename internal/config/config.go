package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/irfndi/dss-scanner/internal/models"
	"github.com/irfndi/dss-scanner/internal/utils"
)

type Config struct {
	Environment   string              `mapstructure:"environment"`
	LogLevel      string              `mapstructure:"log_level"`
	Server        ServerConfig        `mapstructure:"server"`
	Redis         RedisConfig         `mapstructure:"redis"`
	CCXT          CCXTConfig          `mapstructure:"ccxt"`
	CoinMarketCap CoinMarketCapConfig `mapstructure:"coinmarketcap"`
	Cache         CacheConfig         `mapstructure:"cache"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Telegram      TelegramConfig      `mapstructure:"telegram"`
	Scanner       ScannerConfig       `mapstructure:"scanner"`
	Telemetry     TelemetryConfig     `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CCXTConfig struct {
	ServiceURL string `mapstructure:"service_url"`
	Timeout    int    `mapstructure:"timeout"`
	Exchange   string `mapstructure:"exchange"`
}

// GetServiceURL returns the ccxt sidecar base URL.
func (c CCXTConfig) GetServiceURL() string {
	return c.ServiceURL
}

// GetTimeout returns the request timeout in seconds.
func (c CCXTConfig) GetTimeout() int {
	return c.Timeout
}

type CoinMarketCapConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key" json:"-" yaml:"-"`
	Convert string `mapstructure:"convert"`
	Timeout int    `mapstructure:"timeout"`
}

// CacheConfig controls the provider-side caches for the exchange catalog and ranking list.
type CacheConfig struct {
	CatalogTTL time.Duration `mapstructure:"catalog_ttl"`
	RankingTTL time.Duration `mapstructure:"ranking_ttl"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// TelemetryConfig controls OpenTelemetry tracing. Only the stdout exporter is
// supported; spans are still created against a no-op provider when disabled.
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Exporter   string  `mapstructure:"exporter"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token" json:"-" yaml:"-"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// ScannerConfig holds the DSS scan parameters.
type ScannerConfig struct {
	RankingLimit    int              `mapstructure:"ranking_limit"`
	ExcludedSymbols []string         `mapstructure:"excluded_symbols"`
	QuoteCurrency   string           `mapstructure:"quote_currency"`
	Timeframes      []string         `mapstructure:"timeframes"` // "LABEL:code", in display order
	MaxConcurrency  int              `mapstructure:"max_concurrency"`
	CandleLimit     int              `mapstructure:"candle_limit"`
	Oscillator      OscillatorConfig `mapstructure:"oscillator"`
	Retry           RetryConfig      `mapstructure:"retry"`
}

type OscillatorConfig struct {
	Lookback     int `mapstructure:"lookback"`
	SmoothingLen int `mapstructure:"smoothing_len"`
	TriggerLen   int `mapstructure:"trigger_len"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
}

// ParseTimeframes converts the "LABEL:code" entries into ordered timeframes.
func (s ScannerConfig) ParseTimeframes() ([]models.Timeframe, error) {
	timeframes := make([]models.Timeframe, 0, len(s.Timeframes))
	seen := make(map[string]struct{}, len(s.Timeframes))
	for _, raw := range s.Timeframes {
		label, code, ok := strings.Cut(strings.TrimSpace(raw), ":")
		label, code = strings.TrimSpace(label), strings.TrimSpace(code)
		if !ok || label == "" || code == "" {
			return nil, utils.NewValidationErrorf("scanner.timeframes", "invalid entry %q, expected LABEL:code", raw)
		}
		if _, dup := seen[label]; dup {
			return nil, utils.NewValidationErrorf("scanner.timeframes", "duplicate label %q", label)
		}
		seen[label] = struct{}{}
		timeframes = append(timeframes, models.Timeframe{Label: label, Code: code})
	}
	return timeframes, nil
}

// ExcludedSet returns the excluded symbols upper-cased as a set.
func (s ScannerConfig) ExcludedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.ExcludedSymbols))
	for _, sym := range s.ExcludedSymbols {
		set[strings.ToUpper(strings.TrimSpace(sym))] = struct{}{}
	}
	return set
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment and config.yaml still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("coinmarketcap.api_key", "CMC_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind CMC_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind TELEGRAM_BOT_TOKEN environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)
	config.Scanner.QuoteCurrency = strings.ToUpper(config.Scanner.QuoteCurrency)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the loaded values for consistency.
func (c *Config) Validate() error {
	if c.Environment != "development" && c.CoinMarketCap.APIKey == "" {
		return errors.New("CMC_API_KEY environment variable is required in non-development environments")
	}

	s := c.Scanner
	if s.RankingLimit <= 0 {
		return utils.NewValidationErrorf("scanner.ranking_limit", "must be positive, got %d", s.RankingLimit)
	}
	if s.MaxConcurrency <= 0 {
		return utils.NewValidationErrorf("scanner.max_concurrency", "must be positive, got %d", s.MaxConcurrency)
	}
	if s.CandleLimit <= 0 {
		return utils.NewValidationErrorf("scanner.candle_limit", "must be positive, got %d", s.CandleLimit)
	}
	if s.QuoteCurrency == "" {
		return utils.NewValidationError("scanner.quote_currency", "must not be empty")
	}
	if len(s.Timeframes) == 0 {
		return utils.NewValidationError("scanner.timeframes", "at least one timeframe is required")
	}
	if _, err := s.ParseTimeframes(); err != nil {
		return err
	}
	if s.Oscillator.Lookback < 2 {
		return utils.NewValidationErrorf("scanner.oscillator.lookback", "must be at least 2, got %d", s.Oscillator.Lookback)
	}
	if s.Oscillator.SmoothingLen < 1 || s.Oscillator.TriggerLen < 1 {
		return utils.NewValidationError("scanner.oscillator", "smoothing_len and trigger_len must be positive")
	}
	if s.Retry.MaxAttempts < 1 {
		return utils.NewValidationErrorf("scanner.retry.max_attempts", "must be at least 1, got %d", s.Retry.MaxAttempts)
	}
	if s.Retry.Backoff < 0 {
		return utils.NewValidationError("scanner.retry.backoff", "must not be negative")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return utils.NewValidationError("rate_limit", "requests_per_second and burst must not be negative")
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return utils.NewValidationErrorf("telemetry.sample_rate", "must be within [0, 1], got %g", c.Telemetry.SampleRate)
	}
	if c.Telemetry.Enabled && c.Telemetry.Exporter != "stdout" {
		return utils.NewValidationErrorf("telemetry.exporter", "unsupported exporter %q", c.Telemetry.Exporter)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Environment
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	// Server
	v.SetDefault("server.port", 8080)

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// CCXT
	v.SetDefault("ccxt.service_url", "http://localhost:3001")
	v.SetDefault("ccxt.timeout", 30)
	v.SetDefault("ccxt.exchange", "binance")

	// CoinMarketCap
	v.SetDefault("coinmarketcap.base_url", "https://pro-api.coinmarketcap.com")
	v.SetDefault("coinmarketcap.api_key", "")
	v.SetDefault("coinmarketcap.convert", "USD")
	v.SetDefault("coinmarketcap.timeout", 30)

	// Provider caches
	v.SetDefault("cache.catalog_ttl", "1h")
	v.SetDefault("cache.ranking_ttl", "5m")

	// Candle client throttle
	v.SetDefault("rate_limit.requests_per_second", 20.0)
	v.SetDefault("rate_limit.burst", 15)

	// Telegram
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)

	// Tracing
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.exporter", "stdout")
	v.SetDefault("telemetry.sample_rate", 1.0)

	// Scanner
	v.SetDefault("scanner.ranking_limit", 200)
	v.SetDefault("scanner.excluded_symbols", []string{"USDT", "USDC", "BUSD", "DAI", "TUSD", "FDUSD", "GUSD"})
	v.SetDefault("scanner.quote_currency", "USDT")
	v.SetDefault("scanner.timeframes", []string{"1W:1w", "1D:1d"})
	v.SetDefault("scanner.max_concurrency", 15)
	v.SetDefault("scanner.candle_limit", 300)
	v.SetDefault("scanner.oscillator.lookback", 10)
	v.SetDefault("scanner.oscillator.smoothing_len", 9)
	v.SetDefault("scanner.oscillator.trigger_len", 5)
	v.SetDefault("scanner.retry.max_attempts", 3)
	v.SetDefault("scanner.retry.backoff", "2s")
}
