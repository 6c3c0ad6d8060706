package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration, loaded once at startup and
// validated before any component is constructed — the single validated
// record replacing a runtime dictionary of options (§9).
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Venue enablement and quotas (§6 ENABLE_<VENUE> / <VENUE>_RATE_LIMIT_PER_MIN)
	EnablePolymarket          bool
	PolymarketRateLimitPerMin int
	PolymarketWSURL           string
	PolymarketGammaURL        string
	PolymarketClobURL         string

	EnableKalshi          bool
	KalshiRateLimitPerMin int
	KalshiAPIURL          string

	// Ingestion (§4.D, §6)
	FullSyncInterval      time.Duration
	IngestionInterval     time.Duration // targeted refresh cadence
	DiscoveryMarketLimit  int
	MaxMarketDuration     time.Duration // 0 = unlimited

	// Cache / storage (§4.C, §6)
	RedisAddr     string // "" = in-process ristretto cache
	StorageMode   string // "postgres" or "console"
	PostgresHost  string
	PostgresPort  string
	PostgresUser  string
	PostgresPass  string
	PostgresDB    string
	PostgresSSL   string

	// WebSocket (Polymarket push transport)
	WSDialTimeout           time.Duration
	WSPongTimeout           time.Duration
	WSPingInterval          time.Duration
	WSReconnectInitialDelay time.Duration
	WSReconnectMaxDelay     time.Duration
	WSReconnectBackoffMult  float64
	WSMessageBufferSize     int

	// Matching (§4.E, §6)
	MatchingInterval time.Duration
	MatchThreshold   float64

	// Arbitrage Detection (§4.F, §6)
	ArbScanInterval           time.Duration
	PriceStaleThresholdMs     int64
	OrderbookStaleThresholdMs int64
	MinArbitrageSpreadPct     float64
	MinConfidenceScore        float64
	MinExecutableSizeUSD      float64

	// Debugging
	SingleMarket string // discovery debug mode: track only this one market external ID
}

// LoadFromEnv loads configuration from environment variables with defaults,
// first loading a .env file in the working directory if one exists (a
// missing file is not an error; real deployments set env vars directly).
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		EnablePolymarket:          getBoolOrDefault("ENABLE_POLYMARKET", true),
		PolymarketRateLimitPerMin: getIntOrDefault("POLYMARKET_RATE_LIMIT_PER_MIN", 600),
		PolymarketWSURL:           getEnvOrDefault("POLYMARKET_WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),
		PolymarketGammaURL:        getEnvOrDefault("POLYMARKET_GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		PolymarketClobURL:         getEnvOrDefault("POLYMARKET_CLOB_API_URL", "https://clob.polymarket.com"),

		EnableKalshi:          getBoolOrDefault("ENABLE_KALSHI", true),
		KalshiRateLimitPerMin: getIntOrDefault("KALSHI_RATE_LIMIT_PER_MIN", 300),
		KalshiAPIURL:          getEnvOrDefault("KALSHI_API_URL", "https://trading-api.kalshi.com/trade-api/v2"),

		FullSyncInterval:     getDurationOrDefault("FULL_SYNC_INTERVAL", 5*time.Minute),
		IngestionInterval:    getDurationOrDefault("INGESTION_INTERVAL_MS", 2*time.Second),
		DiscoveryMarketLimit: getIntOrDefault("DISCOVERY_MARKET_LIMIT", 1000),
		MaxMarketDuration:    getDurationOrDefault("MAX_MARKET_DURATION", 0),

		RedisAddr:    os.Getenv("REDIS_ADDR"),
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "arbengine"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "arbengine123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "arbengine"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),

		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSPongTimeout:           getDurationOrDefault("WS_PONG_TIMEOUT", 15*time.Second),
		WSPingInterval:          getDurationOrDefault("WS_PING_INTERVAL", 10*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", 1*time.Second),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 30*time.Second),
		WSReconnectBackoffMult:  getFloat64OrDefault("WS_RECONNECT_BACKOFF_MULTIPLIER", 2.0),
		WSMessageBufferSize:     getIntOrDefault("WS_MESSAGE_BUFFER_SIZE", 10000),

		MatchingInterval: getDurationOrDefault("MATCHING_INTERVAL_MS", 60*time.Second),
		MatchThreshold:   getFloat64OrDefault("MATCH_THRESHOLD", 0.65),

		ArbScanInterval:           getDurationOrDefault("ARBITRAGE_SCAN_INTERVAL_MS", 1*time.Second),
		PriceStaleThresholdMs:     int64(getIntOrDefault("PRICE_STALE_THRESHOLD_MS", 5000)),
		OrderbookStaleThresholdMs: int64(getIntOrDefault("ORDERBOOK_STALE_THRESHOLD_MS", 3000)),
		MinArbitrageSpreadPct:     getFloat64OrDefault("MIN_ARBITRAGE_SPREAD_PCT", 0.5),
		MinConfidenceScore:        getFloat64OrDefault("MIN_CONFIDENCE_SCORE", 0.6),
		MinExecutableSizeUSD:      getFloat64OrDefault("MIN_EXECUTABLE_SIZE_USD", 10),

		SingleMarket: os.Getenv("SINGLE_MARKET"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT cannot be empty")
	}

	if !c.EnablePolymarket && !c.EnableKalshi {
		return errors.New("at least one venue must be enabled")
	}

	if c.EnablePolymarket {
		if c.PolymarketWSURL == "" {
			return errors.New("POLYMARKET_WS_URL cannot be empty when Polymarket is enabled")
		}
		if c.PolymarketGammaURL == "" {
			return errors.New("POLYMARKET_GAMMA_API_URL cannot be empty when Polymarket is enabled")
		}
		if c.PolymarketClobURL == "" {
			return errors.New("POLYMARKET_CLOB_API_URL cannot be empty when Polymarket is enabled")
		}
	}

	if c.EnableKalshi && c.KalshiAPIURL == "" {
		return errors.New("KALSHI_API_URL cannot be empty when Kalshi is enabled")
	}

	if c.MatchThreshold <= 0 || c.MatchThreshold > 1.0 {
		return fmt.Errorf("MATCH_THRESHOLD must be in (0, 1.0], got %f", c.MatchThreshold)
	}

	if c.MinConfidenceScore < 0 || c.MinConfidenceScore > 1.0 {
		return fmt.Errorf("MIN_CONFIDENCE_SCORE must be in [0, 1.0], got %f", c.MinConfidenceScore)
	}

	if c.MinExecutableSizeUSD <= 0 {
		return fmt.Errorf("MIN_EXECUTABLE_SIZE_USD must be positive, got %f", c.MinExecutableSizeUSD)
	}

	if c.MaxMarketDuration < 0 {
		return fmt.Errorf("MAX_MARKET_DURATION must be non-negative (0 = unlimited), got %s", c.MaxMarketDuration)
	}

	if c.DiscoveryMarketLimit < 0 {
		return fmt.Errorf("DISCOVERY_MARKET_LIMIT must be non-negative (0 = unlimited), got %d", c.DiscoveryMarketLimit)
	}

	if c.StorageMode != "postgres" && c.StorageMode != "console" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'console', got %q", c.StorageMode)
	}

	if c.OrderbookStaleThresholdMs <= 0 {
		return fmt.Errorf("ORDERBOOK_STALE_THRESHOLD_MS must be positive, got %d", c.OrderbookStaleThresholdMs)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Keys named *_MS carry a bare millisecond integer, not a Go duration
	// string, to match the §6 configuration table.
	if msVal, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(msVal) * time.Millisecond
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}
