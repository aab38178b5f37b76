package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Telegram
	TelegramBotToken string
	ChannelID        string // numeric chat id or @channelname
	AdminChatID      int64

	// Hyperliquid endpoints
	WSURL  string
	APIURL string

	// Detection
	WhaleThreshold float64
	Assets         []string

	// Feed lifecycle
	MaxReconnectAttempts int
	ReconnectBaseDelay   time.Duration
	HeartbeatInterval    time.Duration

	// Timers
	MarketSummaryInterval time.Duration
	DailySummarySpec      string // cron expression, UTC

	// HTTP
	RequestTimeout time.Duration
	HealthAddr     string

	// Formatting
	DetailedAlerts bool

	// Heuristic cutoffs (presentation-only banding, see enricher.go)
	LeverageBands [3]float64 // OI/volume ratio cutoffs: 50+, 20-50, 10-20
	LiqRiskBands  [2]float64 // 24h volume cutoffs: low, medium
	ImpactBands   [2]float64 // open interest cutoffs: minimal, moderate

	SubscriberFile string
}

// MinWhaleThreshold is the floor for /threshold; values below are rejected.
const MinWhaleThreshold = 1000

var defaultAssets = []string{"BTC", "ETH", "SOL", "ARB", "AVAX", "DOGE", "WIF", "PEPE", "LINK", "UNI"}

// LoadConfig loads variables from .env and returns a Config struct
func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️  Warning: .env file not found. Relying on system environment variables.")
	}

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("⚠️  CRITICAL: TELEGRAM_BOT_TOKEN missing!")
	}

	cfg := &Config{
		TelegramBotToken: token,
		ChannelID:        os.Getenv("CHANNEL_ID"),
		AdminChatID:      getEnvInt64("ADMIN_CHAT_ID", 0),

		WSURL:  getEnv("HYPERLIQUID_WS_URL", "wss://api.hyperliquid.xyz/ws"),
		APIURL: getEnv("HYPERLIQUID_API_URL", "https://api.hyperliquid.xyz/info"),

		WhaleThreshold: getEnvFloat("WHALE_THRESHOLD", 50000),
		Assets:         getEnvList("ACTIVE_ASSETS", defaultAssets),

		MaxReconnectAttempts: getEnvInt("MAX_RECONNECT_ATTEMPTS", 5),
		ReconnectBaseDelay:   time.Duration(getEnvInt("RECONNECT_BASE_DELAY_MS", 5000)) * time.Millisecond,
		HeartbeatInterval:    time.Duration(getEnvInt("HEARTBEAT_INTERVAL_SECONDS", 30)) * time.Second,

		MarketSummaryInterval: time.Duration(getEnvInt("MARKET_SUMMARY_HOURS", 4)) * time.Hour,
		DailySummarySpec:      getEnv("DAILY_SUMMARY_CRON", "0 0 * * *"),

		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,
		HealthAddr:     getEnv("HEALTH_ADDR", ":8081"),

		DetailedAlerts: getEnvBool("DETAILED_ALERTS", true),

		LeverageBands: [3]float64{
			getEnvFloat("LEVERAGE_BAND_HIGH", 10),
			getEnvFloat("LEVERAGE_BAND_MID", 5),
			getEnvFloat("LEVERAGE_BAND_LOW", 2),
		},
		LiqRiskBands: [2]float64{
			getEnvFloat("LIQ_RISK_VOLUME_LOW", 100_000_000),
			getEnvFloat("LIQ_RISK_VOLUME_MEDIUM", 50_000_000),
		},
		ImpactBands: [2]float64{
			getEnvFloat("IMPACT_OI_MINIMAL", 500_000_000),
			getEnvFloat("IMPACT_OI_MODERATE", 100_000_000),
		},

		SubscriberFile: getEnv("SUBSCRIBER_FILE", "subscribers.json"),
	}

	if cfg.WhaleThreshold < MinWhaleThreshold {
		log.Printf("⚠️  WHALE_THRESHOLD %.0f below floor, clamping to %d", cfg.WhaleThreshold, MinWhaleThreshold)
		cfg.WhaleThreshold = MinWhaleThreshold
	}

	return cfg
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
