// internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Scheduler
	TickInterval        time.Duration
	BaselineInterval    time.Duration
	BurstInterval       time.Duration
	BurstWindow         time.Duration
	VolatilityThreshold float64
	MaxCallsPerRoute    int
	DailyAPIQuota       int64
	SampleOffsets       []int
	SearchTimeout       time.Duration
	PriceHistoryTTL     time.Duration
	SeenAlertRetention  time.Duration

	// Routes
	DefaultHorizonDays int
	Currency           string
	IntakeTTL          time.Duration

	// Dispatcher
	SendSpacing       time.Duration
	DispatchQueueSize int

	// Fare search
	FareProvider        string
	AmadeusBaseURL      string
	AmadeusClientID     string
	AmadeusClientSecret string
	KiwiBaseURL         string
	KiwiAPIKey          string

	// Chat
	ChatTransport      string
	TelegramBaseURL    string
	TelegramBotToken   string
	WhatsAppServiceURL string
	WhatsAppToken      string
	CompanyID          string
	AgentID            string

	// Storage
	StoreDriver   string
	SQLitePath    string
	PostgresURI   string
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	offsets, err := getEnvAsIntList("SAMPLE_OFFSETS", []int{7, 14, 21, 30})
	if err != nil {
		return nil, err
	}

	// Set defaults and override with env vars
	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		TickInterval:        getEnvAsDuration("TICK_INTERVAL", 30*time.Second),
		BaselineInterval:    getEnvAsDuration("BASELINE_INTERVAL", 30*time.Minute),
		BurstInterval:       getEnvAsDuration("BURST_INTERVAL", 5*time.Minute),
		BurstWindow:         getEnvAsDuration("BURST_WINDOW", 2*time.Hour),
		VolatilityThreshold: getEnvAsFloat("VOLATILITY_THRESHOLD", 0.15),
		MaxCallsPerRoute:    getEnvAsInt("MAX_CALLS_PER_ROUTE", 8),
		DailyAPIQuota:       int64(getEnvAsInt("DAILY_API_QUOTA", 500)),
		SampleOffsets:       offsets,
		SearchTimeout:       getEnvAsDuration("SEARCH_TIMEOUT", 20*time.Second),
		PriceHistoryTTL:     getEnvAsDuration("PRICE_HISTORY_TTL", 24*time.Hour),
		SeenAlertRetention:  getEnvAsDuration("SEEN_ALERT_RETENTION", 30*24*time.Hour),

		DefaultHorizonDays: getEnvAsInt("DEFAULT_HORIZON_DAYS", 120),
		Currency:           strings.ToUpper(getEnv("CURRENCY", "USD")),
		IntakeTTL:          getEnvAsDuration("INTAKE_TTL", time.Hour),

		SendSpacing:       getEnvAsDuration("SEND_SPACING", 1100*time.Millisecond),
		DispatchQueueSize: getEnvAsInt("DISPATCH_QUEUE_SIZE", 256),

		FareProvider:        strings.ToLower(getEnv("FARE_PROVIDER", "amadeus")),
		AmadeusBaseURL:      getEnv("AMADEUS_BASE_URL", "https://test.api.amadeus.com"),
		AmadeusClientID:     getEnv("AMADEUS_CLIENT_ID", ""),
		AmadeusClientSecret: getEnv("AMADEUS_CLIENT_SECRET", ""),
		KiwiBaseURL:         getEnv("KIWI_BASE_URL", "https://api.tequila.kiwi.com"),
		KiwiAPIKey:          getEnv("KIWI_API_KEY", ""),

		ChatTransport:      strings.ToLower(getEnv("CHAT_TRANSPORT", "telegram")),
		TelegramBaseURL:    getEnv("TELEGRAM_BASE_URL", "https://api.telegram.org"),
		TelegramBotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		WhatsAppServiceURL: getEnv("WHATSAPP_SERVICE_URL", ""),
		WhatsAppToken:      getEnv("WHATSAPP_TOKEN", ""),
		CompanyID:          getEnv("COMPANY_ID", ""),
		AgentID:            getEnv("AGENT_ID", ""),

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", "sqlite")),
		SQLitePath:    getEnv("SQLITE_PATH", "data/dealwatch.db"),
		PostgresURI:   getEnv("POSTGRES_DSN", ""),
		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "dealwatch"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects settings the scheduler cannot run with
func (c *Config) Validate() error {
	durations := map[string]time.Duration{
		"TICK_INTERVAL":        c.TickInterval,
		"BASELINE_INTERVAL":    c.BaselineInterval,
		"BURST_INTERVAL":       c.BurstInterval,
		"BURST_WINDOW":         c.BurstWindow,
		"SEARCH_TIMEOUT":       c.SearchTimeout,
		"PRICE_HISTORY_TTL":    c.PriceHistoryTTL,
		"SEEN_ALERT_RETENTION": c.SeenAlertRetention,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive", name)
		}
	}
	if c.BurstInterval > c.BaselineInterval {
		return fmt.Errorf("config: BURST_INTERVAL %s exceeds BASELINE_INTERVAL %s", c.BurstInterval, c.BaselineInterval)
	}
	if c.VolatilityThreshold <= 0 || c.VolatilityThreshold >= 1 {
		return fmt.Errorf("config: VOLATILITY_THRESHOLD must be in (0,1), got %v", c.VolatilityThreshold)
	}
	if c.MaxCallsPerRoute < 1 {
		return fmt.Errorf("config: MAX_CALLS_PER_ROUTE must be at least 1")
	}
	if c.DailyAPIQuota < 1 {
		return fmt.Errorf("config: DAILY_API_QUOTA must be at least 1")
	}
	if len(c.SampleOffsets) == 0 {
		return fmt.Errorf("config: SAMPLE_OFFSETS must not be empty")
	}
	if c.DefaultHorizonDays < 1 {
		return fmt.Errorf("config: DEFAULT_HORIZON_DAYS must be at least 1")
	}
	return nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s", "30m") or plain seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsIntList(key string, defaultValue []int) ([]int, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	var out []int
	for _, part := range strings.Split(valueStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("config: %s has invalid entry %q", key, part)
		}
		out = append(out, n)
	}
	return out, nil
}
