package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Backends accepted in DATA_BACKEND.
var ValidBackends = []string{"memory", "sqlite", "postgres", "sheets"}

type Config struct {
	// HTTP Server
	Port            string
	ShutdownTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Backend selection
	DataBackend  string
	StoreTimeout time.Duration

	// Memory backend
	SeedFile string

	// SQLite
	SQLiteDBPath string

	// Postgres
	DatabaseURL string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleTransactionsSheet  string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// AMQP events; empty URL disables publishing
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Summary cache
	CacheSize            int
	CacheTTL             time.Duration
	CacheCleanupInterval time.Duration

	// Rate limiting; 0 disables
	RateLimitPerMinute int
	// Extra CIDRs whose X-Forwarded-For is trusted, beyond loopback and private ranges
	TrustedProxies []string

	// Reward tiers
	RewardThreshold      decimal.Decimal
	RewardUpperThreshold decimal.Decimal
	RewardBaseRate       decimal.Decimal
	RewardBonusRate      decimal.Decimal
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		StoreTimeout: getEnvDuration("STORE_TIMEOUT", 7*time.Second),

		SeedFile:     getEnv("SEED_FILE", ""),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/rewards.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleTransactionsSheet:  getEnv("GOOGLE_TRANSACTIONS_SHEET", "Transactions"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "rewards"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "rewards.calculated"),

		CacheSize:            getEnvInt("CACHE_SIZE", 256),
		CacheTTL:             getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheCleanupInterval: getEnvDuration("CACHE_CLEANUP_INTERVAL", time.Minute),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES"),

		RewardThreshold:      getEnvDecimal("REWARD_THRESHOLD", decimal.NewFromInt(50)),
		RewardUpperThreshold: getEnvDecimal("REWARD_UPPER_THRESHOLD", decimal.NewFromInt(100)),
		RewardBaseRate:       getEnvDecimal("REWARD_BASE_RATE", decimal.NewFromInt(1)),
		RewardBonusRate:      getEnvDecimal("REWARD_BONUS_RATE", decimal.NewFromInt(2)),
	}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if !slices.Contains([]string{"text", "json"}, strings.ToLower(c.LogFormat)) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if !slices.Contains(ValidBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, ValidBackends))
	}

	switch c.DataBackend {
	case "memory":
		if c.SeedFile != "" {
			if _, err := os.Stat(c.SeedFile); err != nil {
				errors = append(errors, fmt.Sprintf("seed file '%s' is not readable: %v", c.SeedFile, err))
			}
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, "invalid DATABASE_URL: scheme must be 'postgres' or 'postgresql'")
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleTransactionsSheet == "" {
			errors = append(errors, "Google transactions sheet name is required when using sheets backend")
		}
		if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.StoreTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid store timeout %v: must not be negative", c.StoreTimeout))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if c.CacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must not be negative", c.CacheSize))
	}
	if c.CacheSize > 0 && c.CacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be positive when the cache is enabled", c.CacheTTL))
	}
	if c.RateLimitPerMinute < 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	if c.RewardThreshold.IsNegative() {
		errors = append(errors, fmt.Sprintf("invalid reward threshold %s: must not be negative", c.RewardThreshold))
	}
	if c.RewardUpperThreshold.LessThan(c.RewardThreshold) {
		errors = append(errors, fmt.Sprintf("invalid reward upper threshold %s: must not be below threshold %s", c.RewardUpperThreshold, c.RewardThreshold))
	}
	if c.RewardBaseRate.IsNegative() || c.RewardBonusRate.IsNegative() {
		errors = append(errors, "reward rates must not be negative")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
