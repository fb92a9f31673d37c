package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional: runs are only persisted when configured)
	Database DatabaseConfig

	// Redis (optional fetch cache)
	Redis RedisConfig

	// Data sources
	FRED     FREDConfig
	Yahoo    YahooConfig
	Treasury TreasuryConfig
	Sheets   SheetsConfig
	HTTP     HTTPConfig

	// Audit run
	Audit AuditConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// FREDConfig FRED (St. Louis Fed) API
type FREDConfig struct {
	APIKey  string
	BaseURL string
}

// YahooConfig Yahoo Finance chart / fundamentals endpoints
type YahooConfig struct {
	ChartURL        string
	FundamentalsURL string
}

// TreasuryConfig auction results page
type TreasuryConfig struct {
	AuctionURL string
}

// SheetsConfig published CSV sheets (threshold overrides and liquidity fallback)
type SheetsConfig struct {
	ConfigCSVURL    string
	LiquidityCSVURL string
}

// HTTPConfig shared outbound client settings
type HTTPConfig struct {
	Timeout      time.Duration
	MaxRetries   int
	RateLimitRPS float64
}

// AuditConfig evaluation run settings
type AuditConfig struct {
	ConfigPath string // YAML universe / threshold file
	Schedule   string // cron expression with seconds
	Language   string // narrative language (en, ja)
	GitCommit  string // recorded on every run
	Retention  time.Duration
	HistoryCap int // runs kept in memory when no database is configured
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only caller of os.Getenv()
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// Data sources
		FRED: FREDConfig{
			APIKey:  getEnv("FRED_API_KEY", ""),
			BaseURL: getEnv("FRED_BASE_URL", "https://api.stlouisfed.org/fred"),
		},

		Yahoo: YahooConfig{
			ChartURL:        getEnv("YAHOO_CHART_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
			FundamentalsURL: getEnv("YAHOO_FUNDAMENTALS_URL", "https://query2.finance.yahoo.com/ws/fundamentals-timeseries/v1/finance/timeseries"),
		},

		Treasury: TreasuryConfig{
			AuctionURL: getEnv("TREASURY_AUCTION_URL", "https://www.treasurydirect.gov/auctions/announcements-data-results/"),
		},

		Sheets: SheetsConfig{
			ConfigCSVURL:    getEnv("SHEETS_CONFIG_CSV_URL", ""),
			LiquidityCSVURL: getEnv("SHEETS_LIQUIDITY_CSV_URL", ""),
		},

		HTTP: HTTPConfig{
			Timeout:      getEnvAsDuration("HTTP_TIMEOUT", "15s"),
			MaxRetries:   getEnvAsInt("HTTP_MAX_RETRIES", 3),
			RateLimitRPS: getEnvAsFloat("HTTP_RATE_LIMIT_RPS", 5),
		},

		Audit: AuditConfig{
			ConfigPath: getEnv("AUDIT_CONFIG_PATH", "config/audit.yaml"),
			Schedule:   getEnv("AUDIT_SCHEDULE", "0 */15 * * * *"),
			Language:   getEnv("AUDIT_LANGUAGE", "en"),
			GitCommit:  getEnv("GIT_COMMIT", "dev"),
			Retention:  getEnvAsDuration("AUDIT_RETENTION", "2160h"),
			HistoryCap: getEnvAsInt("AUDIT_HISTORY_CAP", 500),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.HTTP.RateLimitRPS <= 0 {
		return fmt.Errorf("HTTP_RATE_LIMIT_RPS must be > 0")
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be <= DB_MAX_CONNS")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
