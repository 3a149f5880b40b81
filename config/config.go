package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	AppName    string `envconfig:"APP_NAME" default:"cryptoJournal"`
	ServerPort string `envconfig:"SERVER_PORT" default:"9898"`

	// Storage
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"sqlite"` // sqlite or postgres
	DBPath        string `envconfig:"DB_PATH" default:"./data/trading_journal.db"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	GormLogLevel  int    `envconfig:"GORM_LOG_LEVEL" default:"2"` // gorm logger.LogLevel, 1 (silent) to 4 (info)

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"` // text or json

	// Analytics
	RiskPercent     float64 `envconfig:"RISK_PERCENT" default:"0.01"` // Assumed stop distance as a fraction of entry
	LeaderboardSize int     `envconfig:"LEADERBOARD_SIZE" default:"10"`

	// Accounts
	SessionTTL              time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	AccountValidity         time.Duration `envconfig:"ACCOUNT_VALIDITY" default:"720h"`
	RequireRegistrationCode bool          `envconfig:"REQUIRE_REGISTRATION_CODE" default:"true"`

	// Sessions are kept in memory unless a redis address is given
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Backups (sqlite only)
	BackupEnabled bool   `envconfig:"BACKUP_ENABLED" default:"true"`
	BackupDir     string `envconfig:"BACKUP_DIR" default:"./backups"`
	BackupTime    string `envconfig:"BACKUP_TIME" default:"13:00"` // Daily, local time, HH:MM
	BackupRetain  int    `envconfig:"BACKUP_RETAIN" default:"7"`   // 0 keeps every backup

	// Binance API (public market data; keys are optional)
	APIKey    string `envconfig:"BINANCE_API_KEY"`
	SecretKey string `envconfig:"BINANCE_API_SECRET"`
	IsTestnet bool   `envconfig:"IS_TESTNET" default:"false"`

	// Market analysis
	KlineInterval  string        `envconfig:"MARKET_KLINE_INTERVAL" default:"1d"`
	KlineLimit     int           `envconfig:"MARKET_KLINE_LIMIT" default:"200"`
	StreamInterval time.Duration `envconfig:"MARKET_STREAM_INTERVAL" default:"5s"`

	// News
	NewsAPIURL   string `envconfig:"NEWS_API_URL" default:"https://newsapi.org/v2/everything"`
	NewsAPIKey   string `envconfig:"NEWS_API_KEY"`
	NewsPageSize int    `envconfig:"NEWS_PAGE_SIZE" default:"5"`
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("error processing env config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// Validate returns every constraint violation found in cfg.
func (cfg *Config) Validate() []string {
	var errs []string

	if cfg.ServerPort == "" {
		errs = append(errs, "SERVER_PORT must be set")
	}

	switch cfg.StorageDriver {
	case DriverSQLite:
		if cfg.DBPath == "" {
			errs = append(errs, "DB_PATH must be set")
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL must be set when STORAGE_DRIVER is postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("STORAGE_DRIVER must be %q or %q", DriverSQLite, DriverPostgres))
	}
	if cfg.GormLogLevel < 1 || cfg.GormLogLevel > 4 {
		errs = append(errs, "GORM_LOG_LEVEL must be between 1 and 4")
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, "LOG_FORMAT must be text or json")
	}

	if cfg.RiskPercent <= 0 || cfg.RiskPercent >= 1.0 {
		errs = append(errs, "RISK_PERCENT must be between 0.0 and 1.0 (exclusive)")
	}
	if cfg.LeaderboardSize < 0 {
		errs = append(errs, "LEADERBOARD_SIZE cannot be negative")
	}

	if cfg.SessionTTL <= 0 {
		errs = append(errs, "SESSION_TTL must be positive")
	}
	if cfg.AccountValidity <= 0 {
		errs = append(errs, "ACCOUNT_VALIDITY must be positive")
	}

	if cfg.BackupEnabled {
		if cfg.BackupDir == "" {
			errs = append(errs, "BACKUP_DIR must be set when backups are enabled")
		}
		if _, err := time.Parse("15:04", cfg.BackupTime); err != nil {
			errs = append(errs, fmt.Sprintf("invalid BACKUP_TIME %q (expected HH:MM)", cfg.BackupTime))
		}
	}
	if cfg.BackupRetain < 0 {
		errs = append(errs, "BACKUP_RETAIN cannot be negative")
	}

	if cfg.KlineLimit <= 0 || cfg.KlineLimit > 1000 {
		errs = append(errs, "MARKET_KLINE_LIMIT must be between 1 and 1000")
	}
	if cfg.StreamInterval < time.Second {
		errs = append(errs, "MARKET_STREAM_INTERVAL must be at least 1s")
	}

	if cfg.NewsPageSize <= 0 || cfg.NewsPageSize > 100 {
		errs = append(errs, "NEWS_PAGE_SIZE must be between 1 and 100")
	}

	return errs
}

// BackupClock parses BackupTime into hour and minute. It assumes Validate passed.
func (cfg *Config) BackupClock() (hour, minute int) {
	t, err := time.Parse("15:04", cfg.BackupTime)
	if err != nil {
		return 13, 0
	}
	return t.Hour(), t.Minute()
}
