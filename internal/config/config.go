package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Ledger    LedgerConfig
	Dosing    DosingConfig
	Alerts    AlertsConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for MongoDB. An empty URI switches the
// service to the in-memory store (development and test mode).
type MongoDBConfig struct {
	URI    string
	DBName string
}

// LedgerConfig bounds the optimistic-concurrency retry loops.
type LedgerConfig struct {
	MaxRetries int
}

// DosingConfig holds the feeding cadence used to split daily rations.
type DosingConfig struct {
	MealsPerDay int
}

// AlertsConfig configures low-stock webhook notifications. An empty URL
// disables them.
type AlertsConfig struct {
	WebhookURL        string
	LowStockThreshold decimal.Decimal
}

// SheetsConfig contains configuration required to export reports to Google
// Sheets. Empty values disable the export.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	maxRetries, err := getenvInt("LEDGER_MAX_RETRIES", 5)
	if err != nil {
		return nil, err
	}
	mealsPerDay, err := getenvInt("MEALS_PER_DAY", 3)
	if err != nil {
		return nil, err
	}
	lowStock, err := getenvDecimal("LOW_STOCK_THRESHOLD_KG", "25")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "aquafarm"),
		},
		Ledger: LedgerConfig{
			MaxRetries: maxRetries,
		},
		Dosing: DosingConfig{
			MealsPerDay: mealsPerDay,
		},
		Alerts: AlertsConfig{
			WebhookURL:        os.Getenv("ALERT_WEBHOOK_URL"),
			LowStockThreshold: lowStock,
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Africa/Conakry"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided when MONGODB_URI is set")
	}

	if c.Ledger.MaxRetries <= 0 {
		return errors.New("LEDGER_MAX_RETRIES must be positive")
	}

	if c.Dosing.MealsPerDay <= 0 {
		return errors.New("MEALS_PER_DAY must be positive")
	}

	if c.Alerts.LowStockThreshold.IsNegative() {
		return errors.New("LOW_STOCK_THRESHOLD_KG must not be negative")
	}

	if c.Sheets.CredentialsPath != "" && c.Sheets.SpreadsheetID == "" {
		return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided when sheets export is enabled")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

func getenvDecimal(key, fallback string) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		value = fallback
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal: %w", key, err)
	}
	return parsed, nil
}
