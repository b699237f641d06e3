package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "aquafarm", cfg.MongoDB.DBName)
	assert.Equal(t, 5, cfg.Ledger.MaxRetries)
	assert.Equal(t, 3, cfg.Dosing.MealsPerDay)
	assert.True(t, cfg.Alerts.LowStockThreshold.Equal(decimal.RequireFromString("25")))
	assert.Equal(t, "0 20 * * *", cfg.Reporting.CronSchedule)
	assert.Equal(t, "Africa/Conakry", cfg.Reporting.Timezone)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("MONGODB_DB_NAME", "aquafarm_test")
	t.Setenv("LEDGER_MAX_RETRIES", "8")
	t.Setenv("MEALS_PER_DAY", "4")
	t.Setenv("LOW_STOCK_THRESHOLD_KG", "12.5")

	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDB.URI)
	assert.Equal(t, "aquafarm_test", cfg.MongoDB.DBName)
	assert.Equal(t, 8, cfg.Ledger.MaxRetries)
	assert.Equal(t, 4, cfg.Dosing.MealsPerDay)
	assert.True(t, cfg.Alerts.LowStockThreshold.Equal(decimal.RequireFromString("12.5")))
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	t.Setenv("LEDGER_MAX_RETRIES", "five")
	_, err := Load("does-not-exist.env")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080"},
			Ledger:    LedgerConfig{MaxRetries: 5},
			Dosing:    DosingConfig{MealsPerDay: 3},
			Reporting: ReportingConfig{CronSchedule: "0 20 * * *", Timezone: "UTC"},
		}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.Ledger.MaxRetries = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Dosing.MealsPerDay = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.MongoDB.URI = "mongodb://localhost"
	cfg.MongoDB.DBName = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Sheets.CredentialsPath = "/creds.json"
	assert.Error(t, cfg.Validate(), "sheets export needs a spreadsheet id")

	cfg = base()
	cfg.Alerts.LowStockThreshold = decimal.RequireFromString("-1")
	assert.Error(t, cfg.Validate())
}
