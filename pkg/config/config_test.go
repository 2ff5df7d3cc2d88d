package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movers.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Scan.TradingLookback)
	assert.Equal(t, 0.20, cfg.Scan.OneDayJumpPct)
	assert.Equal(t, 0.20, cfg.Scan.FiveDayMovePct)
	assert.Equal(t, 350, cfg.Scan.MaxItems)
	assert.Equal(t, 1, cfg.Scan.Workers)
	assert.Equal(t, NasdaqListedURL, cfg.Listing.URL)
	assert.Equal(t, ProviderStooq, cfg.Prices.Provider)
	assert.Equal(t, 80, cfg.Prices.MaxRows)
	assert.Equal(t, ProviderGDELT, cfg.News.Provider)
	assert.Equal(t, 48, cfg.News.LookbackHours)
	assert.Equal(t, 20, cfg.News.JumpHourUTC)
	assert.Equal(t, 25, cfg.News.MaxRecords)
	assert.Equal(t, 10, cfg.News.MaxHeadlines)
	assert.Equal(t, 2, cfg.News.HitThreshold)
	assert.Equal(t, "docs/movers.json", cfg.Report.Path)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout())
	assert.Equal(t, DefaultAgent, cfg.HTTP.UserAgent)
	assert.Empty(t, cfg.Schedule)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
schedule = "30 22 * * 1-5"

[scan]
one_day_jump_pct = 0.35
workers = 4

[news]
hit_threshold = 5

[report]
path = "out/movers.json"
csv_path = "out/movers.csv"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "30 22 * * 1-5", cfg.Schedule)
	assert.Equal(t, 0.35, cfg.Scan.OneDayJumpPct)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, 5, cfg.News.HitThreshold)
	assert.Equal(t, "out/movers.json", cfg.Report.Path)
	assert.Equal(t, "out/movers.csv", cfg.Report.CSVPath)

	// untouched sections keep their defaults
	assert.Equal(t, 0.20, cfg.Scan.FiveDayMovePct)
	assert.Equal(t, 6, cfg.Scan.TradingLookback)
	assert.Equal(t, 48, cfg.News.LookbackHours)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[scan]
workers = 4
`)
	t.Setenv("MOVERS_WORKERS", "8")
	t.Setenv("MOVERS_REPORT_PATH", "elsewhere/movers.json")
	t.Setenv("MOVERS_LISTING_FILE", "tickers.csv")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Scan.Workers)
	assert.Equal(t, "elsewhere/movers.json", cfg.Report.Path)
	assert.Equal(t, "tickers.csv", cfg.Listing.File)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_BadTOML(t *testing.T) {
	path := writeConfig(t, "[scan\nworkers = ")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_AlpacaProviderNeedsKeys(t *testing.T) {
	t.Setenv("MOVERS_PRICES_PROVIDER", "alpaca")
	t.Setenv("ALPACA_API_KEY", "")
	t.Setenv("ALPACA_SECRET_KEY", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALPACA_API_KEY")

	t.Setenv("ALPACA_API_KEY", "key")
	t.Setenv("ALPACA_SECRET_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ProviderAlpaca, cfg.Prices.Provider)
	assert.True(t, cfg.Alpaca.Valid())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"lookback too short", func(c *Config) { c.Scan.TradingLookback = 1 }, "trading_lookback"},
		{"no cap", func(c *Config) { c.Scan.MaxItems = 0 }, "max_items"},
		{"no workers", func(c *Config) { c.Scan.Workers = 0 }, "workers"},
		{"no listing", func(c *Config) { c.Listing.URL = "" }, "listing.url"},
		{"rows below lookback", func(c *Config) { c.Prices.MaxRows = 3 }, "max_rows"},
		{"hour out of range", func(c *Config) { c.News.JumpHourUTC = 24 }, "jump_hour_utc"},
		{"no news window", func(c *Config) { c.News.LookbackHours = 0 }, "lookback_hours"},
		{"negative threshold", func(c *Config) { c.News.HitThreshold = -1 }, "hit_threshold"},
		{"no timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }, "timeout_seconds"},
		{"unknown prices provider", func(c *Config) { c.Prices.Provider = "yahoo" }, "prices.provider"},
		{"unknown news provider", func(c *Config) { c.News.Provider = "tiingo" }, "news.provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, NewDefaultConfig().Validate())
}
