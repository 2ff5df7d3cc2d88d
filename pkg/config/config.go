// Package config loads and validates the scanner configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Provider endpoints
const (
	NasdaqListedURL = "https://www.nasdaqtrader.com/dynamic/symdir/nasdaqlisted.txt"
	StooqURL        = "https://stooq.com/q/d/l/"
	GDELTDocURL     = "https://api.gdeltproject.org/api/v2/doc/doc"
	DefaultAgent    = "NASDAQTradeTool/1.0 (personal research)"
)

// Provider names
const (
	ProviderStooq  = "stooq"
	ProviderGDELT  = "gdelt"
	ProviderAlpaca = "alpaca"
)

// Config is the full scanner configuration. Components receive the section they
// need by value and never mutate it.
type Config struct {
	Schedule string        `toml:"schedule"` // cron expression; empty runs a single scan
	Scan     ScanConfig    `toml:"scan"`
	Listing  ListingConfig `toml:"listing"`
	Prices   PricesConfig  `toml:"prices"`
	News     NewsConfig    `toml:"news"`
	Report   ReportConfig  `toml:"report"`
	HTTP     HTTPConfig    `toml:"http"`
	Logging  LoggingConfig `toml:"logging"`
	Alpaca   AlpacaConfig  `toml:"-"`
}

type ScanConfig struct {
	TradingLookback int     `toml:"trading_lookback"`  // closes in the evaluated window
	OneDayJumpPct   float64 `toml:"one_day_jump_pct"`  // ratio, 0.20 = 20%
	FiveDayMovePct  float64 `toml:"five_day_move_pct"` // ratio over the whole window
	MaxItems        int     `toml:"max_items"`         // stop once this many movers are collected
	Workers         int     `toml:"workers"`           // 1 = sequential
}

type ListingConfig struct {
	URL   string `toml:"url"`
	File  string `toml:"file"`  // local CSV of symbols; overrides URL when set
	Limit int    `toml:"limit"` // 0 = whole universe
}

type PricesConfig struct {
	Provider string `toml:"provider"` // "stooq" or "alpaca"
	StooqURL string `toml:"stooq_url"`
	MaxRows  int    `toml:"max_rows"`
}

type NewsConfig struct {
	Provider      string `toml:"provider"` // "gdelt" or "alpaca"
	URL           string `toml:"url"`
	LookbackHours int    `toml:"lookback_hours"`
	JumpHourUTC   int    `toml:"jump_hour_utc"`
	MaxRecords    int    `toml:"max_records"`
	MaxHeadlines  int    `toml:"max_headlines"`
	HitThreshold  int    `toml:"hit_threshold"` // hits <= threshold => no_obvious_news
	Language      string `toml:"language"`
	Sort          string `toml:"sort"`
}

type ReportConfig struct {
	Path    string `toml:"path"`
	CSVPath string `toml:"csv_path"`
}

type HTTPConfig struct {
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	UserAgent         string  `toml:"user_agent"`
	RequestsPerSecond float64 `toml:"requests_per_second"` // 0 = unlimited
}

type LoggingConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "console" or "json"
}

// AlpacaConfig is read from the environment only.
type AlpacaConfig struct {
	APIKey    string
	APISecret string
}

// NewDefaultConfig returns the configuration used when no file is given.
func NewDefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			TradingLookback: 6,
			OneDayJumpPct:   0.20,
			FiveDayMovePct:  0.20,
			MaxItems:        350,
			Workers:         1,
		},
		Listing: ListingConfig{
			URL: NasdaqListedURL,
		},
		Prices: PricesConfig{
			Provider: ProviderStooq,
			StooqURL: StooqURL,
			MaxRows:  80,
		},
		News: NewsConfig{
			Provider:      ProviderGDELT,
			URL:           GDELTDocURL,
			LookbackHours: 48,
			JumpHourUTC:   20,
			MaxRecords:    25,
			MaxHeadlines:  10,
			HitThreshold:  2,
			Language:      "english",
			Sort:          "hybridrel",
		},
		Report: ReportConfig{
			Path: "docs/movers.json",
		},
		HTTP: HTTPConfig{
			TimeoutSeconds: 30,
			UserAgent:      DefaultAgent,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration with priority: defaults -> file -> .env/environment.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// .env is optional; real environment variables win over it
	_ = godotenv.Load()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MOVERS_SCHEDULE"); v != "" {
		cfg.Schedule = v
	}
	if v := os.Getenv("MOVERS_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scan.Workers = n
		}
	}
	if v := os.Getenv("MOVERS_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scan.MaxItems = n
		}
	}
	if v := os.Getenv("MOVERS_LISTING_FILE"); v != "" {
		cfg.Listing.File = v
	}
	if v := os.Getenv("MOVERS_PRICES_PROVIDER"); v != "" {
		cfg.Prices.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("MOVERS_NEWS_PROVIDER"); v != "" {
		cfg.News.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("MOVERS_REPORT_PATH"); v != "" {
		cfg.Report.Path = v
	}
	if v := os.Getenv("MOVERS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("MOVERS_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	cfg.Alpaca.APIKey = os.Getenv("ALPACA_API_KEY")
	cfg.Alpaca.APISecret = os.Getenv("ALPACA_SECRET_KEY")
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.Scan.TradingLookback < 2 {
		return fmt.Errorf("scan.trading_lookback must be at least 2, got %d", c.Scan.TradingLookback)
	}
	if c.Scan.MaxItems <= 0 {
		return fmt.Errorf("scan.max_items must be positive, got %d", c.Scan.MaxItems)
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be positive, got %d", c.Scan.Workers)
	}
	if c.Listing.File == "" && c.Listing.URL == "" {
		return fmt.Errorf("listing.url or listing.file is required")
	}
	if c.Listing.Limit < 0 {
		return fmt.Errorf("listing.limit must not be negative, got %d", c.Listing.Limit)
	}
	if c.Prices.MaxRows < c.Scan.TradingLookback {
		return fmt.Errorf("prices.max_rows (%d) is smaller than scan.trading_lookback (%d)", c.Prices.MaxRows, c.Scan.TradingLookback)
	}
	if c.News.JumpHourUTC < 0 || c.News.JumpHourUTC > 23 {
		return fmt.Errorf("news.jump_hour_utc must be within 0-23, got %d", c.News.JumpHourUTC)
	}
	if c.News.LookbackHours <= 0 {
		return fmt.Errorf("news.lookback_hours must be positive, got %d", c.News.LookbackHours)
	}
	if c.News.MaxRecords <= 0 || c.News.MaxHeadlines < 0 {
		return fmt.Errorf("news.max_records must be positive and news.max_headlines not negative")
	}
	if c.News.HitThreshold < 0 {
		return fmt.Errorf("news.hit_threshold must not be negative, got %d", c.News.HitThreshold)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be positive, got %d", c.HTTP.TimeoutSeconds)
	}
	if c.Report.Path == "" {
		return fmt.Errorf("report.path is required")
	}

	switch c.Prices.Provider {
	case ProviderStooq:
	case ProviderAlpaca:
		if !c.Alpaca.Valid() {
			return fmt.Errorf("prices.provider %q needs ALPACA_API_KEY and ALPACA_SECRET_KEY", c.Prices.Provider)
		}
	default:
		return fmt.Errorf("unknown prices.provider %q", c.Prices.Provider)
	}

	switch c.News.Provider {
	case ProviderGDELT:
	case ProviderAlpaca:
		if !c.Alpaca.Valid() {
			return fmt.Errorf("news.provider %q needs ALPACA_API_KEY and ALPACA_SECRET_KEY", c.News.Provider)
		}
	default:
		return fmt.Errorf("unknown news.provider %q", c.News.Provider)
	}

	return nil
}

// Timeout is the per-request network timeout.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSeconds) * time.Second
}

func (a AlpacaConfig) Valid() bool {
	return a.APIKey != "" && a.APISecret != ""
}
