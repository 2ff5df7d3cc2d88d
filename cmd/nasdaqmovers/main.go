package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"nasdaqmovers/pkg/config"
	"nasdaqmovers/pkg/fetch"
	"nasdaqmovers/pkg/listing"
	"nasdaqmovers/pkg/logging"
	"nasdaqmovers/pkg/news"
	"nasdaqmovers/pkg/prices"
	"nasdaqmovers/pkg/report"
	"nasdaqmovers/pkg/scanner"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newScanner(cfg, logger)
	if err != nil {
		logger.Error("Failed to set up scanner", zap.Error(err))
		os.Exit(1)
	}

	if cfg.Schedule == "" {
		if err := runOnce(ctx, s, cfg.Report, logger); err != nil {
			logger.Error("Scan failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	if err := runScheduled(ctx, s, cfg, logger); err != nil {
		logger.Error("Scheduler failed", zap.Error(err))
		os.Exit(1)
	}
}

// newScanner wires the configured providers around one shared HTTP client,
// so the timeout and rate limit apply to every request.
func newScanner(cfg *config.Config, logger *zap.Logger) (*scanner.Scanner, error) {
	client := fetch.NewClient(cfg.HTTP.Timeout(), cfg.HTTP.UserAgent, cfg.HTTP.RequestsPerSecond, logger)

	var src listing.Source
	if cfg.Listing.File != "" {
		src = listing.NewFileSource(cfg.Listing.File)
	} else {
		src = listing.NewNasdaqSource(cfg.Listing.URL, client)
	}
	if cfg.Listing.Limit > 0 {
		src = listing.Limit(src, cfg.Listing.Limit)
	}

	var px prices.Source
	switch cfg.Prices.Provider {
	case config.ProviderStooq:
		px = prices.NewStooqSource(cfg.Prices.StooqURL, cfg.Prices.MaxRows, client)
	case config.ProviderAlpaca:
		px = prices.NewAlpacaSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Prices.MaxRows, client)
	default:
		return nil, fmt.Errorf("unknown prices provider %q", cfg.Prices.Provider)
	}

	var provider news.Provider
	switch cfg.News.Provider {
	case config.ProviderGDELT:
		provider = news.NewGDELTProvider(cfg.News, client)
	case config.ProviderAlpaca:
		provider = news.NewAlpacaProvider(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.News.MaxRecords, client)
	default:
		return nil, fmt.Errorf("unknown news provider %q", cfg.News.Provider)
	}
	classifier := news.NewClassifier(cfg.News, provider, logger)

	logger.Info("Scanner configured",
		zap.String("listing", listingName(cfg.Listing)),
		zap.String("prices", cfg.Prices.Provider),
		zap.String("news", cfg.News.Provider),
		zap.Int("workers", cfg.Scan.Workers),
		zap.Int("max_items", cfg.Scan.MaxItems))

	return scanner.New(cfg, src, px, classifier, logger), nil
}

func listingName(cfg config.ListingConfig) string {
	if cfg.File != "" {
		return cfg.File
	}
	return cfg.URL
}

func runOnce(ctx context.Context, s *scanner.Scanner, out config.ReportConfig, logger *zap.Logger) error {
	r, err := s.Run(ctx)
	if err != nil {
		return err
	}

	if err := report.WriteJSON(out.Path, r); err != nil {
		return err
	}
	logger.Info("Report written", zap.String("path", out.Path), zap.Int("items", len(r.Items)))

	if out.CSVPath != "" {
		if err := report.WriteCSV(out.CSVPath, r); err != nil {
			return err
		}
		logger.Info("CSV written", zap.String("path", out.CSVPath))
	}
	return nil
}

// runScheduled re-runs the scan on the configured cron schedule until ctx is
// cancelled. A run still in progress when the next one is due is skipped.
func runScheduled(ctx context.Context, s *scanner.Scanner, cfg *config.Config, logger *zap.Logger) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	id, err := c.AddFunc(cfg.Schedule, func() {
		if err := runOnce(ctx, s, cfg.Report, logger); err != nil {
			logger.Error("Scheduled scan failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}

	c.Start()
	logger.Info("Scheduler started",
		zap.String("schedule", cfg.Schedule),
		zap.Time("next_run", c.Entry(id).Next))

	<-ctx.Done()
	logger.Info("Shutting down, waiting for running scan")
	<-c.Stop().Done()
	return nil
}
