package news

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nasdaqmovers/pkg/config"
	"nasdaqmovers/pkg/prices"
)

// Classifier queries a Provider over the window preceding a jump.
type Classifier struct {
	provider     Provider
	window       time.Duration
	jumpHour     int
	maxHeadlines int
	threshold    int
	logger       *zap.Logger
}

func NewClassifier(cfg config.NewsConfig, provider Provider, logger *zap.Logger) *Classifier {
	return &Classifier{
		provider:     provider,
		window:       time.Duration(cfg.LookbackHours) * time.Hour,
		jumpHour:     cfg.JumpHourUTC,
		maxHeadlines: cfg.MaxHeadlines,
		threshold:    cfg.HitThreshold,
		logger:       logger,
	}
}

// Window returns the search interval for a jump date (YYYY-MM-DD). The jump
// is placed at the configured UTC hour, approximating the end of the session.
func (c *Classifier) Window(jumpDate string) (start, end time.Time, err error) {
	day, err := time.Parse(prices.DateLayout, jumpDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid jump date %q: %w", jumpDate, err)
	}
	end = day.UTC().Add(time.Duration(c.jumpHour) * time.Hour)
	return end.Add(-c.window), end, nil
}

// Classify never fails: provider errors yield a zero-hit Result with
// StatusFailed.
func (c *Classifier) Classify(ctx context.Context, ticker, jumpDate string) Result {
	start, end, err := c.Window(jumpDate)
	if err != nil {
		return c.failed(ticker, err)
	}

	headlines, hits, err := c.provider.Search(ctx, ticker, start, end)
	if err != nil {
		return c.failed(ticker, err)
	}
	if len(headlines) > c.maxHeadlines {
		headlines = headlines[:c.maxHeadlines]
	}
	if headlines == nil {
		headlines = []Headline{}
	}

	return Result{
		Hits:      hits,
		Headlines: headlines,
		Label:     Classify(hits, c.threshold),
		Status:    StatusOK,
	}
}

func (c *Classifier) failed(ticker string, err error) Result {
	c.logger.Warn("News query failed, counting as no hits",
		zap.String("ticker", ticker),
		zap.Error(err),
	)
	return Result{
		Hits:      0,
		Headlines: []Headline{},
		Label:     Classify(0, c.threshold),
		Status:    StatusFailed,
		Err:       err,
	}
}
