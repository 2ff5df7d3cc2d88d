package prices

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"nasdaqmovers/pkg/fetch"
)

// BarsClient is the part of the Alpaca market data client used for prices.
type BarsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// Waiter gates outgoing requests. *fetch.Client satisfies it.
type Waiter interface {
	Wait(ctx context.Context) error
}

// AlpacaSource reads daily bars from the Alpaca market data API.
type AlpacaSource struct {
	Client  BarsClient
	Limiter Waiter // optional
	MaxRows int
	Now     func() time.Time
}

// NewAlpacaSource builds the market data client on the shared HTTP client, so
// requests get the configured timeout and rate limit. RetryLimit 0 means the
// SDK default of 10 retries, so -1 disables them.
func NewAlpacaSource(apiKey, apiSecret string, maxRows int, fc *fetch.Client) *AlpacaSource {
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:     apiKey,
		APISecret:  apiSecret,
		HTTPClient: fc.HTTP,
		RetryLimit: -1,
	})
	return &AlpacaSource{Client: client, Limiter: fc, MaxRows: maxRows, Now: time.Now}
}

func (s *AlpacaSource) Closes(ctx context.Context, ticker string) ([]PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	end := s.Now().UTC()
	// two calendar days per trading day covers weekends and holidays
	start := end.AddDate(0, 0, -2*s.MaxRows)

	bars, err := s.Client.GetBars(ticker, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alpaca bars for %s: %w", ticker, err)
	}

	points := make([]PricePoint, 0, len(bars))
	for _, bar := range bars {
		ts := bar.Timestamp.UTC()
		points = append(points, PricePoint{
			Date:  time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
			Close: decimal.NewFromFloat(bar.Close),
		})
	}
	return tail(points, s.MaxRows), nil
}
