package news

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"nasdaqmovers/pkg/fetch"
)

// NewsClient is the part of the Alpaca market data client used for news.
type NewsClient interface {
	GetNews(req marketdata.GetNewsRequest) ([]marketdata.News, error)
}

// Waiter gates outgoing requests. *fetch.Client satisfies it.
type Waiter interface {
	Wait(ctx context.Context) error
}

// AlpacaProvider searches the Alpaca (Benzinga) news feed by symbol.
type AlpacaProvider struct {
	Client     NewsClient
	Limiter    Waiter // optional
	MaxRecords int
}

// NewAlpacaProvider shares fc's HTTP client and rate limiter and turns off the
// SDK's retries, so one search is one request.
func NewAlpacaProvider(apiKey, apiSecret string, maxRecords int, fc *fetch.Client) *AlpacaProvider {
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:     apiKey,
		APISecret:  apiSecret,
		HTTPClient: fc.HTTP,
		RetryLimit: -1,
	})
	return &AlpacaProvider{Client: client, Limiter: fc, MaxRecords: maxRecords}
}

func (p *AlpacaProvider) Search(ctx context.Context, ticker string, start, end time.Time) ([]Headline, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return nil, 0, err
		}
	}

	items, err := p.Client.GetNews(marketdata.GetNewsRequest{
		Symbols:    []string{ticker},
		Start:      start,
		End:        end,
		TotalLimit: p.MaxRecords,
		Sort:       marketdata.SortDesc,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("alpaca news for %s: %w", ticker, err)
	}

	headlines := make([]Headline, 0, len(items))
	for _, n := range items {
		headlines = append(headlines, Headline{
			Title:     plainText(n.Headline),
			URL:       n.URL,
			Published: n.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return headlines, len(items), nil
}
