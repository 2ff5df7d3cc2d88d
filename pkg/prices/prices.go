// Package prices supplies daily closing price series per ticker.
package prices

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the trading date format used throughout the report.
const DateLayout = "2006-01-02"

// PricePoint is one trading day close.
type PricePoint struct {
	Date  time.Time // UTC midnight of the trading day
	Close decimal.Decimal
}

// Day returns the trading date as YYYY-MM-DD.
func (p PricePoint) Day() string {
	return p.Date.Format(DateLayout)
}

// Source returns the ascending close series for a ticker. An empty series
// with a nil error means the provider had no usable data.
type Source interface {
	Closes(ctx context.Context, ticker string) ([]PricePoint, error)
}

func tail(points []PricePoint, n int) []PricePoint {
	if n > 0 && len(points) > n {
		return points[len(points)-n:]
	}
	return points
}
