package prices

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StooqHeader must appear in a usable Stooq daily CSV.
const StooqHeader = "Date,Open,High,Low,Close,Volume"

// Getter is the subset of fetch.Client used here.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// StooqSource downloads daily CSV history from Stooq.
type StooqSource struct {
	BaseURL string
	MaxRows int
	Getter  Getter
}

func NewStooqSource(baseURL string, maxRows int, getter Getter) *StooqSource {
	return &StooqSource{BaseURL: baseURL, MaxRows: maxRows, Getter: getter}
}

// StooqSymbol maps a NASDAQ ticker to the form Stooq expects.
func StooqSymbol(ticker string) string {
	return strings.ReplaceAll(strings.ToLower(ticker), ".", "-")
}

func (s *StooqSource) URL(ticker string) string {
	q := url.Values{}
	q.Set("s", StooqSymbol(ticker))
	q.Set("i", "d")
	return s.BaseURL + "?" + q.Encode()
}

func (s *StooqSource) Closes(ctx context.Context, ticker string) ([]PricePoint, error) {
	body, err := s.Getter.Get(ctx, s.URL(ticker))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices for %s: %w", ticker, err)
	}
	return ParseStooqCSV(body, s.MaxRows), nil
}

// ParseStooqCSV returns the last maxRows rows of a Stooq daily CSV as price
// points. A body without the expected header yields an empty series; rows
// whose date or close does not parse are dropped.
func ParseStooqCSV(body []byte, maxRows int) []PricePoint {
	if !bytes.Contains(body, []byte(StooqHeader)) {
		return nil
	}

	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil
	}
	dateCol, closeCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case "Date":
			dateCol = i
		case "Close":
			closeCol = i
		}
	}
	if dateCol < 0 || closeCol < 0 {
		return nil
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// keep what parsed so far
			break
		}
		rows = append(rows, record)
	}
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[len(rows)-maxRows:]
	}

	points := make([]PricePoint, 0, len(rows))
	for _, record := range rows {
		if dateCol >= len(record) || closeCol >= len(record) {
			continue
		}
		day, err := time.Parse(DateLayout, strings.TrimSpace(record[dateCol]))
		if err != nil {
			continue
		}
		closePx, err := decimal.NewFromString(strings.TrimSpace(record[closeCol]))
		if err != nil {
			continue
		}
		points = append(points, PricePoint{Date: day, Close: closePx})
	}
	return points
}
