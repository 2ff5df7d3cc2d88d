package news

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kaptinlin/jsonrepair"

	"nasdaqmovers/pkg/config"
)

// GDELTTimeLayout is the DOC API datetime format (UTC).
const GDELTTimeLayout = "20060102150405"

// Getter is the subset of fetch.Client used here.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

type gdeltResponse struct {
	Articles []gdeltArticle `json:"articles"`
}

type gdeltArticle struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	SeenDate string `json:"seendate"`
	DateTime string `json:"datetime"`
	Domain   string `json:"domain"`
	Language string `json:"language"`
}

// GDELTProvider queries the GDELT DOC 2.0 article list API.
type GDELTProvider struct {
	BaseURL    string
	Language   string
	MaxRecords int
	Sort       string
	Getter     Getter
}

func NewGDELTProvider(cfg config.NewsConfig, getter Getter) *GDELTProvider {
	return &GDELTProvider{
		BaseURL:    cfg.URL,
		Language:   cfg.Language,
		MaxRecords: cfg.MaxRecords,
		Sort:       cfg.Sort,
		Getter:     getter,
	}
}

// Query is the boolean search for a ticker: the bare symbol or its cashtag.
func (p *GDELTProvider) Query(ticker string) string {
	q := fmt.Sprintf(`("%s" OR "$%s")`, ticker, ticker)
	if p.Language != "" {
		q += " sourcelang:" + p.Language
	}
	return q
}

func (p *GDELTProvider) URL(ticker string, start, end time.Time) string {
	params := url.Values{}
	params.Set("query", p.Query(ticker))
	params.Set("mode", "artlist")
	params.Set("format", "json")
	params.Set("maxrecords", strconv.Itoa(p.MaxRecords))
	params.Set("startdatetime", start.UTC().Format(GDELTTimeLayout))
	params.Set("enddatetime", end.UTC().Format(GDELTTimeLayout))
	if p.Sort != "" {
		params.Set("sort", p.Sort)
	}
	// literal '+' is already %2B, so this only rewrites encoded spaces
	return p.BaseURL + "?" + strings.ReplaceAll(params.Encode(), "+", "%20")
}

func (p *GDELTProvider) Search(ctx context.Context, ticker string, start, end time.Time) ([]Headline, int, error) {
	body, err := p.Getter.Get(ctx, p.URL(ticker, start, end))
	if err != nil {
		return nil, 0, fmt.Errorf("gdelt request for %s: %w", ticker, err)
	}

	articles, err := decodeGDELT(body)
	if err != nil {
		return nil, 0, fmt.Errorf("gdelt response for %s: %w", ticker, err)
	}

	headlines := make([]Headline, 0, len(articles))
	for _, a := range articles {
		published := a.SeenDate
		if published == "" {
			published = a.DateTime
		}
		headlines = append(headlines, Headline{
			Title:     plainText(a.Title),
			URL:       a.URL,
			Published: published,
		})
	}
	return headlines, len(articles), nil
}

// decodeGDELT accepts the slightly malformed JSON the DOC API sometimes
// returns. Plain-text bodies (query errors) are rejected.
func decodeGDELT(body []byte) ([]gdeltArticle, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	if trimmed[0] != '{' {
		msg := string(trimmed)
		if len(msg) > 120 {
			msg = msg[:120]
		}
		return nil, fmt.Errorf("unexpected body: %q", msg)
	}

	var resp gdeltResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(string(trimmed))
		if repairErr != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &resp); err != nil {
			return nil, fmt.Errorf("invalid json after repair: %w", err)
		}
	}
	return resp.Articles, nil
}

// plainText strips markup and entities from a headline and collapses
// whitespace.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
