package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nasdaqmovers/pkg/config"
	"nasdaqmovers/pkg/jump"
	"nasdaqmovers/pkg/news"
)

func item(ticker string, oneDay, fiveDay float64, hits int) MoverItem {
	return MoverItem{
		Ticker:             ticker,
		JumpDate:           "2026-10-14",
		OneDayJump:         oneDay,
		FiveDayMove:        fiveDay,
		NewsHits:           hits,
		NewsClassification: news.Classify(hits, 2),
		TopHeadlines:       []news.Headline{},
	}
}

func tickers(items []MoverItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Ticker
	}
	return out
}

func TestSortItems(t *testing.T) {
	items := []MoverItem{
		item("LOW", 0.05, 0.30, 0),
		item("TOP", 0.90, 0.10, 20),
		item("TIE_MANY", 0.25, 0.25, 9),
		item("TIE_FEW", 0.25, 0.25, 1),
		item("TIE_BIGGER_5D", 0.25, 0.40, 30),
	}

	SortItems(items)

	assert.Equal(t, []string{"TOP", "TIE_BIGGER_5D", "TIE_FEW", "TIE_MANY", "LOW"}, tickers(items))
	for i := 1; i < len(items); i++ {
		assert.False(t, Less(items[i], items[i-1]), "items %d and %d out of order", i-1, i)
	}
}

func TestSortItems_StableOnEqualKeys(t *testing.T) {
	items := []MoverItem{item("A", 0.3, 0.1, 1), item("B", 0.3, 0.1, 1), item("C", 0.3, 0.1, 1)}
	SortItems(items)
	assert.Equal(t, []string{"A", "B", "C"}, tickers(items))
}

func TestNewMoverItem(t *testing.T) {
	j := jump.Result{
		JumpDate:    "2026-10-09",
		OneDayJump:  decimal.RequireFromString("0.25"),
		PrevClose:   decimal.NewFromInt(10),
		Close:       decimal.RequireFromString("12.5"),
		FiveDayMove: decimal.Zero,
	}

	ok := NewMoverItem("ACME", j, news.Result{Hits: 0, Label: news.NoObviousNews, Status: news.StatusOK})
	assert.Equal(t, 0.25, ok.OneDayJump)
	assert.Equal(t, 0.0, ok.FiveDayMove)
	assert.Equal(t, 10.0, ok.PrevClose)
	assert.Equal(t, 12.5, ok.Close)
	assert.Equal(t, news.NoObviousNews, ok.NewsClassification)
	assert.Empty(t, ok.NewsError)
	assert.NotNil(t, ok.TopHeadlines)

	failed := NewMoverItem("ACME", j, news.Result{Label: news.NoObviousNews, Status: news.StatusFailed, Err: errors.New("timeout")})
	assert.Equal(t, "timeout", failed.NewsError)
}

func TestNewThresholds(t *testing.T) {
	cfg := config.NewDefaultConfig()
	th := NewThresholds(cfg.Scan, cfg.News)
	assert.Equal(t, Thresholds{OneDayJumpPct: 20, FiveDayMovePct: 20, NewsWindowHours: 48, NoNewsIfHitsLeq: 2}, th)

	cfg.Scan.OneDayJumpPct = 0.29
	cfg.Scan.FiveDayMovePct = 0.155
	th = NewThresholds(cfg.Scan, cfg.News)
	assert.Equal(t, 29, th.OneDayJumpPct)
	assert.Equal(t, 15, th.FiveDayMovePct)
}

func TestAssembler_Cap(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Scan.MaxItems = 3
	a := NewAssembler(cfg)

	for i, name := range []string{"A", "B", "C"} {
		assert.False(t, a.Full(), "full after %d", i)
		assert.True(t, a.Add(item(name, 0.3, 0, 0)))
	}
	assert.True(t, a.Full())
	assert.False(t, a.Add(item("D", 0.9, 0, 0)))
	assert.Equal(t, 3, a.Len())
}

func TestAssembler_Report(t *testing.T) {
	cfg := config.NewDefaultConfig()
	a := NewAssembler(cfg)
	a.Add(item("SLOW", 0.21, 0.0, 0))
	a.Add(item("FAST", 0.80, 0.5, 4))

	now := time.Date(2026, 10, 17, 18, 34, 59, 0, time.FixedZone("X", 2*3600))
	r := a.Report(now, "run-1", 4000, 3990)

	assert.Equal(t, "2026-10-17 16:34 UTC", r.GeneratedUTC)
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, 4000, r.UniverseCount)
	assert.Equal(t, 3990, r.CheckedCount)
	assert.Equal(t, 5, r.LookbackDays)
	assert.Equal(t, 20, r.Thresholds.OneDayJumpPct)
	assert.Equal(t, []string{"FAST", "SLOW"}, tickers(r.Items))

	// the assembler keeps its own order
	a.Add(item("LATE", 0.99, 0, 0))
	assert.Len(t, r.Items, 2)
}

func TestWriteJSON(t *testing.T) {
	cfg := config.NewDefaultConfig()
	a := NewAssembler(cfg)
	it := item("ACME", 0.25, 0, 3)
	it.TopHeadlines = []news.Headline{{Title: "ACME soars", URL: "https://news.test/1", Published: "20261014T120000Z"}}
	a.Add(it)
	r := a.Report(time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC), "run-2", 1, 1)

	path := filepath.Join(t.TempDir(), "docs", "movers.json")
	require.NoError(t, WriteJSON(path, r))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "2026-10-17 18:00 UTC", doc["generated_utc"])
	assert.Equal(t, 5.0, doc["lookback_days"])

	thresholds := doc["thresholds"].(map[string]any)
	assert.Equal(t, 20.0, thresholds["one_day_jump_pct"])
	assert.Equal(t, 20.0, thresholds["five_day_move_pct"])
	assert.Equal(t, 48.0, thresholds["news_window_hours"])
	assert.Equal(t, 2.0, thresholds["no_news_if_hits_leq"])

	items := doc["items"].([]any)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	assert.Equal(t, "ACME", first["ticker"])
	assert.Equal(t, 0.25, first["one_day_jump"])
	assert.Equal(t, "headlines_found", first["news_classification"])
	assert.NotContains(t, first, "news_error")
	assert.Len(t, first["top_headlines"], 1)

	// overwrite with an empty report
	empty := NewAssembler(cfg).Report(time.Now(), "run-3", 0, 0)
	require.NoError(t, WriteJSON(path, empty))
	back, err := ReadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, "run-3", back.RunID)
	assert.NotNil(t, back.Items)
	assert.Empty(t, back.Items)
}

func TestWriteCSV(t *testing.T) {
	a := NewAssembler(config.NewDefaultConfig())
	it := item("ACME", 0.25, 0.1, 3)
	it.TopHeadlines = []news.Headline{{Title: "ACME, Inc. soars"}}
	a.Add(it)
	a.Add(item("BETA", 0.5, 0, 0))
	r := a.Report(time.Now(), "run", 2, 2)

	path := filepath.Join(t.TempDir(), "out", "movers.csv")
	require.NoError(t, WriteCSV(path, r))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "BETA", rows[1][0])
	assert.Equal(t, []string{"ACME", "2026-10-14", "0.25", "0.1", "0", "0", "3", "headlines_found", "ACME, Inc. soars"}, rows[2])
}
