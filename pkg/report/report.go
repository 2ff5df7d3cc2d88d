// Package report assembles, ranks and writes the movers report.
package report

import (
	"sort"
	"time"

	"nasdaqmovers/pkg/config"
	"nasdaqmovers/pkg/jump"
	"nasdaqmovers/pkg/news"
)

// GeneratedLayout is the minute-precision UTC stamp written to the report.
const GeneratedLayout = "2006-01-02 15:04 UTC"

// MoverItem is one flagged ticker. It is built once and not modified.
type MoverItem struct {
	Ticker             string          `json:"ticker"`
	JumpDate           string          `json:"jump_date"`
	OneDayJump         float64         `json:"one_day_jump"`
	FiveDayMove        float64         `json:"five_day_move"`
	PrevClose          float64         `json:"prev_close"`
	Close              float64         `json:"close"`
	NewsHits           int             `json:"news_hits"`
	NewsClassification news.Label      `json:"news_classification"`
	NewsError          string          `json:"news_error,omitempty"`
	TopHeadlines       []news.Headline `json:"top_headlines"`
}

// NewMoverItem joins a ticker's jump and news results.
func NewMoverItem(ticker string, j jump.Result, n news.Result) MoverItem {
	item := MoverItem{
		Ticker:             ticker,
		JumpDate:           j.JumpDate,
		OneDayJump:         j.OneDayJump.InexactFloat64(),
		FiveDayMove:        j.FiveDayMove.InexactFloat64(),
		PrevClose:          j.PrevClose.InexactFloat64(),
		Close:              j.Close.InexactFloat64(),
		NewsHits:           n.Hits,
		NewsClassification: n.Label,
		TopHeadlines:       n.Headlines,
	}
	if n.Failed() && n.Err != nil {
		item.NewsError = n.Err.Error()
	}
	if item.TopHeadlines == nil {
		item.TopHeadlines = []news.Headline{}
	}
	return item
}

// Thresholds echoes the parameters the run used, as integer percentages
// and counts.
type Thresholds struct {
	OneDayJumpPct   int `json:"one_day_jump_pct"`
	FiveDayMovePct  int `json:"five_day_move_pct"`
	NewsWindowHours int `json:"news_window_hours"`
	NoNewsIfHitsLeq int `json:"no_news_if_hits_leq"`
}

func NewThresholds(scan config.ScanConfig, n config.NewsConfig) Thresholds {
	return Thresholds{
		OneDayJumpPct:   pct(scan.OneDayJumpPct),
		FiveDayMovePct:  pct(scan.FiveDayMovePct),
		NewsWindowHours: n.LookbackHours,
		NoNewsIfHitsLeq: n.HitThreshold,
	}
}

// pct truncates like int(x*100) but tolerates float noise such as 0.29*100.
func pct(ratio float64) int {
	return int(ratio*100 + 1e-9)
}

// Report is the document written at the end of a scan.
type Report struct {
	GeneratedUTC  string      `json:"generated_utc"`
	RunID         string      `json:"run_id"`
	UniverseCount int         `json:"universe_count"`
	CheckedCount  int         `json:"checked_count"`
	LookbackDays  int         `json:"lookback_days"`
	Thresholds    Thresholds  `json:"thresholds"`
	Items         []MoverItem `json:"items"`
}

// Less orders a before b: larger one-day jump, then larger five-day move,
// then fewer news hits.
func Less(a, b MoverItem) bool {
	if a.OneDayJump != b.OneDayJump {
		return a.OneDayJump > b.OneDayJump
	}
	if a.FiveDayMove != b.FiveDayMove {
		return a.FiveDayMove > b.FiveDayMove
	}
	return a.NewsHits < b.NewsHits
}

// SortItems ranks items in place. Items with equal keys keep their order.
func SortItems(items []MoverItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return Less(items[i], items[j])
	})
}

// Assembler collects movers for a single scan up to a hard cap.
type Assembler struct {
	maxItems   int
	lookback   int
	thresholds Thresholds
	items      []MoverItem
}

func NewAssembler(cfg *config.Config) *Assembler {
	return &Assembler{
		maxItems:   cfg.Scan.MaxItems,
		lookback:   cfg.Scan.TradingLookback,
		thresholds: NewThresholds(cfg.Scan, cfg.News),
	}
}

// Add appends item unless the cap is already reached. It reports whether the
// item was kept.
func (a *Assembler) Add(item MoverItem) bool {
	if a.Full() {
		return false
	}
	a.items = append(a.items, item)
	return true
}

// Full reports whether no more items will be accepted.
func (a *Assembler) Full() bool {
	return len(a.items) >= a.maxItems
}

func (a *Assembler) Len() int {
	return len(a.items)
}

// Report ranks a copy of the collected items and wraps them with run metadata.
func (a *Assembler) Report(now time.Time, runID string, universe, checked int) *Report {
	items := make([]MoverItem, len(a.items))
	copy(items, a.items)
	SortItems(items)

	return &Report{
		GeneratedUTC:  now.UTC().Format(GeneratedLayout),
		RunID:         runID,
		UniverseCount: universe,
		CheckedCount:  checked,
		LookbackDays:  a.lookback - 1,
		Thresholds:    a.thresholds,
		Items:         items,
	}
}
