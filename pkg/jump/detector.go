// Package jump finds the largest one-day move and the whole-window move in
// a short series of daily closes.
package jump

import (
	"github.com/shopspring/decimal"

	"nasdaqmovers/pkg/config"
	"nasdaqmovers/pkg/prices"
)

// Outcome says why Detect did or did not flag a series.
type Outcome int

const (
	Mover Outcome = iota
	BelowThreshold
	InsufficientData
	NoValidPairs
)

func (o Outcome) String() string {
	switch o {
	case Mover:
		return "mover"
	case BelowThreshold:
		return "below_threshold"
	case InsufficientData:
		return "insufficient_data"
	case NoValidPairs:
		return "no_valid_pairs"
	}
	return "unknown"
}

// Result describes the best one-day jump in the evaluated window.
type Result struct {
	JumpDate    string
	OneDayJump  decimal.Decimal
	PrevClose   decimal.Decimal
	Close       decimal.Decimal
	FiveDayMove decimal.Decimal
}

// Detector is a pure function of its configuration and input window.
type Detector struct {
	lookback  int
	oneDayMin decimal.Decimal
	windowMin decimal.Decimal
}

func NewDetector(cfg config.ScanConfig) *Detector {
	return &Detector{
		lookback:  cfg.TradingLookback,
		oneDayMin: decimal.NewFromFloat(cfg.OneDayJumpPct),
		windowMin: decimal.NewFromFloat(cfg.FiveDayMovePct),
	}
}

// Lookback is the number of closes evaluated.
func (d *Detector) Lookback() int {
	return d.lookback
}

// PctChange returns b/a - 1. ok is false when either price is non-positive.
func PctChange(a, b decimal.Decimal) (decimal.Decimal, bool) {
	if !a.IsPositive() || !b.IsPositive() {
		return decimal.Zero, false
	}
	return b.Div(a).Sub(decimal.NewFromInt(1)), true
}

// Detect evaluates the last Lookback points of an ascending series. The
// Result is filled for Mover and BelowThreshold outcomes.
func (d *Detector) Detect(points []prices.PricePoint) (Result, Outcome) {
	if len(points) < d.lookback {
		return Result{}, InsufficientData
	}
	window := points[len(points)-d.lookback:]

	var best Result
	found := false
	for i := 1; i < len(window); i++ {
		ch, ok := PctChange(window[i-1].Close, window[i].Close)
		if !ok {
			continue
		}
		// strictly greater: the earliest pair wins an exact tie
		if !found || ch.GreaterThan(best.OneDayJump) {
			best = Result{
				JumpDate:   window[i].Day(),
				OneDayJump: ch,
				PrevClose:  window[i-1].Close,
				Close:      window[i].Close,
			}
			found = true
		}
	}
	if !found {
		return Result{}, NoValidPairs
	}

	fiveDay, ok := PctChange(window[0].Close, window[len(window)-1].Close)
	if !ok {
		fiveDay = decimal.Zero
	}
	best.FiveDayMove = fiveDay

	if best.OneDayJump.LessThan(d.oneDayMin) && fiveDay.LessThan(d.windowMin) {
		return best, BelowThreshold
	}
	return best, Mover
}
