// Package scanner runs one pass over the listed universe: prices, jump
// detection, news classification and report assembly.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nasdaqmovers/pkg/config"
	"nasdaqmovers/pkg/jump"
	"nasdaqmovers/pkg/listing"
	"nasdaqmovers/pkg/news"
	"nasdaqmovers/pkg/prices"
	"nasdaqmovers/pkg/report"
)

const progressEvery = 250

type Scanner struct {
	cfg        *config.Config
	listing    listing.Source
	prices     prices.Source
	detector   *jump.Detector
	classifier *news.Classifier
	logger     *zap.Logger
	now        func() time.Time
}

func New(cfg *config.Config, src listing.Source, px prices.Source, classifier *news.Classifier, logger *zap.Logger) *Scanner {
	return &Scanner{
		cfg:        cfg,
		listing:    src,
		prices:     px,
		detector:   jump.NewDetector(cfg.Scan),
		classifier: classifier,
		logger:     logger,
		now:        time.Now,
	}
}

// Stats counts what happened to each checked ticker.
type Stats struct {
	Universe         int
	Checked          int
	PriceErrors      int
	InsufficientData int
	NoValidPairs     int
	BelowThreshold   int
	Movers           int
	NewsFailures     int
}

func (st *Stats) record(ev evaluation) {
	st.Checked++
	if ev.priceErr != nil {
		st.PriceErrors++
		return
	}
	switch ev.outcome {
	case jump.InsufficientData:
		st.InsufficientData++
	case jump.NoValidPairs:
		st.NoValidPairs++
	case jump.BelowThreshold:
		st.BelowThreshold++
	case jump.Mover:
		st.Movers++
		if ev.news.Failed() {
			st.NewsFailures++
		}
	}
}

func (st Stats) fields() []zap.Field {
	return []zap.Field{
		zap.Int("universe", st.Universe),
		zap.Int("checked", st.Checked),
		zap.Int("price_errors", st.PriceErrors),
		zap.Int("insufficient_data", st.InsufficientData),
		zap.Int("no_valid_pairs", st.NoValidPairs),
		zap.Int("below_threshold", st.BelowThreshold),
		zap.Int("movers", st.Movers),
		zap.Int("news_failures", st.NewsFailures),
	}
}

// evaluation is the outcome for a single ticker.
type evaluation struct {
	ticker   string
	priceErr error
	outcome  jump.Outcome
	news     news.Result
	item     report.MoverItem
}

// Run scans the universe in listing order and returns the ranked report. A
// listing failure or context cancellation aborts the run; per-ticker failures
// do not.
func (s *Scanner) Run(ctx context.Context) (*report.Report, error) {
	runID := uuid.NewString()
	log := s.logger.With(zap.String("run_id", runID))
	started := s.now()

	tickers, err := s.listing.Tickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing: %w", err)
	}
	log.Info("Scan started", zap.Int("tickers", len(tickers)), zap.Int("workers", s.cfg.Scan.Workers))

	asm := report.NewAssembler(s.cfg)
	stats := Stats{Universe: len(tickers)}

	merge := func(ev evaluation) {
		stats.record(ev)
		if ev.priceErr == nil && ev.outcome == jump.Mover {
			asm.Add(ev.item)
			log.Info("Mover found",
				zap.String("ticker", ev.ticker),
				zap.String("jump_date", ev.item.JumpDate),
				zap.Float64("one_day_jump", ev.item.OneDayJump),
				zap.Float64("five_day_move", ev.item.FiveDayMove),
				zap.Int("news_hits", ev.item.NewsHits),
				zap.String("news", string(ev.item.NewsClassification)))
		}
		if stats.Checked%progressEvery == 0 {
			log.Info("Scan progress",
				zap.Int("checked", stats.Checked),
				zap.Int("total", len(tickers)),
				zap.Int("movers", asm.Len()),
				zap.Duration("elapsed", s.now().Sub(started).Round(time.Second)))
		}
	}

	if s.cfg.Scan.Workers > 1 {
		err = s.scanParallel(ctx, tickers, asm, merge)
	} else {
		err = s.scanSequential(ctx, tickers, asm, merge)
	}
	if err != nil {
		log.Warn("Scan aborted", append(stats.fields(), zap.Error(err))...)
		return nil, err
	}

	if asm.Full() {
		log.Info("Item cap reached, remaining tickers skipped", zap.Int("max_items", s.cfg.Scan.MaxItems))
	}
	log.Info("Scan finished", append(stats.fields(), zap.Duration("elapsed", s.now().Sub(started).Round(time.Millisecond)))...)

	return asm.Report(s.now(), runID, stats.Universe, stats.Checked), nil
}

func (s *Scanner) scanSequential(ctx context.Context, tickers []string, asm *report.Assembler, merge func(evaluation)) error {
	for _, ticker := range tickers {
		if asm.Full() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		ev := s.evaluate(ctx, ticker)
		if err := ctx.Err(); err != nil {
			return err
		}
		merge(ev)
	}
	return nil
}

// scanParallel evaluates up to Workers tickers at once but merges results in
// listing order, so the assembler sees exactly the sequence the sequential
// scan would. Work still in flight when the cap is reached is cancelled.
func (s *Scanner) scanParallel(ctx context.Context, tickers []string, asm *report.Assembler, merge func(evaluation)) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	slots := make([]chan evaluation, len(tickers))
	for i := range slots {
		slots[i] = make(chan evaluation, 1)
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(s.cfg.Scan.Workers)

	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		for i, ticker := range tickers {
			if gctx.Err() != nil {
				return
			}
			i, ticker := i, ticker
			g.Go(func() error {
				slots[i] <- s.evaluate(gctx, ticker)
				return nil
			})
		}
	}()

	wait := func() {
		cancel()
		<-dispatched
		_ = g.Wait()
	}

	for i := range tickers {
		if asm.Full() {
			break
		}
		if err := ctx.Err(); err != nil {
			wait()
			return err
		}
		select {
		case ev := <-slots[i]:
			if err := ctx.Err(); err != nil {
				wait()
				return err
			}
			merge(ev)
		case <-ctx.Done():
			wait()
			return ctx.Err()
		}
	}
	wait()
	return nil
}

func (s *Scanner) evaluate(ctx context.Context, ticker string) evaluation {
	ev := evaluation{ticker: ticker}

	points, err := s.prices.Closes(ctx, ticker)
	if err != nil {
		s.logger.Debug("Price fetch failed, skipping", zap.String("ticker", ticker), zap.Error(err))
		ev.priceErr = err
		return ev
	}

	res, outcome := s.detector.Detect(points)
	ev.outcome = outcome
	if outcome != jump.Mover {
		s.logger.Debug("Not a mover",
			zap.String("ticker", ticker),
			zap.Int("points", len(points)),
			zap.Stringer("outcome", outcome))
		return ev
	}

	ev.news = s.classifier.Classify(ctx, ticker, res.JumpDate)
	ev.item = report.NewMoverItem(ticker, res, ev.news)
	return ev
}
