// Package news counts news coverage around a price jump and labels it.
package news

import (
	"context"
	"time"
)

// Label is the coarse news-volume classification of a mover.
type Label string

const (
	NoObviousNews  Label = "no_obvious_news"
	HeadlinesFound Label = "headlines_found"
)

// Status tells a successful query apart from a failed one that was treated
// as empty.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Headline is one article returned by a provider.
type Headline struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Published string `json:"published"`
}

// Result is the classified outcome of one news query.
type Result struct {
	Hits      int
	Headlines []Headline
	Label     Label
	Status    Status
	Err       error
}

// Failed reports whether the query failed and was counted as zero hits.
func (r Result) Failed() bool {
	return r.Status == StatusFailed
}

// Provider searches articles mentioning ticker between start and end. It
// returns the headlines and the total hit count, which may exceed
// len(headlines).
type Provider interface {
	Search(ctx context.Context, ticker string, start, end time.Time) ([]Headline, int, error)
}

// Classify labels a hit count against threshold.
func Classify(hits, threshold int) Label {
	if hits <= threshold {
		return NoObviousNews
	}
	return HeadlinesFound
}
