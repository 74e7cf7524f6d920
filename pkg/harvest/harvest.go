// Package harvest fills in real example sentences for vocabulary
// records by mining readable text from web articles.
package harvest

import (
	"context"
	"sync"

	"github.com/gammazero/workerpool"
	"go.uber.org/zap"

	"github.com/mwhite/vocabfill/pkg/vocab"
)

// DefaultMaxExamples is how many example sentences a record carries.
const DefaultMaxExamples = 2

// Harvester mines article text for sentences that use the document's
// words and appends them as examples. Only records that already carry a
// definition are eligible: harvesting must never create a half-filled
// record.
type Harvester struct {
	Fetcher     *Fetcher
	Logger      *zap.Logger
	Workers     int
	MaxExamples int
}

// NewHarvester returns a Harvester with four fetch workers and the
// default example cap.
func NewHarvester(fetcher *Fetcher, logger *zap.Logger) *Harvester {
	return &Harvester{
		Fetcher:     fetcher,
		Logger:      logger,
		Workers:     4,
		MaxExamples: DefaultMaxExamples,
	}
}

// Run fetches every URL concurrently, splits the extracted text into
// sentences, and fills missing examples in doc. It returns the number of
// records that gained at least one example. Individual fetch failures
// are logged and skipped; Run fails only when every URL fails.
func (h *Harvester) Run(ctx context.Context, doc *vocab.Document, urls []string) (int, error) {
	sentences, err := h.collect(ctx, urls)
	if err != nil {
		return 0, err
	}
	h.Logger.Info("collected candidate sentences", zap.Int("sentences", len(sentences)))
	return h.fill(doc, sentences), nil
}

// collect fetches all URLs through the worker pool. Results keep the
// order URLs were given in, so repeated runs produce the same examples.
func (h *Harvester) collect(ctx context.Context, urls []string) ([]string, error) {
	wp := workerpool.New(h.Workers)
	texts := make([]string, len(urls))
	errs := make([]error, len(urls))
	var mu sync.Mutex

	for i, u := range urls {
		i, u := i, u
		wp.Submit(func() {
			text, err := h.Fetcher.FetchText(ctx, u)
			mu.Lock()
			texts[i], errs[i] = text, err
			mu.Unlock()
		})
	}
	wp.StopWait()

	var sentences []string
	failed := 0
	var firstErr error
	for i := range urls {
		if errs[i] != nil {
			h.Logger.Warn("article fetch failed", zap.String("url", urls[i]), zap.Error(errs[i]))
			failed++
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		sentences = append(sentences, SplitSentences(texts[i])...)
	}
	if len(urls) > 0 && failed == len(urls) {
		return nil, firstErr
	}
	return sentences, nil
}

// fill appends matching sentences to records missing examples. A record
// never receives the same sentence twice.
func (h *Harvester) fill(doc *vocab.Document, sentences []string) int {
	filled := 0
	for i := range doc.Words {
		rec := &doc.Words[i]
		if !rec.Filled() || rec.Word == "" || len(rec.Examples) >= h.MaxExamples {
			continue
		}

		seen := make(map[string]bool, len(rec.Examples))
		for _, ex := range rec.Examples {
			seen[ex] = true
		}
		pattern := wordPattern(rec.Word)

		added := 0
		for _, s := range sentences {
			if len(rec.Examples) >= h.MaxExamples {
				break
			}
			if seen[s] || !pattern.MatchString(s) {
				continue
			}
			rec.Examples = append(rec.Examples, s)
			seen[s] = true
			added++
		}
		if added > 0 {
			h.Logger.Debug("harvested examples",
				zap.String("word", rec.Word), zap.Int("added", added))
			filled++
		}
	}
	return filled
}
