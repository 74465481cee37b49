// Package ingest fans out across configured feed.Source implementations,
// deduplicates, and filters the resulting batch before classification.
package ingest

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"catalystd/internal/feed"
	"catalystd/internal/models"
)

// maxConcurrentFetches bounds the per-cycle source fan-out.
const maxConcurrentFetches = 8

// Ingestor owns the configured feed sources and tracks consecutive empty
// cycles for outage detection.
type Ingestor struct {
	Sources []feed.Source

	mu                 sync.Mutex
	consecutiveEmpty   int
	emptyCycleAlertAt  int
	onOutageAlert      func(consecutive int)
}

func New(sources []feed.Source, emptyCycleAlertThreshold int, onOutageAlert func(int)) *Ingestor {
	return &Ingestor{
		Sources:           sources,
		emptyCycleAlertAt: emptyCycleAlertThreshold,
		onOutageAlert:     onOutageAlert,
	}
}

// FetchAll pulls concurrently from every configured source, bounded by
// maxConcurrentFetches. A single source's failure is isolated: logged, and
// that source contributes an empty list rather than aborting the cycle.
func (in *Ingestor) FetchAll(ctx context.Context) []models.NewsItem {
	var mu sync.Mutex
	var all []models.NewsItem

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for _, src := range in.Sources {
		src := src
		g.Go(func() error {
			items, err := src.Fetch(gctx)
			if err != nil {
				log.Printf("ingest: source %s failed: %v", src.Name(), err)
				return nil // isolated: never abort the cycle for one source
			}
			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // errors are already isolated per-source above

	in.recordCycleResult(len(all))
	return all
}

func (in *Ingestor) recordCycleResult(count int) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if count == 0 {
		in.consecutiveEmpty++
	} else {
		in.consecutiveEmpty = 0
	}

	if in.emptyCycleAlertAt > 0 && in.consecutiveEmpty == in.emptyCycleAlertAt && in.onOutageAlert != nil {
		in.onOutageAlert(in.consecutiveEmpty)
	}
}

// FilterFreshness splits items into fresh and stale by publish age. SEC
// filings (models.KindFiling) are checked against filingMaxAge instead of
// maxAge, since the filing window is policy-wider than the plain-news one.
// The check is inclusive of the boundary (age <= threshold passes).
// Timezone-naive timestamps are already normalized to UTC by the feed
// adapters; future dates (negative age) always pass. Stale items are
// returned so the caller can log them to the rejected-items ledger.
func FilterFreshness(items []models.NewsItem, now time.Time, maxAge, filingMaxAge time.Duration) (fresh, stale []models.NewsItem) {
	fresh = make([]models.NewsItem, 0, len(items))
	for _, it := range items {
		threshold := maxAge
		if it.Kind == models.KindFiling {
			threshold = filingMaxAge
		}
		age := now.Sub(it.PublishedAt)
		if age <= threshold {
			fresh = append(fresh, it)
		} else {
			stale = append(stale, it)
		}
	}
	return fresh, stale
}
