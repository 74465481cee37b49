// Package enrich attaches models.MarketContext to scored items: relative
// volume, float/short-interest, sector context, market regime, VWAP, and
// the sector-adjusted sentiment recompute.
package enrich

import (
	"context"
	"sync"

	"catalystd/internal/models"
)

// Quoter is the narrow capability the enricher needs from a broker to batch
// price a set of tickers; satisfied by broker.Broker in production and a
// stub in tests.
type Quoter interface {
	BatchQuote(ctx context.Context, tickers []string) (map[string]models.Quote, error)
}

// PriceCache is the per-cycle price map: populated once
// per cycle via a single batch fetch, read lock-free afterward, and
// replaced wholesale at cycle end. The only legal mutator is Refresh.
type PriceCache struct {
	snapshot atomicMap
}

type atomicMap struct {
	mu sync.RWMutex
	m  map[string]models.Quote
}

func NewPriceCache() *PriceCache {
	return &PriceCache{snapshot: atomicMap{m: map[string]models.Quote{}}}
}

// Refresh replaces the cache contents with a fresh batch fetch for the given
// tickers. Called exactly once per cycle, before any per-item enrichment.
func (c *PriceCache) Refresh(ctx context.Context, q Quoter, tickers []string) error {
	quotes, err := q.BatchQuote(ctx, tickers)
	if err != nil {
		return err
	}
	c.snapshot.mu.Lock()
	c.snapshot.m = quotes
	c.snapshot.mu.Unlock()
	return nil
}

// Get reads a cached quote without blocking the writer.
func (c *PriceCache) Get(ticker string) (models.Quote, bool) {
	c.snapshot.mu.RLock()
	defer c.snapshot.mu.RUnlock()
	q, ok := c.snapshot.m[ticker]
	return q, ok
}

// Clear drops all entries at cycle end, bounding memory growth.
func (c *PriceCache) Clear() {
	c.snapshot.mu.Lock()
	c.snapshot.m = map[string]models.Quote{}
	c.snapshot.mu.Unlock()
}
