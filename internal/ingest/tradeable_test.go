package ingest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"catalystd/internal/enrich"
	"catalystd/internal/models"
)

type stubQuoter map[string]float64

func (s stubQuoter) BatchQuote(ctx context.Context, tickers []string) (map[string]models.Quote, error) {
	out := make(map[string]models.Quote, len(tickers))
	for _, t := range tickers {
		if px, ok := s[t]; ok {
			out[t] = models.Quote{Symbol: t, AskPrice: decimal.NewFromFloat(px)}
		}
	}
	return out, nil
}

func pricedCache(t *testing.T, prices map[string]float64) *enrich.PriceCache {
	t.Helper()
	cache := enrich.NewPriceCache()
	tickers := make([]string, 0, len(prices))
	for k := range prices {
		tickers = append(tickers, k)
	}
	if err := cache.Refresh(context.Background(), stubQuoter(prices), tickers); err != nil {
		t.Fatalf("cache refresh: %v", err)
	}
	return cache
}

func TestTradeableFilterDropsOTCWithReason(t *testing.T) {
	otc := func(ticker string) (bool, bool) { return ticker != "PINK", true }
	f := NewTradeableFilter(nil, otc, true, 0, 0)

	kept, rejected := f.Apply([]models.NewsItem{
		{ID: "a", Tickers: []string{"PINK"}},
		{ID: "b", Tickers: []string{"AAPL"}},
	})

	if len(kept) != 1 || kept[0].ID != "b" {
		t.Fatalf("expected only the listed ticker through, got %v", kept)
	}
	if len(rejected) != 1 || rejected[0].Reason != ReasonOTCExchange || rejected[0].Ticker != "PINK" {
		t.Fatalf("expected an otc_exchange rejection for PINK, got %v", rejected)
	}
}

func TestTradeableFilterDropsOutsidePriceBand(t *testing.T) {
	cache := pricedCache(t, map[string]float64{"CHEAP": 0.40, "FINE": 3.50, "RICH": 600})
	f := NewTradeableFilter(cache, nil, false, 1.0, 500)

	kept, rejected := f.Apply([]models.NewsItem{
		{ID: "cheap", Tickers: []string{"CHEAP"}},
		{ID: "fine", Tickers: []string{"FINE"}},
		{ID: "rich", Tickers: []string{"RICH"}},
	})

	if len(kept) != 1 || kept[0].ID != "fine" {
		t.Fatalf("expected only the in-band ticker through, got %v", kept)
	}
	for _, r := range rejected {
		if r.Reason != ReasonPriceBand {
			t.Errorf("expected price_band reason for %s, got %s", r.Ticker, r.Reason)
		}
	}
	if len(rejected) != 2 {
		t.Fatalf("expected two price-band rejections, got %d", len(rejected))
	}
}

func TestTradeableFilterPassesUnpricedAndTickerlessItems(t *testing.T) {
	cache := pricedCache(t, map[string]float64{})
	f := NewTradeableFilter(cache, nil, false, 1.0, 500)

	kept, rejected := f.Apply([]models.NewsItem{
		{ID: "no-ticker"},
		{ID: "no-quote", Tickers: []string{"MYSTERY"}},
	})

	if len(kept) != 2 {
		t.Fatalf("expected both items through, got %v", kept)
	}
	if len(rejected) != 0 {
		t.Fatalf("expected no rejections, got %v", rejected)
	}
}

func TestTradeableFilterKeepsItemWhenAnyTickerPasses(t *testing.T) {
	otc := func(ticker string) (bool, bool) { return ticker == "AAPL", true }
	f := NewTradeableFilter(nil, otc, true, 0, 0)

	kept, rejected := f.Apply([]models.NewsItem{
		{ID: "mixed", Tickers: []string{"PINK", "AAPL"}},
	})

	if len(kept) != 1 {
		t.Fatalf("expected the mixed item kept because one ticker is listed, got %v", kept)
	}
	if len(rejected) != 0 {
		t.Fatalf("expected no rejection when one ticker passes, got %v", rejected)
	}
}
