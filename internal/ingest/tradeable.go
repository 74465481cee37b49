package ingest

import (
	"catalystd/internal/enrich"
	"catalystd/internal/models"
)

// ExchangeLookup reports whether a ticker trades on a major exchange (as
// opposed to OTC / pink sheets). Implementations are expected to consult a
// static or cached asset table, never a network call per item.
type ExchangeLookup func(ticker string) (onMajorExchange bool, ok bool)

// TradeableFilter drops OTC/pink-sheet tickers and tickers outside a
// configured price band. It must run after the cycle's batch price fetch
// has populated prices, never inline per-item, to avoid sequential
// per-item network fan-out.
type TradeableFilter struct {
	Prices     *enrich.PriceCache
	LookupExch ExchangeLookup
	FilterOTC  bool
	MinPrice   float64
	MaxPrice   float64
}

func NewTradeableFilter(prices *enrich.PriceCache, lookup ExchangeLookup, filterOTC bool, minPrice, maxPrice float64) *TradeableFilter {
	return &TradeableFilter{
		Prices:     prices,
		LookupExch: lookup,
		FilterOTC:  filterOTC,
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
	}
}

// RejectReason names the gate that dropped an item. The string values line
// up with the rejected-items ledger's reason field.
type RejectReason string

const (
	ReasonOTCExchange RejectReason = "otc_exchange"
	ReasonPriceBand   RejectReason = "price_band"
)

// Rejection is one item dropped by the tradeable filter, with the ticker
// that failed and which gate failed it.
type Rejection struct {
	Item   models.NewsItem
	Ticker string
	Reason RejectReason
}

// Apply splits items by whether their tickers pass the exchange and
// price-band checks. Items with no resolvable ticker pass through untouched
// (classification still happens on them; the ticker gate applies once a
// ticker is known). An item survives if any of its tickers passes; a
// rejected item carries the reason of its first failing ticker.
func (f *TradeableFilter) Apply(items []models.NewsItem) (kept []models.NewsItem, rejected []Rejection) {
	kept = make([]models.NewsItem, 0, len(items))
	for _, it := range items {
		if len(it.Tickers) == 0 {
			kept = append(kept, it)
			continue
		}
		pass := false
		var firstFail Rejection
		for i, t := range it.Tickers {
			ok, reason := f.passes(t)
			if ok {
				pass = true
				break
			}
			if i == 0 {
				firstFail = Rejection{Item: it, Ticker: t, Reason: reason}
			}
		}
		if pass {
			kept = append(kept, it)
		} else {
			rejected = append(rejected, firstFail)
		}
	}
	return kept, rejected
}

func (f *TradeableFilter) passes(ticker string) (bool, RejectReason) {
	if f.FilterOTC && f.LookupExch != nil {
		onMajor, ok := f.LookupExch(ticker)
		if ok && !onMajor {
			return false, ReasonOTCExchange
		}
	}

	if f.Prices == nil {
		return true, ""
	}
	q, ok := f.Prices.Get(ticker)
	if !ok {
		return true, "" // no price yet; let downstream stages decide
	}
	last := q.AskPrice.InexactFloat64()
	if f.MinPrice > 0 && last < f.MinPrice {
		return false, ReasonPriceBand
	}
	if f.MaxPrice > 0 && last > f.MaxPrice {
		return false, ReasonPriceBand
	}
	return true, ""
}
