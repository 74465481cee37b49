package enrich

import (
	"context"
	"math"
	"sync"
	"time"

	"catalystd/internal/models"
)

// VolumeProvider supplies current and trailing-average volume for RVOL.
type VolumeProvider interface {
	CurrentVolume(ctx context.Context, ticker string) (int64, error)
	AvgVolume20D(ctx context.Context, ticker string) (int64, error)
}

// BarsProvider supplies recent OHLCV bars, newest last, for the VWAP/ATR/
// prev-close sub-signals.
type BarsProvider interface {
	RecentBars(ctx context.Context, ticker string, limit int) ([]models.Bar, error)
}

// FloatShortProvider is a best-effort provider chain for float/short
// interest data (primary -> secondary -> tertiary, tried in order).
type FloatShortProvider interface {
	Name() string
	FloatShares(ctx context.Context, ticker string) (float64, error)
	ShortInterestPct(ctx context.Context, ticker string) (float64, error)
}

// SectorProvider maps a ticker to its sector and returns 1d sector-ETF and
// SPY returns.
type SectorProvider interface {
	Sector(ctx context.Context, ticker string) (string, error)
	SectorReturn1D(ctx context.Context, sector string) (float64, error)
	SPYReturn1D(ctx context.Context) (float64, error)
}

// RegimeProvider supplies the SPY-trend/VIX inputs for market-regime
// classification.
type RegimeProvider interface {
	SPYAboveSMA200(ctx context.Context) (bool, error)
	VIX(ctx context.Context) (float64, error)
}

const (
	floatMin = 1e3
	floatMax = 1e11
)

// sectorAdjustment maps sector strength to the sector-adjusted-sentiment
// multiplier term.
var sectorAdjustment = map[models.SectorStrength]float64{
	models.SectorStrong:  0.15,
	models.SectorNeutral: 0,
	models.SectorWeak:    -0.15,
}

// Enricher attaches a models.MarketContext to a scored item, consulting
// TTL caches for each of its sub-signals.
type Enricher struct {
	Prices     *PriceCache
	Volume     VolumeProvider
	Bars       BarsProvider
	FloatChain []FloatShortProvider
	Sector     SectorProvider
	Regime     RegimeProvider
	VWAP       *VWAPTracker

	floatCache  *ttlCache
	shortCache  *ttlCache
	sectorCache *ttlCache
	rvolCache   *ttlCache
}

func NewEnricher(prices *PriceCache, vol VolumeProvider, floatChain []FloatShortProvider, sector SectorProvider, regime RegimeProvider) *Enricher {
	e := &Enricher{
		Prices:      prices,
		Volume:      vol,
		FloatChain:  floatChain,
		Sector:      sector,
		Regime:      regime,
		VWAP:        NewVWAPTracker(),
		floatCache:  newTTLCache(24 * time.Hour),
		shortCache:  newTTLCache(24 * time.Hour),
		sectorCache: newTTLCache(15 * time.Minute),
		rvolCache:   newTTLCache(5 * time.Minute),
	}
	if bp, ok := vol.(BarsProvider); ok {
		e.Bars = bp
	}
	return e
}

// Enrich attaches a MarketContext to the item and recomputes item.Sentiment
// with the sector adjustment.
func (e *Enricher) Enrich(ctx context.Context, item *models.ScoredItem) error {
	ticker := item.PrimaryTicker

	mc := &models.MarketContext{}

	if q, ok := e.Prices.Get(ticker); ok {
		mc.LastPrice = q.AskPrice.InexactFloat64()
		mid := q.BidPrice.Add(q.AskPrice).InexactFloat64() / 2
		if mid > 0 {
			mc.LastPrice = mid
		}
	}

	rvol, cat, err := e.rvol(ctx, ticker)
	if err == nil {
		mc.RVOL = rvol
		mc.RVOLCategory = cat
	}

	if floatShares, ok := e.floatShares(ctx, ticker); ok {
		mc.FloatShares = &floatShares
	}
	if shortPct, ok := e.shortInterest(ctx, ticker); ok {
		mc.ShortInterestPct = &shortPct
	}

	sector, strength, ret1d, vsSPY, err := e.sectorContext(ctx, ticker)
	if err == nil {
		mc.Sector = sector
		mc.SectorReturn1D = ret1d
		mc.SectorVsSPY = vsSPY
		mc.SectorStrength = strength
	}

	mc.MarketRegime = e.regime(ctx)

	if e.Bars != nil {
		if bars, err := e.Bars.RecentBars(ctx, ticker, 20); err == nil && len(bars) > 0 {
			if len(bars) >= 2 {
				mc.PrevClose = bars[len(bars)-2].Close.InexactFloat64()
				if mc.PrevClose != 0 {
					mc.ChangePct = (mc.LastPrice - mc.PrevClose) / mc.PrevClose
				}
			}

			highs := make([]float64, len(bars))
			lows := make([]float64, len(bars))
			closes := make([]float64, len(bars))
			for i, b := range bars {
				highs[i] = b.High.InexactFloat64()
				lows[i] = b.Low.InexactFloat64()
				closes[i] = b.Close.InexactFloat64()
			}
			mc.ATR = ATR(highs, lows, closes)

			if e.VWAP != nil {
				// Replay the fetched bars through a per-call tracker so the
				// flag reports a cross on the newest bar against these bars' VWAP.
				session := NewVWAPTracker()
				for _, b := range bars {
					_, mc.VWAPBreak = session.Update(ticker, b.Close.InexactFloat64(), float64(b.Volume))
				}
			}
		}
	}

	item.Context = mc

	adj := sectorAdjustment[mc.SectorStrength]
	item.Sentiment = clamp(item.SentimentOriginal*(1+adj), -1, 1)

	return nil
}

func (e *Enricher) rvol(ctx context.Context, ticker string) (float64, models.RVOLCategory, error) {
	if v, ok := e.rvolCache.get(ticker); ok {
		r := v.(float64)
		return r, rvolCategory(r), nil
	}
	if e.Volume == nil {
		return 0, models.RVOLLow, nil
	}
	cur, err := e.Volume.CurrentVolume(ctx, ticker)
	if err != nil {
		return 0, "", err
	}
	avg, err := e.Volume.AvgVolume20D(ctx, ticker)
	if err != nil || avg == 0 {
		return 0, "", err
	}
	rvol := float64(cur) / float64(avg)
	e.rvolCache.set(ticker, rvol)
	return rvol, rvolCategory(rvol), nil
}

func rvolCategory(rvol float64) models.RVOLCategory {
	switch {
	case rvol > 2.0:
		return models.RVOLHigh
	case rvol >= 1.0:
		return models.RVOLModerate
	default:
		return models.RVOLLow
	}
}

func (e *Enricher) floatShares(ctx context.Context, ticker string) (float64, bool) {
	if v, ok := e.floatCache.get(ticker); ok {
		return v.(float64), true
	}
	for _, provider := range e.FloatChain {
		f, err := provider.FloatShares(ctx, ticker)
		if err != nil {
			continue
		}
		if f < floatMin || f > floatMax {
			continue
		}
		e.floatCache.set(ticker, f)
		return f, true
	}
	return 0, false
}

func (e *Enricher) shortInterest(ctx context.Context, ticker string) (float64, bool) {
	if v, ok := e.shortCache.get(ticker); ok {
		return v.(float64), true
	}
	for _, provider := range e.FloatChain {
		pct, err := provider.ShortInterestPct(ctx, ticker)
		if err != nil {
			continue
		}
		e.shortCache.set(ticker, pct)
		return pct, true
	}
	return 0, false
}

func (e *Enricher) sectorContext(ctx context.Context, ticker string) (sector string, strength models.SectorStrength, ret1d, vsSPY float64, err error) {
	if v, ok := e.sectorCache.get(ticker); ok {
		sc := v.(sectorCacheEntry)
		return sc.sector, sc.strength, sc.ret1d, sc.vsSPY, nil
	}
	if e.Sector == nil {
		return "", models.SectorNeutral, 0, 0, nil
	}

	sector, err = e.Sector.Sector(ctx, ticker)
	if err != nil {
		return "", "", 0, 0, err
	}
	sectorRet, err := e.Sector.SectorReturn1D(ctx, sector)
	if err != nil {
		return "", "", 0, 0, err
	}
	spyRet, err := e.Sector.SPYReturn1D(ctx)
	if err != nil {
		return "", "", 0, 0, err
	}

	diff := sectorRet - spyRet
	strength = models.SectorNeutral
	switch {
	case diff > 0.005:
		strength = models.SectorStrong
	case diff < -0.005:
		strength = models.SectorWeak
	}

	e.sectorCache.set(ticker, sectorCacheEntry{sector, strength, sectorRet, diff})
	return sector, strength, sectorRet, diff, nil
}

type sectorCacheEntry struct {
	sector   string
	strength models.SectorStrength
	ret1d    float64
	vsSPY    float64
}

func (e *Enricher) regime(ctx context.Context) models.MarketRegime {
	if e.Regime == nil {
		return models.RegimeTransition
	}
	aboveMA, err := e.Regime.SPYAboveSMA200(ctx)
	if err != nil {
		return models.RegimeTransition
	}
	vix, err := e.Regime.VIX(ctx)
	if err != nil {
		return models.RegimeTransition
	}

	switch {
	case vix > 30:
		return models.RegimeHighVol
	case !aboveMA:
		return models.RegimeBear
	case vix < 15:
		return models.RegimeLowVol
	case vix < 20:
		return models.RegimeBull
	default:
		return models.RegimeTransition
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ttlCache is a minimal thread-safe TTL cache shared by the enrichment
// sub-signals, each with its own instance and expiry.
type ttlCache struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]ttlEntry
}

type ttlEntry struct {
	value   interface{}
	expires time.Time
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{ttl: ttl, m: make(map[string]ttlEntry)}
}

func (c *ttlCache) get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok || time.Now().After(e.expires) {
		return nil, false
	}
	return e.value, true
}

func (c *ttlCache) set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = ttlEntry{value: value, expires: time.Now().Add(c.ttl)}
}
