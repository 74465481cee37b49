package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"catalystd/internal/broker"
	"catalystd/internal/httpx"
	"catalystd/internal/models"
)

// BrokerVolumeProvider satisfies VolumeProvider from the broker's own bar
// history, so RVOL needs no separate market-data vendor for the common case.
type BrokerVolumeProvider struct {
	Broker broker.Broker
}

func (p *BrokerVolumeProvider) CurrentVolume(ctx context.Context, ticker string) (int64, error) {
	bars, err := p.Broker.GetBars(ctx, ticker, 1)
	if err != nil || len(bars) == 0 {
		return 0, err
	}
	return bars[len(bars)-1].Volume, nil
}

// RecentBars satisfies BarsProvider from the same broker bar history used
// for RVOL, so VWAP/ATR/prev-close need no separate market-data vendor.
func (p *BrokerVolumeProvider) RecentBars(ctx context.Context, ticker string, limit int) ([]models.Bar, error) {
	return p.Broker.GetBars(ctx, ticker, limit)
}

func (p *BrokerVolumeProvider) AvgVolume20D(ctx context.Context, ticker string) (int64, error) {
	bars, err := p.Broker.GetBars(ctx, ticker, 20)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("enrich: no bar history for %s", ticker)
	}
	var sum int64
	for _, b := range bars {
		sum += b.Volume
	}
	return sum / int64(len(bars)), nil
}

// VendorFloatShortProvider wraps a generic float/short-interest data vendor
// over resty. Construct two or three of these (different base URLs/keys)
// to form the best-effort primary/secondary/tertiary chain.
type VendorFloatShortProvider struct {
	VendorName string
	client     *resty.Client
}

func NewVendorFloatShortProvider(name, baseURL, apiKey string) *VendorFloatShortProvider {
	c := resty.NewWithClient(httpx.NewRetryingClient(2, 5*time.Second)).
		SetBaseURL(baseURL)
	if apiKey != "" {
		c.SetHeader("Authorization", "Bearer "+apiKey)
	}
	return &VendorFloatShortProvider{VendorName: name, client: c}
}

func (p *VendorFloatShortProvider) Name() string { return p.VendorName }

type floatShortResponse struct {
	FloatShares      float64 `json:"float_shares"`
	ShortInterestPct float64 `json:"short_interest_pct"`
}

func (p *VendorFloatShortProvider) FloatShares(ctx context.Context, ticker string) (float64, error) {
	var out floatShortResponse
	resp, err := p.client.R().SetContext(ctx).SetResult(&out).Get("/float/" + ticker)
	if err != nil {
		return 0, fmt.Errorf("enrich: %s float lookup: %w", p.VendorName, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("enrich: %s float lookup status %d", p.VendorName, resp.StatusCode())
	}
	return out.FloatShares, nil
}

func (p *VendorFloatShortProvider) ShortInterestPct(ctx context.Context, ticker string) (float64, error) {
	var out floatShortResponse
	resp, err := p.client.R().SetContext(ctx).SetResult(&out).Get("/short-interest/" + ticker)
	if err != nil {
		return 0, fmt.Errorf("enrich: %s short-interest lookup: %w", p.VendorName, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("enrich: %s short-interest lookup status %d", p.VendorName, resp.StatusCode())
	}
	return out.ShortInterestPct, nil
}

// StaticSectorProvider maps tickers to sector ETFs via the fixed "sectors"
// config table and derives returns from the broker's own bars,
// needing no separate sector data vendor.
type StaticSectorProvider struct {
	Broker      broker.Broker
	TickerToETF map[string]string
}

func NewStaticSectorProvider(b broker.Broker, tickerToETF map[string]string) *StaticSectorProvider {
	return &StaticSectorProvider{Broker: b, TickerToETF: tickerToETF}
}

func (p *StaticSectorProvider) Sector(ctx context.Context, ticker string) (string, error) {
	etf, ok := p.TickerToETF[ticker]
	if !ok {
		return "", fmt.Errorf("enrich: no sector mapping for %s", ticker)
	}
	return etf, nil
}

func (p *StaticSectorProvider) SectorReturn1D(ctx context.Context, sector string) (float64, error) {
	return p.return1D(ctx, sector)
}

func (p *StaticSectorProvider) SPYReturn1D(ctx context.Context) (float64, error) {
	return p.return1D(ctx, "SPY")
}

func (p *StaticSectorProvider) return1D(ctx context.Context, symbol string) (float64, error) {
	bars, err := p.Broker.GetBars(ctx, symbol, 2)
	if err != nil {
		return 0, err
	}
	if len(bars) < 2 {
		return 0, fmt.Errorf("enrich: insufficient bar history for %s", symbol)
	}
	prev := bars[len(bars)-2].Close.InexactFloat64()
	last := bars[len(bars)-1].Close.InexactFloat64()
	if prev == 0 {
		return 0, fmt.Errorf("enrich: zero prior close for %s", symbol)
	}
	return (last - prev) / prev, nil
}

// BrokerRegimeProvider derives the market-regime inputs (SPY vs its 200-day
// average, VIX level) from the broker's own bar history plus a lightweight
// volatility-index vendor call, avoiding a dedicated regime data dependency.
type BrokerRegimeProvider struct {
	Broker   broker.Broker
	VIXClient *resty.Client
	VIXURL    string
}

func NewBrokerRegimeProvider(b broker.Broker, vixURL string) *BrokerRegimeProvider {
	return &BrokerRegimeProvider{
		Broker:    b,
		VIXClient: resty.New().SetTimeout(5 * time.Second),
		VIXURL:    vixURL,
	}
}

func (p *BrokerRegimeProvider) SPYAboveSMA200(ctx context.Context) (bool, error) {
	bars, err := p.Broker.GetBars(ctx, "SPY", 200)
	if err != nil {
		return false, err
	}
	if len(bars) == 0 {
		return false, fmt.Errorf("enrich: no SPY bar history")
	}
	var sum float64
	for _, b := range bars {
		sum += b.Close.InexactFloat64()
	}
	sma := sum / float64(len(bars))
	last := bars[len(bars)-1].Close.InexactFloat64()
	return last > sma, nil
}

type vixResponse struct {
	Value float64 `json:"value"`
}

func (p *BrokerRegimeProvider) VIX(ctx context.Context) (float64, error) {
	if p.VIXURL == "" {
		return 0, fmt.Errorf("enrich: no VIX endpoint configured")
	}
	var out vixResponse
	resp, err := p.VIXClient.R().SetContext(ctx).SetResult(&out).Get(p.VIXURL)
	if err != nil {
		return 0, fmt.Errorf("enrich: VIX lookup: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("enrich: VIX lookup status %d", resp.StatusCode())
	}
	return out.Value, nil
}
