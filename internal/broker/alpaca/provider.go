// Package alpaca adapts the Alpaca trade/market-data SDK to the
// broker.Broker capability contract.
package alpaca

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"catalystd/internal/broker"
	"catalystd/internal/models"
)

// Provider implements broker.Broker for live/paper Alpaca trading.
type Provider struct {
	mdClient    *marketdata.Client
	tradeClient *alpaca.Client
}

var _ broker.Broker = (*Provider)(nil)

func NewProvider() *Provider {
	return &Provider{
		mdClient:    marketdata.NewClient(marketdata.ClientOpts{}),
		tradeClient: alpaca.NewClient(alpaca.ClientOpts{}),
	}
}

func (p *Provider) GetAccount(ctx context.Context) (*models.Account, error) {
	a, err := p.tradeClient.GetAccount()
	if err != nil {
		return nil, err
	}
	return &models.Account{
		ID:               a.ID,
		Currency:         a.Currency,
		Equity:           a.Equity,
		BuyingPower:      a.BuyingPower,
		Cash:             a.Cash,
		PortfolioValue:   a.PortfolioValue,
		DaytradeCount:    int(a.DaytradeCount),
		IsDayTrader:      a.DaytradeCount > 3,
		IsAccountBlocked: a.AccountBlocked,
	}, nil
}

func (p *Provider) GetClock(ctx context.Context) (*models.Clock, error) {
	c, err := p.tradeClient.GetClock()
	if err != nil {
		return nil, err
	}
	return &models.Clock{
		Timestamp: c.Timestamp,
		IsOpen:    c.IsOpen,
		NextOpen:  c.NextOpen,
		NextClose: c.NextClose,
	}, nil
}

func (p *Provider) GetBuyingPower(ctx context.Context) (float64, error) {
	a, err := p.tradeClient.GetAccount()
	if err != nil {
		return 0, err
	}
	return a.BuyingPower.InexactFloat64(), nil
}

// BatchQuote fetches one quote per ticker. The Alpaca SDK has no native
// multi-symbol latest-quote call in this client version, so the batch
// contract is satisfied with a bounded sequential loop rather than N
// independent goroutines hitting the same rate-limited endpoint.
func (p *Provider) BatchQuote(ctx context.Context, tickers []string) (map[string]models.Quote, error) {
	out := make(map[string]models.Quote, len(tickers))
	for _, t := range tickers {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}
		q, err := p.mdClient.GetLatestQuote(t, marketdata.GetLatestQuoteRequest{})
		if err != nil || q == nil {
			continue
		}
		out[t] = models.Quote{
			Symbol:    t,
			BidPrice:  decimal.NewFromFloat(q.BidPrice),
			AskPrice:  decimal.NewFromFloat(q.AskPrice),
			Timestamp: q.Timestamp,
		}
	}
	return out, nil
}

func (p *Provider) GetBars(ctx context.Context, ticker string, limit int) ([]models.Bar, error) {
	start := time.Now().AddDate(0, 0, -5)
	bars, err := p.mdClient.GetBars(ticker, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
	})
	if err != nil {
		return nil, err
	}
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	result := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		result = append(result, models.Bar{
			Time:   b.Timestamp,
			Open:   decimal.NewFromFloat(b.Open),
			High:   decimal.NewFromFloat(b.High),
			Low:    decimal.NewFromFloat(b.Low),
			Close:  decimal.NewFromFloat(b.Close),
			Volume: int64(b.Volume),
		})
	}
	return result, nil
}

func (p *Provider) ListPositions(ctx context.Context) ([]models.BrokerPosition, error) {
	positions, err := p.tradeClient.GetPositions()
	if err != nil {
		return nil, err
	}
	result := make([]models.BrokerPosition, 0, len(positions))
	for _, x := range positions {
		current := decimal.Zero
		if x.CurrentPrice != nil {
			current = *x.CurrentPrice
		}
		change := decimal.Zero
		if x.ChangeToday != nil {
			change = *x.ChangeToday
		}
		marketValue := decimal.Zero
		if x.MarketValue != nil {
			marketValue = *x.MarketValue
		}
		unrealizedPL := decimal.Zero
		if x.UnrealizedPL != nil {
			unrealizedPL = *x.UnrealizedPL
		}
		unrealizedPLPC := decimal.Zero
		if x.UnrealizedPLPC != nil {
			unrealizedPLPC = *x.UnrealizedPLPC
		}
		result = append(result, models.BrokerPosition{
			Symbol:         x.Symbol,
			Qty:            x.Qty,
			AvgEntryPrice:  x.AvgEntryPrice,
			CurrentPrice:   current,
			MarketValue:    marketValue,
			CostBasis:      x.CostBasis,
			UnrealizedPL:   unrealizedPL,
			UnrealizedPLPC: unrealizedPLPC,
			ChangeToday:    change,
		})
	}
	return result, nil
}

func (p *Provider) PlaceOrder(ctx context.Context, req broker.OrderRequest) (*models.Order, error) {
	qty := decimal.NewFromFloat(req.Qty)
	aReq := alpaca.PlaceOrderRequest{
		Symbol:        req.Ticker,
		Qty:           &qty,
		Side:          alpaca.Side(req.Side),
		Type:          mapOrderType(req.Type),
		TimeInForce:   alpaca.Day,
		ClientOrderID: req.Meta.SignalID,
	}
	if req.LimitPrice > 0 {
		lp := decimal.NewFromFloat(req.LimitPrice)
		aReq.LimitPrice = &lp
	}
	if req.StopPrice > 0 {
		sp := decimal.NewFromFloat(req.StopPrice)
		aReq.StopPrice = &sp
	}

	o, err := p.tradeClient.PlaceOrder(aReq)
	if err != nil {
		return nil, err
	}
	return mapOrder(o), nil
}

func (p *Provider) PlaceBracketOrder(ctx context.Context, req broker.BracketOrderRequest) (*models.Order, error) {
	qty := decimal.NewFromFloat(req.Qty)
	aReq := alpaca.PlaceOrderRequest{
		Symbol:        req.Ticker,
		Qty:           &qty,
		Side:          alpaca.Side(req.Side),
		Type:          mapOrderType(req.EntryType),
		TimeInForce:   alpaca.Day,
		OrderClass:    alpaca.Bracket,
		ClientOrderID: req.Meta.SignalID,
	}
	if req.LimitPrice > 0 {
		lp := decimal.NewFromFloat(req.LimitPrice)
		aReq.LimitPrice = &lp
	}
	if req.TakeProfitPrice > 0 {
		tp := decimal.NewFromFloat(req.TakeProfitPrice)
		aReq.TakeProfit = &alpaca.TakeProfit{LimitPrice: &tp}
	}
	if req.StopLossPrice > 0 {
		sl := decimal.NewFromFloat(req.StopLossPrice)
		aReq.StopLoss = &alpaca.StopLoss{StopPrice: &sl}
	}

	o, err := p.tradeClient.PlaceOrder(aReq)
	if err != nil {
		return nil, err
	}
	return mapOrder(o), nil
}

func (p *Provider) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	o, err := p.tradeClient.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	return mapOrder(o), nil
}

func (p *Provider) CancelOrder(ctx context.Context, orderID string) error {
	return p.tradeClient.CancelOrder(orderID)
}

func (p *Provider) ClosePosition(ctx context.Context, ticker string) (*models.Order, error) {
	o, err := p.tradeClient.ClosePosition(ticker, alpaca.ClosePositionRequest{})
	if err != nil {
		return nil, fmt.Errorf("alpaca: close position %s: %w", ticker, err)
	}
	return mapOrder(o), nil
}

// GetAsset looks up a single ticker's exchange and tradability, used by the
// ingestion stage's OTC/pink-sheet filter.
func (p *Provider) GetAsset(ticker string) (models.Asset, bool) {
	assets, err := p.tradeClient.GetAssets(alpaca.GetAssetsRequest{
		Status:     "active",
		AssetClass: "us_equity",
	})
	if err != nil {
		return models.Asset{}, false
	}
	for _, a := range assets {
		if a.Symbol == ticker {
			return models.Asset{
				ID:       a.ID,
				Symbol:   a.Symbol,
				Name:     a.Name,
				Class:    string(a.Class),
				Exchange: a.Exchange,
				Status:   string(a.Status),
				Tradable: a.Tradable,
			}, true
		}
	}
	return models.Asset{}, false
}

// IsMajorExchange reports whether ticker trades on a major exchange (NYSE,
// NASDAQ, ARCA, AMEX, BATS); any other resolved exchange is not major. When
// the asset cannot be resolved it returns ok=false, leaving the decision to
// the caller; the lookup is not retried.
func (p *Provider) IsMajorExchange(ticker string) (onMajor bool, ok bool) {
	asset, found := p.GetAsset(ticker)
	if !found {
		return false, false
	}
	switch asset.Exchange {
	case "NYSE", "NASDAQ", "ARCA", "AMEX", "BATS":
		return true, true
	default:
		return false, true
	}
}

func mapOrderType(t broker.OrderType) alpaca.OrderType {
	switch t {
	case broker.OrderLimit:
		return alpaca.Limit
	case broker.OrderStop:
		return alpaca.Stop
	case broker.OrderStopLimit:
		return alpaca.StopLimit
	default:
		return alpaca.Market
	}
}

func mapOrder(o *alpaca.Order) *models.Order {
	if o == nil {
		return nil
	}
	qty := decimal.Zero
	if o.Qty != nil {
		qty = *o.Qty
	}
	filledAvgPrice := decimal.Zero
	if o.FilledAvgPrice != nil {
		filledAvgPrice = *o.FilledAvgPrice
	}
	res := &models.Order{
		ID:             o.ID,
		ClientOrderID:  o.ClientOrderID,
		Symbol:         o.Symbol,
		Qty:            qty,
		FilledQty:      o.FilledQty,
		Type:           string(o.Type),
		Side:           string(o.Side),
		Status:         o.Status,
		FilledAvgPrice: filledAvgPrice,
		CreatedAt:      o.CreatedAt,
	}
	if o.FilledAt != nil {
		res.FilledAt = o.FilledAt
	}
	return res
}
