// Package mock implements broker.Broker entirely in memory for the
// simulation harness: fills at bar close adjusted by adaptive slippage,
// rejecting orders that violate buying-power or liquidity constraints.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"catalystd/internal/broker"
	"catalystd/internal/models"
)

// PriceSource supplies the current bar close and rolling average volume a
// fill needs, fed by the replayer during simulation.
type PriceSource interface {
	LastClose(ticker string) (float64, bool)
	AvgVolume(ticker string) (float64, bool)
}

// Clock is the narrow time source the mock broker stamps orders/quotes
// with; satisfied by sim.RealClock and sim.VirtualClock, so every time
// read during a replay goes through the virtual clock rather than the
// wall clock and a deterministic replay produces
// deterministic order/position timestamps.
type Clock interface {
	Now() time.Time
}

// Broker is the simulation-scoped mock broker. All state is isolated per
// instance; nothing touches live tables.
type Broker struct {
	mu            sync.Mutex
	prices        PriceSource
	clock         Clock
	cash          float64
	positions     map[string]*models.BrokerPosition
	orders        map[string]*models.Order
	simulationID  string
	maxLiquidityPct float64
}

func NewBroker(prices PriceSource, clock Clock, startingCash float64, maxLiquidityPct float64) *Broker {
	return &Broker{
		prices:          prices,
		clock:           clock,
		cash:            startingCash,
		positions:       make(map[string]*models.BrokerPosition),
		orders:          make(map[string]*models.Order),
		simulationID:    uuid.NewString(),
		maxLiquidityPct: maxLiquidityPct,
	}
}

var _ broker.Broker = (*Broker)(nil)

func (b *Broker) SimulationRunID() string { return b.simulationID }

func (b *Broker) GetAccount(ctx context.Context) (*models.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	equity := b.cash
	for ticker, pos := range b.positions {
		if last, ok := b.prices.LastClose(ticker); ok {
			equity += pos.Qty.InexactFloat64() * last
		}
	}
	return &models.Account{
		Equity:      decimal.NewFromFloat(equity),
		BuyingPower: decimal.NewFromFloat(b.cash),
		Cash:        decimal.NewFromFloat(b.cash),
	}, nil
}

func (b *Broker) GetClock(ctx context.Context) (*models.Clock, error) {
	return &models.Clock{Timestamp: b.clock.Now(), IsOpen: true}, nil
}

func (b *Broker) GetBuyingPower(ctx context.Context) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cash, nil
}

func (b *Broker) BatchQuote(ctx context.Context, tickers []string) (map[string]models.Quote, error) {
	out := make(map[string]models.Quote, len(tickers))
	for _, t := range tickers {
		last, ok := b.prices.LastClose(t)
		if !ok {
			continue
		}
		d := decimal.NewFromFloat(last)
		out[t] = models.Quote{Symbol: t, BidPrice: d, AskPrice: d, Timestamp: b.clock.Now()}
	}
	return out, nil
}

func (b *Broker) GetBars(ctx context.Context, ticker string, limit int) ([]models.Bar, error) {
	return nil, fmt.Errorf("mock: historical bars are supplied by the replayer, not the broker")
}

func (b *Broker) ListPositions(ctx context.Context) ([]models.BrokerPosition, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.BrokerPosition, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, *p)
	}
	return out, nil
}

func (b *Broker) PlaceOrder(ctx context.Context, req broker.OrderRequest) (*models.Order, error) {
	return b.fill(req.Ticker, req.Side, req.Qty, req.Meta)
}

func (b *Broker) PlaceBracketOrder(ctx context.Context, req broker.BracketOrderRequest) (*models.Order, error) {
	order, err := b.fill(req.Ticker, req.Side, req.Qty, req.Meta)
	if err != nil {
		return nil, err
	}
	// Child stop/target legs are tracked by trading.PositionMonitor against
	// the filled Position rather than as separate resting broker orders;
	// the mock broker has no order book to rest them on.
	return order, nil
}

func (b *Broker) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("mock: order %s not found", orderID)
	}
	return o, nil
}

func (b *Broker) CancelOrder(ctx context.Context, orderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[orderID]
	if !ok {
		return fmt.Errorf("mock: order %s not found", orderID)
	}
	if o.Status == "FILLED" {
		return fmt.Errorf("mock: order %s already filled, cannot cancel", orderID)
	}
	o.Status = "CANCELLED"
	return nil
}

func (b *Broker) ClosePosition(ctx context.Context, ticker string) (*models.Order, error) {
	b.mu.Lock()
	pos, ok := b.positions[ticker]
	b.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("mock: no open position for %s", ticker)
	}
	qty := pos.Qty.InexactFloat64()
	return b.fill(ticker, "sell", qty, models.OrderMeta{})
}

// fill executes an order immediately at the current bar close, adjusted by
// adaptive slippage: base percentage increased by a penalty that
// rises with order size relative to average volume and with low price
// (< $5 doubles, < $1 triples the base).
func (b *Broker) fill(ticker, side string, qty float64, meta models.OrderMeta) (*models.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	last, ok := b.prices.LastClose(ticker)
	if !ok {
		return b.reject(ticker, side, qty, "no price data"), fmt.Errorf("mock: no price for %s", ticker)
	}

	avgVol, _ := b.prices.AvgVolume(ticker)
	fillPrice := last * (1 + b.slippage(side, qty, last, avgVol))

	notional := fillPrice * qty
	if side == "buy" {
		if notional > b.cash {
			return b.reject(ticker, side, qty, "insufficient buying power"), nil
		}
		if avgVol > 0 && qty > avgVol*b.maxLiquidityPct {
			return b.reject(ticker, side, qty, "exceeds liquidity cap"), nil
		}
		b.cash -= notional
		b.applyPosition(ticker, qty, fillPrice)
	} else {
		b.cash += notional
		b.applyPosition(ticker, -qty, fillPrice)
	}

	now := b.clock.Now()
	order := &models.Order{
		ID:             uuid.NewString(),
		ClientOrderID:  meta.SignalID,
		Symbol:         ticker,
		Qty:            decimal.NewFromFloat(qty),
		FilledQty:      decimal.NewFromFloat(qty),
		Type:           "MARKET",
		Side:           side,
		Status:         "FILLED",
		FilledAvgPrice: decimal.NewFromFloat(fillPrice),
		CreatedAt:      now,
		FilledAt:       &now,
	}
	b.orders[order.ID] = order
	return order, nil
}

func (b *Broker) reject(ticker, side string, qty float64, reason string) *models.Order {
	now := b.clock.Now()
	order := &models.Order{
		ID:         uuid.NewString(),
		Symbol:     ticker,
		Qty:        decimal.NewFromFloat(qty),
		Side:       side,
		Status:     "REJECTED",
		CreatedAt:  now,
		FailReason: reason,
	}
	b.orders[order.ID] = order
	return order
}

func (b *Broker) slippage(side string, qty, price, avgVol float64) float64 {
	base := 0.001 // 10 bps baseline
	penalty := 0.0
	if avgVol > 0 {
		penalty = (qty / avgVol) * 0.5
	}
	mult := 1.0
	switch {
	case price < 1:
		mult = 3.0
	case price < 5:
		mult = 2.0
	}
	slip := base * (1 + penalty) * mult
	if side == "sell" {
		return -slip
	}
	return slip
}

func signum(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func (b *Broker) applyPosition(ticker string, deltaQty, price float64) {
	pos, ok := b.positions[ticker]
	if !ok {
		pos = &models.BrokerPosition{Symbol: ticker}
		b.positions[ticker] = pos
	}
	existingQty := pos.Qty.InexactFloat64()
	newQty := existingQty + deltaQty

	if existingQty == 0 || signum(existingQty) == signum(deltaQty) {
		totalCost := pos.AvgEntryPrice.InexactFloat64()*existingQty + price*deltaQty
		if newQty != 0 {
			pos.AvgEntryPrice = decimal.NewFromFloat(totalCost / newQty)
		}
	}
	pos.Qty = decimal.NewFromFloat(newQty)
	pos.CurrentPrice = decimal.NewFromFloat(price)

	if newQty == 0 {
		delete(b.positions, ticker)
	}
}
