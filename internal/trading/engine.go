// Package trading converts Signals to broker Orders and tracks open
// Positions through to close.
package trading

import (
	"context"
	"fmt"
	"log"
	"time"

	"catalystd/internal/broker"
	"catalystd/internal/models"
)

const (
	// defaultBasePositionSizePct is the unscaled sizing baseline the
	// keyword's size_multiplier is applied to, kept well under the
	// portfolio cap so the multiplier table actually differentiates
	// position size instead of every keyword clipping to the cap.
	defaultBasePositionSizePct = 0.05
	defaultMaxPositionSizePct  = 0.10
	defaultMaxVolumePct        = 0.05
	defaultEntryTimeout        = 60 * time.Second
)

// Clock is the narrow time source the trading package stamps positions and
// orders with; satisfied by sim.RealClock and sim.VirtualClock, so a
// replayed run's position/order timestamps come from the virtual clock
// and stay deterministic.
type Clock interface {
	Now() time.Time
}

// Engine converts Signals into broker orders, enforcing position-size and
// liquidity caps, and drives the order state machine.
type Engine struct {
	Broker               broker.Broker
	Store                *PositionStore
	Clock                Clock
	BasePositionSizePct   float64
	MaxPositionSizePct    float64
	MaxVolumePct          float64
	EntryTimeout          time.Duration
}

func NewEngine(b broker.Broker, store *PositionStore, clock Clock) *Engine {
	return &Engine{
		Broker:              b,
		Store:               store,
		Clock:               clock,
		BasePositionSizePct: defaultBasePositionSizePct,
		MaxPositionSizePct:  defaultMaxPositionSizePct,
		MaxVolumePct:        defaultMaxVolumePct,
		EntryTimeout:        defaultEntryTimeout,
	}
}

// Execute converts a Signal into an order (or a no-op for SKIP) and, on
// fill, opens a tracked Position.
func (e *Engine) Execute(ctx context.Context, sig *models.Signal, equity, lastPrice, avgDailyVolume float64) error {
	switch sig.Action {
	case models.SignalSkip:
		log.Printf("trading: skip %s: %v", sig.Ticker, sig.RationaleTags)
		return nil
	case models.SignalClose:
		return e.closeTicker(ctx, sig.Ticker, models.ExitSignalClose)
	case models.SignalSell:
		return e.closeTicker(ctx, sig.Ticker, models.ExitManual)
	case models.SignalBuy:
		return e.openPosition(ctx, sig, equity, lastPrice, avgDailyVolume)
	default:
		return fmt.Errorf("trading: unknown signal action %q", sig.Action)
	}
}

func (e *Engine) openPosition(ctx context.Context, sig *models.Signal, equity, lastPrice, avgDailyVolume float64) error {
	if lastPrice <= 0 {
		return fmt.Errorf("trading: invalid last price for %s", sig.Ticker)
	}

	sizeMultiplier := sig.PositionSizePct
	if sizeMultiplier <= 0 {
		sizeMultiplier = 1.0
	}
	targetNotional := sizeMultiplier * e.BasePositionSizePct * equity
	qty := targetNotional / lastPrice

	maxByCap := (e.MaxPositionSizePct * equity) / lastPrice
	if qty > maxByCap {
		qty = maxByCap
	}
	if avgDailyVolume > 0 {
		maxByLiquidity := avgDailyVolume * e.MaxVolumePct
		if qty > maxByLiquidity {
			qty = maxByLiquidity
		}
	}
	if qty <= 0 {
		return fmt.Errorf("trading: computed zero quantity for %s", sig.Ticker)
	}

	meta := models.OrderMeta{SignalID: sig.ID, KeywordTag: sig.KeywordConfigID}

	order, err := e.Broker.PlaceBracketOrder(ctx, broker.BracketOrderRequest{
		Ticker:          sig.Ticker,
		Side:            "buy",
		Qty:             qty,
		EntryType:       broker.OrderMarket,
		StopLossPrice:   sig.StopLossPrice,
		TakeProfitPrice: sig.TakeProfitPrice,
		Meta:            meta,
	})
	if err != nil {
		return fmt.Errorf("trading: bracket order for %s: %w", sig.Ticker, err)
	}

	if order.Status != "FILLED" {
		// Entry/child fallback path: the order is resting at the broker and
		// no Position is opened for it. This package does not track the
		// resting order afterwards: it opens no Position if the order later
		// fills, and EntryTimeout is not applied to cancel it.
		log.Printf("trading: order %s for %s not immediately filled (status=%s)", order.ID, sig.Ticker, order.Status)
		return nil
	}

	pos := &models.Position{
		Ticker:          sig.Ticker,
		Quantity:        order.FilledQty.InexactFloat64(),
		EntryPrice:      order.FilledAvgPrice.InexactFloat64(),
		HighWaterMark:   order.FilledAvgPrice.InexactFloat64(),
		StopLossPrice:   sig.StopLossPrice,
		TakeProfitPrice: sig.TakeProfitPrice,
		Status:          models.PositionOpen,
		SignalID:        sig.ID,
		KeywordTag:      sig.KeywordConfigID,
		OpenedAt:        e.Clock.Now(),
	}
	return e.Store.Open(pos)
}

func (e *Engine) closeTicker(ctx context.Context, ticker string, reason models.ExitReason) error {
	pos, ok := e.Store.Get(ticker)
	if !ok {
		return nil // nothing to close
	}

	order, err := e.Broker.ClosePosition(ctx, ticker)
	if err != nil {
		return fmt.Errorf("trading: close %s: %w", ticker, err)
	}

	return e.Store.Close(pos.Ticker, order.FilledAvgPrice.InexactFloat64(), reason, e.Clock.Now())
}
