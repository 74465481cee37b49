package trading

import (
	"context"
	"log"
	"time"

	"catalystd/internal/broker"
	"catalystd/internal/models"
)

const defaultMaxHoldDuration = 5 * 24 * time.Hour

// PositionMonitor runs on its own periodic tick, independent of the cycle
// scheduler, refreshing prices and triggering stop/target/time-based exits.
type PositionMonitor struct {
	Broker          broker.Broker
	Store           *PositionStore
	Engine          *Engine
	Clock           Clock
	TickInterval    time.Duration
	MaxHoldDuration time.Duration
	ReconcileEvery  int

	tickCount int
}

func NewPositionMonitor(b broker.Broker, store *PositionStore, engine *Engine, clock Clock, tickInterval time.Duration) *PositionMonitor {
	return &PositionMonitor{
		Broker:          b,
		Store:           store,
		Engine:          engine,
		Clock:           clock,
		TickInterval:    tickInterval,
		MaxHoldDuration: defaultMaxHoldDuration,
		ReconcileEvery:  10,
	}
}

// Run blocks, ticking at TickInterval until ctx is cancelled.
func (m *PositionMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick performs one monitor pass: refresh prices, recompute P&L, trigger
// exits, and periodically reconcile against the broker's position list.
func (m *PositionMonitor) Tick(ctx context.Context) {
	positions := m.Store.All()
	if len(positions) == 0 {
		m.maybeReconcile(ctx)
		return
	}

	tickers := make([]string, 0, len(positions))
	for _, p := range positions {
		tickers = append(tickers, p.Ticker)
	}

	quotes, err := m.Broker.BatchQuote(ctx, tickers)
	if err != nil {
		log.Printf("position monitor: batch quote failed: %v", err)
		return
	}

	now := m.Clock.Now()
	for _, pos := range positions {
		q, ok := quotes[pos.Ticker]
		if !ok {
			continue
		}
		current := q.BidPrice.InexactFloat64()
		if current <= 0 {
			current = q.AskPrice.InexactFloat64()
		}

		m.Store.UpdateHighWaterMark(pos.Ticker, current)

		switch {
		case current <= pos.StopLossPrice:
			m.exit(ctx, pos, current, models.ExitStopLoss)
		case pos.TakeProfitPrice > 0 && current >= pos.TakeProfitPrice:
			m.exit(ctx, pos, current, models.ExitTakeProfit)
		case pos.TrailingStopPct > 0 && current <= pos.HighWaterMark*(1-pos.TrailingStopPct/100):
			m.exit(ctx, pos, current, models.ExitTrailingStop)
		case now.Sub(pos.OpenedAt) > m.MaxHoldDuration:
			m.exit(ctx, pos, current, models.ExitTimeout)
		}
	}

	m.maybeReconcile(ctx)
}

func (m *PositionMonitor) exit(ctx context.Context, pos *models.Position, price float64, reason models.ExitReason) {
	if _, err := m.Broker.ClosePosition(ctx, pos.Ticker); err != nil {
		log.Printf("position monitor: close %s failed: %v", pos.Ticker, err)
		return
	}
	if err := m.Store.Close(pos.Ticker, price, reason, m.Clock.Now()); err != nil {
		log.Printf("position monitor: store close %s failed: %v", pos.Ticker, err)
	}
}

func (m *PositionMonitor) maybeReconcile(ctx context.Context) {
	m.tickCount++
	if m.ReconcileEvery <= 0 || m.tickCount%m.ReconcileEvery != 0 {
		return
	}
	brokerPositions, err := m.Broker.ListPositions(ctx)
	if err != nil {
		log.Printf("position monitor: reconcile failed: %v", err)
		return
	}
	held := make(map[string]bool, len(brokerPositions))
	for _, p := range brokerPositions {
		held[p.Symbol] = true
	}
	m.Store.ReconcileWithBroker(held)
}
