package trading

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"catalystd/internal/broker"
	"catalystd/internal/models"
)

type stubMonitorBroker struct {
	broker.Broker
	quotes       map[string]models.Quote
	closed       []string
	listPositions []models.BrokerPosition
}

func (s *stubMonitorBroker) BatchQuote(ctx context.Context, tickers []string) (map[string]models.Quote, error) {
	return s.quotes, nil
}

func (s *stubMonitorBroker) ClosePosition(ctx context.Context, ticker string) (*models.Order, error) {
	s.closed = append(s.closed, ticker)
	return filledOrder(0, s.quotes[ticker].BidPrice.InexactFloat64()), nil
}

func (s *stubMonitorBroker) ListPositions(ctx context.Context) ([]models.BrokerPosition, error) {
	return s.listPositions, nil
}

func quote(ticker string, price float64) models.Quote {
	return models.Quote{Symbol: ticker, BidPrice: decimal.NewFromFloat(price), AskPrice: decimal.NewFromFloat(price)}
}

func TestMonitorTickTriggersStopLossExit(t *testing.T) {
	b := &stubMonitorBroker{quotes: map[string]models.Quote{"XYZ": quote("XYZ", 9.0)}}
	store := NewPositionStore(nil, testClock)
	_ = store.Open(&models.Position{Ticker: "XYZ", Quantity: 100, EntryPrice: 10.0, StopLossPrice: 9.5, TakeProfitPrice: 12.0, Status: models.PositionOpen, OpenedAt: time.Now()})

	m := NewPositionMonitor(b, store, NewEngine(b, store, testClock), testClock, time.Second)
	m.Tick(context.Background())

	if len(b.closed) != 1 || b.closed[0] != "XYZ" {
		t.Fatalf("expected a close call for XYZ, got %v", b.closed)
	}
	if p, ok := store.Get("XYZ"); ok && p.IsOpen() {
		t.Error("position should be closed after stop-loss trigger")
	}
}

func TestMonitorTickTriggersTakeProfitExit(t *testing.T) {
	b := &stubMonitorBroker{quotes: map[string]models.Quote{"XYZ": quote("XYZ", 12.5)}}
	store := NewPositionStore(nil, testClock)
	_ = store.Open(&models.Position{Ticker: "XYZ", Quantity: 100, EntryPrice: 10.0, StopLossPrice: 9.5, TakeProfitPrice: 12.0, Status: models.PositionOpen, OpenedAt: time.Now()})

	m := NewPositionMonitor(b, store, NewEngine(b, store, testClock), testClock, time.Second)
	m.Tick(context.Background())

	if len(b.closed) != 1 {
		t.Fatalf("expected a close call, got %v", b.closed)
	}
}

func TestMonitorTickHoldsWhenWithinBand(t *testing.T) {
	b := &stubMonitorBroker{quotes: map[string]models.Quote{"XYZ": quote("XYZ", 10.2)}}
	store := NewPositionStore(nil, testClock)
	_ = store.Open(&models.Position{Ticker: "XYZ", Quantity: 100, EntryPrice: 10.0, StopLossPrice: 9.5, TakeProfitPrice: 12.0, Status: models.PositionOpen, OpenedAt: time.Now()})

	m := NewPositionMonitor(b, store, NewEngine(b, store, testClock), testClock, time.Second)
	m.Tick(context.Background())

	if len(b.closed) != 0 {
		t.Fatalf("expected no close call, got %v", b.closed)
	}
	pos, ok := store.Get("XYZ")
	if !ok || !pos.IsOpen() {
		t.Error("expected position to remain open")
	}
}

func TestMonitorTickTimeBasedExit(t *testing.T) {
	b := &stubMonitorBroker{quotes: map[string]models.Quote{"XYZ": quote("XYZ", 10.1)}}
	store := NewPositionStore(nil, testClock)
	_ = store.Open(&models.Position{
		Ticker: "XYZ", Quantity: 100, EntryPrice: 10.0, StopLossPrice: 9.5, TakeProfitPrice: 12.0,
		Status: models.PositionOpen, OpenedAt: time.Now().Add(-10 * 24 * time.Hour),
	})

	m := NewPositionMonitor(b, store, NewEngine(b, store, testClock), testClock, time.Second)
	m.Tick(context.Background())

	if len(b.closed) != 1 {
		t.Fatalf("expected a time-based close, got %v", b.closed)
	}
}

func TestMonitorReconcilesPhantomPositionEveryNTicks(t *testing.T) {
	b := &stubMonitorBroker{quotes: map[string]models.Quote{}, listPositions: nil}
	store := NewPositionStore(nil, testClock)
	_ = store.Open(&models.Position{Ticker: "GHOST", Quantity: 50, EntryPrice: 5.0, Status: models.PositionOpen, OpenedAt: time.Now()})

	m := NewPositionMonitor(b, store, NewEngine(b, store, testClock), testClock, time.Second)
	m.ReconcileEvery = 1

	m.Tick(context.Background())

	if pos, ok := store.Get("GHOST"); ok && pos.IsOpen() {
		t.Error("expected the phantom position to be closed by reconciliation")
	}
}
