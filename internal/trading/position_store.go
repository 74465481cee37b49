package trading

import (
	"fmt"
	"log"
	"sync"
	"time"

	"catalystd/internal/models"
)

// OutcomeSink receives a ClosedPosition the moment a position fully exits,
// for the outcome tracker / feedback loop to persist.
type OutcomeSink interface {
	RecordOutcome(models.ClosedPosition)
}

// PositionStore is the local Position cache: mutated only by the trading
// Engine (on fill) and the PositionMonitor (on exit); no other writer
// exists. The broker's position list remains authoritative;
// this store is reconciled against it periodically.
type PositionStore struct {
	mu        sync.Mutex
	positions map[string]*models.Position
	outcomes  OutcomeSink
	clock     Clock
}

func NewPositionStore(outcomes OutcomeSink, clock Clock) *PositionStore {
	return &PositionStore{
		positions: make(map[string]*models.Position),
		outcomes:  outcomes,
		clock:     clock,
	}
}

func (s *PositionStore) Open(pos *models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.positions[pos.Ticker]; ok && existing.IsOpen() {
		return fmt.Errorf("trading: position already open for %s", pos.Ticker)
	}
	s.positions[pos.Ticker] = pos
	return nil
}

func (s *PositionStore) Get(ticker string) (*models.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[ticker]
	return p, ok
}

// All returns a snapshot of every open position.
func (s *PositionStore) All() []*models.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Position, 0, len(s.positions))
	for _, p := range s.positions {
		if p.IsOpen() {
			out = append(out, p)
		}
	}
	return out
}

// UpdateHighWaterMark bumps a position's HWM, guarding monotonicity: a
// decreasing HWM write is refused and logged loudly.
func (s *PositionStore) UpdateHighWaterMark(ticker string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.positions[ticker]
	if !ok {
		return
	}
	if price < pos.HighWaterMark {
		log.Printf("[CRITICAL_STATE_REGRESSION] refusing HWM decrease for %s: %.4f -> %.4f", ticker, pos.HighWaterMark, price)
		return
	}
	pos.HighWaterMark = price
}

// Close transitions a position to CLOSED, emits the ClosedPosition to the
// outcome sink, and removes it from the live map.
func (s *PositionStore) Close(ticker string, exitPrice float64, reason models.ExitReason, closedAt time.Time) error {
	s.mu.Lock()
	pos, ok := s.positions[ticker]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("trading: no open position for %s", ticker)
	}
	pos.Status = models.PositionClosed
	delete(s.positions, ticker)
	s.mu.Unlock()

	realizedPnL := (exitPrice - pos.EntryPrice) * pos.Quantity
	realizedPct := (exitPrice - pos.EntryPrice) / pos.EntryPrice

	closed := models.ClosedPosition{
		Ticker:      pos.Ticker,
		Quantity:    pos.Quantity,
		EntryPrice:  pos.EntryPrice,
		ExitPrice:   exitPrice,
		RealizedPnL: realizedPnL,
		RealizedPct: realizedPct,
		ExitReason:  reason,
		SignalID:    pos.SignalID,
		KeywordTag:  pos.KeywordTag,
		OpenedAt:    pos.OpenedAt,
		ClosedAt:    closedAt,
	}
	if s.outcomes != nil {
		s.outcomes.RecordOutcome(closed)
	}
	return nil
}

// ReconcileWithBroker closes any local position with no matching broker
// holding ("phantom position") and preserves stop/target/HWM state for
// tickers the broker still shows as held.
func (s *PositionStore) ReconcileWithBroker(brokerTickers map[string]bool) {
	s.mu.Lock()
	var phantoms []string
	for ticker, pos := range s.positions {
		if pos.IsOpen() && !brokerTickers[ticker] {
			phantoms = append(phantoms, ticker)
		}
	}
	s.mu.Unlock()

	for _, ticker := range phantoms {
		pos, ok := s.Get(ticker)
		if !ok {
			continue
		}
		_ = s.Close(ticker, pos.EntryPrice, models.ExitReconciled, s.clock.Now())
	}
}
