// Package broker defines the capability contract the trading engine
// drives, swappable between a live/paper adapter and the simulation mock.
package broker

import (
	"context"

	"catalystd/internal/models"
)

// Broker is the outbound trading capability. Every method accepts a
// context so callers can bound network calls with a deadline.
type Broker interface {
	GetAccount(ctx context.Context) (*models.Account, error)
	GetClock(ctx context.Context) (*models.Clock, error)
	GetBuyingPower(ctx context.Context) (float64, error)

	BatchQuote(ctx context.Context, tickers []string) (map[string]models.Quote, error)
	GetBars(ctx context.Context, ticker string, limit int) ([]models.Bar, error)

	ListPositions(ctx context.Context) ([]models.BrokerPosition, error)

	PlaceOrder(ctx context.Context, req OrderRequest) (*models.Order, error)
	PlaceBracketOrder(ctx context.Context, req BracketOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID string) error
	ClosePosition(ctx context.Context, ticker string) (*models.Order, error)
}

// OrderType enumerates the order types the engine may submit.
type OrderType string

const (
	OrderMarket    OrderType = "MARKET"
	OrderLimit     OrderType = "LIMIT"
	OrderStop      OrderType = "STOP"
	OrderStopLimit OrderType = "STOP_LIMIT"
)

// OrderRequest is a single plain order submission.
type OrderRequest struct {
	Ticker    string
	Side      string // buy, sell
	Qty       float64
	Type      OrderType
	LimitPrice float64 // zero when not applicable
	StopPrice  float64 // zero when not applicable
	Meta      models.OrderMeta
}

// BracketOrderRequest submits an entry plus child stop and take-profit legs
// atomically when the broker supports it.
type BracketOrderRequest struct {
	Ticker          string
	Side            string
	Qty             float64
	EntryType       OrderType
	LimitPrice      float64
	StopLossPrice   float64
	TakeProfitPrice float64
	Meta            models.OrderMeta
}
