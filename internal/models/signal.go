package models

import "time"

// SignalAction is the trading engine's directive derived from a scored,
// enriched catalyst item.
type SignalAction string

const (
	SignalBuy   SignalAction = "BUY"
	SignalSell  SignalAction = "SELL"
	SignalSkip  SignalAction = "SKIP"
	SignalClose SignalAction = "CLOSE"
)

// Signal is the output of the generator stage: a concrete, sized trading
// instruction plus the rationale trail needed to explain and later grade it.
type Signal struct {
	ID               string       `json:"id"`
	Ticker           string       `json:"ticker"`
	Action           SignalAction `json:"action"`
	Confidence       float64      `json:"confidence"` // [0, 1]
	StopLossPrice    float64      `json:"stop_loss_price,omitempty"`
	TakeProfitPrice  float64      `json:"take_profit_price,omitempty"`
	PositionSizePct  float64      `json:"position_size_pct,omitempty"`
	RationaleTags    []string     `json:"rationale_tags"`
	KeywordConfigID  string       `json:"keyword_config_id,omitempty"`
	NewsItemID       string       `json:"news_item_id,omitempty"`
	GeneratedAt      time.Time    `json:"generated_at"`
}

// ConfidenceBreakdown traces how a Signal's confidence score was assembled,
// kept for audit and for the simulation harness's attribution reports.
type ConfidenceBreakdown struct {
	Base                float64 `json:"base"`
	SentimentBonus      float64 `json:"sentiment_bonus"`
	PerformanceMultiplier float64 `json:"performance_multiplier"`
	RegimeMultiplier    float64 `json:"regime_multiplier"`
	RVOLMultiplier      float64 `json:"rvol_multiplier"`
	Final               float64 `json:"final"`
}
