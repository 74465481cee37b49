package storage

import (
	"path/filepath"
	"time"

	"catalystd/internal/models"
)

// Ledger owns the three append-only JSONL logs: accepted items, rejected
// items, and closed-position outcomes.
type Ledger struct {
	accepted *JSONLWriter
	rejected *JSONLWriter
	outcomes *JSONLWriter
}

func NewLedger(dataDir string) *Ledger {
	return &Ledger{
		accepted: NewJSONLWriter(filepath.Join(dataDir, "accepted_items.jsonl")),
		rejected: NewJSONLWriter(filepath.Join(dataDir, "rejected_items.jsonl")),
		outcomes: NewJSONLWriter(filepath.Join(dataDir, "outcomes.jsonl")),
	}
}

func (l *Ledger) RecordAccepted(item models.ScoredItem) error {
	return l.accepted.Append(item)
}

func (l *Ledger) RecordRejected(newsItemID, ticker string, reason RejectionReason) error {
	return l.rejected.Append(RejectedItem{
		NewsItemID:      newsItemID,
		Ticker:          ticker,
		RejectionReason: reason,
	})
}

// RecordOutcome implements trading.OutcomeSink: one line per closed
// position, entry/exit plus the MarketContext captured at entry time.
func (l *Ledger) RecordOutcome(cp models.ClosedPosition) {
	_ = l.outcomes.Append(outcomeRecord{
		ClosedPosition: cp,
		RecordedAt:     time.Now().UTC(),
	})
}

type outcomeRecord struct {
	models.ClosedPosition
	RecordedAt time.Time `json:"recorded_at"`
}
