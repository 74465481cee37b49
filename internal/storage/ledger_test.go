package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"catalystd/internal/models"
)

func TestLedgerRecordAcceptedAndRejectedWriteSeparateFiles(t *testing.T) {
	dir := t.TempDir()
	l := NewLedger(dir)

	if err := l.RecordAccepted(models.ScoredItem{NewsItemID: "1", PrimaryTicker: "XYZ"}); err != nil {
		t.Fatal(err)
	}
	if err := l.RecordRejected("2", "ABC", RejectRetrospective); err != nil {
		t.Fatal(err)
	}

	accepted, err := os.ReadFile(filepath.Join(dir, "accepted_items.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(accepted), `"news_item_id":"1"`) {
		t.Errorf("accepted_items.jsonl missing expected record: %s", accepted)
	}

	rejected, err := os.ReadFile(filepath.Join(dir, "rejected_items.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(rejected), `"rejection_reason":"retrospective"`) {
		t.Errorf("rejected_items.jsonl missing expected reason: %s", rejected)
	}
}

func TestLedgerRecordOutcomeAppendsToOutcomesLog(t *testing.T) {
	dir := t.TempDir()
	l := NewLedger(dir)

	l.RecordOutcome(models.ClosedPosition{Ticker: "XYZ", RealizedPnL: 42.5, ExitReason: models.ExitTakeProfit})

	data, err := os.ReadFile(filepath.Join(dir, "outcomes.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"ticker":"XYZ"`) {
		t.Errorf("outcomes.jsonl missing expected record: %s", data)
	}
}
