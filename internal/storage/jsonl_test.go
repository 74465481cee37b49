package storage

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

func TestJSONLWriterAppendAndReadAllRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "rejected_items.jsonl")
	w := NewJSONLWriter(path)

	records := []RejectedItem{
		{NewsItemID: "1", Ticker: "XYZ", RejectionReason: RejectRetrospective},
		{NewsItemID: "2", Ticker: "ABC", RejectionReason: RejectPriceBand},
	}
	for _, r := range records {
		if err := w.Append(r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	var got []RejectedItem
	err := ReadAllJSONL(path, func(line []byte) error {
		var r RejectedItem
		if err := json.Unmarshal(line, &r); err != nil {
			return err
		}
		got = append(got, r)
		return nil
	})
	if err != nil {
		t.Fatalf("ReadAllJSONL: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0] != records[0] || got[1] != records[1] {
		t.Errorf("round-trip mismatch: got %+v, want %+v", got, records)
	}
}

func TestReadAllJSONLMissingFileIsNotAnError(t *testing.T) {
	err := ReadAllJSONL(filepath.Join(t.TempDir(), "missing.jsonl"), func([]byte) error {
		t.Fatal("callback should not run for a nonexistent file")
		return nil
	})
	if err != nil {
		t.Errorf("expected nil error for a missing file, got %v", err)
	}
}

func TestReadAllJSONLSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mixed.jsonl")
	w := NewJSONLWriter(path)
	if err := w.Append(RejectedItem{NewsItemID: "ok", RejectionReason: RejectDuplicate}); err != nil {
		t.Fatal(err)
	}
	// A bare JSON string is a line that cannot unmarshal into a RejectedItem.
	if err := w.Append("not a record"); err != nil {
		t.Fatal(err)
	}

	var count int
	err := ReadAllJSONL(path, func(line []byte) error {
		var r RejectedItem
		if err := json.Unmarshal(line, &r); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 well-formed record, got %d", count)
	}
}
