package sim

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"catalystd/internal/models"
)

func TestReplayerDispatchesNewsInTimestampOrder(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	events := []Event{
		{At: t0.Add(2 * time.Minute), Kind: EventNews, News: models.NewsItem{ID: "second"}},
		{At: t0, Kind: EventNews, News: models.NewsItem{ID: "first"}},
		{At: t0.Add(1 * time.Minute), Kind: EventNews, News: models.NewsItem{ID: "middle"}},
	}
	r := NewReplayer(events, 50)

	var order []string
	for {
		item, ok := r.Next()
		if !ok {
			break
		}
		order = append(order, item.ID)
	}

	want := []string{"first", "middle", "second"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestReplayerBarEventsFeedPriceSourceAndAreSkippedFromNews(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	events := []Event{
		{At: t0, Kind: EventBar, Ticker: "ABCD", Bar: models.Bar{Close: decimal.NewFromFloat(4.50), Volume: 1_000_000}},
		{At: t0.Add(time.Minute), Kind: EventNews, News: models.NewsItem{ID: "news-1"}},
	}
	r := NewReplayer(events, 100)

	item, ok := r.Next()
	if !ok {
		t.Fatal("expected one news item, got none")
	}
	if item.ID != "news-1" {
		t.Fatalf("got %q, want news-1 (bar event should not surface as news)", item.ID)
	}

	if _, ok := r.Next(); ok {
		t.Fatal("expected queue to be drained after one news item")
	}

	close, ok := r.Prices().LastClose("ABCD")
	if !ok || close != 4.50 {
		t.Fatalf("LastClose(ABCD) = %v, %v; want 4.50, true", close, ok)
	}
	vol, ok := r.Prices().AvgVolume("ABCD")
	if !ok || vol != 1_000_000 {
		t.Fatalf("AvgVolume(ABCD) = %v, %v; want 1000000, true", vol, ok)
	}
}

func TestReplayerRunIDIsUniquePerInstance(t *testing.T) {
	r1 := NewReplayer(nil, 1)
	r2 := NewReplayer(nil, 1)
	if r1.RunID == "" || r1.RunID == r2.RunID {
		t.Fatalf("expected distinct non-empty run IDs, got %q and %q", r1.RunID, r2.RunID)
	}
}
