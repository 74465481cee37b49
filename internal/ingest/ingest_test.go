package ingest

import (
	"testing"
	"time"

	"catalystd/internal/models"
)

func TestFilterFreshnessBoundaryInclusive(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	maxAge := 60 * time.Minute

	items := []models.NewsItem{
		{ID: "exact", PublishedAt: now.Add(-60 * time.Minute)},
		{ID: "one-second-over", PublishedAt: now.Add(-60*time.Minute - time.Second)},
		{ID: "future", PublishedAt: now.Add(10 * time.Minute)},
	}

	got, stale := FilterFreshness(items, now, maxAge, maxAge)
	ids := map[string]bool{}
	for _, it := range got {
		ids[it.ID] = true
	}

	if !ids["exact"] {
		t.Error("item exactly at the age threshold must be accepted (inclusive boundary)")
	}
	if ids["one-second-over"] {
		t.Error("item one second past the threshold must be rejected")
	}
	if !ids["future"] {
		t.Error("future-dated item must be accepted")
	}
	if len(stale) != 1 || stale[0].ID != "one-second-over" {
		t.Errorf("expected the over-age item in the stale list, got %v", stale)
	}
}

func TestFilterFreshnessUsesWiderWindowForFilings(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	maxAge := 60 * time.Minute
	filingMaxAge := 4 * time.Hour

	items := []models.NewsItem{
		{ID: "stale-news", Kind: "", PublishedAt: now.Add(-90 * time.Minute)},
		{ID: "fresh-filing", Kind: models.KindFiling, PublishedAt: now.Add(-90 * time.Minute)},
		{ID: "stale-filing", Kind: models.KindFiling, PublishedAt: now.Add(-5 * time.Hour)},
	}

	got, _ := FilterFreshness(items, now, maxAge, filingMaxAge)
	ids := map[string]bool{}
	for _, it := range got {
		ids[it.ID] = true
	}

	if ids["stale-news"] {
		t.Error("plain news past the news window must be rejected")
	}
	if !ids["fresh-filing"] {
		t.Error("a filing within the wider filing window must be accepted even past the news window")
	}
	if ids["stale-filing"] {
		t.Error("a filing past the filing window must still be rejected")
	}
}

func TestDedupeExactIDMatch(t *testing.T) {
	d := NewDedupe(10)
	item := models.NewsItem{ID: "abc", Title: "Acme Announces Merger"}

	first, _ := d.Filter([]models.NewsItem{item})
	second, dupes := d.Filter([]models.NewsItem{item})

	if len(first) != 1 {
		t.Fatalf("expected first pass to keep the item, got %d", len(first))
	}
	if len(second) != 0 {
		t.Fatalf("expected re-ingesting the same id to produce zero items, got %d", len(second))
	}
	if len(dupes) != 1 || dupes[0].ID != "abc" {
		t.Fatalf("expected the re-ingested item in the dupes list, got %v", dupes)
	}
}

func TestDedupeFuzzyTitleMatch(t *testing.T) {
	d := NewDedupe(10)
	first := models.NewsItem{ID: "1", Title: "Acme Corp Announces Merger With Beta Inc"}
	second := models.NewsItem{ID: "2", Title: "Acme Corp Announces Merger with Beta Inc."}

	out1, _ := d.Filter([]models.NewsItem{first})
	out2, _ := d.Filter([]models.NewsItem{second})

	if len(out1) != 1 {
		t.Fatalf("expected the first unique item through, got %d", len(out1))
	}
	if len(out2) != 0 {
		t.Fatalf("expected the near-duplicate title to be filtered, got %d", len(out2))
	}
}

func TestDedupeDistinctTitlesBothPass(t *testing.T) {
	d := NewDedupe(10)
	first := models.NewsItem{ID: "1", Title: "Acme Corp Announces Merger With Beta Inc"}
	second := models.NewsItem{ID: "2", Title: "Totally Unrelated Company Reports Earnings"}

	out1, _ := d.Filter([]models.NewsItem{first})
	out2, _ := d.Filter([]models.NewsItem{second})

	if len(out1) != 1 || len(out2) != 1 {
		t.Fatalf("expected both distinct items to pass, got %d and %d", len(out1), len(out2))
	}
}

func TestRecordCycleResultFiresOutageAlertOnce(t *testing.T) {
	var alerts []int
	in := New(nil, 3, func(n int) { alerts = append(alerts, n) })

	for i := 0; i < 5; i++ {
		in.recordCycleResult(0)
	}

	if len(alerts) != 1 {
		t.Fatalf("expected exactly one outage alert at the threshold, got %v", alerts)
	}
	if alerts[0] != 3 {
		t.Errorf("alert fired at consecutive=%d, want 3", alerts[0])
	}
}

func TestRecordCycleResultResetsOnNonEmptyCycle(t *testing.T) {
	var alerts []int
	in := New(nil, 2, func(n int) { alerts = append(alerts, n) })

	in.recordCycleResult(0)
	in.recordCycleResult(5) // resets the counter
	in.recordCycleResult(0)

	if len(alerts) != 0 {
		t.Errorf("expected no alert after the streak was reset, got %v", alerts)
	}
}
