package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRSSSourceFetchParsesChannelItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<?xml version="1.0"?>
<rss><channel>
  <item>
    <title>XYZ Corp Announces FDA Approval</title>
    <link>https://example.com/a</link>
    <description>summary text</description>
    <pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate>
  </item>
</channel></rss>`))
	}))
	defer srv.Close()

	s := NewRSSSource("test-rss", srv.URL)
	items, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Title != "XYZ Corp Announces FDA Approval" {
		t.Errorf("title = %q", items[0].Title)
	}
	if items[0].Source != "test-rss" {
		t.Errorf("source = %q, want test-rss", items[0].Source)
	}
	if items[0].ID == "" {
		t.Error("expected a non-empty stable id")
	}
}

func TestRSSSourceFetchFallsBackToAtomEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?>
<feed>
  <entry>
    <title>Atom Title</title>
    <link>https://example.com/b</link>
    <summary>atom summary</summary>
    <updated>2024-01-02T15:04:05Z</updated>
  </entry>
</feed>`))
	}))
	defer srv.Close()

	s := NewRSSSource("test-atom", srv.URL)
	items, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Title != "Atom Title" {
		t.Fatalf("items = %+v", items)
	}
}

func TestRSSSourceFetchErrorsOnNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewRSSSource("test-err", srv.URL)
	if _, err := s.Fetch(context.Background()); err == nil {
		t.Error("expected an error on a 500 response")
	}
}

func TestHashIDStableAcrossCalls(t *testing.T) {
	a := hashID("src", "link", "title")
	b := hashID("src", "link", "title")
	if a != b {
		t.Error("hashID must be deterministic for identical inputs")
	}
	c := hashID("src", "link", "different title")
	if a == c {
		t.Error("hashID must differ when inputs differ")
	}
}
