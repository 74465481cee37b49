package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/relvacode/iso8601"

	"catalystd/internal/httpx"
	"catalystd/internal/models"
)

// edgarAtomFeed is SEC EDGAR's full-text-search Atom feed shape.
type edgarAtomFeed struct {
	Entries []edgarEntry `xml:"entry"`
}

type edgarEntry struct {
	Title     string `xml:"title"`
	Link      edgarLink `xml:"link"`
	Summary   string `xml:"summary"`
	Updated   string `xml:"updated"`
}

type edgarLink struct {
	Href string `xml:"href,attr"`
}

// EDGARSource polls the SEC EDGAR RSS feed for filings. Filings get a longer
// freshness window than plain news elsewhere in the pipeline.
type EDGARSource struct {
	SourceName string
	client     *resty.Client
	feedURL    string
}

// EDGAR occasionally throttles or hiccups under load, so the feed is
// fetched through a retrying transport rather than a single best-effort
// request.
func NewEDGARSource(name, feedURL string) *EDGARSource {
	c := resty.NewWithClient(httpx.NewRetryingClient(3, 20*time.Second)).
		SetHeader("User-Agent", "catalystd research@example.com")
	return &EDGARSource{SourceName: name, client: c, feedURL: feedURL}
}

func (s *EDGARSource) Name() string { return s.SourceName }

func (s *EDGARSource) Fetch(ctx context.Context) ([]models.NewsItem, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.feedURL)
	if err != nil {
		return nil, fmt.Errorf("feed %s: fetch: %w", s.SourceName, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("feed %s: status %d", s.SourceName, resp.StatusCode())
	}

	var doc edgarAtomFeed
	if err := xml.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, fmt.Errorf("feed %s: parse xml: %w", s.SourceName, err)
	}

	items := make([]models.NewsItem, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		pub := time.Now().UTC()
		if t, err := iso8601.ParseString(e.Updated); err == nil {
			pub = t.UTC()
		}
		items = append(items, models.NewsItem{
			ID:          hashID(s.SourceName, e.Link.Href, e.Title),
			Source:      s.SourceName,
			Kind:        models.KindFiling,
			URL:         e.Link.Href,
			Title:       e.Title,
			Summary:     e.Summary,
			PublishedAt: pub,
		})
	}
	return items, nil
}
