package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/relvacode/iso8601"

	"catalystd/internal/models"
)

// prWireRelease is the subset of a press-release-wire JSON response we map
// into models.NewsItem.
type prWireRelease struct {
	ID        string `json:"id"`
	Headline  string `json:"headline"`
	Summary   string `json:"summary"`
	URL       string `json:"url"`
	Tickers   []string `json:"tickers"`
	Published string `json:"published_at"`
}

type prWireResponse struct {
	Releases []prWireRelease `json:"releases"`
}

// PRWireSource hits a press-release-wire REST endpoint via resty.
type PRWireSource struct {
	SourceName string
	client     *resty.Client
	endpoint   string
}

func NewPRWireSource(name, baseURL, apiKey string) *PRWireSource {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		c.SetHeader("Authorization", "Bearer "+apiKey)
	}
	return &PRWireSource{SourceName: name, client: c, endpoint: "/releases/recent"}
}

func (s *PRWireSource) Name() string { return s.SourceName }

func (s *PRWireSource) Fetch(ctx context.Context) ([]models.NewsItem, error) {
	var out prWireResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("feed %s: fetch: %w", s.SourceName, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("feed %s: status %d", s.SourceName, resp.StatusCode())
	}

	items := make([]models.NewsItem, 0, len(out.Releases))
	for _, r := range out.Releases {
		pub := time.Now().UTC()
		if t, err := iso8601.ParseString(r.Published); err == nil {
			pub = t.UTC()
		}
		id := r.ID
		if id == "" {
			id = hashID(s.SourceName, r.URL, r.Headline)
		}
		items = append(items, models.NewsItem{
			ID:          id,
			Source:      s.SourceName,
			URL:         r.URL,
			Title:       r.Headline,
			Summary:     r.Summary,
			PublishedAt: pub,
			Tickers:     r.Tickers,
		})
	}
	return items, nil
}
