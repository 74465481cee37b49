package sentiment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ExternalProviderSource wraps a generic news-provider or social-aggregate
// sentiment endpoint (e.g. a community-platform or forum-aggregator API)
// behind the same Source contract, using resty. News-provider sentiment
// and external social aggregates are both instances of this type with
// different base URLs and weights.
type ExternalProviderSource struct {
	name    string
	weight  float64
	client  *resty.Client
	baseURL string
}

func NewExternalProviderSource(name, baseURL, apiKey string, weight float64) *ExternalProviderSource {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		c.SetHeader("Authorization", "Bearer "+apiKey)
	}
	return &ExternalProviderSource{name: name, weight: weight, client: c, baseURL: baseURL}
}

func (s *ExternalProviderSource) Name() string    { return s.name }
func (s *ExternalProviderSource) Weight() float64 { return s.weight }
func (s *ExternalProviderSource) External() bool  { return true }

type externalSentimentResponse struct {
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

func (s *ExternalProviderSource) Analyze(ctx context.Context, title, _ string) (Result, error) {
	var out externalSentimentResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("q", title).
		SetResult(&out).
		Get("/sentiment")
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", s.name, err)
	}
	if resp.IsError() {
		return Result{}, fmt.Errorf("%s: status %d", s.name, resp.StatusCode())
	}
	return Result{Score: clamp(out.Score, -1, 1), Confidence: clamp(out.Confidence, 0, 1)}, nil
}
