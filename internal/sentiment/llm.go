package sentiment

import (
	"context"
	"fmt"

	"catalystd/internal/ai"
)

// LLMSource wraps the ai.Client as a weighted, external sentiment source.
// Its Analyze call queries the model API over the network.
type LLMSource struct {
	client *ai.Client
	weight float64
}

func NewLLMSource(client *ai.Client, weight float64) *LLMSource {
	return &LLMSource{client: client, weight: weight}
}

func (s *LLMSource) Name() string    { return "llm" }
func (s *LLMSource) Weight() float64 { return s.weight }
func (s *LLMSource) External() bool  { return true }

func (s *LLMSource) Analyze(ctx context.Context, title, summary string) (Result, error) {
	prompt := fmt.Sprintf(
		"Return ONLY a JSON object matching the sentiment_analysis schema "+
			"(market_sentiment, confidence, urgency, risk_level, "+
			"institutional_interest, retail_hype_score, reasoning) for this "+
			"headline: %q\nSummary: %q", title, summary)

	text, _, err := s.client.Query(ctx, prompt, 512)
	if err != nil {
		return Result{}, err
	}

	analysis, ok := ai.ParseSentiment(text)
	if !ok {
		return Result{Score: 0, Confidence: 0}, nil
	}
	return Result{Score: analysis.Score(), Confidence: analysis.Confidence}, nil
}
