package sentiment

import (
	"context"
	"strings"
)

// lexiconPositive/Negative are small VADER-style word lists; this is a
// headline lexical scorer, not a full sentiment model — it exists to give
// the aggregator a synchronous, always-available local source.
var lexiconPositive = map[string]float64{
	"approval": 0.8, "approves": 0.8, "beats": 0.6, "surges": 0.7,
	"record": 0.5, "upgrade": 0.6, "partnership": 0.5, "breakthrough": 0.8,
	"positive": 0.5, "strong": 0.4, "growth": 0.4, "raises": 0.3,
}

var lexiconNegative = map[string]float64{
	"bankruptcy": -0.9, "fraud": -0.9, "delisting": -0.8, "lawsuit": -0.5,
	"misses": -0.6, "plunges": -0.7, "downgrade": -0.6, "dilution": -0.5,
	"recall": -0.6, "negative": -0.5, "decline": -0.4, "cuts": -0.3,
}

// LexicalSource is a headline-level bag-of-words scorer, always-on and
// synchronous; it never touches the network.
type LexicalSource struct{ weight float64 }

func NewLexicalSource(weight float64) *LexicalSource { return &LexicalSource{weight: weight} }

func (s *LexicalSource) Name() string     { return "lexical" }
func (s *LexicalSource) Weight() float64  { return s.weight }
func (s *LexicalSource) External() bool   { return false }

func (s *LexicalSource) Analyze(_ context.Context, title, summary string) (Result, error) {
	text := strings.ToLower(title + " " + summary)
	var sum float64
	var hits int
	for word, score := range lexiconPositive {
		if strings.Contains(text, word) {
			sum += score
			hits++
		}
	}
	for word, score := range lexiconNegative {
		if strings.Contains(text, word) {
			sum += score
			hits++
		}
	}
	if hits == 0 {
		return Result{Score: 0, Confidence: 0.2}, nil
	}
	return Result{Score: clamp(sum/float64(hits), -1, 1), Confidence: 0.6}, nil
}
