package sentiment

import (
	"context"
	"strings"
)

// domainPhrases is a finance-domain phrase table standing in for a
// FinBERT-style classifier: multi-word financial idioms the plain lexical
// scorer would miss or misread (e.g. "beat on revenue" vs. isolated
// "revenue").
var domainPhrases = map[string]float64{
	"beat on revenue":        0.7,
	"beat on eps":            0.7,
	"raised full year guidance": 0.6,
	"missed on revenue":      -0.7,
	"missed on eps":          -0.7,
	"cut full year guidance": -0.6,
	"going concern":          -0.9,
	"accelerated enrollment": 0.5,
	"primary endpoint met":   0.85,
	"failed to meet endpoint": -0.85,
}

// DomainClassifierSource is a second local, synchronous source scoring
// finance-domain phrases the bag-of-words lexical source can't express.
type DomainClassifierSource struct{ weight float64 }

func NewDomainClassifierSource(weight float64) *DomainClassifierSource {
	return &DomainClassifierSource{weight: weight}
}

func (s *DomainClassifierSource) Name() string    { return "domain_classifier" }
func (s *DomainClassifierSource) Weight() float64 { return s.weight }
func (s *DomainClassifierSource) External() bool   { return false }

func (s *DomainClassifierSource) Analyze(_ context.Context, title, summary string) (Result, error) {
	text := strings.ToLower(title + " " + summary)
	var sum float64
	var hits int
	for phrase, score := range domainPhrases {
		if strings.Contains(text, phrase) {
			sum += score
			hits++
		}
	}
	if hits == 0 {
		return Result{Score: 0, Confidence: 0}, nil
	}
	return Result{Score: clamp(sum/float64(hits), -1, 1), Confidence: 0.75}, nil
}
