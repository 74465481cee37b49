// Package sentiment defines the weighted multi-source sentiment capability
// and its aggregator, consumed by internal/classify.
package sentiment

import (
	"context"
	"log"
)

// Result is the (score, confidence) contract every sentiment source
// implements: score in [-1, 1], confidence in [0, 1].
type Result struct {
	Score      float64
	Confidence float64
}

// Source is one weighted sentiment contributor. Local sources (lexical,
// domain classifier) are expected to return promptly; external sources
// (LLM, news-provider, social) may be slow or rate-limited and are called
// through a CircuitBreaker by the Aggregator.
type Source interface {
	Name() string
	Weight() float64
	Analyze(ctx context.Context, title, summary string) (Result, error)
	// External reports whether this source makes a network call and should
	// be guarded by the aggregator's circuit breaker.
	External() bool
}

// Aggregator computes a confidence-weighted average sentiment across up to
// nine configured sources. Sources returning no data are omitted and
// weights are renormalized across the remaining sources.
type Aggregator struct {
	sources  []Source
	breakers map[string]*CircuitBreaker
}

func NewAggregator(sources []Source) *Aggregator {
	breakers := make(map[string]*CircuitBreaker, len(sources))
	for _, s := range sources {
		if s.External() {
			breakers[s.Name()] = NewCircuitBreaker(3, 0)
		}
	}
	return &Aggregator{sources: sources, breakers: breakers}
}

// Aggregate runs every source (local ones synchronously and always;
// external ones gated by their breaker) and returns the confidence-weighted
// average sentiment plus the confidence of the blend itself (the plain,
// unweighted mean confidence of contributing sources).
func (a *Aggregator) Aggregate(ctx context.Context, title, summary string) Result {
	var weightedScore, weightSum, confSum float64
	var n int

	for _, s := range a.sources {
		if s.External() {
			if b, ok := a.breakers[s.Name()]; ok && !b.Allow() {
				continue
			}
		}

		res, err := s.Analyze(ctx, title, summary)
		if err != nil {
			log.Printf("sentiment: source %s failed: %v", s.Name(), err)
			if b, ok := a.breakers[s.Name()]; ok {
				b.RecordFailure()
			}
			continue
		}
		if b, ok := a.breakers[s.Name()]; ok {
			b.RecordSuccess()
		}

		w := s.Weight() * res.Confidence
		weightedScore += res.Score * w
		weightSum += w
		confSum += res.Confidence
		n++
	}

	if weightSum == 0 || n == 0 {
		return Result{Score: 0, Confidence: 0}
	}

	return Result{
		Score:      clamp(weightedScore/weightSum, -1, 1),
		Confidence: confSum / float64(n),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
