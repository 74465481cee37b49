package classify

import (
	"context"

	"catalystd/internal/models"
	"catalystd/internal/sentiment"
)

// Classifier assigns sentiment, keyword tags, and alert type to a NewsItem,
// producing a models.ScoredItem. Retrospective filtering happens first
// (before any scoring work); a rejected item returns (nil, false).
type Classifier struct {
	Keywords       *Keywords
	Sentiment      *sentiment.Aggregator
	Stage          *OfferingStageCorrector
	Retrospective  *RetrospectiveFilter
	MultiTicker    *MultiTickerScorer
	MinRelevance   float64
	KnownTickers   map[string]bool // allowlist to prune false ticker-pattern hits
}

func NewClassifier(kw *Keywords, agg *sentiment.Aggregator, known map[string]bool, minRelevance float64) *Classifier {
	return &Classifier{
		Keywords:      kw,
		Sentiment:     agg,
		Stage:         NewOfferingStageCorrector(),
		Retrospective: NewRetrospectiveFilter(),
		MultiTicker:   NewMultiTickerScorer(),
		MinRelevance:  minRelevance,
		KnownTickers:  known,
	}
}

// Classify produces one ScoredItem per primary ticker the item qualifies
// for, or (nil, false) if the item is filtered out as retrospective or
// carries no relevant ticker. Most items yield exactly one ScoredItem; a
// "true co-subject" item (two tickers within 30 points of each other)
// yields one independent ScoredItem per co-subject ticker, each flowing
// through enrich/signal/execute on its own.
func (c *Classifier) Classify(ctx context.Context, item models.NewsItem) ([]*models.ScoredItem, bool) {
	if c.Retrospective.IsRetrospective(item.Title) {
		return nil, false
	}

	primaries, secondary := c.selectTickers(item)
	if len(primaries) == 0 && len(item.Tickers) > 0 {
		primaries = []string{item.Tickers[0]}
	}
	if len(primaries) == 0 {
		return nil, false
	}

	tags := c.Keywords.Match(item.Title, item.Summary)

	agg := c.Sentiment.Aggregate(ctx, item.Title, item.Summary)
	sentimentOriginal := agg.Score
	finalSentiment := agg.Score

	if override, stageTag, negative, applied := c.Stage.Correct(item.Title, item.Summary); applied {
		finalSentiment = override
		tags = append(tags, stageTag)
		if negative {
			tags = append(tags, "offering_"+stageTag)
		}
	}

	alertType := models.AlertNeutral
	switch {
	case HasClose(tags) || finalSentiment < -0.2:
		alertType = models.AlertNegative
	case finalSentiment > 0.2:
		alertType = models.AlertPositive
	}

	out := make([]*models.ScoredItem, 0, len(primaries))
	for _, primary := range primaries {
		secondaryForTicker := secondary
		for _, other := range primaries {
			if other != primary {
				secondaryForTicker = append(append([]string{}, secondaryForTicker...), other)
			}
		}
		out = append(out, &models.ScoredItem{
			NewsItemID:          item.ID,
			PrimaryTicker:       primary,
			SecondaryTickers:    secondaryForTicker,
			Sentiment:           finalSentiment,
			SentimentOriginal:   sentimentOriginal,
			SentimentConfidence: agg.Confidence,
			KeywordHits:         tags,
			Tags:                tags,
			AlertType:           alertType,
			RelevanceScore:      c.relevanceFor(primary, item),
		})
	}
	return out, true
}

// Candidates returns the pruned candidate tickers for an item: its tagged
// tickers when the feed set any, else pattern hits extracted from
// title+summary, filtered through the known-ticker allowlist. The scheduler
// calls this before classification so the cycle's batch price fetch covers
// tickers that only exist in the item's text.
func (c *Classifier) Candidates(item models.NewsItem) []string {
	candidates := item.Tickers
	if len(candidates) == 0 {
		candidates = c.MultiTicker.CandidateTickers(item.Title, item.Summary)
	}
	if c.KnownTickers == nil {
		return candidates
	}
	var out []string
	for _, t := range candidates {
		if c.KnownTickers[t] {
			out = append(out, t)
		}
	}
	return out
}

func (c *Classifier) selectTickers(item models.NewsItem) (primaries []string, secondary []string) {
	candidates := c.Candidates(item)
	scores := make(map[string]float64, len(candidates))
	for _, t := range candidates {
		scores[t] = c.MultiTicker.Score(t, item.Title, item.Summary)
	}
	return c.MultiTicker.SelectPrimary(scores)
}

func (c *Classifier) relevanceFor(ticker string, item models.NewsItem) float64 {
	return c.MultiTicker.Score(ticker, item.Title, item.Summary)
}
