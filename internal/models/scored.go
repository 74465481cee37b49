package models

// AlertType is the coarse classification used to pick a downstream alert's
// visual border.
type AlertType string

const (
	AlertNegative AlertType = "NEGATIVE"
	AlertNeutral  AlertType = "NEUTRAL"
	AlertPositive AlertType = "POSITIVE"
)

// ScoredItem is the output of the Classifier, later enriched in place by the
// Enricher. It references its source NewsItem by ID rather than embedding it,
// so a ScoredItem can be persisted independently.
//
// Extras carries optional enrichment fields that don't warrant a first-class
// column (per the "typed record + extras map" guidance for loosely-shaped
// classifier output). Consumers must tolerate a missing key.
type ScoredItem struct {
	NewsItemID          string            `json:"news_item_id"`
	PrimaryTicker       string            `json:"primary_ticker"`
	SecondaryTickers    []string          `json:"secondary_tickers,omitempty"`
	Sentiment           float64           `json:"sentiment"`          // [-1, 1], post sector-adjustment
	SentimentOriginal   float64           `json:"sentiment_original"` // [-1, 1], pre-adjustment
	SentimentConfidence float64           `json:"sentiment_confidence"`
	KeywordHits         []string          `json:"keyword_hits"`
	Tags                []string          `json:"tags"`
	AlertType           AlertType         `json:"alert_type"`
	RelevanceScore      float64           `json:"relevance_score"`
	Context             *MarketContext    `json:"context,omitempty"`
	Extras              map[string]any    `json:"extras,omitempty"`
}

// Extra reads an optional enrichment field with a default-valued fallback.
func (s *ScoredItem) Extra(key string) (any, bool) {
	if s.Extras == nil {
		return nil, false
	}
	v, ok := s.Extras[key]
	return v, ok
}

// HasTag reports whether a tag (e.g. "fda", "offering_closing") is present.
func (s *ScoredItem) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
