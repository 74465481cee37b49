package models

import "time"

// NewsItem is an immutable fact ingested from a feed source. Once created by
// the Ingestor it is never mutated; downstream stages attach derived data to
// a separate ScoredItem instead.
type NewsItem struct {
	ID          string    `json:"id"` // hash of source+url+title
	Source      string    `json:"source"`
	Kind        string    `json:"kind,omitempty"` // "filing" for SEC sources, "" otherwise
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	PublishedAt time.Time `json:"published_at"` // always UTC
	Tickers     []string  `json:"tickers,omitempty"`
	RawPayload  string    `json:"raw_payload,omitempty"`
}

// KindFiling marks a NewsItem sourced from an SEC filing feed, which gets a
// longer freshness window than plain news.
const KindFiling = "filing"
