package classify

import (
	"context"
	"testing"

	"catalystd/internal/models"
	"catalystd/internal/sentiment"
)

// stubSentimentSource returns a fixed (score, confidence) pair.
type stubSentimentSource struct {
	score, confidence float64
}

func (s stubSentimentSource) Name() string   { return "stub" }
func (s stubSentimentSource) Weight() float64 { return 1.0 }
func (s stubSentimentSource) External() bool { return false }
func (s stubSentimentSource) Analyze(ctx context.Context, title, summary string) (sentiment.Result, error) {
	return sentiment.Result{Score: s.score, Confidence: s.confidence}, nil
}

func newTestClassifier(sentimentScore float64) *Classifier {
	agg := sentiment.NewAggregator([]sentiment.Source{stubSentimentSource{score: sentimentScore, confidence: 0.9}})
	known := map[string]bool{"XYZ": true, "XYZBIO": true, "AAPL": true, "GOOGL": true}
	return NewClassifier(NewKeywords(), agg, known, 40.0)
}

func TestClassifyDilutiveOfferingAnnouncement(t *testing.T) {
	c := newTestClassifier(0.1) // generic sentiment model would call this mildly positive
	item := models.NewsItem{
		ID:      "1",
		Title:   "XYZ Corp Announces $100M Public Offering",
		Tickers: []string{"XYZ"},
	}

	scoredItems, ok := c.Classify(context.Background(), item)
	if !ok {
		t.Fatal("expected item to be classified, not rejected")
	}
	if len(scoredItems) != 1 {
		t.Fatalf("expected exactly one ScoredItem, got %d", len(scoredItems))
	}
	scored := scoredItems[0]
	if scored.Sentiment != -0.6 {
		t.Errorf("sentiment = %v, want -0.6 (announcement stage override)", scored.Sentiment)
	}
	if scored.AlertType != models.AlertNegative {
		t.Errorf("alert_type = %v, want NEGATIVE", scored.AlertType)
	}
	if !scored.HasTag("offering") {
		t.Error("expected offering keyword tag")
	}
}

func TestClassifyFDACatalyst(t *testing.T) {
	c := newTestClassifier(0.9)
	item := models.NewsItem{
		ID:      "2",
		Title:   "XYZBIO Announces FDA Approval of Phase 3 Trial",
		Tickers: []string{"XYZBIO"},
	}

	scoredItems, ok := c.Classify(context.Background(), item)
	if !ok {
		t.Fatal("expected item to be classified")
	}
	if len(scoredItems) != 1 {
		t.Fatalf("expected exactly one ScoredItem, got %d", len(scoredItems))
	}
	scored := scoredItems[0]
	if scored.Sentiment != 0.9 {
		t.Errorf("sentiment = %v, want 0.9 unchanged (no offering-stage language present)", scored.Sentiment)
	}
	if scored.AlertType != models.AlertPositive {
		t.Errorf("alert_type = %v, want POSITIVE", scored.AlertType)
	}
	found := false
	for _, tag := range scored.KeywordHits {
		if tag == "fda" {
			found = true
		}
	}
	if !found {
		t.Errorf("keyword_hits = %v, want fda present", scored.KeywordHits)
	}
}

func TestClassifyRetrospectiveDropped(t *testing.T) {
	c := newTestClassifier(-0.5)
	item := models.NewsItem{
		ID:      "3",
		Title:   "Why Is Apple Trading Lower Today?",
		Tickers: []string{"AAPL"},
	}
	if _, ok := c.Classify(context.Background(), item); ok {
		t.Error("expected retrospective item to be dropped")
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := newTestClassifier(0.4)
	item := models.NewsItem{
		ID:      "4",
		Title:   "XYZ Corp Announces Merger with Acme Inc",
		Tickers: []string{"XYZ"},
	}

	first, ok1 := c.Classify(context.Background(), item)
	second, ok2 := c.Classify(context.Background(), item)
	if !ok1 || !ok2 {
		t.Fatal("expected both classifications to succeed")
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected exactly one ScoredItem each, got %d and %d", len(first), len(second))
	}
	if first[0].Sentiment != second[0].Sentiment || first[0].AlertType != second[0].AlertType {
		t.Error("classifying the same item twice must produce identical results")
	}
}

func TestClassifyMultiTickerCoSubjectEmitsIndependentScoredItems(t *testing.T) {
	c := newTestClassifier(0.2)
	item := models.NewsItem{
		ID:    "5",
		Title: "AAPL and GOOGL Announce AI Partnership",
	}

	scoredItems, ok := c.Classify(context.Background(), item)
	if !ok {
		t.Fatal("expected item to be classified")
	}
	if len(scoredItems) != 2 {
		t.Fatalf("expected two independent ScoredItems for the co-subject case, got %d", len(scoredItems))
	}

	tickers := map[string]bool{}
	for _, s := range scoredItems {
		tickers[s.PrimaryTicker] = true
		if s.RelevanceScore < tickerRelevancePassScore {
			t.Errorf("ticker %s relevance_score = %v, want >= %v", s.PrimaryTicker, s.RelevanceScore, tickerRelevancePassScore)
		}
	}
	if !tickers["AAPL"] || !tickers["GOOGL"] {
		t.Errorf("expected both AAPL and GOOGL as independent primary tickers, got %v", tickers)
	}
}

func TestCandidatesDiscoversTickersFromText(t *testing.T) {
	c := newTestClassifier(0.5)

	// Untagged item: candidates come from the title text, pruned by the
	// known-ticker allowlist ("AI" and "Announce" capitals are not known).
	item := models.NewsItem{Title: "AAPL and GOOGL Announce AI Partnership"}
	got := c.Candidates(item)
	want := map[string]bool{"AAPL": true, "GOOGL": true}
	if len(got) != 2 || !want[got[0]] || !want[got[1]] {
		t.Errorf("Candidates = %v, want AAPL and GOOGL", got)
	}

	// Tagged item: the feed's tickers win, still allowlist-pruned.
	tagged := models.NewsItem{Title: "irrelevant", Tickers: []string{"XYZ", "UNKNOWN"}}
	got = c.Candidates(tagged)
	if len(got) != 1 || got[0] != "XYZ" {
		t.Errorf("Candidates = %v, want just XYZ", got)
	}
}
