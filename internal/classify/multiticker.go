package classify

import (
	"regexp"
	"strings"
)

// tickerRelevancePassScore is the minimum relevance score for a ticker to
// qualify as primary.
const tickerRelevancePassScore = 40.0

// clearPrimaryMargin is the top-minus-second margin above which only the
// top ticker is emitted (the "clearly-primary case").
const clearPrimaryMargin = 30.0

// firstParagraphChars bounds the "first paragraph" window used for the
// first-paragraph presence score.
const firstParagraphChars = 300

// MultiTickerScorer scores each candidate ticker's relevance to an item and
// selects primary/secondary tickers.
type MultiTickerScorer struct{}

func NewMultiTickerScorer() *MultiTickerScorer { return &MultiTickerScorer{} }

// tickerPattern matches bare uppercase tickers 1-5 letters, optionally
// prefixed with '$', word-bounded so it doesn't match inside ordinary words.
var tickerPattern = regexp.MustCompile(`\$?\b[A-Z]{1,5}\b`)

// CandidateTickers extracts plausible ticker symbols from title+summary.
// Common non-ticker all-caps words are not filtered here; callers are
// expected to pass a known-ticker allowlist when one is available.
func (m *MultiTickerScorer) CandidateTickers(title, summary string) []string {
	text := title + " " + summary
	matches := tickerPattern.FindAllString(text, -1)
	seen := make(map[string]bool)
	var out []string
	for _, t := range matches {
		t = strings.TrimPrefix(t, "$")
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Score computes the title-position + first-paragraph + mention-frequency
// relevance score for one ticker against the full item text.
func (m *MultiTickerScorer) Score(ticker, title, summary string) float64 {
	var score float64

	if idx := strings.Index(title, ticker); idx >= 0 {
		// Up to 50 points, decreasing linearly with position offset.
		offsetPenalty := float64(idx) / float64(max(len(title), 1)) * 50
		points := 50 - offsetPenalty
		if points < 0 {
			points = 0
		}
		score += points
	}

	firstPara := summary
	if len(firstPara) > firstParagraphChars {
		firstPara = firstPara[:firstParagraphChars]
	}
	if strings.Contains(firstPara, ticker) {
		score += 30
	}

	count := strings.Count(title, ticker) + strings.Count(summary, ticker)
	freqPoints := float64(count) * 5
	if freqPoints > 20 {
		freqPoints = 20
	}
	score += freqPoints

	return score
}

// SelectPrimary applies the primary-ticker selection rule to a
// ticker->score map: keep any ticker >= 40; if two-or-more qualify and
// top-second > 30, emit only the top (the "clearly-primary" case, one
// primary); else emit up to 2 (the "true co-subject" case, both are
// primary and each warrants its own independent alert/signal per the
// "AAPL and GOOGL" scenario). secondary carries any qualifying tickers
// beyond the top 2, recorded as metadata only.
func (m *MultiTickerScorer) SelectPrimary(scores map[string]float64) (primaries []string, secondary []string) {
	type pair struct {
		ticker string
		score  float64
	}
	var qualifying []pair
	for t, s := range scores {
		if s >= tickerRelevancePassScore {
			qualifying = append(qualifying, pair{t, s})
		}
	}
	if len(qualifying) == 0 {
		return nil, nil
	}

	// sort descending by score
	for i := 1; i < len(qualifying); i++ {
		for j := i; j > 0 && qualifying[j].score > qualifying[j-1].score; j-- {
			qualifying[j], qualifying[j-1] = qualifying[j-1], qualifying[j]
		}
	}

	if len(qualifying) == 1 {
		return []string{qualifying[0].ticker}, nil
	}

	top, second := qualifying[0], qualifying[1]
	if top.score-second.score > clearPrimaryMargin {
		return []string{top.ticker}, nil
	}

	primaries = []string{top.ticker, second.ticker}
	for _, q := range qualifying[2:] {
		secondary = append(secondary, q.ticker)
	}
	return primaries, secondary
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
