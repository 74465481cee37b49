// Package classify assigns sentiment, keyword tags, and alert type to a
// NewsItem, producing a models.ScoredItem.
package classify

import (
	"regexp"
	"strings"
)

// KeywordCategory groups catalyst keywords by catalyst family:
// clinical, M&A, offerings, guidance, regulatory.
type KeywordCategory string

const (
	CategoryClinical   KeywordCategory = "clinical"
	CategoryMA         KeywordCategory = "ma"
	CategoryOfferings  KeywordCategory = "offerings"
	CategoryGuidance   KeywordCategory = "guidance"
	CategoryRegulatory KeywordCategory = "regulatory"
)

// keywordEntry is one curated catalyst keyword with its category and the
// compiled word-boundary matcher.
type keywordEntry struct {
	tag      string
	category KeywordCategory
	re       *regexp.Regexp
}

// Keywords is the curated, category-grouped keyword table. Word-boundary
// regex matching avoids false hits on substrings (e.g. "fda" inside
// "fdatabase").
type Keywords struct {
	entries []keywordEntry
}

// defaultKeywordSpecs holds the curated per-category keyword lists; the
// signal generator's KeywordConfig table (separate, in internal/config)
// supplies the numeric base_confidence/stop/target per tag.
var defaultKeywordSpecs = []struct {
	tag      string
	category KeywordCategory
	words    []string
}{
	{"fda", CategoryClinical, []string{"fda approval", "fda approves", "phase 3", "phase iii", "clinical trial"}},
	{"clinical", CategoryClinical, []string{"clinical data", "trial results", "efficacy"}},
	{"merger", CategoryMA, []string{"merger", "to merge"}},
	{"acquisition", CategoryMA, []string{"acquisition", "to acquire", "acquires"}},
	{"partnership", CategoryMA, []string{"partnership", "strategic collaboration", "licensing agreement"}},
	{"offering", CategoryOfferings, []string{"public offering", "registered direct offering", "private placement"}},
	{"dilution", CategoryOfferings, []string{"dilution", "dilutive"}},
	{"warrant_exercise", CategoryOfferings, []string{"warrant exercise", "exercise of warrants"}},
	{"guidance", CategoryGuidance, []string{"raises guidance", "cuts guidance", "updates guidance"}},
	{"bankruptcy", CategoryRegulatory, []string{"bankruptcy", "chapter 11"}},
	{"fraud", CategoryRegulatory, []string{"fraud", "sec investigation"}},
	{"delisting", CategoryRegulatory, []string{"delisting", "delisted"}},
}

// AvoidKeywords emit action=SKIP regardless of other scoring.
var AvoidKeywords = map[string]bool{
	"offering":         true,
	"dilution":         true,
	"warrant_exercise": true,
}

// CloseKeywords emit action=CLOSE for any open position on the ticker.
var CloseKeywords = map[string]bool{
	"bankruptcy": true,
	"fraud":      true,
	"delisting":  true,
}

func NewKeywords() *Keywords {
	k := &Keywords{}
	for _, spec := range defaultKeywordSpecs {
		for _, w := range spec.words {
			pattern := `(?i)\b` + regexp.QuoteMeta(w) + `\b`
			k.entries = append(k.entries, keywordEntry{
				tag:      spec.tag,
				category: spec.category,
				re:       regexp.MustCompile(pattern),
			})
		}
	}
	return k
}

// Match scans title+summary and returns the set of distinct keyword tags
// hit, in table order (used to break base_confidence ties by "highest
// priority match wins").
func (k *Keywords) Match(title, summary string) []string {
	text := title + " " + summary
	seen := make(map[string]bool)
	var tags []string
	for _, e := range k.entries {
		if seen[e.tag] {
			continue
		}
		if e.re.MatchString(text) {
			seen[e.tag] = true
			tags = append(tags, e.tag)
		}
	}
	return tags
}

// HasAvoid reports whether any matched tag is an AVOID keyword.
func HasAvoid(tags []string) bool {
	for _, t := range tags {
		if AvoidKeywords[t] {
			return true
		}
	}
	return false
}

// HasClose reports whether any matched tag is a CLOSE keyword.
func HasClose(tags []string) bool {
	for _, t := range tags {
		if CloseKeywords[t] {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
