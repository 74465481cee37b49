package classify

import "regexp"

// retrospectivePatterns match post-event headlines describing a move that
// already happened rather than an actionable catalyst. The target is to
// block the large majority of these while almost never blocking a
// genuinely prospective item, so patterns stay narrow and explicit rather than a broad
// past-tense heuristic that would over-trigger.
var retrospectivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)why (.+ )?(is|was|are) (.+ )?trading (lower|higher)`),
	regexp.MustCompile(`(?i)stock (drops?|falls?|jumps?|rises?) (on|after|following)`),
	regexp.MustCompile(`(?i)q[1-4] earnings (snapshot|recap|review)`),
	regexp.MustCompile(`(?i)here'?s why .+ (is|are) (up|down)`),
	regexp.MustCompile(`(?i)\bwrap-?up\b`),
}

// RetrospectiveFilter drops items describing an event that has already
// been priced in, before any scoring work happens on them.
type RetrospectiveFilter struct{}

func NewRetrospectiveFilter() *RetrospectiveFilter { return &RetrospectiveFilter{} }

// IsRetrospective reports whether the title matches a known post-event
// pattern.
func (f *RetrospectiveFilter) IsRetrospective(title string) bool {
	for _, p := range retrospectivePatterns {
		if p.MatchString(title) {
			return true
		}
	}
	return false
}
