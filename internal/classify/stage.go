package classify

import "regexp"

// stageRule is one offering-stage regex with the sentiment override and
// whether it contributes to a negative alert type.
type stageRule struct {
	stage     string
	re        *regexp.Regexp
	sentiment float64
	negative  bool
}

// stageRules is the offering-stage override table: closing/debt are
// commonly mislabelled as dilutive by generic sentiment models, so a
// detected stage overrides the aggregated sentiment outright.
var stageRules = []stageRule{
	{"debt", regexp.MustCompile(`(?i)\b(notes?|bonds?|debt)\b`), 0.3, false},
	{"closing", regexp.MustCompile(`(?i)\bclosing\b`), 0.2, false},
	{"pricing", regexp.MustCompile(`(?i)\bpricing\b`), -0.5, true},
	{"announcement", regexp.MustCompile(`(?i)\bannounc(es|ed|ement)\b`), -0.6, true},
	{"upsize", regexp.MustCompile(`(?i)\bupsiz(e|ed|ing)\b`), -0.7, true},
}

// stageDetectConfidence is a fixed confidence for a regex hit; the
// override only gates on a single threshold, so per-pattern variation
// would buy nothing.
const stageDetectConfidence = 0.85

// minStageConfidence is the detection confidence below which no override
// applies.
const minStageConfidence = 0.7

// offeringLanguage gates stage detection: the stage rules only apply to
// text that mentions a securities offering or placement.
var offeringLanguage = regexp.MustCompile(`(?i)\b(offering|placement)\b`)

// OfferingStageCorrector detects an offering stage in an item's text and,
// when detected with sufficient confidence, overrides the aggregated
// sentiment before alert-type assignment.
type OfferingStageCorrector struct{}

func NewOfferingStageCorrector() *OfferingStageCorrector { return &OfferingStageCorrector{} }

// Correct returns (overriddenSentiment, stageTag, negative, applied).
// applied is false when the text has no offering language, no stage matched,
// or confidence was below threshold, in which case callers must keep the
// original sentiment unchanged.
func (c *OfferingStageCorrector) Correct(title, summary string) (sentiment float64, stageTag string, negative bool, applied bool) {
	text := title + " " + summary
	if !offeringLanguage.MatchString(text) {
		return 0, "", false, false
	}
	for _, rule := range stageRules {
		if rule.re.MatchString(text) {
			if stageDetectConfidence >= minStageConfidence {
				return rule.sentiment, rule.stage, rule.negative, true
			}
			return 0, "", false, false
		}
	}
	return 0, "", false, false
}
