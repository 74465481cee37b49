package alertsink

import (
	"testing"

	"catalystd/internal/models"
)

func TestBuildPayloadColorHintNegativeIsRed(t *testing.T) {
	item := &models.ScoredItem{
		PrimaryTicker: "XYZ",
		Sentiment:     -0.6,
		AlertType:     models.AlertNegative,
		Context:       &models.MarketContext{ChangePct: 0.05},
	}
	p := BuildPayload("alerts", "XYZ Corp Announces $100M Public Offering", item, nil)
	if p.ColorHint != ColorRed {
		t.Errorf("color hint = %v, want red for a NEGATIVE alert regardless of price change", p.ColorHint)
	}
}

func TestBuildPayloadColorHintPositiveGreenOnUpMove(t *testing.T) {
	item := &models.ScoredItem{
		PrimaryTicker: "XYZBIO",
		Sentiment:     0.9,
		AlertType:     models.AlertPositive,
		Context:       &models.MarketContext{ChangePct: 0.03},
	}
	p := BuildPayload("alerts", "XYZBIO Announces FDA Approval", item, nil)
	if p.ColorHint != ColorGreen {
		t.Errorf("color hint = %v, want green", p.ColorHint)
	}
}

func TestBuildPayloadColorHintNonNegativeBlueOnDownMove(t *testing.T) {
	item := &models.ScoredItem{
		PrimaryTicker: "ABC",
		Sentiment:     0.2,
		AlertType:     models.AlertPositive,
		Context:       &models.MarketContext{ChangePct: -0.01},
	}
	p := BuildPayload("alerts", "ABC Corp Announces Closing of Offering", item, nil)
	if p.ColorHint != ColorBlue {
		t.Errorf("color hint = %v, want blue for a non-negative alert on a down move", p.ColorHint)
	}
}

func TestBuildPayloadBadgesCaptureMarketContext(t *testing.T) {
	item := &models.ScoredItem{
		PrimaryTicker:       "XYZ",
		SentimentConfidence: 0.85,
		Context: &models.MarketContext{
			RVOLCategory:   models.RVOLHigh,
			VWAPBreak:      true,
			SectorStrength: models.SectorStrong,
		},
	}
	p := BuildPayload("alerts", "t", item, nil)
	want := map[string]bool{"high_rvol": true, "vwap_break": true, "strong_sector": true, "high_confidence": true}
	if len(p.Badges) != len(want) {
		t.Fatalf("badges = %v, want 4 badges", p.Badges)
	}
	for _, b := range p.Badges {
		if !want[b] {
			t.Errorf("unexpected badge %q", b)
		}
	}
}
