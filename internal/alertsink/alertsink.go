// Package alertsink implements the outbound alert capability: the
// core emits a structured payload (ticker, sentiment, gauge data, badges,
// catalyst tags, color hint); rendering the payload into an embed or chat
// message is the excluded collaborator's job, not ours.
package alertsink

import (
	"catalystd/internal/models"
)

// ColorHint is the visual border hint a downstream renderer applies.
type ColorHint string

const (
	ColorRed   ColorHint = "red"
	ColorGreen ColorHint = "green"
	ColorBlue  ColorHint = "blue"
)

// Payload is the structured alert the core hands to a Sink. Every field the
// excluded renderer might want is precomputed here; the renderer itself
// never touches a ScoredItem or MarketContext directly.
type Payload struct {
	Channel        string           `json:"channel"`
	Ticker         string           `json:"ticker"`
	Title          string           `json:"title"`
	Sentiment      float64          `json:"sentiment"`
	SentimentGauge float64          `json:"sentiment_gauge"` // same value, full float64 precision for any N-bubble renderer
	Badges         []string         `json:"badges"`
	CatalystTags   []string         `json:"catalyst_tags"`
	AlertType      models.AlertType `json:"alert_type"`
	ColorHint      ColorHint        `json:"color_hint"`
	Action         models.SignalAction `json:"action,omitempty"`
	Confidence     float64          `json:"confidence,omitempty"`
	ChangePct      float64          `json:"change_pct"`
}

// Sink is the outbound alert capability: PostAlert(channel, payload).
type Sink interface {
	PostAlert(channel string, payload Payload) error
}

// BuildPayload assembles the structured alert for a scored, enriched item
// and (optionally) the signal generated from it. Color-hint rule:
// alert_type=NEGATIVE -> red; else green/blue based on price change.
func BuildPayload(channel, title string, item *models.ScoredItem, sig *models.Signal) Payload {
	p := Payload{
		Channel:        channel,
		Ticker:         item.PrimaryTicker,
		Title:          title,
		Sentiment:      item.Sentiment,
		SentimentGauge: item.Sentiment,
		CatalystTags:   item.Tags,
		AlertType:      item.AlertType,
		Badges:         badgesFor(item),
	}
	if item.Context != nil {
		p.ChangePct = item.Context.ChangePct
	}
	if sig != nil {
		p.Action = sig.Action
		p.Confidence = sig.Confidence
	}
	p.ColorHint = colorHint(item.AlertType, p.ChangePct)
	return p
}

func colorHint(alertType models.AlertType, changePct float64) ColorHint {
	if alertType == models.AlertNegative {
		return ColorRed
	}
	if changePct >= 0 {
		return ColorGreen
	}
	return ColorBlue
}

func badgesFor(item *models.ScoredItem) []string {
	var badges []string
	if item.Context != nil {
		switch item.Context.RVOLCategory {
		case models.RVOLHigh:
			badges = append(badges, "high_rvol")
		}
		if item.Context.VWAPBreak {
			badges = append(badges, "vwap_break")
		}
		if item.Context.SectorStrength == models.SectorStrong {
			badges = append(badges, "strong_sector")
		}
	}
	if item.SentimentConfidence >= 0.8 {
		badges = append(badges, "high_confidence")
	}
	return badges
}
