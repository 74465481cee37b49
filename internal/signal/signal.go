// Package signal converts a classified, enriched ScoredItem into a trading
// Signal via the keyword-driven confidence pipeline.
package signal

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"catalystd/internal/classify"
	"catalystd/internal/config"
	"catalystd/internal/feedback"
	"catalystd/internal/models"
)

// regimeMultiplier scales confidence by market regime; a single conservative
// table is used across keyword categories rather than per-category tuning
// with no grounding source.
var regimeMultiplier = map[models.MarketRegime]float64{
	models.RegimeBull:       1.1,
	models.RegimeBear:       0.6,
	models.RegimeHighVol:    0.7,
	models.RegimeLowVol:     1.0,
	models.RegimeTransition: 0.85,
}

// Generator implements the confidence pipeline and stop/target sizing.
type Generator struct {
	Keywords    map[string]config.KeywordConfig
	Multipliers *feedback.MultiplierCache
	MinConfidence float64
}

func NewGenerator(keywords map[string]config.KeywordConfig, mult *feedback.MultiplierCache, minConfidence float64) *Generator {
	return &Generator{Keywords: keywords, Multipliers: mult, MinConfidence: minConfidence}
}

// Generate produces a Signal from a ScoredItem. now is injected so
// simulation replay can drive GeneratedAt from the virtual clock.
func (g *Generator) Generate(item *models.ScoredItem, now time.Time) (*models.Signal, error) {
	if item.Context == nil {
		return nil, fmt.Errorf("signal: item %s has no market context", item.NewsItemID)
	}

	if classify.HasClose(item.Tags) {
		return g.skipOrClose(item, now, models.SignalClose, "close_keyword")
	}
	if classify.HasAvoid(item.Tags) {
		return g.skipOrClose(item, now, models.SignalSkip, "avoid_keyword")
	}

	keywordTag, kwConfig, ok := g.bestKeyword(item.KeywordHits)
	if !ok {
		return g.skipOrClose(item, now, models.SignalSkip, "no_keyword_match")
	}

	breakdown := g.confidence(keywordTag, kwConfig, item)

	action := models.SignalBuy
	if breakdown.Final < g.MinConfidence {
		action = models.SignalSkip
	}

	sig := &models.Signal{
		ID:              uuid.NewString(),
		Ticker:          item.PrimaryTicker,
		Action:          action,
		Confidence:      breakdown.Final,
		RationaleTags:   append([]string{keywordTag}, item.Tags...),
		KeywordConfigID: keywordTag,
		NewsItemID:      item.NewsItemID,
		GeneratedAt:     now,
	}

	if action == models.SignalBuy {
		last := item.Context.LastPrice
		sig.StopLossPrice = last * (100 - kwConfig.DefaultStopPct) / 100
		sig.TakeProfitPrice = last * (100 + kwConfig.DefaultTargetPct) / 100
		sig.PositionSizePct = kwConfig.SizeMultiplier
	}

	return sig, nil
}

func (g *Generator) skipOrClose(item *models.ScoredItem, now time.Time, action models.SignalAction, reason string) (*models.Signal, error) {
	return &models.Signal{
		ID:            uuid.NewString(),
		Ticker:        item.PrimaryTicker,
		Action:        action,
		RationaleTags: append([]string{reason}, item.Tags...),
		NewsItemID:    item.NewsItemID,
		GeneratedAt:   now,
	}, nil
}

// bestKeyword picks the highest-priority keyword match present in both the
// item's tags and the configured table, with table order breaking ties
// (callers pass item.KeywordHits in table-match order already).
func (g *Generator) bestKeyword(hits []string) (string, config.KeywordConfig, bool) {
	for _, tag := range hits {
		if kc, ok := g.Keywords[tag]; ok {
			return tag, kc, true
		}
	}
	return "", config.KeywordConfig{}, false
}

// confidence applies base confidence, the sentiment-alignment bonus, the
// feedback, regime, and RVOL multipliers, then clamps to [0, 1].
func (g *Generator) confidence(keywordTag string, kw config.KeywordConfig, item *models.ScoredItem) models.ConfidenceBreakdown {
	base := kw.BaseConfidence

	sentimentBonus := 1.0
	if item.Sentiment > 0.5 {
		sentimentBonus = 1.2
	}

	perfMultiplier := 1.0
	if g.Multipliers != nil {
		perfMultiplier = g.Multipliers.Get(keywordTag)
	}

	regimeMult := 1.0
	if item.Context != nil {
		if m, ok := regimeMultiplier[item.Context.MarketRegime]; ok {
			regimeMult = m
		}
	}

	rvolMult := 1.0
	if item.Context != nil {
		switch item.Context.RVOLCategory {
		case models.RVOLHigh:
			rvolMult = 1.2
		case models.RVOLModerate:
			rvolMult = 1.0
		case models.RVOLLow:
			rvolMult = 0.7
		}
	}

	final := base * sentimentBonus * perfMultiplier * regimeMult * rvolMult
	final = math.Max(0, math.Min(1, final))

	return models.ConfidenceBreakdown{
		Base:                  base,
		SentimentBonus:        sentimentBonus,
		PerformanceMultiplier: perfMultiplier,
		RegimeMultiplier:      regimeMult,
		RVOLMultiplier:        rvolMult,
		Final:                 final,
	}
}
