// Package feedback computes per-keyword performance multipliers from the
// outcome log — moving-average performance attribution, not learning.
package feedback

import (
	"math"
	"sync"
	"time"

	"catalystd/internal/models"
)

const (
	defaultWindow       = 30 * 24 * time.Hour
	defaultMinSample    = 10
	defaultSmoothing    = 0.3
	defaultBoundMin     = 0.7
	defaultBoundMax     = 1.3
	defaultRefreshTTL   = 60 * time.Minute
)

// OutcomeReader reads the closed-trade history a keyword's multiplier is
// derived from; backed by internal/storage in production.
type OutcomeReader interface {
	OutcomesSince(keywordTag string, since time.Time) ([]models.TradeOutcome, error)
}

// Tuning holds the operator-adjustable multiplier knobs (FEEDBACK_* env
// options). Zero values fall back to the package defaults above.
type Tuning struct {
	MinSample int
	Smoothing float64
	BoundMin  float64
	BoundMax  float64
	TTL       time.Duration
}

// MultiplierCache computes and TTL-caches per-keyword confidence
// multipliers. Readers never block; refresh runs as an explicit call
// (scheduled by the cycle scheduler as a background task) rather than
// inline on every read.
type MultiplierCache struct {
	reader     OutcomeReader
	window     time.Duration
	minSample  int
	smoothing  float64
	boundMin   float64
	boundMax   float64
	ttl        time.Duration

	mu      sync.RWMutex
	entries map[string]cachedMultiplier
}

type cachedMultiplier struct {
	value     float64
	expiresAt time.Time
}

func NewMultiplierCache(reader OutcomeReader, tuning Tuning) *MultiplierCache {
	if tuning.MinSample <= 0 {
		tuning.MinSample = defaultMinSample
	}
	if tuning.Smoothing <= 0 {
		tuning.Smoothing = defaultSmoothing
	}
	if tuning.BoundMin <= 0 {
		tuning.BoundMin = defaultBoundMin
	}
	if tuning.BoundMax <= 0 {
		tuning.BoundMax = defaultBoundMax
	}
	if tuning.TTL <= 0 {
		tuning.TTL = defaultRefreshTTL
	}
	return &MultiplierCache{
		reader:    reader,
		window:    defaultWindow,
		minSample: tuning.MinSample,
		smoothing: tuning.Smoothing,
		boundMin:  tuning.BoundMin,
		boundMax:  tuning.BoundMax,
		ttl:       tuning.TTL,
		entries:   make(map[string]cachedMultiplier),
	}
}

// Get returns the cached multiplier for a keyword tag, defaulting to 1.0
// (neutral) when nothing is cached yet. Callers that need a guaranteed
// fresh value should call Refresh first.
func (c *MultiplierCache) Get(keywordTag string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[keywordTag]
	if !ok || time.Now().After(e.expiresAt) {
		return 1.0
	}
	return e.value
}

// Refresh recomputes the multiplier for keywordTag from the outcome log and
// stores it with a fresh TTL. Safe to call concurrently with Get.
func (c *MultiplierCache) Refresh(keywordTag string) error {
	since := time.Now().Add(-c.window)
	outcomes, err := c.reader.OutcomesSince(keywordTag, since)
	if err != nil {
		return err
	}

	value := c.compute(outcomes)

	c.mu.Lock()
	c.entries[keywordTag] = cachedMultiplier{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

// compute implements the blend-to-baseline formula: below the minimum
// sample size the multiplier stays neutral (1.0); otherwise a raw score
// blending win-rate and mean return vs. baseline is smoothed toward 1.0 and
// clamped to the conservative deployed bounds.
func (c *MultiplierCache) compute(outcomes []models.TradeOutcome) float64 {
	if len(outcomes) < c.minSample {
		return 1.0
	}

	var wins int
	var returnSum float64
	for _, o := range outcomes {
		if o.Win {
			wins++
		}
		returnSum += o.RealizedPct
	}
	winRate := float64(wins) / float64(len(outcomes))
	avgReturn := returnSum / float64(len(outcomes))

	// raw blends win-rate (centered on 0.5 baseline) and mean return
	// (centered on 0 baseline), each mapped onto a multiplier-like scale
	// around 1.0.
	winRateComponent := 1.0 + (winRate-0.5)*1.0
	returnComponent := 1.0 + avgReturn*2.0
	raw := (winRateComponent + returnComponent) / 2

	multiplier := 1.0 + c.smoothing*(raw-1.0)
	return math.Max(c.boundMin, math.Min(c.boundMax, multiplier))
}
