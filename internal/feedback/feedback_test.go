package feedback

import (
	"testing"
	"time"

	"catalystd/internal/models"
)

type stubReader struct {
	outcomes []models.TradeOutcome
	err      error
}

func (r stubReader) OutcomesSince(keywordTag string, since time.Time) ([]models.TradeOutcome, error) {
	return r.outcomes, r.err
}

func outcomesOf(n int, winRate float64, avgReturn float64) []models.TradeOutcome {
	out := make([]models.TradeOutcome, n)
	wins := int(float64(n) * winRate)
	for i := 0; i < n; i++ {
		out[i] = models.TradeOutcome{
			KeywordTag:  "fda",
			Win:         i < wins,
			RealizedPct: avgReturn,
		}
	}
	return out
}

func TestMultiplierBelowMinSampleStaysNeutral(t *testing.T) {
	c := NewMultiplierCache(stubReader{outcomes: outcomesOf(defaultMinSample-1, 0.8, 0.1)}, Tuning{})
	if err := c.Refresh("fda"); err != nil {
		t.Fatal(err)
	}
	if got := c.Get("fda"); got != 1.0 {
		t.Errorf("multiplier = %v, want 1.0 below min sample", got)
	}
}

func TestMultiplierAtExactlyMinSampleAdjusts(t *testing.T) {
	c := NewMultiplierCache(stubReader{outcomes: outcomesOf(defaultMinSample, 0.9, 0.15)}, Tuning{})
	if err := c.Refresh("fda"); err != nil {
		t.Fatal(err)
	}
	got := c.Get("fda")
	if got == 1.0 {
		t.Error("expected a non-neutral multiplier once the minimum sample size is reached")
	}
	if got < defaultBoundMin || got > defaultBoundMax {
		t.Errorf("multiplier %v out of deployed bounds [%v, %v]", got, defaultBoundMin, defaultBoundMax)
	}
}

func TestMultiplierClampsToDeployedBounds(t *testing.T) {
	// Extreme win rate and return should still clamp within [0.7, 1.3].
	c := NewMultiplierCache(stubReader{outcomes: outcomesOf(50, 1.0, 2.0)}, Tuning{})
	_ = c.Refresh("fda")
	got := c.Get("fda")
	if got > defaultBoundMax {
		t.Errorf("multiplier %v exceeds deployed max %v", got, defaultBoundMax)
	}

	c2 := NewMultiplierCache(stubReader{outcomes: outcomesOf(50, 0.0, -2.0)}, Tuning{})
	_ = c2.Refresh("fda")
	got2 := c2.Get("fda")
	if got2 < defaultBoundMin {
		t.Errorf("multiplier %v below deployed min %v", got2, defaultBoundMin)
	}
}

func TestGetReturnsNeutralWhenUncached(t *testing.T) {
	c := NewMultiplierCache(stubReader{}, Tuning{})
	if got := c.Get("never-refreshed"); got != 1.0 {
		t.Errorf("multiplier = %v, want 1.0 for an uncached keyword", got)
	}
}

func TestTuningOverridesDefaults(t *testing.T) {
	// A min-sample of 3 makes 3 outcomes enough to adjust; tight bounds
	// then clamp the extreme result.
	c := NewMultiplierCache(stubReader{outcomes: outcomesOf(3, 1.0, 2.0)}, Tuning{
		MinSample: 3,
		BoundMin:  0.9,
		BoundMax:  1.1,
	})
	if err := c.Refresh("fda"); err != nil {
		t.Fatal(err)
	}
	if got := c.Get("fda"); got != 1.1 {
		t.Errorf("multiplier = %v, want clamp to the configured max 1.1", got)
	}

	// One outcome short of the configured minimum stays neutral.
	c2 := NewMultiplierCache(stubReader{outcomes: outcomesOf(2, 1.0, 2.0)}, Tuning{MinSample: 3})
	if err := c2.Refresh("fda"); err != nil {
		t.Fatal(err)
	}
	if got := c2.Get("fda"); got != 1.0 {
		t.Errorf("multiplier = %v, want 1.0 below the configured min sample", got)
	}
}
