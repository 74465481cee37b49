package enrich

import "sync"

// vwapState is one ticker's running session accumulator.
type vwapState struct {
	cumPriceVol float64
	cumVolume   float64
	wasAbove    bool
	seen        bool
}

// VWAPTracker maintains a rolling cumulative-volume-weighted price per
// ticker for the current session and detects a break: price crossing below
// VWAP after having been above it (long trades), or the reverse.
type VWAPTracker struct {
	mu    sync.Mutex
	state map[string]*vwapState
}

func NewVWAPTracker() *VWAPTracker {
	return &VWAPTracker{state: make(map[string]*vwapState)}
}

// Update feeds one bar's (price, volume) into the session VWAP for ticker
// and reports whether a break occurred on this update.
func (v *VWAPTracker) Update(ticker string, price, volume float64) (vwap float64, brokeVWAP bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, ok := v.state[ticker]
	if !ok {
		s = &vwapState{}
		v.state[ticker] = s
	}

	s.cumPriceVol += price * volume
	s.cumVolume += volume
	if s.cumVolume == 0 {
		return 0, false
	}
	vwap = s.cumPriceVol / s.cumVolume

	isAbove := price >= vwap
	if s.seen && s.wasAbove != isAbove {
		brokeVWAP = true
	}
	s.wasAbove = isAbove
	s.seen = true
	return vwap, brokeVWAP
}

// ATR computes a simple average true range over a slice of (high, low,
// close) bars using Wilder's method approximated with a plain mean. One
// indicator doesn't justify a TA library.
func ATR(highs, lows, closes []float64) float64 {
	n := len(highs)
	if n == 0 || n != len(lows) || n != len(closes) {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		tr := highs[i] - lows[i]
		if i > 0 {
			hc := highs[i] - closes[i-1]
			if hc < 0 {
				hc = -hc
			}
			lc := lows[i] - closes[i-1]
			if lc < 0 {
				lc = -lc
			}
			if hc > tr {
				tr = hc
			}
			if lc > tr {
				tr = lc
			}
		}
		sum += tr
	}
	return sum / float64(n)
}
