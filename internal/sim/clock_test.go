package sim

import (
	"testing"
	"time"
)

func TestVirtualClockSleepAdvancesAtSpeed(t *testing.T) {
	start := time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	c := NewVirtualClock(start, 100) // 100x speed

	before := time.Now()
	c.Sleep(1 * time.Second) // virtual: +1s; real: ~10ms
	elapsed := time.Since(before)

	if got := c.Now(); !got.Equal(start.Add(1 * time.Second)) {
		t.Fatalf("virtual time = %v, want %v", got, start.Add(1*time.Second))
	}
	if elapsed > 200*time.Millisecond {
		t.Fatalf("real sleep took %v, expected acceleration well under 200ms", elapsed)
	}
}

func TestVirtualClockZeroOrNegativeSpeedDefaultsToOne(t *testing.T) {
	start := time.Now().UTC()
	c := NewVirtualClock(start, 0)
	if c.speed != 1 {
		t.Fatalf("speed = %v, want 1", c.speed)
	}
}

func TestVirtualClockJumpToNeverGoesBackward(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewVirtualClock(start, 1)

	c.JumpTo(start.Add(time.Hour))
	if got := c.Now(); !got.Equal(start.Add(time.Hour)) {
		t.Fatalf("after forward jump, now = %v, want %v", got, start.Add(time.Hour))
	}

	c.JumpTo(start) // earlier than current; must be ignored
	if got := c.Now(); !got.Equal(start.Add(time.Hour)) {
		t.Fatalf("JumpTo moved clock backward: now = %v", got)
	}
}
