package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"catalystd/internal/alertsink"
)

// Reporter owns the two supplemental operator-facing jobs: a daily
// end-of-day summary of closed trades,
// and a periodic heartbeat proving the process is still alive.
type Reporter struct {
	Sink         alertsink.Sink
	AlertChannel string

	startedAt     time.Time
	lastHeartbeat time.Time
	lastEODDate   string
}

// NewReporter starts tracking from now.
func NewReporter(sink alertsink.Sink, channel string) *Reporter {
	now := time.Now().UTC()
	return &Reporter{Sink: sink, AlertChannel: channel, startedAt: now, lastHeartbeat: now}
}

// MaybeHeartbeat posts a liveness ping if more than interval has elapsed
// since the last one.
func (r *Reporter) MaybeHeartbeat(now time.Time, interval time.Duration, cyclesRun int) {
	if now.Sub(r.lastHeartbeat) < interval {
		return
	}
	r.lastHeartbeat = now
	if r.Sink == nil {
		return
	}
	uptime := now.Sub(r.startedAt).Round(time.Minute)
	msg := fmt.Sprintf("heartbeat: alive for %s, %d cycles run", uptime, cyclesRun)
	if err := r.Sink.PostAlert(r.AlertChannel, alertsink.Payload{Channel: r.AlertChannel, Title: msg}); err != nil {
		log.Printf("scheduler: heartbeat post failed: %v", err)
	}
}

// MaybeEOD posts a summary of the day's closed positions once per calendar
// day, the first time it's called after market-day rollover.
func (r *Reporter) MaybeEOD(ctx context.Context, now time.Time, fetch func(since time.Time) (int, float64, error)) {
	day := now.Format("2006-01-02")
	if day == r.lastEODDate {
		return
	}
	r.lastEODDate = day

	since := now.Truncate(24 * time.Hour)
	n, pnl, err := fetch(since)
	if err != nil {
		log.Printf("scheduler: EOD report fetch failed: %v", err)
		return
	}
	if n == 0 {
		return
	}
	if r.Sink == nil {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "EOD report %s: %d positions closed, net P&L %.2f", day, n, pnl)
	if err := r.Sink.PostAlert(r.AlertChannel, alertsink.Payload{Channel: r.AlertChannel, Title: b.String()}); err != nil {
		log.Printf("scheduler: EOD report post failed: %v", err)
	}
}
