// Package engine runs dream sessions: a fixed-period ticker drives the
// Director, which owns the session state machine and the event log.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultInterval is the production tick period.
const DefaultInterval = time.Second

// Ticker calls OnTick at a fixed interval until the context is cancelled or
// OnTick returns false.
type Ticker struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Interval time.Duration // Tick period

	OnTick func(tick uint64) bool
}

// NewTicker creates a ticker with the given period.
func NewTicker(interval time.Duration, onTick func(uint64) bool) *Ticker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Ticker{Interval: interval, OnTick: onTick}
}

// Run blocks until ctx is done or OnTick asks to stop.
func (t *Ticker) Run(ctx context.Context) {
	slog.Debug("ticker started", "interval", t.Interval)

	for {
		start := time.Now()

		if !t.step() {
			break
		}

		// Sleep for the remainder of the tick interval.
		wait := t.Interval - time.Since(start)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Debug("ticker cancelled", "tick", t.Tick)
			return
		case <-timer.C:
		}
	}

	slog.Debug("ticker stopped", "tick", t.Tick)
}

func (t *Ticker) step() bool {
	t.Tick++
	if t.OnTick == nil {
		return true
	}
	return t.OnTick(t.Tick)
}

// Clock formats a session time as m:ss.
func Clock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
