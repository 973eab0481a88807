package engine

import (
	"sync"
	"time"
)

// TimeSource reports the current time in seconds. Only differences between
// readings are meaningful.
type TimeSource interface {
	Now() float64
}

// WallClock reads the process monotonic clock, optionally scaled.
type WallClock struct {
	origin time.Time
	speed  float64
}

// NewWallClock returns a real-time clock. speed > 1 runs sessions faster
// than real time; speed <= 0 means 1.
func NewWallClock(speed float64) *WallClock {
	if speed <= 0 {
		speed = 1
	}
	return &WallClock{origin: time.Now(), speed: speed}
}

// Now returns scaled seconds since the clock was created.
func (c *WallClock) Now() float64 {
	return time.Since(c.origin).Seconds() * c.speed
}

// Speed returns the scale factor.
func (c *WallClock) Speed() float64 { return c.speed }

// VirtualClock only moves when told to. Tests and batch runs step it.
type VirtualClock struct {
	mu  sync.Mutex
	now float64
}

// Now returns the virtual time.
func (c *VirtualClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d seconds. Negative d is ignored.
func (c *VirtualClock) Advance(d float64) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}
