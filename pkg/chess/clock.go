// Package chess defines the board-level building blocks of a game session:
// colors, coordinate moves, the local rules oracle and the clock cadence.
package chess

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TickInterval is the granularity of the countdown
const TickInterval = time.Second

// Tick is one elapsed second of a running cadence. Generation identifies the
// Start call that produced it so ticks from a replaced cadence can be dropped.
type Tick struct {
	Generation uint64
	At         time.Time
}

// Clock produces a one-second cadence while running. It does not own any
// player times; the session applies each tick to whichever side is to move.
type Clock struct {
	clock clockwork.Clock

	ticker     clockwork.Ticker
	done       chan struct{}
	generation uint64
	isRunning  bool

	mutex sync.Mutex

	tickChan chan Tick
}

// NewClock creates a stopped clock. Pass clockwork.NewRealClock() in production.
func NewClock(clock clockwork.Clock) *Clock {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Clock{
		clock:    clock,
		tickChan: make(chan Tick),
	}
}

// Start begins a fresh cadence. Calling it while running replaces the current
// cadence, so at most one decrement per second is ever produced.
func (c *Clock) Start() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.stopLocked()

	c.generation++
	c.ticker = c.clock.NewTicker(TickInterval)
	c.done = make(chan struct{})
	c.isRunning = true

	go c.tickRoutine(c.ticker, c.done, c.generation)
}

// Stop halts the cadence. Safe to call when not running.
func (c *Clock) Stop() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.stopLocked()
}

func (c *Clock) stopLocked() {
	if !c.isRunning {
		return
	}

	c.ticker.Stop()
	close(c.done)
	c.isRunning = false
}

// IsRunning reports whether a cadence is active
func (c *Clock) IsRunning() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.isRunning
}

// IsCurrent reports whether t belongs to the active cadence
func (c *Clock) IsCurrent(t Tick) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.isRunning && t.Generation == c.generation
}

// GetTickChannel returns the channel ticks are delivered on
func (c *Clock) GetTickChannel() <-chan Tick {
	return c.tickChan
}

func (c *Clock) tickRoutine(ticker clockwork.Ticker, done <-chan struct{}, generation uint64) {
	for {
		select {
		case <-done:
			return
		case now := <-ticker.Chan():
			select {
			case c.tickChan <- Tick{Generation: generation, At: now}:
			case <-done:
				return
			}
		}
	}
}

// FormatClockTime formats remaining seconds as m:ss (e.g. "4:05")
func FormatClockTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}

	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
