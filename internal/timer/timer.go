// Package timer derives the remaining time of a timed attempt purely from
// its start timestamp and the quiz duration. There is no server-resident
// countdown: every tick recomputes from the wall clock, so a suspended host
// (sleep, stopped container) can never desynchronize the reported value from
// true elapsed time.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// LowTimeThreshold is the remaining-seconds mark at which the low-time
// signal latches on. Once crossed it never flaps back off.
const LowTimeThreshold = 300

// Remaining returns the seconds left for an attempt started at startedAt
// with the given duration, clamped at zero. A nil duration means the attempt
// is untimed; callers should treat the controller as inert in that case.
func Remaining(startedAt time.Time, durationMinutes *int, now time.Time) (seconds int, timed bool) {
	if durationMinutes == nil {
		return 0, false
	}
	elapsed := int(now.Sub(startedAt) / time.Second)
	left := *durationMinutes*60 - elapsed
	if left < 0 {
		left = 0
	}
	return left, true
}

// Controller drives the countdown of one attempt. It ticks on a fixed
// cadence, recomputing remaining time from the wall clock each tick, fires
// OnExpire exactly once when remaining reaches zero, and latches OnLowTime
// once remaining drops to LowTimeThreshold or below.
//
// The controller is owned by the session context that created it; cancelling
// that context (or calling Stop) tears the tick loop down deterministically.
type Controller struct {
	startedAt       time.Time
	durationMinutes *int
	tick            time.Duration

	// OnExpire triggers the attempt submission. Guarded so that multiple
	// ticks observing remaining == 0 fire it a single time.
	OnExpire func()
	// OnLowTime fires once when the low-time threshold is crossed.
	OnLowTime func(remainingSeconds int)

	now        func() time.Time
	expireOnce sync.Once
	lowOnce    sync.Once

	mu      sync.Mutex
	stop    context.CancelFunc
	stopped chan struct{}
}

// NewController builds a controller for an attempt. tick must be positive.
func NewController(startedAt time.Time, durationMinutes *int, tick time.Duration) *Controller {
	if tick <= 0 {
		tick = time.Second
	}
	return &Controller{
		startedAt:       startedAt,
		durationMinutes: durationMinutes,
		tick:            tick,
		now:             time.Now,
	}
}

// Timed reports whether the attempt has a duration at all.
func (c *Controller) Timed() bool { return c.durationMinutes != nil }

// Remaining returns the current remaining seconds. Untimed attempts always
// report zero with timed=false ("no limit").
func (c *Controller) Remaining() (int, bool) {
	return Remaining(c.startedAt, c.durationMinutes, c.now())
}

// Run starts the tick loop. It returns immediately; the loop ends when ctx
// is cancelled, Stop is called, or the attempt expires. Running an untimed
// controller is a no-op.
func (c *Controller) Run(ctx context.Context) {
	if !c.Timed() {
		return
	}

	c.mu.Lock()
	if c.stopped != nil {
		c.mu.Unlock()
		return // already running
	}
	ctx, cancel := context.WithCancel(ctx)
	c.stop = cancel
	c.stopped = make(chan struct{})
	c.mu.Unlock()

	go func() {
		defer close(c.stopped)
		defer cancel()

		ticker := time.NewTicker(c.tick)
		defer ticker.Stop()

		// evaluate once up front so an already-expired attempt does not
		// wait a full tick before auto-submitting
		if c.evaluate() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.evaluate() {
					return
				}
			}
		}
	}()
}

// evaluate recomputes remaining time and fires signals; returns true once
// the attempt has expired and the loop should end.
func (c *Controller) evaluate() bool {
	left, timed := Remaining(c.startedAt, c.durationMinutes, c.now())
	if !timed {
		return true
	}
	if left <= LowTimeThreshold && left > 0 {
		c.lowOnce.Do(func() {
			if c.OnLowTime != nil {
				c.OnLowTime(left)
			}
		})
	}
	if left == 0 {
		c.expireOnce.Do(func() {
			log.Info().Time("started_at", c.startedAt).Msg("Attempt timer expired, triggering auto-submit")
			if c.OnExpire != nil {
				c.OnExpire()
			}
		})
		return true
	}
	return false
}

// Stop tears the tick loop down and waits for it to exit. Safe to call more
// than once and before Run.
func (c *Controller) Stop() {
	c.mu.Lock()
	stop, stopped := c.stop, c.stopped
	c.mu.Unlock()
	if stop == nil {
		return
	}
	stop()
	<-stopped
}
