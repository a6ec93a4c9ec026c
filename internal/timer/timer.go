// Package timer implements the interval-timer primitive the state machine
// uses to gate polling cadences (inventory sync, update sync, retry backoff)
// and to coalesce sleeps across more than one of those cadences.
package timer

import "time"

// IntervalTimer fires once every intervalSeconds, measured from the last
// time it fired (not wall-clock boundaries). An interval of 0 means
// "always ready" — isItTime never blocks the caller across iterations.
type IntervalTimer struct {
	intervalSeconds int
	nextTriggerAt   time.Time
}

// New creates a timer that is immediately due.
func New(intervalSeconds int) *IntervalTimer {
	return &IntervalTimer{
		intervalSeconds: intervalSeconds,
		nextTriggerAt:   time.Now(),
	}
}

// IsItTime reports whether the timer has reached its deadline. On a true
// result it immediately reschedules for now+interval so repeated calls in
// the same outer loop iteration don't re-fire.
func (t *IntervalTimer) IsItTime() bool {
	now := time.Now()
	if now.Before(t.nextTriggerAt) {
		return false
	}
	t.nextTriggerAt = now.Add(time.Duration(t.intervalSeconds) * time.Second)
	return true
}

// SecondsTillNext returns the time remaining until the next deadline. The
// value may be negative when the timer is overdue.
func (t *IntervalTimer) SecondsTillNext() float64 {
	return time.Until(t.nextTriggerAt).Seconds()
}

// Sleep blocks for min(t.SecondsTillNext(), other.SecondsTillNext()), or
// returns immediately if that minimum is at or below zero. other may be
// nil to sleep on a single timer. This is how the idle loop coalesces
// the inventory and update cadences into a single wakeup.
func Sleep(primary *IntervalTimer, other *IntervalTimer) {
	wait := primary.SecondsTillNext()
	if other != nil {
		if o := other.SecondsTillNext(); o < wait {
			wait = o
		}
	}
	if wait <= 0 {
		return
	}
	time.Sleep(time.Duration(wait * float64(time.Second)))
}
