package main

import "time"

// Timer counts simulation time in whole nanoseconds so ticking it is exact
// and reproducible on every peer.
type Timer struct {
	Duration     time.Duration `msgpack:"d"`
	Elapsed      time.Duration `msgpack:"e"`
	Repeating    bool          `msgpack:"r"`
	Finished     bool          `msgpack:"f"`
	JustFinished bool          `msgpack:"j"`
}

// NewTimer creates a one-shot timer.
func NewTimer(d time.Duration) Timer {
	return Timer{Duration: d}
}

// NewRepeatingTimer creates a timer that wraps around each time it completes.
func NewRepeatingTimer(d time.Duration) Timer {
	return Timer{Duration: d, Repeating: true}
}

// Tick advances the timer by dt.
func (t *Timer) Tick(dt time.Duration) {
	t.JustFinished = false
	if t.Finished {
		if !t.Repeating {
			return
		}
		t.Finished = false
	}

	t.Elapsed += dt
	if t.Elapsed < t.Duration {
		return
	}
	t.Finished = true
	t.JustFinished = true
	if t.Repeating && t.Duration > 0 {
		t.Elapsed %= t.Duration
	} else {
		t.Elapsed = t.Duration
	}
}

// Reset restarts the timer from zero.
func (t *Timer) Reset() {
	t.Elapsed = 0
	t.Finished = false
	t.JustFinished = false
}

// Finish jumps to the end without reporting JustFinished.
func (t *Timer) Finish() {
	t.Elapsed = t.Duration
	t.Finished = true
}

// Remaining returns the time left until the next completion.
func (t Timer) Remaining() time.Duration {
	return t.Duration - t.Elapsed
}
