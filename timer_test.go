package main

import (
	"testing"
	"time"
)

func TestTimerOneShot(t *testing.T) {
	tm := NewTimer(100 * time.Millisecond)
	tm.Tick(60 * time.Millisecond)
	if tm.Finished || tm.JustFinished {
		t.Fatal("timer finished early")
	}
	if tm.Remaining() != 40*time.Millisecond {
		t.Errorf("remaining = %v, want 40ms", tm.Remaining())
	}

	tm.Tick(60 * time.Millisecond)
	if !tm.Finished || !tm.JustFinished {
		t.Fatal("timer should have just finished")
	}
	if tm.Elapsed != tm.Duration {
		t.Errorf("elapsed = %v, want clamp to %v", tm.Elapsed, tm.Duration)
	}

	tm.Tick(time.Second)
	if !tm.Finished || tm.JustFinished {
		t.Error("one-shot timer should stay finished without re-firing")
	}
}

func TestTimerRepeating(t *testing.T) {
	tm := NewRepeatingTimer(100 * time.Millisecond)
	tm.Tick(250 * time.Millisecond)
	if !tm.JustFinished {
		t.Fatal("expected completion")
	}
	if tm.Elapsed != 50*time.Millisecond {
		t.Errorf("elapsed = %v, want 50ms carried over", tm.Elapsed)
	}

	tm.Tick(10 * time.Millisecond)
	if tm.Finished || tm.JustFinished {
		t.Error("repeating timer should restart after firing")
	}
	if tm.Elapsed != 60*time.Millisecond {
		t.Errorf("elapsed = %v, want 60ms", tm.Elapsed)
	}
}

func TestTimerResetAndFinish(t *testing.T) {
	tm := NewTimer(time.Second)
	tm.Finish()
	if !tm.Finished || tm.JustFinished || tm.Remaining() != 0 {
		t.Errorf("Finish: got %+v", tm)
	}

	tm.Reset()
	if tm.Finished || tm.Elapsed != 0 {
		t.Errorf("Reset: got %+v", tm)
	}
}

func TestTimerExactAccumulation(t *testing.T) {
	// 30 steps of 25ms land exactly on 750ms
	tm := NewTimer(RoundEndDelay)
	for i := 0; i < 29; i++ {
		tm.Tick(25 * time.Millisecond)
		if tm.Finished {
			t.Fatalf("finished after %d ticks", i+1)
		}
	}
	tm.Tick(25 * time.Millisecond)
	if !tm.JustFinished {
		t.Error("expected completion on the 30th tick")
	}
}
