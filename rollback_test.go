package main

import (
	"errors"
	"testing"
)

// lateInput is seat 1's input pattern; it changes often so that
// predictions are regularly wrong.
func lateInput(f uint32) Input {
	var in Input
	if f%7 < 3 {
		in |= InputRight
	}
	if f == 8 {
		in |= InputDash
	}
	if f%50 > 20 && f%50 < 30 {
		in |= InputJump
	}
	return in
}

func onTimeInput(f uint32) Input {
	var in Input
	if f%10 < 5 {
		in |= InputLeft
	}
	if f == 3 {
		in |= InputJump
	}
	return in
}

func TestRollbackMatchesDirectSimulation(t *testing.T) {
	const frames, lag = 120, 5
	tuning := DefaultTuning()

	direct, _ := NewSimState(2, tuning)
	for f := uint32(0); f < frames; f++ {
		direct.Advance([]Input{onTimeInput(f), lateInput(f)}, TickDuration)
	}

	state, _ := NewSimState(2, tuning)
	journal := NewReplayJournal(2, tuning, TickDuration)
	rb := NewRollback(state, DefaultRollbackWindow, TickDuration, journal)
	for f := uint32(0); f < frames; f++ {
		if err := rb.AddInput(0, f, onTimeInput(f)); err != nil {
			t.Fatalf("frame %d: %v", f, err)
		}
		if f >= lag {
			if err := rb.AddInput(1, f-lag, lateInput(f-lag)); err != nil {
				t.Fatalf("late input %d: %v", f-lag, err)
			}
		}
		if err := rb.Tick(); err != nil {
			t.Fatalf("tick %d: %v", f, err)
		}
	}
	for f := uint32(frames - lag); f < frames; f++ {
		if err := rb.AddInput(1, f, lateInput(f)); err != nil {
			t.Fatalf("late input %d: %v", f, err)
		}
	}
	if err := rb.Flush(); err != nil {
		t.Fatal(err)
	}

	if rb.Rollbacks() == 0 {
		t.Error("expected at least one resimulation")
	}
	want, _ := Checksum(direct)
	got, _ := Checksum(rb.State())
	if got != want {
		t.Fatalf("rollback checksum %016x, direct %016x", got, want)
	}

	if journal.Frames() != frames {
		t.Fatalf("journal has %d frames, want %d", journal.Frames(), frames)
	}
	rep, err := journal.Finish("rollback", rb.State())
	if err != nil {
		t.Fatal(err)
	}
	res, err := VerifyReplay(rep)
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK {
		t.Errorf("journal replays to %s, want %s", res.Got, res.Expected)
	}
}

func TestRollbackPredictsRepeatInput(t *testing.T) {
	state, _ := NewSimState(2, DefaultTuning())
	rb := NewRollback(state, DefaultRollbackWindow, TickDuration, nil)
	rb.AddInput(0, 0, InputLeft)
	rb.AddInput(1, 0, InputRight)
	for i := 0; i < 4; i++ {
		rb.Tick()
	}

	direct, _ := NewSimState(2, DefaultTuning())
	for i := 0; i < 4; i++ {
		direct.Advance([]Input{InputLeft, InputRight}, TickDuration)
	}
	want, _ := Checksum(direct)
	got, _ := Checksum(rb.State())
	if got != want {
		t.Error("unconfirmed frames should repeat the last known input")
	}

	// confirming the prediction changes nothing
	rb.AddInput(1, 2, InputRight)
	rb.Tick()
	if rb.Rollbacks() != 0 {
		t.Errorf("rollbacks = %d, a correct prediction needs none", rb.Rollbacks())
	}
}

func TestRollbackInputWindow(t *testing.T) {
	state, _ := NewSimState(2, DefaultTuning())
	rb := NewRollback(state, 4, TickDuration, nil)
	for i := 0; i < 10; i++ {
		rb.Tick()
	}

	if err := rb.AddInput(0, 5, InputJump); !errors.Is(err, ErrInputTooOld) {
		t.Errorf("frame 5 at 10: got %v, want ErrInputTooOld", err)
	}
	if err := rb.AddInput(0, 6, InputJump); err != nil {
		t.Errorf("frame 6 at 10: %v", err)
	}
	if err := rb.AddInput(0, 15, InputJump); !errors.Is(err, ErrInputTooFar) {
		t.Errorf("frame 15 at 10: got %v, want ErrInputTooFar", err)
	}
	if err := rb.AddInput(0, 14, InputJump); err != nil {
		t.Errorf("frame 14 at 10: %v", err)
	}
	if err := rb.AddInput(2, 10, InputJump); err == nil {
		t.Error("expected error for unknown handle")
	}
}

func TestRollbackRejectsInputBeforeStart(t *testing.T) {
	state, _ := SpawnRound(2, nil, DefaultTuning())
	for i := 0; i < 3; i++ {
		state.Advance(nil, TickDuration)
	}
	rb := NewRollback(state, DefaultRollbackWindow, TickDuration, nil)
	if err := rb.AddInput(0, 1, InputLeft); !errors.Is(err, ErrInputTooOld) {
		t.Errorf("got %v, want ErrInputTooOld", err)
	}
}

func TestRollbackReportsRewind(t *testing.T) {
	state, _ := NewSimState(2, DefaultTuning())
	rb := NewRollback(state, DefaultRollbackWindow, TickDuration, nil)
	for i := 0; i < 10; i++ {
		rb.Tick()
	}
	if _, ok := rb.TakeRewind(); ok {
		t.Fatal("rewind reported without a resimulation")
	}

	rb.AddInput(1, 6, InputLeft)
	rb.Tick()
	at, ok := rb.TakeRewind()
	if !ok {
		t.Fatal("expected a rewind")
	}
	if want := 6 * TickDuration; at != want {
		t.Errorf("rewind to %v, want %v", at, want)
	}
	if _, ok := rb.TakeRewind(); ok {
		t.Error("TakeRewind should clear the flag")
	}
}
