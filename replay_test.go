package main

import (
	"path/filepath"
	"testing"
)

// recordMatch plays frames of scripted input straight into a journal.
func recordMatch(t *testing.T, id string, players int, frames uint32) *Replay {
	t.Helper()
	tuning := DefaultTuning()
	s, _ := NewSimState(players, tuning)
	j := NewReplayJournal(players, tuning, TickDuration)
	for f := uint32(0); f < frames; f++ {
		inputs := scriptedInputs(f, players)
		j.Append(inputs)
		s.Advance(inputs, TickDuration)
	}
	rep, err := j.Finish(id, s)
	if err != nil {
		t.Fatal(err)
	}
	return rep
}

func TestVerifyReplay(t *testing.T) {
	rep := recordMatch(t, "m1", 3, 10*TickRate)
	res, err := VerifyReplay(rep)
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.Got != res.Expected {
		t.Errorf("replay diverged: %s vs %s", res.Got, res.Expected)
	}
	if res.Frames != 10*TickRate || res.Players != 3 {
		t.Errorf("got %d frames of %d players", res.Frames, res.Players)
	}
	if len(res.Scores) != 3 || res.Scoreboard != Scoreboard(res.Scores) {
		t.Errorf("scores %v scoreboard %q", res.Scores, res.Scoreboard)
	}
}

func TestVerifyReplayDetectsTampering(t *testing.T) {
	rep := recordMatch(t, "m2", 2, 5*TickRate)
	for i := 100; i < 140; i++ {
		rep.Inputs[i] ^= byte(InputLeft | InputRight)
	}
	res, err := VerifyReplay(rep)
	if err != nil {
		t.Fatal(err)
	}
	if res.OK {
		t.Error("altered inputs should not verify")
	}
}

func TestVerifyReplayBadLength(t *testing.T) {
	rep := recordMatch(t, "m3", 2, 10)
	rep.Inputs = rep.Inputs[:5]
	if _, err := VerifyReplay(rep); err == nil {
		t.Error("expected error for a short input blob")
	}
}

func TestJournalFinishChecksFrames(t *testing.T) {
	s, _ := NewSimState(2, DefaultTuning())
	j := NewReplayJournal(2, DefaultTuning(), TickDuration)
	j.Append([]Input{InputLeft})
	if _, err := j.Finish("x", s); err == nil {
		t.Error("expected error when the state is behind the journal")
	}
	if got := j.Frames(); got != 1 {
		t.Errorf("frames = %d, want 1", got)
	}
}

func TestReplayFrameInputs(t *testing.T) {
	rep := &Replay{Players: 2, Frames: 2, Inputs: []byte{1, 2, 0xF4, 8}}
	got := rep.FrameInputs(1)
	if got[0] != InputRight || got[1] != InputDash {
		t.Errorf("frame 1 = %v, want [right dash]", got)
	}
}

func TestReplayDatabaseRoundTrip(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "replays.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	rep := recordMatch(t, GenerateUUID(), 2, 3*TickRate)
	if err := db.SaveReplay(rep); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetReplay(rep.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("replay not found")
	}
	if got.Players != rep.Players || got.Frames != rep.Frames || got.Dt != rep.Dt {
		t.Errorf("header mismatch: %+v", got)
	}
	if got.Tuning != rep.Tuning || got.Checksum != rep.Checksum {
		t.Errorf("tuning %+v checksum %x, want %+v %x", got.Tuning, got.Checksum, rep.Tuning, rep.Checksum)
	}
	res, err := VerifyReplay(got)
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK {
		t.Error("stored replay does not verify")
	}

	list, err := db.ListReplays(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != rep.ID {
		t.Errorf("list = %+v", list)
	}

	missing, err := db.GetReplay("nope")
	if err != nil || missing != nil {
		t.Errorf("missing replay: got %v, %v", missing, err)
	}
}

func TestSettings(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if v := db.GetSetting("k"); v != "" {
		t.Errorf("unset key = %q", v)
	}
	db.SetSetting("k", "one")
	db.SetSetting("k", "two")
	if v := db.GetSetting("k"); v != "two" {
		t.Errorf("got %q, want two", v)
	}
}
