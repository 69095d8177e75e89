package main

import (
	"fmt"
	"time"
)

// ReplayJournal accumulates the final inputs of a match, one row of
// NumPlayers bytes per frame.
type ReplayJournal struct {
	players int
	tuning  Tuning
	dt      time.Duration
	inputs  []byte
	frames  uint32
}

// NewReplayJournal starts an empty journal for a match that begins from an
// Idle state with the given seat count and rules.
func NewReplayJournal(players int, tuning Tuning, dt time.Duration) *ReplayJournal {
	return &ReplayJournal{players: players, tuning: tuning, dt: dt}
}

// Append adds one frame.
func (j *ReplayJournal) Append(inputs []Input) {
	for h := 0; h < j.players; h++ {
		j.inputs = append(j.inputs, byte(inputFor(inputs, h)))
	}
	j.frames++
}

// Frames returns how many frames have been journaled.
func (j *ReplayJournal) Frames() uint32 { return j.frames }

// Finish seals the journal against the state reached after its last frame.
func (j *ReplayJournal) Finish(id string, final *SimState) (*Replay, error) {
	if final.Frame != j.frames {
		return nil, fmt.Errorf("journal has %d frames, state is at %d", j.frames, final.Frame)
	}
	sum, err := Checksum(final)
	if err != nil {
		return nil, err
	}
	inputs := make([]byte, len(j.inputs))
	copy(inputs, j.inputs)
	return &Replay{
		ID:        id,
		Players:   j.players,
		Tuning:    j.tuning,
		Dt:        j.dt,
		Frames:    j.frames,
		Inputs:    inputs,
		Checksum:  sum,
		CreatedAt: time.Now(),
	}, nil
}

// Replay is a finished match's input history.
type Replay struct {
	ID        string
	Players   int
	Tuning    Tuning
	Dt        time.Duration
	Frames    uint32
	Inputs    []byte
	Checksum  uint64
	CreatedAt time.Time
}

// FrameInputs returns the inputs of frame f.
func (r *Replay) FrameInputs(f uint32) []Input {
	row := r.Inputs[int(f)*r.Players : int(f+1)*r.Players]
	out := make([]Input, r.Players)
	for h, b := range row {
		out[h] = InputFromByte(b)
	}
	return out
}

// ReplayResult is what the replay endpoint reports.
type ReplayResult struct {
	ID         string   `json:"id"`
	Players    int      `json:"players"`
	Frames     uint32   `json:"frames"`
	Expected   string   `json:"expected"`
	Got        string   `json:"got"`
	OK         bool     `json:"ok"`
	Scores     []uint32 `json:"scores"`
	Scoreboard string   `json:"scoreboard"`
}

// VerifyReplay runs the journal from a fresh match and compares the final
// checksum with the recorded one.
func VerifyReplay(r *Replay) (*ReplayResult, error) {
	if len(r.Inputs) != int(r.Frames)*r.Players {
		return nil, fmt.Errorf("replay %s: %d input bytes for %d frames of %d players", r.ID, len(r.Inputs), r.Frames, r.Players)
	}
	s, err := NewSimState(r.Players, r.Tuning)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", r.ID, err)
	}
	for f := uint32(0); f < r.Frames; f++ {
		s.Advance(r.FrameInputs(f), r.Dt)
	}
	sum, err := Checksum(s)
	if err != nil {
		return nil, err
	}
	return &ReplayResult{
		ID:         r.ID,
		Players:    r.Players,
		Frames:     r.Frames,
		Expected:   fmt.Sprintf("%016x", r.Checksum),
		Got:        fmt.Sprintf("%016x", sum),
		OK:         sum == r.Checksum,
		Scores:     s.ScoresByHandle(),
		Scoreboard: Scoreboard(s.Scores),
	}, nil
}
