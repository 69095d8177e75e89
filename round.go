package main

import "time"

// RoundPhase represents the lifecycle of a match
type RoundPhase uint8

const (
	PhaseIdle     RoundPhase = 0
	PhaseInRound  RoundPhase = 1
	PhaseRoundEnd RoundPhase = 2
)

func (p RoundPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInRound:
		return "in_round"
	case PhaseRoundEnd:
		return "round_end"
	}
	return "unknown"
}

func (p RoundPhase) valid() bool {
	return p <= PhaseRoundEnd
}

// RoundMachine decides phase transitions. It only reads the live count and
// its own timer; the enter actions belong to SimState.
type RoundMachine struct {
	Phase    RoundPhase `msgpack:"ph"`
	EndTimer Timer      `msgpack:"et"`
	Round    uint32     `msgpack:"n"` // rounds started this match
}

// NewRoundMachine returns a machine waiting for its first step.
func NewRoundMachine() RoundMachine {
	return RoundMachine{
		Phase:    PhaseIdle,
		EndTimer: NewRepeatingTimer(RoundEndDelay),
	}
}

// Step evaluates one frame and returns the phase the state must be in
// afterwards. It does not change Phase; the caller commits the transition
// after running the enter action.
func (m *RoundMachine) Step(live int, dt time.Duration) RoundPhase {
	switch m.Phase {
	case PhaseIdle:
		return PhaseInRound
	case PhaseInRound:
		if live <= 1 {
			return PhaseRoundEnd
		}
	case PhaseRoundEnd:
		m.EndTimer.Tick(dt)
		if m.EndTimer.JustFinished {
			return PhaseInRound
		}
	}
	return m.Phase
}
