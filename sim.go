package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrTooManyPlayers = errors.New("too many players")
	ErrTooFewPlayers  = errors.New("too few players")
)

// SimState is everything one frame of the arena depends on. Advance is a
// pure function of the state, the frame's inputs and dt, so any peer holding
// the same SimState and inputs computes the same next state.
type SimState struct {
	NumPlayers int            `msgpack:"np"`
	Frame      uint32         `msgpack:"f"`
	Time       time.Duration  `msgpack:"t"`
	Round      RoundMachine   `msgpack:"rm"`
	Players    []Player       `msgpack:"pl"`
	Trails     []TrailSegment `msgpack:"tr"`
	DeathStack []int          `msgpack:"ds"`
	Scores     []uint32       `msgpack:"sc"`
	Tuning     Tuning         `msgpack:"tu"`

	grid     *TrailGrid
	queryBuf []int
}

// PlayerView is the read-only slice of a player that presentation needs.
type PlayerView struct {
	Handle   int
	Alive    bool
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Fuel     float64
	Hovering bool
	Dashing  bool
}

func checkPlayerCount(n int) error {
	if n > MaxPlayers {
		return fmt.Errorf("%d seats, at most %d: %w", n, MaxPlayers, ErrTooManyPlayers)
	}
	if n < MinPlayers {
		return fmt.Errorf("%d seats, at least %d: %w", n, MinPlayers, ErrTooFewPlayers)
	}
	return nil
}

// NewSimState returns an Idle state for a new match. The first Advance
// zeroes the ledger and spawns round one.
func NewSimState(numPlayers int, tuning Tuning) (*SimState, error) {
	if err := checkPlayerCount(numPlayers); err != nil {
		return nil, err
	}
	return &SimState{
		NumPlayers: numPlayers,
		Round:      NewRoundMachine(),
		Scores:     make([]uint32, numPlayers),
		Tuning:     tuning,
		grid:       NewTrailGrid(),
	}, nil
}

// SpawnRound returns a state already in a fresh round. A nil scores starts a
// new match; otherwise the ledger is carried over.
func SpawnRound(numPlayers int, scores []uint32, tuning Tuning) (*SimState, error) {
	s, err := NewSimState(numPlayers, tuning)
	if err != nil {
		return nil, err
	}
	if scores != nil {
		if len(scores) != numPlayers {
			return nil, fmt.Errorf("score ledger has %d entries for %d players", len(scores), numPlayers)
		}
		copy(s.Scores, scores)
	}
	s.startRound()
	s.Round.Phase = PhaseInRound
	return s, nil
}

// Advance runs one frame. Missing inputs count as no input.
func Advance(inputs []Input, dt time.Duration, s *SimState) {
	s.Advance(inputs, dt)
}

// Advance runs one frame: locomotion and trails for every live player in
// handle order, then eliminations, then the round state machine.
func (s *SimState) Advance(inputs []Input, dt time.Duration) {
	if s.grid == nil {
		s.rebuildGrid()
	}
	s.Frame++
	s.Time += dt

	if s.Round.Phase == PhaseInRound {
		for i := range s.Players {
			p := &s.Players[i]
			if !p.Alive {
				continue
			}
			p.Update(inputFor(inputs, p.Handle), dt, s.Tuning)
			s.emitTrail(p)
		}
		s.checkEliminations()
	}

	next := s.Round.Step(s.liveCount(), dt)
	if next == s.Round.Phase {
		return
	}
	switch next {
	case PhaseInRound:
		if s.Round.Phase == PhaseIdle {
			clear(s.Scores)
		}
		s.startRound()
	case PhaseRoundEnd:
		s.endRound()
	}
	s.Round.Phase = next
}

// startRound clears the arena and respawns every seat. Scores are kept.
func (s *SimState) startRound() {
	s.Players = s.Players[:0]
	for h := 0; h < s.NumPlayers; h++ {
		s.Players = append(s.Players, NewPlayer(h))
	}
	s.Trails = s.Trails[:0]
	s.DeathStack = s.DeathStack[:0]
	s.grid.Clear()
	s.Round.Round++
}

func (s *SimState) endRound() {
	survivor := -1
	if live := s.LiveHandles(); len(live) == 1 {
		survivor = live[0]
	}
	awardRound(s.Scores, s.DeathStack, survivor)
	s.Round.EndTimer.Reset()
}

func (s *SimState) rebuildGrid() {
	if s.grid == nil {
		s.grid = NewTrailGrid()
	}
	s.grid.Rebuild(s.Trails)
}

func (s *SimState) liveCount() int {
	n := 0
	for i := range s.Players {
		if s.Players[i].Alive {
			n++
		}
	}
	return n
}

// Phase returns the current round phase.
func (s *SimState) Phase() RoundPhase {
	return s.Round.Phase
}

// LiveHandles returns the handles still in the round, ascending.
func (s *SimState) LiveHandles() []int {
	var live []int
	for i := range s.Players {
		if s.Players[i].Alive {
			live = append(live, s.Players[i].Handle)
		}
	}
	return live
}

// ScoresByHandle returns a copy of the ledger.
func (s *SimState) ScoresByHandle() []uint32 {
	out := make([]uint32, len(s.Scores))
	copy(out, s.Scores)
	return out
}

// PlayerViews returns every seat of the current round in handle order.
func (s *SimState) PlayerViews() []PlayerView {
	views := make([]PlayerView, len(s.Players))
	for i := range s.Players {
		p := &s.Players[i]
		views[i] = PlayerView{
			Handle:   p.Handle,
			Alive:    p.Alive,
			Position: p.Position,
			Rotation: p.Rotation,
			Fuel:     p.Fuel,
			Hovering: p.Hovering,
			Dashing:  p.IsDashing(),
		}
	}
	return views
}
