package main

import (
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrCorruptSnapshot is wrapped by every Restore failure.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

// Snapshot serializes the full simulation state. The broad-phase grid is
// derived and left out.
func Snapshot(s *SimState) ([]byte, error) {
	blob, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return blob, nil
}

// Restore decodes a blob produced by Snapshot and checks it is a state
// Advance can run on.
func Restore(blob []byte) (*SimState, error) {
	var s SimState
	if err := msgpack.Unmarshal(blob, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	s.rebuildGrid()
	return &s, nil
}

// Checksum hashes the snapshot of s with FNV-64a. Equal states on two peers
// give equal checksums.
func Checksum(s *SimState) (uint64, error) {
	blob, err := Snapshot(s)
	if err != nil {
		return 0, err
	}
	h := fnv.New64a()
	h.Write(blob)
	return h.Sum64(), nil
}

func (s *SimState) validate() error {
	if err := checkPlayerCount(s.NumPlayers); err != nil {
		return err
	}
	if len(s.Scores) != s.NumPlayers {
		return fmt.Errorf("%d scores for %d players", len(s.Scores), s.NumPlayers)
	}
	if !s.Round.Phase.valid() {
		return fmt.Errorf("unknown phase %d", s.Round.Phase)
	}
	if s.Time < 0 || s.Round.EndTimer.Elapsed < 0 {
		return errors.New("negative time")
	}
	if s.Round.Phase != PhaseIdle && len(s.Players) != s.NumPlayers {
		return fmt.Errorf("%d players in a %d seat match", len(s.Players), s.NumPlayers)
	}
	if len(s.Players) > s.NumPlayers {
		return fmt.Errorf("%d players in a %d seat match", len(s.Players), s.NumPlayers)
	}

	for i := range s.Players {
		p := &s.Players[i]
		if p.Handle != i {
			return fmt.Errorf("player %d has handle %d", i, p.Handle)
		}
		if !finiteVec(p.Position) || !finiteQuat(p.Rotation) || !finiteVec(p.LastTrailPos) {
			return fmt.Errorf("player %d: non-finite transform", i)
		}
		if p.Fuel < 0 || p.Fuel > FuelMax || p.Fuel != p.Fuel {
			return fmt.Errorf("player %d: fuel %v out of range", i, p.Fuel)
		}
		if p.LastTrail < -1 || p.LastTrail >= len(s.Trails) {
			return fmt.Errorf("player %d: last trail %d out of range", i, p.LastTrail)
		}
	}

	for i := range s.Trails {
		t := &s.Trails[i]
		if t.Owner < 0 || t.Owner >= s.NumPlayers {
			return fmt.Errorf("trail %d: owner %d out of range", i, t.Owner)
		}
		if !finiteVec(t.Position) || !finiteQuat(t.Rotation) {
			return fmt.Errorf("trail %d: non-finite transform", i)
		}
	}

	if len(s.DeathStack) > s.NumPlayers {
		return fmt.Errorf("death stack holds %d of %d players", len(s.DeathStack), s.NumPlayers)
	}
	seen := make([]bool, s.NumPlayers)
	for _, h := range s.DeathStack {
		if h < 0 || h >= len(s.Players) || seen[h] {
			return fmt.Errorf("bad death stack entry %d", h)
		}
		if s.Players[h].Alive {
			return fmt.Errorf("live player %d on death stack", h)
		}
		seen[h] = true
	}
	return nil
}
