package main

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	DefaultRollbackWindow = 12 // frames a late input may rewind
	DefaultInputDelay     = 2  // frames added to inputs that carry no frame
)

var (
	ErrInputTooOld = errors.New("input older than rollback window")
	ErrInputTooFar = errors.New("input too far ahead")
)

// frameRecord is what the buffer keeps per frame: the state before the
// frame ran and the inputs it ran with. Inputs not yet received are
// predicted by repeating the player's previous input.
type frameRecord struct {
	frame     uint32
	snap      []byte
	inputs    []Input
	confirmed []bool
}

// Rollback drives a SimState through late-arriving inputs. It keeps a ring
// of snapshots covering the window; an input for a frame already simulated
// rewinds to that frame and resimulates up to the present. Frames that leave
// the window are final and go to the journal.
type Rollback struct {
	window    int
	dt        time.Duration
	state     *SimState
	ring      []frameRecord
	first     uint32 // frame the buffer started at; no snapshot before it
	dirty     bool
	pending   uint32 // earliest frame to resimulate when dirty
	journal   *ReplayJournal
	journaled uint32 // next frame to hand to the journal
	rollbacks int

	rewound    bool
	rewindTime time.Duration // earliest sim time resimulated since TakeRewind
}

// NewRollback wraps state. window is clamped to at least one frame.
func NewRollback(state *SimState, window int, dt time.Duration, journal *ReplayJournal) *Rollback {
	if window < 1 {
		window = DefaultRollbackWindow
	}
	r := &Rollback{
		window:    window,
		dt:        dt,
		state:     state,
		ring:      make([]frameRecord, 2*window+1),
		first:     state.Frame,
		journal:   journal,
		journaled: state.Frame,
	}
	for i := range r.ring {
		r.ring[i] = frameRecord{
			frame:     math.MaxUint32,
			inputs:    make([]Input, state.NumPlayers),
			confirmed: make([]bool, state.NumPlayers),
		}
	}
	return r
}

// State returns the present state. Callers must not keep it across Tick.
func (r *Rollback) State() *SimState { return r.state }

// Frame is the next frame Tick will simulate.
func (r *Rollback) Frame() uint32 { return r.state.Frame }

// Rollbacks counts resimulations so far.
func (r *Rollback) Rollbacks() int { return r.rollbacks }

// TakeRewind reports the earliest sim time rewritten by a resimulation since
// the last call. Trail segments created after it may have changed.
func (r *Rollback) TakeRewind() (time.Duration, bool) {
	t, ok := r.rewindTime, r.rewound
	r.rewound = false
	return t, ok
}

func (r *Rollback) record(f uint32) *frameRecord {
	rec := &r.ring[int(f%uint32(len(r.ring)))]
	if rec.frame != f {
		rec.frame = f
		rec.snap = nil
		clear(rec.inputs)
		clear(rec.confirmed)
	}
	return rec
}

// AddInput records handle's input for frame. An input for a frame already
// simulated that differs from the prediction schedules a resimulation on
// the next Tick.
func (r *Rollback) AddInput(handle int, frame uint32, in Input) error {
	if handle < 0 || handle >= r.state.NumPlayers {
		return fmt.Errorf("handle %d out of range", handle)
	}
	cur := int64(r.state.Frame)
	f := int64(frame)
	if f < cur-int64(r.window) || f < int64(r.first) {
		return fmt.Errorf("frame %d at %d: %w", frame, cur, ErrInputTooOld)
	}
	if f > cur+int64(r.window) {
		return fmt.Errorf("frame %d at %d: %w", frame, cur, ErrInputTooFar)
	}

	rec := r.record(frame)
	prev := rec.inputs[handle]
	rec.inputs[handle] = in
	rec.confirmed[handle] = true
	if f < cur && prev != in {
		if !r.dirty || frame < r.pending {
			r.pending = frame
		}
		r.dirty = true
	}
	return nil
}

// Tick resimulates if a late input arrived and then advances one frame.
func (r *Rollback) Tick() error {
	if r.dirty {
		if err := r.resimulate(); err != nil {
			return err
		}
	}
	if err := r.step(r.state.Frame); err != nil {
		return err
	}
	r.journalUpTo(int64(r.state.Frame) - int64(r.window))
	return nil
}

// Flush finalizes every simulated frame. Call it once the session is over.
func (r *Rollback) Flush() error {
	if r.dirty {
		if err := r.resimulate(); err != nil {
			return err
		}
	}
	r.journalUpTo(int64(r.state.Frame))
	return nil
}

func (r *Rollback) step(f uint32) error {
	rec := r.record(f)
	snap, err := Snapshot(r.state)
	if err != nil {
		return err
	}
	rec.snap = snap
	r.predict(rec, f)
	r.state.Advance(rec.inputs, r.dt)
	return nil
}

// predict fills unconfirmed inputs of rec from the frame before it.
func (r *Rollback) predict(rec *frameRecord, f uint32) {
	var prev *frameRecord
	if f > r.first {
		if p := &r.ring[int((f-1)%uint32(len(r.ring)))]; p.frame == f-1 {
			prev = p
		}
	}
	for h := range rec.inputs {
		if rec.confirmed[h] {
			continue
		}
		if prev != nil {
			rec.inputs[h] = prev.inputs[h]
		} else {
			rec.inputs[h] = 0
		}
	}
}

func (r *Rollback) resimulate() error {
	from := r.pending
	rec := r.record(from)
	if rec.snap == nil {
		return fmt.Errorf("no snapshot for frame %d", from)
	}
	s, err := Restore(rec.snap)
	if err != nil {
		return fmt.Errorf("rollback to frame %d: %w", from, err)
	}
	end := r.state.Frame
	r.state = s
	if !r.rewound || s.Time < r.rewindTime {
		r.rewindTime = s.Time
	}
	r.rewound = true
	for f := from; f < end; f++ {
		if err := r.step(f); err != nil {
			return err
		}
	}
	r.dirty = false
	r.rollbacks++
	return nil
}

func (r *Rollback) journalUpTo(limit int64) {
	for int64(r.journaled) < limit {
		rec := &r.ring[int(r.journaled%uint32(len(r.ring)))]
		if r.journal != nil && rec.frame == r.journaled {
			r.journal.Append(rec.inputs)
		}
		r.journaled++
	}
}
