package main

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	TickRate       = 60 // simulation frames per second
	BroadcastRate  = 30 // state broadcasts per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate
	ChecksumEvery  = TickRate // frames between desync checksums
)

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// GameConfig holds the per-session rules
type GameConfig struct {
	Seats          int
	Tuning         Tuning
	RollbackWindow int
	InputDelay     int
}

// DefaultGameConfig returns the standard rules for a match of seats players
func DefaultGameConfig(seats int) GameConfig {
	return GameConfig{
		Seats:          seats,
		Tuning:         DefaultTuning(),
		RollbackWindow: DefaultRollbackWindow,
		InputDelay:     DefaultInputDelay,
	}
}

// seat is one player slot. Its handle is its index in Game.seats.
type seat struct {
	name     string
	occupied bool
	client   Broadcaster
	// trail broadcast cursor, valid for round cursorOf
	cursor   int
	cursorOf uint32
}

// Game holds the state for one game session
type Game struct {
	mu       sync.RWMutex
	cfg      GameConfig
	seats    []seat
	rb       *Rollback
	journal  *ReplayJournal
	tick     uint64
	running  bool
	started  bool
	failed   bool
	stop     chan struct{}
	phase    RoundPhase
	round    uint32
	checksum uint64
}

// NewGame creates a new Game waiting for cfg.Seats players
func NewGame(cfg GameConfig) (*Game, error) {
	state, err := NewSimState(cfg.Seats, cfg.Tuning)
	if err != nil {
		return nil, err
	}
	if cfg.RollbackWindow < 1 {
		cfg.RollbackWindow = DefaultRollbackWindow
	}
	cfg.InputDelay = Clamp(cfg.InputDelay, 0, cfg.RollbackWindow)

	journal := NewReplayJournal(cfg.Seats, cfg.Tuning, TickDuration)
	return &Game{
		cfg:     cfg,
		seats:   make([]seat, cfg.Seats),
		rb:      NewRollback(state, cfg.RollbackWindow, TickDuration, journal),
		journal: journal,
		stop:    make(chan struct{}),
	}, nil
}

// Run starts the game loop
func (g *Game) Run() {
	g.mu.Lock()
	g.running = true
	g.mu.Unlock()

	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.update()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopLocked()
}

func (g *Game) stopLocked() {
	if g.running {
		g.running = false
		close(g.stop)
	}
}

// AddPlayer takes the lowest free seat and returns its handle, or -1 if the
// session is full
func (g *Game) AddPlayer(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	for h := range g.seats {
		if !g.seats[h].occupied {
			g.seats[h] = seat{name: name, occupied: true}
			return h
		}
	}
	return -1
}

// ClaimSeat takes back seat handle for a reconnecting player
func (g *Game) ClaimSeat(handle int, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if handle < 0 || handle >= len(g.seats) {
		return fmt.Errorf("no seat %d", handle)
	}
	if g.seats[handle].occupied {
		return errors.New("seat taken")
	}
	g.seats[handle] = seat{name: name, occupied: true}
	return nil
}

// RemovePlayer frees a seat. Once the match runs, the seat stays in the
// simulation and plays no input.
func (g *Game) RemovePlayer(handle int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if handle < 0 || handle >= len(g.seats) {
		return
	}
	g.seats[handle] = seat{}
	if g.started {
		g.rb.AddInput(handle, g.rb.Frame()+uint32(g.cfg.InputDelay), 0)
		return
	}
	g.broadcastLobby()
}

// SetClient attaches a connection to a seat. The match starts once every
// seat has one.
func (g *Game) SetClient(handle int, client Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if handle < 0 || handle >= len(g.seats) || !g.seats[handle].occupied {
		return
	}
	g.seats[handle].client = client
	g.seats[handle].cursorOf = ^uint32(0)

	if g.started {
		return
	}
	if g.openSeats() > 0 {
		g.broadcastLobby()
		return
	}
	g.started = true
	log.Printf("match started with %d players", len(g.seats))
}

// HandleInput queues input from a player. frame 0 means "as soon as the
// input delay allows".
func (g *Game) HandleInput(handle int, frame uint32, in Input) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started || g.failed || handle < 0 || handle >= len(g.seats) || !g.seats[handle].occupied {
		return
	}
	if frame == 0 {
		frame = g.rb.Frame() + uint32(g.cfg.InputDelay)
	}
	if err := g.rb.AddInput(handle, frame, in); err != nil {
		if errors.Is(err, ErrInputTooOld) {
			log.Printf("dropped late input from seat %d: %v", handle, err)
		}
	}
}

// PlayerCount returns the number of occupied seats
func (g *Game) PlayerCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.seats) - g.openSeats()
}

// Seats returns the seat count
func (g *Game) Seats() int {
	return g.cfg.Seats
}

// Started reports whether every seat has been filled at least once
func (g *Game) Started() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.started
}

// Frame returns the next frame to be simulated
func (g *Game) Frame() uint32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rb.Frame()
}

// InputDelay returns the frames added to inputs sent without a frame
func (g *Game) InputDelay() int {
	return g.cfg.InputDelay
}

func (g *Game) openSeats() int {
	n := 0
	for h := range g.seats {
		if !g.seats[h].occupied {
			n++
		}
	}
	return n
}

// Finish flushes the rollback buffer and returns the match's replay, or nil
// if the match never started. Call after Stop.
func (g *Game) Finish(id string) (*Replay, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started || g.failed {
		return nil, nil
	}
	if err := g.rb.Flush(); err != nil {
		return nil, err
	}
	return g.journal.Finish(id, g.rb.State())
}

// update runs one game tick
func (g *Game) update() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started || g.failed {
		return
	}
	g.tick++

	if err := g.rb.Tick(); err != nil {
		log.Printf("desync at frame %d: %v", g.rb.Frame(), err)
		g.failed = true
		g.broadcastMsg(Envelope{T: MsgError, Data: ErrorMsg{Msg: "desync, session stopped"}})
		g.stopLocked()
		return
	}

	s := g.rb.State()
	if s.Frame%ChecksumEvery == 0 {
		if sum, err := Checksum(s); err == nil {
			g.checksum = sum
		}
	}

	if s.Round.Phase != g.phase || s.Round.Round != g.round {
		g.phase = s.Round.Phase
		g.round = s.Round.Round
		if g.phase == PhaseRoundEnd {
			log.Printf("round %d over at frame %d: %s", g.round, s.Frame, Scoreboard(s.Scores))
		}
		g.broadcastMsg(Envelope{T: MsgRound, Data: RoundMsg{
			Phase:      g.phase.String(),
			Round:      g.round,
			Frame:      s.Frame,
			Scores:     s.ScoresByHandle(),
			Scoreboard: Scoreboard(s.Scores),
		}})
	}

	// Broadcast state
	if g.tick%BroadcastEvery == 0 {
		g.broadcastState()
	}
}

// broadcastState sends each client the shared state plus its own camera and
// the trail segments it has not seen yet
func (g *Game) broadcastState() {
	s := g.rb.State()
	views := s.PlayerViews()

	base := StateFrame{
		Frame:      s.Frame,
		Phase:      s.Round.Phase.String(),
		Round:      s.Round.Round,
		Players:    make([]PlayerState, 0, len(s.Players)),
		Scores:     s.ScoresByHandle(),
		Scoreboard: Scoreboard(s.Scores),
		Checksum:   g.checksum,
	}
	for i := range s.Players {
		base.Players = append(base.Players, s.Players[i].ToState())
	}

	rewind, rewound := g.rb.TakeRewind()
	firstRewritten := len(s.Trails)
	if rewound {
		firstRewritten = sort.Search(len(s.Trails), func(i int) bool {
			return s.Trails[i].CreatedAt > rewind
		})
	}

	for h := range g.seats {
		st := &g.seats[h]
		if st.client == nil {
			continue
		}
		if st.cursorOf != s.Round.Round {
			st.cursor = 0
			st.cursorOf = s.Round.Round
		}
		st.cursor = min(st.cursor, firstRewritten, len(s.Trails))

		frame := base
		frame.TrailFrom = st.cursor
		frame.Trails = make([]TrailState, 0, len(s.Trails)-st.cursor)
		for i := st.cursor; i < len(s.Trails); i++ {
			frame.Trails = append(frame.Trails, s.Trails[i].ToState())
		}
		if h < len(views) {
			cam := FollowCamera(&views[h]).ToState()
			frame.Camera = &cam
		}

		data, err := msgpack.Marshal(&frame)
		if err != nil {
			log.Printf("marshal state: %v", err)
			return
		}
		st.client.SendBinary(data)
		st.cursor = len(s.Trails)
	}
}

func (g *Game) broadcastLobby() {
	waiting := g.openSeats()
	names := make([]string, 0, len(g.seats))
	for h := range g.seats {
		if g.seats[h].occupied {
			names = append(names, g.seats[h].name)
		}
	}
	g.broadcastMsg(Envelope{T: MsgLobby, Data: LobbyMsg{
		Waiting: waiting,
		Text:    fmt.Sprintf("Waiting for %d more player(s)", waiting),
		Names:   names,
	}})
}

// broadcastMsg sends a message to all clients in the session
func (g *Game) broadcastMsg(msg Envelope) {
	for h := range g.seats {
		if c := g.seats[h].client; c != nil {
			c.SendJSON(msg)
		}
	}
}
