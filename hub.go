package main

import "sync"

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub manages all connected clients and routes them to sessions
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	sessions   *SessionManager
	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int
	// Auth, DB and per-session defaults
	db   *DB
	auth *Auth
	cfg  Config
}

// NewHub creates a new Hub. db may be nil, which disables replays.
func NewHub(db *DB, cfg Config) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		sessions:   NewSessionManager(db),
		ipConns:    make(map[string]int),
		db:         db,
		auth:       NewAuth(db, cfg.JWTSecret),
		cfg:        cfg,
	}
}

// GameConfig returns the rules for a new session of seats players
func (h *Hub) GameConfig(seats int) GameConfig {
	return GameConfig{
		Seats:          seats,
		Tuning:         h.cfg.Tuning,
		RollbackWindow: h.cfg.RollbackWindow,
		InputDelay:     h.cfg.InputDelay,
	}
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			// Free the seat if in a session
			if client.sessionID != "" {
				h.sessions.RemovePlayer(client.sessionID, client.handle)
			}
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
