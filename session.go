package main

import (
	"errors"
	"log"
	"sort"
	"sync"
	"time"
)

const maxSessions = 100

// SessionIdleTimeout is how long a session may sit with no players before
// it is removed
var SessionIdleTimeout = 30 * time.Second

var ErrSessionLimit = errors.New("too many active sessions")

// Session represents a game session that players can join
type Session struct {
	ID        string
	Name      string
	Game      *Game
	CreatedAt time.Time
	passHash  string // bcrypt hash, "" for a public room
}

// Private reports whether joining needs a password
func (s *Session) Private() bool {
	return s.passHash != ""
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	db       *DB // replay journal, may be nil
}

// NewSessionManager creates a new SessionManager
func NewSessionManager(db *DB) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		db:       db,
	}
}

// CreateSession creates a new game session and starts its loop.
func (sm *SessionManager) CreateSession(name, passHash string, cfg GameConfig) (*Session, error) {
	game, err := NewGame(cfg)
	if err != nil {
		return nil, err
	}

	sm.mu.Lock()
	if len(sm.sessions) >= maxSessions {
		sm.mu.Unlock()
		return nil, ErrSessionLimit
	}
	sess := &Session{
		ID:        GenerateUUID(),
		Name:      name,
		Game:      game,
		CreatedAt: time.Now(),
		passHash:  passHash,
	}
	sm.sessions[sess.ID] = sess
	sm.mu.Unlock()

	log.Printf("session %s created: %q, %d seats", sess.ID, name, cfg.Seats)
	go game.Run()
	sm.scheduleReap(sess.ID)
	return sess, nil
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// RemovePlayer frees a seat in a session. An empty session is removed after
// SessionIdleTimeout unless someone joins again.
func (sm *SessionManager) RemovePlayer(sessionID string, handle int) {
	sess := sm.GetSession(sessionID)
	if sess == nil {
		return
	}
	sess.Game.RemovePlayer(handle)

	if sess.Game.PlayerCount() == 0 {
		sm.scheduleReap(sessionID)
	}
}

func (sm *SessionManager) scheduleReap(id string) {
	time.AfterFunc(SessionIdleTimeout, func() {
		sm.reapIfIdle(id)
	})
}

func (sm *SessionManager) reapIfIdle(id string) {
	sm.mu.Lock()
	sess, ok := sm.sessions[id]
	if !ok || sess.Game.PlayerCount() > 0 {
		sm.mu.Unlock()
		return
	}
	delete(sm.sessions, id)
	sm.mu.Unlock()

	sess.Game.Stop()
	sm.saveReplay(sess)
	log.Printf("session %s closed", id)
}

// saveReplay writes the finished match's journal, if it played at all.
func (sm *SessionManager) saveReplay(sess *Session) {
	rep, err := sess.Game.Finish(sess.ID)
	if err != nil {
		log.Printf("session %s: replay not saved: %v", sess.ID, err)
		return
	}
	if rep == nil || sm.db == nil {
		return
	}
	if err := sm.db.SaveReplay(rep); err != nil {
		log.Printf("session %s: replay not saved: %v", sess.ID, err)
		return
	}
	log.Printf("session %s: replay saved, %d frames", sess.ID, rep.Frames)
}

// ListSessions returns info about all active sessions, oldest first
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sessions := make([]*Session, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		sessions = append(sessions, sess)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	list := make([]SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		list = append(list, SessionInfo{
			ID:      sess.ID,
			Name:    sess.Name,
			Players: sess.Game.PlayerCount(),
			Seats:   sess.Game.Seats(),
			Private: sess.Private(),
			Started: sess.Game.Started(),
		})
	}
	return list
}
