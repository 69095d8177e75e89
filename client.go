package main

import (
	"encoding/binary"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 90 // one input per frame plus control traffic
	maxNameLen        = 16
	maxSessionNameLen = 30
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	handle     int
	sessionID  string
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		handle:     -1,
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws error: %v", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Printf("rate limit exceeded for %s, disconnecting", c.remoteAddr)
			break
		}

		// Binary input messages: [0x01, frame(4 bytes BE), bits]
		if msgType == websocket.BinaryMessage && len(message) == binInputLen && message[0] == 0x01 {
			c.handleBinaryInput(message)
		} else {
			c.handleMessage(message)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message
// Prefixes with 0xFF marker byte so WritePump can distinguish from text
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgInput:
		c.handleInput(env.D)
	case MsgLeave:
		c.handleLeave()
	case MsgCheck:
		c.handleCheck(env.D)
	}
}

func (c *Client) handleList() {
	sessions := c.hub.sessions.ListSessions()
	c.SendJSON(Envelope{T: MsgSessions, Data: sessions})
}

func cleanName(name, def string, maxLen int) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = def
	}
	if len(name) > maxLen {
		name = name[:maxLen]
	}
	return name
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sname := cleanName(msg.SessionName, "Cat Arena", maxSessionNameLen)
	seats := msg.Players
	if seats == 0 {
		seats = MinPlayers
	}
	if err := checkPlayerCount(seats); err != nil {
		c.sendError(err.Error())
		return
	}

	var hash string
	if msg.Password != "" {
		h, err := HashRoomPassword(msg.Password)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		hash = h
	}

	sess, err := c.hub.sessions.CreateSession(sname, hash, c.hub.GameConfig(seats))
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"sid": sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	name := cleanName(msg.Name, "Cat_"+GenerateID(2), maxNameLen)

	sess := c.hub.sessions.GetSession(msg.SessionID)
	if sess == nil {
		c.sendError("session not found")
		return
	}
	if c.sessionID != "" {
		c.handleLeave()
	}

	var handle int
	if msg.Token != "" {
		sid, h, err := c.hub.auth.ValidateSeatToken(msg.Token)
		if err != nil || sid != sess.ID {
			c.sendError("invalid seat token")
			return
		}
		if err := sess.Game.ClaimSeat(h, name); err != nil {
			c.sendError(err.Error())
			return
		}
		handle = h
	} else {
		if err := c.hub.auth.CheckRoomPassword(sess.passHash, msg.Password, c.remoteAddr); err != nil {
			c.sendError(err.Error())
			return
		}
		handle = sess.Game.AddPlayer(name)
		if handle < 0 {
			c.sendError("session full")
			return
		}
	}

	token, err := c.hub.auth.IssueSeatToken(sess.ID, handle)
	if err != nil {
		log.Printf("seat token: %v", err)
	}
	c.handle = handle
	c.sessionID = sess.ID

	c.SendJSON(Envelope{T: MsgJoined, Data: JoinedMsg{SID: sess.ID, Handle: handle, Token: token}})
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{
		Handle:     handle,
		Seats:      sess.Game.Seats(),
		Frame:      sess.Game.Frame(),
		InputDelay: sess.Game.InputDelay(),
	}})
	sess.Game.SetClient(handle, c)
}

// handleBinaryInput decodes a compact binary input message
func (c *Client) handleBinaryInput(msg []byte) {
	if c.sessionID == "" || c.handle < 0 {
		return
	}
	frame := binary.BigEndian.Uint32(msg[1:5])
	in := InputFromByte(msg[5])

	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return
	}
	sess.Game.HandleInput(c.handle, frame, in)
}

func (c *Client) handleInput(data json.RawMessage) {
	if c.sessionID == "" || c.handle < 0 {
		return
	}
	var input ClientInput
	if err := json.Unmarshal(data, &input); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return
	}
	sess.Game.HandleInput(c.handle, input.F, InputFromByte(input.B))
}

func (c *Client) handleCheck(data json.RawMessage) {
	var msg CheckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{SID: msg.SID, Exists: false}})
		return
	}
	c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{
		SID:     msg.SID,
		Exists:  true,
		Name:    sess.Name,
		Players: sess.Game.PlayerCount(),
		Seats:   sess.Game.Seats(),
	}})
}

func (c *Client) handleLeave() {
	if c.sessionID != "" {
		c.hub.sessions.RemovePlayer(c.sessionID, c.handle)
		c.sessionID = ""
		c.handle = -1
	}
}
