package main

import (
	"encoding/json"

	"github.com/go-gl/mathgl/mgl64"
)

// Client -> Server message types
const (
	MsgJoin   = "join"
	MsgLeave  = "leave"
	MsgInput  = "input"
	MsgCreate = "create" // create session
	MsgList   = "list"   // list sessions
	MsgCheck  = "check"  // check if session exists
)

// Server -> Client message types
const (
	MsgState    = "state" // binary msgpack StateFrame
	MsgWelcome  = "welcome"
	MsgSessions = "sessions"
	MsgJoined   = "joined"
	MsgCreated  = "created" // session created, client should navigate
	MsgError    = "error"
	MsgChecked  = "checked" // session check response
	MsgLobby    = "lobby"   // seats still open
	MsgRound    = "round"   // round phase changed
)

// binInputLen is the size of a binary input message:
// [0x01, frame(4 bytes big endian), bits]
const binInputLen = 6

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; D is decoded per type
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// ClientInput is one frame of controls. F == 0 lets the server pick the
// frame (current frame plus the input delay).
type ClientInput struct {
	F uint32 `json:"f"`
	B uint8  `json:"b"` // Input bits
}

// JoinMsg is sent when player wants to join a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
	Password  string `json:"password,omitempty"`
	Token     string `json:"token,omitempty"` // seat token from an earlier join
}

// CreateMsg is sent when player wants to create a session
type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
	Players     int    `json:"players"`
	Password    string `json:"password,omitempty"`
}

// JoinedMsg confirms a seat
type JoinedMsg struct {
	SID    string `json:"sid"`
	Handle int    `json:"handle"`
	Token  string `json:"token"`
}

// WelcomeMsg is sent to a player when they join
type WelcomeMsg struct {
	Handle     int    `json:"h"`
	Seats      int    `json:"seats"`
	Frame      uint32 `json:"f"`
	InputDelay int    `json:"delay"`
}

// LobbyMsg reports how many seats are still open
type LobbyMsg struct {
	Waiting int      `json:"waiting"`
	Text    string   `json:"text"`
	Names   []string `json:"names"`
}

// RoundMsg announces a phase change
type RoundMsg struct {
	Phase      string   `json:"phase"`
	Round      uint32   `json:"round"`
	Frame      uint32   `json:"f"`
	Scores     []uint32 `json:"scores"`
	Scoreboard string   `json:"scoreboard"`
}

// PlayerState is broadcast per player each tick
type PlayerState struct {
	H     int        `msgpack:"h"`
	Alive bool       `msgpack:"a"`
	P     [3]float32 `msgpack:"p"`
	R     [4]float32 `msgpack:"r"` // x, y, z, w
	Fuel  float32    `msgpack:"fu"`
	Hover bool       `msgpack:"ho"`
	Dash  bool       `msgpack:"da"`
}

// TrailState is broadcast once per segment
type TrailState struct {
	O int        `msgpack:"o"`
	P [3]float32 `msgpack:"p"`
	R [4]float32 `msgpack:"r"`
}

// CameraState is the follow camera for the receiving client
type CameraState struct {
	P [3]float32 `msgpack:"p"`
	R [4]float32 `msgpack:"r"`
}

// StateFrame is the binary state broadcast. Trails holds the segments from
// index TrailFrom on; the client drops everything it had from TrailFrom
// and appends.
type StateFrame struct {
	Frame      uint32        `msgpack:"f"`
	Phase      string        `msgpack:"ph"`
	Round      uint32        `msgpack:"rd"`
	Players    []PlayerState `msgpack:"p"`
	TrailFrom  int           `msgpack:"tf"`
	Trails     []TrailState  `msgpack:"t"`
	Scores     []uint32      `msgpack:"sc"`
	Scoreboard string        `msgpack:"sb"`
	Camera     *CameraState  `msgpack:"cam,omitempty"`
	Checksum   uint64        `msgpack:"ck,omitempty"`
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
	Seats   int    `json:"seats"`
	Private bool   `json:"private,omitempty"`
	Started bool   `json:"started,omitempty"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// CheckMsg is sent by client to check if a session exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// CheckedMsg is the response to a session check
type CheckedMsg struct {
	SID     string `json:"sid"`
	Exists  bool   `json:"exists"`
	Name    string `json:"name,omitempty"`
	Players int    `json:"players,omitempty"`
	Seats   int    `json:"seats,omitempty"`
}

func vec32(v mgl64.Vec3) [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}

func quat32(q mgl64.Quat) [4]float32 {
	return [4]float32{float32(q.V[0]), float32(q.V[1]), float32(q.V[2]), float32(q.W)}
}
