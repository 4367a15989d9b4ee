package ipc

import (
	"github.com/nstehr/warren/scheduler"
	"github.com/nstehr/warren/world"
)

// ProtocolVersion is bumped whenever a message shape changes.
const ProtocolVersion = 1

// Message types understood by the game bridge.
const (
	TypeHello      = "hello"
	TypeAck        = "ack"
	TypeWorldState = "world_state"
	TypeIntents    = "intents"
)

type HelloMessage struct {
	Player   string `json:"player"`
	Protocol int    `json:"protocol"`
}

type AckMessage struct {
	Status  string `json:"status"`
	Session string `json:"session,omitempty"`
	Tick    int    `json:"tick,omitempty"`
}

// IntentsMessage is the reply to a world_state frame: everything the game
// should carry out next tick, plus the per-agent task notes.
type IntentsMessage struct {
	Tick    int              `json:"tick"`
	Intents []world.Intent   `json:"intents"`
	Notes   []scheduler.Note `json:"notes,omitempty"`
}
