// Package display streams world changes to external renderers over
// websocket. It never reads world state; it only forwards events.
package display

import "encoding/json"

// Message types sent to renderers.
const (
	TypeHello   = "hello"
	TypeSpawn   = "spawn"
	TypeDespawn = "despawn"
	TypeState   = "state"
)

// Message is one JSON line on the wire.
type Message struct {
	Type     string      `json:"type"`
	Session  string      `json:"session,omitempty"`
	Entity   uint64      `json:"entity,omitempty"`
	Job      uint64      `json:"job,omitempty"`
	Position *[3]float32 `json:"position,omitempty"`
	Mesh     string      `json:"mesh,omitempty"`
	Material string      `json:"material,omitempty"`
	Screen   string      `json:"screen,omitempty"`
	Orphan   bool        `json:"orphan,omitempty"`
	From     string      `json:"from,omitempty"`
	To       string      `json:"to,omitempty"`
}

func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
