package net

import (
	"LocalDoodle/internal/state"
)

// MessageType constants for the peer protocol
const (
	TypeHello = "hello"
	TypeDraw  = "draw"
	TypeClear = "clear"
	TypeBrush = "brush"
	TypeBye   = "bye"
)

// Message is the envelope for everything exchanged between peers
type Message struct {
	Type string `json:"type"`
	From string `json:"from"`
	Site string `json:"site,omitempty"`
	Seq  uint64 `json:"seq,omitempty"`

	// draw: absolute head followed by deltas, flattened as x, y, dx, dy, ...
	Points []int `json:"points,omitempty"`

	// hello, brush
	Brush *state.Brush `json:"brush,omitempty"`

	// hello: canvas size the session should be created with
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// DrawList decodes the points of a draw message.
func (m Message) DrawList() (state.DrawList, error) {
	return state.ParseDrawList(m.Points)
}

// Handler receives every message read from a peer. peer is the normalised
// identity the connection was registered under.
type Handler func(peer string, msg Message)
