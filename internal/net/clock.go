package net

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Clock stamps outgoing messages with this process's site ID and a Lamport
// sequence number.
type Clock struct {
	site    string
	lamport atomic.Uint64
}

func NewClock() *Clock {
	return &Clock{site: uuid.NewString()}
}

func (c *Clock) Site() string { return c.site }

// Tick advances the clock and returns the new value.
func (c *Clock) Tick() uint64 {
	return c.lamport.Add(1)
}

// Observe moves the clock past a sequence number seen on an incoming message.
func (c *Clock) Observe(seq uint64) {
	for {
		cur := c.lamport.Load()
		if seq <= cur || c.lamport.CompareAndSwap(cur, seq) {
			return
		}
	}
}

// Now returns the current value without advancing.
func (c *Clock) Now() uint64 {
	return c.lamport.Load()
}
