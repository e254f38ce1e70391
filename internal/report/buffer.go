package report

import (
	"sync"

	"github.com/ikstudios/step-counter/internal/channel"
)

// Buffer is the per-channel slot table shared by query callbacks. Each
// callback writes only its own slot; the buffer outlives a single read
// so late arrivals show up on the next one.
type Buffer struct {
	mu    sync.Mutex
	slots map[channel.ID]channel.Reading
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{slots: make(map[channel.ID]channel.Reading)}
}

// Set stores r in its channel's slot.
func (b *Buffer) Set(r channel.Reading) {
	b.mu.Lock()
	b.slots[r.Channel] = r
	b.mu.Unlock()
}

// Get returns the reading for id, if any.
func (b *Buffer) Get(id channel.ID) (channel.Reading, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.slots[id]
	return r, ok
}

// Snapshot copies the current slots.
func (b *Buffer) Snapshot() map[channel.ID]channel.Reading {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[channel.ID]channel.Reading, len(b.slots))
	for k, v := range b.slots {
		out[k] = v
	}
	return out
}
