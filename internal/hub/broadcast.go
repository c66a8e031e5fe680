package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/soar/periscope/internal/gamepad"
)

const (
	fullSyncInterval = 5 * time.Second
	deltaCountSync   = 100
)

// Broadcaster turns published batches into full and delta messages.
type Broadcaster struct {
	hub     *Hub
	changes <-chan *gamepad.Batch
	logger  *slog.Logger

	mu   sync.Mutex
	last *gamepad.Batch
	seq  int64
}

func NewBroadcaster(h *Hub, changes <-chan *gamepad.Batch, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hub:     h,
		changes: changes,
		logger:  logger.With("component", "broadcaster"),
		last:    &gamepad.Batch{},
	}
}

// Run consumes batches until ctx is done or the channel is closed.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	var deltaCount int

	for {
		select {
		case <-ctx.Done():
			return

		case batch, ok := <-b.changes:
			if !ok {
				return
			}

			b.mu.Lock()
			delta := gamepad.ComputeDelta(b.last, batch)
			b.last = batch
			if delta.IsEmpty() {
				b.mu.Unlock()
				continue
			}
			b.seq++
			deltaCount++

			// Resync everyone now and then so lost deltas heal.
			var msg *Message
			if deltaCount >= deltaCountSync {
				msg = NewFullMessage(b.seq, batch)
				deltaCount = 0
			} else {
				msg = NewDeltaMessage(b.seq, delta)
			}
			b.mu.Unlock()
			b.send(msg)

		case <-ticker.C:
			b.mu.Lock()
			if len(b.last.Controllers) == 0 {
				b.mu.Unlock()
				continue
			}
			b.seq++
			msg := NewFullMessage(b.seq, b.last)
			b.mu.Unlock()
			b.send(msg)
		}
	}
}

// SendInitialState queues the latest batch for a newly connected client.
func (b *Broadcaster) SendInitialState(c *Client) {
	b.mu.Lock()
	b.seq++
	msg := NewFullMessage(b.seq, b.last)
	b.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("Failed to marshal initial state", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (b *Broadcaster) send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("Failed to marshal message", "type", msg.Type, "error", err)
		return
	}
	b.hub.Broadcast(data)
}
