package hub

import (
	"time"

	"github.com/soar/periscope/internal/gamepad"
)

// Message is what the mirror sends to its websocket clients.
type Message struct {
	Type      string         `json:"type"`              // "full" or "delta"
	Seq       int64          `json:"seq"`               // Message sequence, per broadcaster
	Timestamp int64          `json:"timestamp"`         // Unix milliseconds
	Data      *gamepad.Batch `json:"data,omitempty"`    // Whole store contents for "full"
	Changes   *gamepad.Delta `json:"changes,omitempty"` // Per-controller changes for "delta"
}

// NewFullMessage creates a "full" message carrying the complete batch.
func NewFullMessage(seq int64, batch *gamepad.Batch) *Message {
	return &Message{
		Type:      "full",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Data:      batch,
	}
}

// NewDeltaMessage creates a "delta" message with only the changed controllers.
func NewDeltaMessage(seq int64, changes *gamepad.Delta) *Message {
	return &Message{
		Type:      "delta",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Changes:   changes,
	}
}
