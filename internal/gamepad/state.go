package gamepad

import (
	"math"
	"time"
)

// Stick is a raw analog stick reading. Each axis is nominally in
// [-MaxAxis, MaxAxis] with positive Y meaning "up".
type Stick struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
}

// Snapshot is one controller's state as sent by the server.
type Snapshot struct {
	ID        uint8  `json:"id" yaml:"id"`
	Connected uint8  `json:"c" yaml:"c"`
	Buttons   uint32 `json:"bs" yaml:"bs"`
	Left      Stick  `json:"ls" yaml:"ls"`
	Right     Stick  `json:"rs" yaml:"rs"`
}

// IsConnected reports the wire flag; only the value 1 means connected.
func (s Snapshot) IsConnected() bool {
	return s.Connected == 1
}

// Batch is one decoded update. It is never modified after being published.
type Batch struct {
	Seq         uint64     `json:"seq"`
	Received    time.Time  `json:"received"`
	Controllers []Snapshot `json:"controllers"`
}

var emptyBatch = &Batch{}

// Find returns the snapshot for id, if the batch has one.
func (b *Batch) Find(id uint8) (Snapshot, bool) {
	if b == nil {
		return Snapshot{}, false
	}
	for _, s := range b.Controllers {
		if s.ID == id {
			return s, true
		}
	}
	return Snapshot{}, false
}

// Delta lists what changed between two batches.
type Delta struct {
	Changed []Snapshot `json:"changed,omitempty"`
	Removed []uint8    `json:"removed,omitempty"`
}

func (d *Delta) IsEmpty() bool {
	return len(d.Changed) == 0 && len(d.Removed) == 0
}

const analogThreshold = 1.0

func stickEqual(a, b Stick) bool {
	return math.Abs(float64(a.X-b.X)) < analogThreshold &&
		math.Abs(float64(a.Y-b.Y)) < analogThreshold
}

func snapshotEqual(a, b Snapshot) bool {
	return a.ID == b.ID &&
		a.Connected == b.Connected &&
		a.Buttons == b.Buttons &&
		stickEqual(a.Left, b.Left) &&
		stickEqual(a.Right, b.Right)
}

// ComputeDelta compares two batches controller by controller. Stick jitter
// below one raw unit is not reported.
func ComputeDelta(old, new_ *Batch) *Delta {
	d := &Delta{}

	for _, s := range new_.Controllers {
		prev, ok := old.Find(s.ID)
		if !ok || !snapshotEqual(prev, s) {
			d.Changed = append(d.Changed, s)
		}
	}
	if old != nil {
		for _, s := range old.Controllers {
			if _, ok := new_.Find(s.ID); !ok {
				d.Removed = append(d.Removed, s.ID)
			}
		}
	}

	return d
}
