package gamepad

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// Request is the byte that asks the server for an update.
	Request byte = '1'
	// Terminator ends every response message.
	Terminator byte = ']'
)

// ErrEmptyMessage is returned by Decode for a zero-length message.
var ErrEmptyMessage = errors.New("empty message")

// Decode parses one framed message into snapshots. Duplicate ids keep the
// position of their first occurrence and the value of their last.
func Decode(msg []byte) ([]Snapshot, error) {
	if len(msg) == 0 {
		return nil, ErrEmptyMessage
	}

	var snaps []Snapshot
	if err := json.Unmarshal(msg, &snaps); err != nil {
		return nil, fmt.Errorf("decode snapshots: %w", err)
	}

	seen := make(map[uint8]int, len(snaps))
	out := snaps[:0]
	for _, s := range snaps {
		if i, ok := seen[s.ID]; ok {
			out[i] = s
			continue
		}
		seen[s.ID] = len(out)
		out = append(out, s)
	}
	return out, nil
}

// Encode is the server side of Decode.
func Encode(snaps []Snapshot) ([]byte, error) {
	if snaps == nil {
		snaps = []Snapshot{}
	}
	return json.Marshal(snaps)
}
