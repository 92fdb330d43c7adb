package domain

import "github.com/google/uuid"

// RoomID identifies one watch-party session. IDs live only in process
// memory; the 128-bit random space makes collision tracking unnecessary.
type RoomID string

// NewRoomID mints a fresh room identifier.
func NewRoomID() RoomID {
	return RoomID(uuid.NewString())
}

// PlayState mirrors the player states the engine cares about. Anything a
// concrete player reports beyond playing/paused maps to StateUnknown.
type PlayState int

const (
	StateUnknown PlayState = iota
	StatePlaying
	StatePaused
)

func (s PlayState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

func (s PlayState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON maps anything unrecognized to StateUnknown rather than
// failing; peers may run newer players reporting states we do not model.
func (s *PlayState) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case `"playing"`:
		*s = StatePlaying
	case `"paused"`:
		*s = StatePaused
	default:
		*s = StateUnknown
	}
	return nil
}
