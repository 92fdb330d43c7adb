package domain

import (
	"errors"
	"math"
)

// PlaybackKind tags a playback event. Sync is emitted only by the room
// host's heartbeat; the other three come from any participant's player.
type PlaybackKind string

const (
	KindSeek  PlaybackKind = "seek"
	KindPlay  PlaybackKind = "play"
	KindPause PlaybackKind = "pause"
	KindSync  PlaybackKind = "sync"
)

var ErrBadPlaybackEvent = errors.New("bad playback event")

// PlaybackEvent is transient: forwarded at most once to the other room
// members, then discarded. Time is in seconds; negative or out-of-range
// values pass through, clamping is the receiving player's job.
type PlaybackEvent struct {
	Kind  PlaybackKind `json:"kind"`
	Time  float64      `json:"time"`
	State PlayState    `json:"state,omitempty"`
}

// Validate rejects unknown kinds and non-finite positions. That is the
// only server-side check; everything else is relayed verbatim.
func (e PlaybackEvent) Validate() error {
	switch e.Kind {
	case KindSeek, KindPlay, KindPause, KindSync:
	default:
		return ErrBadPlaybackEvent
	}
	if math.IsNaN(e.Time) || math.IsInf(e.Time, 0) {
		return ErrBadPlaybackEvent
	}
	return nil
}

// TypingSignal is a targeted ephemeral signal, last-one-wins, never queued.
type TypingSignal struct {
	From     UserID `json:"from"`
	To       UserID `json:"to"`
	IsTyping bool   `json:"is_typing"`
}
