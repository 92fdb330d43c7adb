package core

import "github.com/vibechat/vibe-server/internal/domain"

// Encoder renders engine events into wire frames. The app layer stays free
// of envelope shapes; the signal adapter owns them.
type Encoder interface {
	Typing(sig domain.TypingSignal) Frame
	Playback(ev domain.PlaybackEvent) Frame
	RoomState(room domain.RoomID, latest *domain.PlaybackEvent) Frame
	NewMessage(msg domain.Message) Frame
}
