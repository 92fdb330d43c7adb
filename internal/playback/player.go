// Package playback keeps a local media player in step with a watch-party
// room. The server only relays discrete events; everything that prevents
// feedback loops and corrects drift lives here.
package playback

import "github.com/vibechat/vibe-server/internal/domain"

// Player is the control surface of a local media player. Reads are a
// separate phase from commands: a failed read means "unknown", the caller
// skips the correction and moves on — player introspection failures must
// never propagate to the relay layer.
type Player interface {
	CurrentTime() (float64, error)
	State() (domain.PlayState, error)

	Seek(seconds float64) error
	Play() error
	Pause() error
}
