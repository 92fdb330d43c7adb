package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/vibechat/vibe-server/internal/core"
	"github.com/vibechat/vibe-server/internal/domain"
)

// Event types multiplexed over one websocket connection.
const (
	// client -> server
	TypeJoinRoom = "join-room"
	TypeTyping   = "typing"
	TypePlayback = "playback"
	TypePing     = "ping"

	// server -> client
	TypePresence   = "presence"
	TypeRoomState  = "room-state"
	TypeNewMessage = "new-message"
	TypePong       = "pong"
	TypeError      = "error"
)

type joinRoomPayload struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

type typingPayload struct {
	Type     string `json:"type"`
	To       string `json:"to"`
	IsTyping bool   `json:"is_typing"`
}

type playbackPayload struct {
	Type  string           `json:"type"`
	Room  string           `json:"room"`
	Kind  string           `json:"kind"`
	Time  float64          `json:"time"`
	State domain.PlayState `json:"state,omitempty"`
}

// Codec renders engine events into wire frames. It implements both
// core.Encoder and core.PresenceSink so the app layer never sees JSON.
type Codec struct{}

func (Codec) Typing(sig domain.TypingSignal) core.Frame {
	return marshal(struct {
		Type     string        `json:"type"`
		From     domain.UserID `json:"from"`
		IsTyping bool          `json:"is_typing"`
	}{TypeTyping, sig.From, sig.IsTyping})
}

// Playback relays the event shape minus the room id; the receiver already
// knows which room its connection joined the event through.
func (Codec) Playback(ev domain.PlaybackEvent) core.Frame {
	return marshal(struct {
		Type  string           `json:"type"`
		Kind  string           `json:"kind"`
		Time  float64          `json:"time"`
		State domain.PlayState `json:"state,omitempty"`
	}{TypePlayback, string(ev.Kind), ev.Time, ev.State})
}

func (Codec) RoomState(room domain.RoomID, latest *domain.PlaybackEvent) core.Frame {
	return marshal(struct {
		Type     string                `json:"type"`
		Room     domain.RoomID         `json:"room"`
		Playback *domain.PlaybackEvent `json:"playback,omitempty"`
	}{TypeRoomState, room, latest})
}

func (Codec) NewMessage(msg domain.Message) core.Frame {
	return marshal(struct {
		Type    string         `json:"type"`
		Message domain.Message `json:"message"`
	}{TypeNewMessage, msg})
}

// PresenceChanged marshals the full online snapshot once and fans it out.
// Sends are non-blocking; the registry calls this under its lock.
func (Codec) PresenceChanged(online []domain.UserID, targets []core.SignalConnection) {
	frame := marshal(struct {
		Type  string          `json:"type"`
		Users []domain.UserID `json:"users"`
	}{TypePresence, online})
	for _, conn := range targets {
		if err := conn.TrySend(frame); err != nil {
			log.Debug().Str("module", "signal").Str("conn", string(conn.ID())).Err(err).Msg("presence send dropped")
		}
	}
}

func marshal(v any) core.Frame {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("marshal frame")
		return nil
	}
	return b
}
