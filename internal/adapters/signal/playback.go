package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/vibechat/vibe-server/internal/domain"
)

func (ctl *Controller) handlePlayback(uid domain.UserID, c *WsConn, data []byte) {
	var p playbackPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad playback payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if p.Room == "" {
		ctl.sendError(c, "missing_room")
		return
	}

	ev := domain.PlaybackEvent{
		Kind:  domain.PlaybackKind(p.Kind),
		Time:  p.Time,
		State: p.State,
	}
	if err := ctl.Coord.RelayPlayback(domain.RoomID(p.Room), ev, c); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("user", string(uid)).Str("kind", p.Kind).Msg("playback rejected")
		ctl.sendError(c, "bad_playback_event")
	}
}
