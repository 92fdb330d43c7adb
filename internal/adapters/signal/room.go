package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/vibechat/vibe-server/internal/domain"
)

func (ctl *Controller) handleJoinRoom(uid domain.UserID, c *WsConn, data []byte) {
	var p joinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad join-room payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if p.Room == "" {
		ctl.sendError(c, "missing_room")
		return
	}
	log.Info().Str("module", "signal").Str("user", string(uid)).Str("room", p.Room).Msg("join room")
	ctl.Coord.JoinRoom(domain.RoomID(p.Room), c)
}
