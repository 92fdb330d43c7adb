package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/vibechat/vibe-server/internal/app"
	"github.com/vibechat/vibe-server/internal/domain"
)

func (ctl *Controller) handleTyping(uid domain.UserID, c *WsConn, data []byte) {
	var p typingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad typing payload")
		ctl.sendError(c, "bad_payload")
		return
	}

	err := ctl.Coord.RouteTyping(domain.TypingSignal{
		From:     uid,
		To:       domain.UserID(p.To),
		IsTyping: p.IsTyping,
	})
	switch {
	case errors.Is(err, app.ErrNoSender):
		// Anonymous connections cannot send attributable indicators.
		ctl.sendError(c, "unauthenticated")
	case errors.Is(err, app.ErrNoTarget):
		ctl.sendError(c, "missing_target")
	}
	// An offline target returns nil: a routing miss is a normal outcome.
}
