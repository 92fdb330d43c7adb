package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/vibechat/vibe-server/internal/domain"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *WsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, uid domain.UserID, c *WsConn, limiter *rate.Limiter) {
	defer func() {
		log.Info().Str("module", "signal").Str("user", string(uid)).Msg("readPump closing")
	}()

	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * ctl.Cfg.PingPeriod))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * ctl.Cfg.PingPeriod))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("user", string(uid)).Msg("readPump read error")
				}
				return
			}
			if !limiter.Allow() {
				log.Warn().Str("module", "signal").Str("user", string(uid)).Msg("event rate exceeded, dropping")
				continue
			}
			ctl.dispatch(uid, c, data)
		}
	}
}

// dispatch routes one inbound frame by its type tag. Malformed frames are
// rejected here and never forwarded.
func (ctl *Controller) dispatch(uid domain.UserID, c *WsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, "bad_payload")
		return
	}

	switch env.Type {
	case TypeJoinRoom:
		ctl.handleJoinRoom(uid, c, data)
	case TypeTyping:
		ctl.handleTyping(uid, c, data)
	case TypePlayback:
		ctl.handlePlayback(uid, c, data)
	case TypePing:
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func (ctl *Controller) handlePing(c *WsConn) {
	ctl.sendJSON(c, struct {
		Type string `json:"type"`
	}{TypePong})
}

func (ctl *Controller) sendError(c *WsConn, reason string) {
	ctl.sendJSON(c, map[string]any{"type": TypeError, "error": reason})
}

func (ctl *Controller) sendJSON(c *WsConn, v any) {
	if err := c.TrySend(marshal(v)); err != nil {
		log.Debug().Err(err).Str("module", "signal").Msg("send dropped")
	}
}
