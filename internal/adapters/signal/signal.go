package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/vibechat/vibe-server/internal/app"
	"github.com/vibechat/vibe-server/internal/config"
	"github.com/vibechat/vibe-server/internal/core"
	"github.com/vibechat/vibe-server/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Controller terminates websocket connections and dispatches their events
// into the coordinator.
type Controller struct {
	Coord *app.Coordinator
	Cfg   *config.Config
}

func NewController(coord *app.Coordinator, cfg *config.Config) *Controller {
	return &Controller{Coord: coord, Cfg: cfg}
}

// WsConn adapts one gorilla connection to core.SignalConnection. Sends go
// through a buffered channel so no handler ever blocks on a slow peer.
type WsConn struct {
	id   core.ConnID
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsConn(ws *websocket.Conn, buffer int) *WsConn {
	return &WsConn{
		id:   core.ConnID(uuid.NewString()),
		conn: ws,
		send: make(chan core.Frame, buffer),
	}
}

func (c *WsConn) ID() core.ConnID { return c.id }

func (c *WsConn) TrySend(f core.Frame) error {
	if f == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleSignal upgrades the request and runs the connection until it drops.
// The identity comes from the auth middleware; an empty identity is an
// anonymous connection, allowed but invisible to presence and routing.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	uid := domain.UserID(c.GetString("identity"))

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("user", string(uid)).Msg("new WS connection")

	conn := newWsConn(ws, ctl.Cfg.SendBuffer)
	ctl.Coord.Connect(uid, conn)

	connCtx, cancel := context.WithCancel(ctx)
	limiter := rate.NewLimiter(rate.Limit(ctl.Cfg.EventRate), ctl.Cfg.EventBurst)

	go ctl.writePump(connCtx, conn)
	go func() {
		defer cancel()
		ctl.readPump(connCtx, uid, conn, limiter)
		// Cleanup cascade: guarded unregister, membership removal and a
		// fresh presence snapshot, all before the connection is gone.
		ctl.Coord.Disconnect(uid, conn)
		conn.Close()
	}()
}
