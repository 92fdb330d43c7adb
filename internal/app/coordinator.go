package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/vibechat/vibe-server/internal/core"
	"github.com/vibechat/vibe-server/internal/domain"
)

var (
	// ErrNoSender marks a typing signal without an authenticated sender.
	// The UI cannot attribute an anonymous indicator, so this is a usage
	// error at the boundary, not a silent drop.
	ErrNoSender = errors.New("typing signal requires a sender identity")
	// ErrNoTarget marks a typing signal without a recipient.
	ErrNoTarget = errors.New("typing signal requires a target identity")
)

// Metrics is the counter surface the coordinator reports into. The
// prometheus implementation lives in internal/metrics; tests use NopMetrics.
type Metrics interface {
	ConnOpened()
	ConnClosed()
	SetOnline(n int)
	SetRooms(n int)
	TypingRouted()
	TypingDropped()
	PlaybackRelayed(kind string, receivers int)
	SendDropped(n int)
}

// NopMetrics satisfies Metrics and records nothing.
type NopMetrics struct{}

func (NopMetrics) ConnOpened()                     {}
func (NopMetrics) ConnClosed()                     {}
func (NopMetrics) SetOnline(int)                   {}
func (NopMetrics) SetRooms(int)                    {}
func (NopMetrics) TypingRouted()                   {}
func (NopMetrics) TypingDropped()                  {}
func (NopMetrics) PlaybackRelayed(string, int)     {}
func (NopMetrics) SendDropped(int)                 {}

// Coordinator ties the registry and room membership together and owns the
// relay logic: presence cascade on connect/disconnect, targeted typing
// signals, and room-scoped playback fan-out.
type Coordinator struct {
	Registry *Registry
	Rooms    *Rooms
	Enc      core.Encoder
	Policy   Policy
	Metrics  Metrics
}

func NewCoordinator(reg *Registry, rooms *Rooms, enc core.Encoder, m Metrics) *Coordinator {
	if m == nil {
		m = NopMetrics{}
	}
	return &Coordinator{
		Registry: reg,
		Rooms:    rooms,
		Enc:      enc,
		Policy:   SimplePolicy{},
		Metrics:  m,
	}
}

// Connect registers the identity; the registry fans out the new presence
// snapshot as part of the same mutation.
func (c *Coordinator) Connect(uid domain.UserID, conn core.SignalConnection) {
	c.Metrics.ConnOpened()
	if c.Registry.Register(uid, conn) {
		c.Metrics.SetOnline(c.Registry.Count())
	}
}

// Disconnect runs the cleanup cascade as one synchronous sequence:
// guarded unregister, membership removal, presence snapshot. There is no
// window in which a departed connection still looks present.
func (c *Coordinator) Disconnect(uid domain.UserID, conn core.SignalConnection) {
	if c.Registry.Unregister(uid, conn) {
		c.Metrics.SetOnline(c.Registry.Count())
	}
	c.Rooms.LeaveAll(conn)
	rooms, _ := c.Rooms.Stats()
	c.Metrics.SetRooms(rooms)
	c.Metrics.ConnClosed()
}

// JoinRoom attaches conn to the room and catches the joiner up with the
// retained playback snapshot, if the room has seen one.
func (c *Coordinator) JoinRoom(room domain.RoomID, conn core.SignalConnection) {
	c.Rooms.Join(room, conn)
	rooms, _ := c.Rooms.Stats()
	c.Metrics.SetRooms(rooms)

	var latest *domain.PlaybackEvent
	if ev, ok := c.Rooms.LatestPlayback(room); ok {
		latest = &ev
	}
	if err := conn.TrySend(c.Enc.RoomState(room, latest)); err != nil {
		log.Warn().Str("module", "app.coordinator").Str("room", string(room)).Err(err).Msg("room state send failed")
	}
}

// RouteTyping forwards a typing signal to its target's live connection.
// An offline target is a normal outcome and drops silently; a missing
// sender or target is rejected at the boundary.
func (c *Coordinator) RouteTyping(sig domain.TypingSignal) error {
	if sig.From == "" {
		return ErrNoSender
	}
	if sig.To == "" {
		return ErrNoTarget
	}
	conn, ok := c.Registry.Lookup(sig.To)
	if !ok {
		c.Metrics.TypingDropped()
		return nil
	}
	if err := conn.TrySend(c.Enc.Typing(sig)); err != nil {
		c.Metrics.SendDropped(1)
		c.applyPolicy([]core.SignalConnection{conn})
		return nil
	}
	c.Metrics.TypingRouted()
	return nil
}

// RelayPlayback rebroadcasts a playback event to every other room member
// and retains it as the room's latest snapshot for late joiners.
func (c *Coordinator) RelayPlayback(room domain.RoomID, ev domain.PlaybackEvent, sender core.SignalConnection) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	res := c.Rooms.Broadcast(room, c.Enc.Playback(ev), sender.ID())
	c.Rooms.RememberPlayback(room, ev)
	c.Metrics.PlaybackRelayed(string(ev.Kind), res.SentTo)
	if len(res.Dropped) > 0 {
		c.Metrics.SendDropped(len(res.Dropped))
		c.applyPolicy(res.Dropped)
	}
	return nil
}

// PushMessage delivers a freshly persisted direct message to the
// recipient's live connection, if any. Offline recipients read it from the
// durable store later; nothing is queued here.
func (c *Coordinator) PushMessage(msg domain.Message) {
	conn, ok := c.Registry.Lookup(msg.ReceiverID)
	if !ok {
		return
	}
	if err := conn.TrySend(c.Enc.NewMessage(msg)); err != nil {
		c.Metrics.SendDropped(1)
		c.applyPolicy([]core.SignalConnection{conn})
	}
}

func (c *Coordinator) applyPolicy(slow []core.SignalConnection) {
	if c.Policy == nil {
		return
	}
	for _, conn := range slow {
		switch c.Policy.OnBackpressure(conn) {
		case CloseSlow:
			log.Warn().Str("module", "app.coordinator").Str("conn", string(conn.ID())).Msg("closing slow connection")
			conn.Close()
		case DropSignal, NoAction:
		}
	}
}
