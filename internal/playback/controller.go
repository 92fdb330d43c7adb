package playback

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vibechat/vibe-server/internal/domain"
)

const (
	// DefaultSeekTolerance is the position divergence below which no seek
	// is issued; micro-corrections cause visible stutter.
	DefaultSeekTolerance = 0.25
	// DefaultRemoteGrace covers the asynchronous state-change notification
	// a player fires after being commanded remotely.
	DefaultRemoteGrace = 50 * time.Millisecond
	// DefaultDebounce caps outgoing events when the local player flickers
	// through rapid state transitions.
	DefaultDebounce = 80 * time.Millisecond
	// DefaultHeartbeatEvery is the host's sync cadence. The heartbeat is
	// the only self-healing against permanently lost events.
	DefaultHeartbeatEvery = 4 * time.Second
)

// EmitFunc sends an event toward the server relay.
type EmitFunc func(domain.PlaybackEvent)

type Options struct {
	SeekTolerance  float64
	RemoteGrace    time.Duration
	Debounce       time.Duration
	HeartbeatEvery time.Duration

	// Now is the clock; tests swap it out.
	Now func() time.Time
}

func (o *Options) defaults() {
	if o.SeekTolerance <= 0 {
		o.SeekTolerance = DefaultSeekTolerance
	}
	if o.RemoteGrace <= 0 {
		o.RemoteGrace = DefaultRemoteGrace
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.HeartbeatEvery <= 0 {
		o.HeartbeatEvery = DefaultHeartbeatEvery
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Controller owns the per-session playback state: the remote-apply
// suppression window and the outgoing debounce stamp. One controller per
// room session; lifecycle matches the connection.
type Controller struct {
	player Player
	emit   EmitFunc
	opts   Options

	mu            sync.Mutex
	applying      bool
	suppressUntil time.Time
	lastEmitAt    time.Time
}

func NewController(player Player, emit EmitFunc, opts Options) *Controller {
	opts.defaults()
	return &Controller{player: player, emit: emit, opts: opts}
}

// Apply reconciles an incoming remote event against the local player.
// Events arriving before a player exists are dropped, not queued; the next
// heartbeat re-synchronizes. While applying (and for a short grace window
// after), locally observed player notifications are treated as echoes.
func (c *Controller) Apply(ev domain.PlaybackEvent) {
	if c.player == nil {
		return
	}
	c.mu.Lock()
	c.applying = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.applying = false
		c.suppressUntil = c.opts.Now().Add(c.opts.RemoteGrace)
		c.mu.Unlock()
	}()

	switch ev.Kind {
	case domain.KindSeek:
		c.reconcilePosition(ev.Time)
	case domain.KindPause:
		c.reconcilePosition(ev.Time)
		c.command(c.player.Pause, "pause")
	case domain.KindPlay:
		c.reconcilePosition(ev.Time)
		c.command(c.player.Play, "play")
	case domain.KindSync:
		c.reconcilePosition(ev.Time)
		c.reconcileState(ev.State)
	}
}

// reconcilePosition seeks only when divergence exceeds the tolerance. An
// unreadable position means unknown: skip the correction for this event.
func (c *Controller) reconcilePosition(target float64) {
	cur, err := c.player.CurrentTime()
	if err != nil {
		log.Debug().Str("module", "playback").Err(err).Msg("current time unavailable, skipping correction")
		return
	}
	diff := cur - target
	if diff < 0 {
		diff = -diff
	}
	if diff > c.opts.SeekTolerance {
		c.command(func() error { return c.player.Seek(target) }, "seek")
	}
}

// reconcileState issues play/pause only on an actual mismatch; a redundant
// command is itself a visible hitch.
func (c *Controller) reconcileState(target domain.PlayState) {
	cur, err := c.player.State()
	if err != nil {
		log.Debug().Str("module", "playback").Err(err).Msg("player state unavailable, skipping correction")
		return
	}
	switch {
	case target == domain.StatePaused && cur != domain.StatePaused:
		c.command(c.player.Pause, "pause")
	case target == domain.StatePlaying && cur != domain.StatePlaying:
		c.command(c.player.Play, "play")
	}
}

func (c *Controller) command(f func() error, name string) {
	if err := f(); err != nil {
		log.Debug().Str("module", "playback").Str("command", name).Err(err).Msg("player command failed")
	}
}

// suppressed reports whether a local notification should be treated as the
// echo of a remote command.
func (c *Controller) suppressed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applying || c.opts.Now().Before(c.suppressUntil)
}
