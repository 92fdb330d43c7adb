package playback

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vibechat/vibe-server/internal/domain"
)

// OnLocalStateChange handles a play/pause notification from the local
// player. Echoes of remote commands are suppressed, and at most one event
// leaves per debounce window so buffering flicker cannot flood the channel.
func (c *Controller) OnLocalStateChange(state domain.PlayState) {
	if c.emit == nil || c.suppressed() {
		return
	}
	var kind domain.PlaybackKind
	switch state {
	case domain.StatePlaying:
		kind = domain.KindPlay
	case domain.StatePaused:
		kind = domain.KindPause
	default:
		return
	}

	now := c.opts.Now()
	c.mu.Lock()
	if now.Sub(c.lastEmitAt) < c.opts.Debounce {
		c.mu.Unlock()
		return
	}
	c.lastEmitAt = now
	c.mu.Unlock()

	t, err := c.player.CurrentTime()
	if err != nil {
		log.Debug().Str("module", "playback").Err(err).Msg("current time unavailable, dropping local event")
		return
	}
	c.emit(domain.PlaybackEvent{Kind: kind, Time: t})
}

// OnLocalSeek handles a user-initiated seek. Seeks are deliberate, so they
// bypass the debounce; only echo suppression applies.
func (c *Controller) OnLocalSeek() {
	if c.emit == nil || c.suppressed() {
		return
	}
	t, err := c.player.CurrentTime()
	if err != nil {
		log.Debug().Str("module", "playback").Err(err).Msg("current time unavailable, dropping seek")
		return
	}
	c.emit(domain.PlaybackEvent{Kind: domain.KindSeek, Time: t})
}

// RunHeartbeat emits a sync snapshot on every tick until ctx ends. Only the
// host runs this; it fires whether or not anything changed. Blocks, so run
// it on its own goroutine.
func (c *Controller) RunHeartbeat(ctx context.Context) {
	ticker := time.NewTicker(c.opts.HeartbeatEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.HeartbeatTick()
		}
	}
}

// HeartbeatTick samples the player and emits one sync event. A failed
// sample skips the tick; the next one will catch up.
func (c *Controller) HeartbeatTick() {
	if c.emit == nil || c.player == nil {
		return
	}
	t, err := c.player.CurrentTime()
	if err != nil {
		log.Debug().Str("module", "playback").Err(err).Msg("heartbeat skipped, time unavailable")
		return
	}
	state, err := c.player.State()
	if err != nil {
		log.Debug().Str("module", "playback").Err(err).Msg("heartbeat skipped, state unavailable")
		return
	}
	c.emit(domain.PlaybackEvent{Kind: domain.KindSync, Time: t, State: state})
}
