package app

import "github.com/vibechat/vibe-server/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropSignal
	CloseSlow
)

// Policy decides what to do with a connection whose send buffer is full.
// Ephemeral signals are meaningless once stale, so dropping is always safe;
// closing punts slow consumers back to a fresh reconnect.
type Policy interface {
	OnBackpressure(conn core.SignalConnection) BackpressureAction
}

// SimplePolicy drops the frame and keeps the connection. The heartbeat
// converges anyone who missed an event.
type SimplePolicy struct{}

func (SimplePolicy) OnBackpressure(core.SignalConnection) BackpressureAction {
	return DropSignal
}
