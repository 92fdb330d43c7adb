package core

import "github.com/vibechat/vibe-server/internal/domain"

// Frame is a raw serialized payload handed to a transport.
type Frame []byte

// ConnID distinguishes live connections. Two sessions of the same user get
// different ConnIDs; stale-disconnect detection compares these.
type ConnID string

// SignalConnection abstracts the system messaging transport for one client.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	ID() ConnID
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to the coordinator.
type PublishResult struct {
	SentTo  int
	Dropped []SignalConnection
}

// PresenceSink receives the full online-user snapshot after every registry
// mutation. Implemented by the wire codec so the registry stays free of
// envelope knowledge.
type PresenceSink interface {
	PresenceChanged(online []domain.UserID, targets []SignalConnection)
}
