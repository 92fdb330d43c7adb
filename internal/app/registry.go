package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vibechat/vibe-server/internal/core"
	"github.com/vibechat/vibe-server/internal/domain"
)

// Registry maps durable user identities to their single live connection.
// At most one connection is mapped per identity: a newer connection for the
// same user supersedes the old mapping without closing the old transport,
// since transport closure is reported by its own event.
type Registry struct {
	mu     sync.RWMutex
	byUser map[domain.UserID]core.SignalConnection
	sink   core.PresenceSink
}

func NewRegistry(sink core.PresenceSink) *Registry {
	return &Registry{
		byUser: make(map[domain.UserID]core.SignalConnection),
		sink:   sink,
	}
}

// Register binds uid to conn, replacing any prior handle. An empty uid is a
// no-op: anonymous connections may exist but are invisible to presence and
// routing. Returns whether the registry changed.
func (r *Registry) Register(uid domain.UserID, conn core.SignalConnection) bool {
	if uid == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byUser[uid]; ok && old.ID() != conn.ID() {
		log.Info().Str("module", "app.registry").Str("user", string(uid)).Msg("superseding stale connection")
	}
	r.byUser[uid] = conn
	r.broadcastLocked()
	return true
}

// Unregister removes the mapping only if conn is still the mapped handle.
// A stale disconnect racing a newer connection of the same user must not
// evict the newer mapping. Returns whether the registry changed.
func (r *Registry) Unregister(uid domain.UserID, conn core.SignalConnection) bool {
	if uid == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byUser[uid]
	if !ok || cur.ID() != conn.ID() {
		log.Debug().Str("module", "app.registry").Str("user", string(uid)).Msg("stale unregister ignored")
		return false
	}
	delete(r.byUser, uid)
	r.broadcastLocked()
	return true
}

// Lookup returns the live connection for uid. A miss is not an error;
// callers treat it as "recipient offline" and drop.
func (r *Registry) Lookup(uid domain.UserID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byUser[uid]
	return conn, ok
}

// Online returns the current full identity set, recomputed from scratch.
func (r *Registry) Online() []domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onlineLocked()
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

func (r *Registry) onlineLocked() []domain.UserID {
	out := make([]domain.UserID, 0, len(r.byUser))
	for uid := range r.byUser {
		out = append(out, uid)
	}
	return out
}

// broadcastLocked fans the full snapshot out to every registered connection,
// the mutating one included. Running under the registry lock serializes
// snapshots in mutation order; the sink must only do non-blocking sends.
func (r *Registry) broadcastLocked() {
	if r.sink == nil {
		return
	}
	targets := make([]core.SignalConnection, 0, len(r.byUser))
	for _, c := range r.byUser {
		targets = append(targets, c)
	}
	r.sink.PresenceChanged(r.onlineLocked(), targets)
}
