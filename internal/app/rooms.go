package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vibechat/vibe-server/internal/core"
	"github.com/vibechat/vibe-server/internal/domain"
)

// Rooms tracks watch-party membership: which live connections belong to
// which room. A connection may sit in any number of rooms at once, and the
// relation is independent of the identity registry. Empty rooms are dropped
// as soon as the last member leaves so memory stays bounded.
type Rooms struct {
	mu      sync.RWMutex
	members map[domain.RoomID]map[core.ConnID]core.SignalConnection
	byConn  map[core.ConnID]map[domain.RoomID]struct{}
	// latest is the most recent playback event seen per room; handed to
	// late joiners so they start close to the party instead of at zero.
	latest map[domain.RoomID]domain.PlaybackEvent
}

func NewRooms() *Rooms {
	return &Rooms{
		members: make(map[domain.RoomID]map[core.ConnID]core.SignalConnection),
		byConn:  make(map[core.ConnID]map[domain.RoomID]struct{}),
		latest:  make(map[domain.RoomID]domain.PlaybackEvent),
	}
}

// Join adds conn to the room. Re-joining is a no-op.
func (r *Rooms) Join(room domain.RoomID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.members[room]
	if !ok {
		set = make(map[core.ConnID]core.SignalConnection)
		r.members[room] = set
	}
	if _, ok := set[conn.ID()]; ok {
		return
	}
	set[conn.ID()] = conn
	rooms, ok := r.byConn[conn.ID()]
	if !ok {
		rooms = make(map[domain.RoomID]struct{})
		r.byConn[conn.ID()] = rooms
	}
	rooms[room] = struct{}{}
	log.Info().Str("module", "app.rooms").Str("room", string(room)).Str("conn", string(conn.ID())).Int("members", len(set)).Msg("joined room")
}

func (r *Rooms) Leave(room domain.RoomID, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(room, conn.ID())
}

// LeaveAll removes conn from every room it joined. Called from the
// disconnect path so membership never leaks past the connection.
func (r *Rooms) LeaveAll(conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room := range r.byConn[conn.ID()] {
		r.leaveLocked(room, conn.ID())
	}
}

func (r *Rooms) leaveLocked(room domain.RoomID, id core.ConnID) {
	set, ok := r.members[room]
	if !ok {
		return
	}
	delete(set, id)
	if rooms, ok := r.byConn[id]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.byConn, id)
		}
	}
	if len(set) == 0 {
		delete(r.members, room)
		delete(r.latest, room)
		log.Info().Str("module", "app.rooms").Str("room", string(room)).Msg("room reaped")
	}
}

// Contains reports whether conn is currently a member of room.
func (r *Rooms) Contains(room domain.RoomID, conn core.SignalConnection) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[room][conn.ID()]
	return ok
}

// Broadcast delivers data to every member except excluding. Sends are
// best-effort and non-blocking; slow consumers are reported back.
func (r *Rooms) Broadcast(room domain.RoomID, data core.Frame, excluding core.ConnID) core.PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := core.PublishResult{}
	for id, conn := range r.members[room] {
		if id == excluding {
			continue
		}
		if err := conn.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, conn)
			continue
		}
		res.SentTo++
	}
	return res
}

// RememberPlayback retains the latest playback event for the room; only
// called for rooms that currently exist.
func (r *Rooms) RememberPlayback(room domain.RoomID, ev domain.PlaybackEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[room]; ok {
		r.latest[room] = ev
	}
}

// LatestPlayback returns the retained snapshot for a room, if any.
func (r *Rooms) LatestPlayback(room domain.RoomID) (domain.PlaybackEvent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ev, ok := r.latest[room]
	return ev, ok
}

// Stats reports live room and membership counts for the ops endpoints.
func (r *Rooms) Stats() (rooms, members int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms = len(r.members)
	for _, set := range r.members {
		members += len(set)
	}
	return rooms, members
}
