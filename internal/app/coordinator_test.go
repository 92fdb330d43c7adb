package app

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibechat/vibe-server/internal/core"
	"github.com/vibechat/vibe-server/internal/domain"
)

// fakeEncoder renders events as small JSON tags so tests can assert on
// what reached which connection.
type fakeEncoder struct{}

func (fakeEncoder) Typing(sig domain.TypingSignal) core.Frame {
	b, _ := json.Marshal(map[string]any{"t": "typing", "from": sig.From, "is_typing": sig.IsTyping})
	return b
}

func (fakeEncoder) Playback(ev domain.PlaybackEvent) core.Frame {
	b, _ := json.Marshal(map[string]any{"t": "playback", "kind": ev.Kind, "time": ev.Time})
	return b
}

func (fakeEncoder) RoomState(room domain.RoomID, latest *domain.PlaybackEvent) core.Frame {
	b, _ := json.Marshal(map[string]any{"t": "room-state", "room": room, "playback": latest})
	return b
}

func (fakeEncoder) NewMessage(msg domain.Message) core.Frame {
	b, _ := json.Marshal(map[string]any{"t": "new-message", "body": msg.Body})
	return b
}

func newTestCoordinator() *Coordinator {
	enc := fakeEncoder{}
	reg := NewRegistry(&fakeSink{})
	return NewCoordinator(reg, NewRooms(), enc, nil)
}

func decodeFrames(t *testing.T, frames []core.Frame) []map[string]any {
	t.Helper()
	out := make([]map[string]any, 0, len(frames))
	for _, f := range frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

func TestCoordinator_TypingRouting(t *testing.T) {
	c := newTestCoordinator()
	bob := newFakeConn("bob-conn")
	c.Connect("bob", bob)

	require.NoError(t, c.RouteTyping(domain.TypingSignal{From: "alice", To: "bob", IsTyping: true}))
	got := decodeFrames(t, bob.received())
	require.Len(t, got, 1)
	assert.Equal(t, "typing", got[0]["t"])
	assert.Equal(t, "alice", got[0]["from"])

	// Offline target: silent no-op, no error.
	require.NoError(t, c.RouteTyping(domain.TypingSignal{From: "alice", To: "ghost", IsTyping: true}))

	// Boundary rejections.
	assert.ErrorIs(t, c.RouteTyping(domain.TypingSignal{To: "bob"}), ErrNoSender)
	assert.ErrorIs(t, c.RouteTyping(domain.TypingSignal{From: "alice"}), ErrNoTarget)
}

func TestCoordinator_PlaybackRelay(t *testing.T) {
	c := newTestCoordinator()
	a := newFakeConn("a")
	b := newFakeConn("b")
	outsider := newFakeConn("outsider")

	c.JoinRoom("r1", a)
	c.JoinRoom("r1", b)
	c.JoinRoom("r2", outsider)

	require.NoError(t, c.RelayPlayback("r1", domain.PlaybackEvent{Kind: domain.KindSeek, Time: 120.0}, a))

	got := decodeFrames(t, b.received())
	require.Len(t, got, 2) // room-state on join, then the relay
	assert.Equal(t, "playback", got[1]["t"])
	assert.Equal(t, "seek", got[1]["kind"])
	assert.Equal(t, 120.0, got[1]["time"])

	// Nothing back to the sender, nothing to other rooms.
	assert.Len(t, a.received(), 1) // join room-state only
	assert.Len(t, outsider.received(), 1)
}

func TestCoordinator_PlaybackRejectsMalformed(t *testing.T) {
	c := newTestCoordinator()
	a := newFakeConn("a")
	c.JoinRoom("r1", a)

	assert.Error(t, c.RelayPlayback("r1", domain.PlaybackEvent{Kind: "rewind", Time: 1}, a))
	assert.Error(t, c.RelayPlayback("r1", domain.PlaybackEvent{Kind: domain.KindSeek, Time: math.NaN()}, a))
	assert.Error(t, c.RelayPlayback("r1", domain.PlaybackEvent{Kind: domain.KindSeek, Time: math.Inf(1)}, a))
}

func TestCoordinator_LateJoinerGetsSnapshot(t *testing.T) {
	c := newTestCoordinator()
	host := newFakeConn("host")
	c.JoinRoom("r1", host)
	require.NoError(t, c.RelayPlayback("r1", domain.PlaybackEvent{Kind: domain.KindSync, Time: 33.0, State: domain.StatePlaying}, host))

	late := newFakeConn("late")
	c.JoinRoom("r1", late)

	got := decodeFrames(t, late.received())
	require.Len(t, got, 1)
	assert.Equal(t, "room-state", got[0]["t"])
	require.NotNil(t, got[0]["playback"])
	pb := got[0]["playback"].(map[string]any)
	assert.Equal(t, 33.0, pb["time"])
}

func TestCoordinator_DisconnectCascade(t *testing.T) {
	sink := &fakeSink{}
	c := NewCoordinator(NewRegistry(sink), NewRooms(), fakeEncoder{}, nil)
	alice := newFakeConn("alice-conn")
	bob := newFakeConn("bob-conn")

	c.Connect("alice", alice)
	c.Connect("bob", bob)
	c.JoinRoom("r1", alice)
	c.JoinRoom("r2", alice)
	c.JoinRoom("r1", bob)

	c.Disconnect("alice", alice)

	// Identity gone from the next presence snapshot.
	assert.ElementsMatch(t, []domain.UserID{"bob"}, sink.last())
	// Connection gone from every room.
	assert.False(t, c.Rooms.Contains("r1", alice))
	assert.False(t, c.Rooms.Contains("r2", alice))

	// Relays no longer reach the departed connection.
	before := len(alice.received())
	require.NoError(t, c.RelayPlayback("r1", domain.PlaybackEvent{Kind: domain.KindPlay, Time: 1}, bob))
	assert.Len(t, alice.received(), before)
}

func TestCoordinator_StaleDisconnectKeepsNewerConnection(t *testing.T) {
	sink := &fakeSink{}
	c := NewCoordinator(NewRegistry(sink), NewRooms(), fakeEncoder{}, nil)
	old := newFakeConn("old")
	fresh := newFakeConn("fresh")

	c.Connect("alice", old)
	c.Connect("alice", fresh)
	// The superseded connection's delayed close callback arrives late.
	c.Disconnect("alice", old)

	_, ok := c.Registry.Lookup("alice")
	assert.True(t, ok)
	assert.Contains(t, sink.last(), domain.UserID("alice"))
}

func TestCoordinator_PushMessage(t *testing.T) {
	c := newTestCoordinator()
	bob := newFakeConn("bob-conn")
	c.Connect("bob", bob)

	c.PushMessage(domain.Message{SenderID: "alice", ReceiverID: "bob", Body: "hi"})
	got := decodeFrames(t, bob.received())
	require.Len(t, got, 1)
	assert.Equal(t, "new-message", got[0]["t"])

	// Offline recipient: nothing happens, nothing queued.
	c.PushMessage(domain.Message{SenderID: "alice", ReceiverID: "ghost", Body: "hi"})
}
