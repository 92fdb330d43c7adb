package signal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibechat/vibe-server/internal/app"
	"github.com/vibechat/vibe-server/internal/config"
	"github.com/vibechat/vibe-server/internal/core"
	"github.com/vibechat/vibe-server/internal/domain"
)

func newTestController() *Controller {
	codec := Codec{}
	reg := app.NewRegistry(codec)
	coord := app.NewCoordinator(reg, app.NewRooms(), codec, nil)
	return NewController(coord, &config.Config{SendBuffer: 64})
}

// drain empties the connection's send buffer into decoded envelopes.
func drain(t *testing.T, c *WsConn) []map[string]any {
	t.Helper()
	var out []map[string]any
	for {
		select {
		case f := <-c.send:
			var m map[string]any
			require.NoError(t, json.Unmarshal(f, &m))
			out = append(out, m)
		default:
			return out
		}
	}
}

func testConn() *WsConn {
	return newWsConn(nil, 64)
}

func TestDispatch_MalformedJSON(t *testing.T) {
	ctl := newTestController()
	c := testConn()

	ctl.dispatch("alice", c, []byte("not json"))

	got := drain(t, c)
	require.Len(t, got, 1)
	assert.Equal(t, TypeError, got[0]["type"])
}

func TestDispatch_UnknownTypeIgnored(t *testing.T) {
	ctl := newTestController()
	c := testConn()

	ctl.dispatch("alice", c, []byte(`{"type":"teleport"}`))
	assert.Empty(t, drain(t, c))
}

func TestDispatch_PingPong(t *testing.T) {
	ctl := newTestController()
	c := testConn()

	ctl.dispatch("alice", c, []byte(`{"type":"ping"}`))
	got := drain(t, c)
	require.Len(t, got, 1)
	assert.Equal(t, TypePong, got[0]["type"])
}

func TestDispatch_TypingRequiresIdentity(t *testing.T) {
	ctl := newTestController()
	c := testConn()

	ctl.dispatch("", c, []byte(`{"type":"typing","to":"bob","is_typing":true}`))
	got := drain(t, c)
	require.Len(t, got, 1)
	assert.Equal(t, TypeError, got[0]["type"])
	assert.Equal(t, "unauthenticated", got[0]["error"])
}

func TestDispatch_TypingMissingTarget(t *testing.T) {
	ctl := newTestController()
	c := testConn()

	ctl.dispatch("alice", c, []byte(`{"type":"typing","is_typing":true}`))
	got := drain(t, c)
	require.Len(t, got, 1)
	assert.Equal(t, "missing_target", got[0]["error"])
}

func TestDispatch_TypingRelay(t *testing.T) {
	ctl := newTestController()
	aliceConn := testConn()
	bobConn := testConn()
	ctl.Coord.Connect("alice", aliceConn)
	ctl.Coord.Connect("bob", bobConn)
	drain(t, aliceConn)
	drain(t, bobConn)

	ctl.dispatch("alice", aliceConn, []byte(`{"type":"typing","to":"bob","is_typing":true}`))

	got := drain(t, bobConn)
	require.Len(t, got, 1)
	assert.Equal(t, TypeTyping, got[0]["type"])
	assert.Equal(t, "alice", got[0]["from"])
	assert.Equal(t, true, got[0]["is_typing"])
	assert.Empty(t, drain(t, aliceConn))
}

func TestDispatch_TypingOfflineTargetSilent(t *testing.T) {
	ctl := newTestController()
	c := testConn()

	ctl.dispatch("alice", c, []byte(`{"type":"typing","to":"ghost","is_typing":true}`))
	assert.Empty(t, drain(t, c))
}

func TestDispatch_JoinRoomMissingRoom(t *testing.T) {
	ctl := newTestController()
	c := testConn()

	ctl.dispatch("alice", c, []byte(`{"type":"join-room"}`))
	got := drain(t, c)
	require.Len(t, got, 1)
	assert.Equal(t, "missing_room", got[0]["error"])
}

func TestDispatch_PlaybackRejectsBadKind(t *testing.T) {
	ctl := newTestController()
	c := testConn()
	ctl.dispatch("alice", c, []byte(`{"type":"join-room","room":"r1"}`))
	drain(t, c)

	ctl.dispatch("alice", c, []byte(`{"type":"playback","room":"r1","kind":"rewind","time":3}`))
	got := drain(t, c)
	require.Len(t, got, 1)
	assert.Equal(t, "bad_playback_event", got[0]["error"])
}

func TestDispatch_PlaybackRelayShape(t *testing.T) {
	ctl := newTestController()
	a := testConn()
	b := testConn()
	ctl.dispatch("alice", a, []byte(`{"type":"join-room","room":"r1"}`))
	ctl.dispatch("bob", b, []byte(`{"type":"join-room","room":"r1"}`))
	drain(t, a)
	drain(t, b)

	ctl.dispatch("alice", a, []byte(`{"type":"playback","room":"r1","kind":"sync","time":12.5,"state":"paused"}`))

	got := drain(t, b)
	require.Len(t, got, 1)
	assert.Equal(t, TypePlayback, got[0]["type"])
	assert.Equal(t, "sync", got[0]["kind"])
	assert.Equal(t, 12.5, got[0]["time"])
	assert.Equal(t, "paused", got[0]["state"])
	// The relay shape drops the room id.
	_, hasRoom := got[0]["room"]
	assert.False(t, hasRoom)
	assert.Empty(t, drain(t, a))
}

func TestCodec_PresenceSnapshot(t *testing.T) {
	codec := Codec{}
	a := testConn()
	b := testConn()

	codec.PresenceChanged([]domain.UserID{"alice", "bob"}, []core.SignalConnection{a, b})

	for _, c := range []*WsConn{a, b} {
		got := drain(t, c)
		require.Len(t, got, 1)
		assert.Equal(t, TypePresence, got[0]["type"])
		assert.ElementsMatch(t, []any{"alice", "bob"}, got[0]["users"])
	}
}
