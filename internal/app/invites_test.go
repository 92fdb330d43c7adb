package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibechat/vibe-server/internal/domain"
	"github.com/vibechat/vibe-server/internal/invite"
	"github.com/vibechat/vibe-server/internal/store/memory"
)

var alice = domain.User{ID: "alice", DisplayName: "Alice"}

func TestInviteSender_FanOutValidation(t *testing.T) {
	s := NewInviteSender(newTestCoordinator(), memory.New())
	ctx := context.Background()

	_, err := s.Start(ctx, alice, nil, "https://youtu.be/x")
	assert.ErrorIs(t, err, ErrNoInvitees)

	_, err = s.Start(ctx, alice, []domain.UserID{"b", "c", "d", "e", "f", "g"}, "https://youtu.be/x")
	assert.ErrorIs(t, err, ErrTooManyInvitees)

	_, err = s.Start(ctx, alice, []domain.UserID{"bob"}, "")
	assert.ErrorIs(t, err, ErrEmptyMediaRef)

	_, err = s.Start(ctx, alice, []domain.UserID{"alice"}, "https://youtu.be/x")
	assert.ErrorIs(t, err, ErrSelfInvite)
}

func TestInviteSender_DuplicatesCollapse(t *testing.T) {
	mem := memory.New()
	s := NewInviteSender(newTestCoordinator(), mem)

	_, err := s.Start(context.Background(), alice, []domain.UserID{"bob", "bob", "", "bob"}, "url")
	require.NoError(t, err)

	msgs, err := mem.Conversation(context.Background(), "alice", "bob", 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestInviteSender_PersistsAndPushes(t *testing.T) {
	mem := memory.New()
	coord := newTestCoordinator()
	s := NewInviteSender(coord, mem)

	bobConn := newFakeConn("bob-conn")
	coord.Connect("bob", bobConn)

	room, err := s.Start(context.Background(), alice, []domain.UserID{"bob", "carol"}, "https://youtu.be/watch?v=abc&t=10")
	require.NoError(t, err)
	require.NotEmpty(t, room)

	// Durable copy for both invitees.
	for _, to := range []domain.UserID{"bob", "carol"} {
		msgs, err := mem.Conversation(context.Background(), "alice", to, 10)
		require.NoError(t, err)
		require.Len(t, msgs, 1)

		var p invite.Payload
		require.NoError(t, json.Unmarshal([]byte(msgs[0].Body), &p))
		assert.Equal(t, invite.TypeRoomInvite, p.Type)
		assert.Equal(t, room, p.RoomID)
		assert.Equal(t, to, p.ToID)
		assert.Equal(t, "Alice", p.FromName)
		assert.Equal(t, "https://youtu.be/watch?v=abc&t=10", p.MediaRef)
	}

	// Live push only for the online invitee.
	assert.Len(t, bobConn.received(), 1)
}

type failingMessages struct{}

func (failingMessages) Save(context.Context, domain.UserID, domain.UserID, string) (*domain.Message, error) {
	return nil, errors.New("store down")
}

func (failingMessages) Conversation(context.Context, domain.UserID, domain.UserID, int) ([]domain.Message, error) {
	return nil, errors.New("store down")
}

func TestInviteSender_PersistFailureStillPushes(t *testing.T) {
	coord := newTestCoordinator()
	s := NewInviteSender(coord, failingMessages{})

	bobConn := newFakeConn("bob-conn")
	coord.Connect("bob", bobConn)

	room, err := s.Start(context.Background(), alice, []domain.UserID{"bob"}, "url")
	require.NoError(t, err)
	assert.NotEmpty(t, room)
	// The relay is decoupled from persistence.
	assert.Len(t, bobConn.received(), 1)
}
