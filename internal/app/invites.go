package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vibechat/vibe-server/internal/domain"
	"github.com/vibechat/vibe-server/internal/invite"
	"github.com/vibechat/vibe-server/internal/store"
)

// MaxInvitees caps the fan-out of a single party start.
const MaxInvitees = 5

var (
	ErrNoInvitees      = errors.New("at least one invitee required")
	ErrTooManyInvitees = fmt.Errorf("at most %d invitees allowed", MaxInvitees)
	ErrEmptyMediaRef   = errors.New("media reference required")
	ErrSelfInvite      = errors.New("cannot invite yourself")
)

// InviteSender bootstraps a watch party: mints the room id and delivers one
// invite per invitee through the durable direct-message channel, pushing a
// real-time copy to invitees who are online. Persistence and relay are
// intentionally decoupled; a failed save never retracts a delivered push.
type InviteSender struct {
	Coord    *Coordinator
	Messages store.Messages
}

func NewInviteSender(coord *Coordinator, messages store.Messages) *InviteSender {
	return &InviteSender{Coord: coord, Messages: messages}
}

// Start validates the fan-out, creates the room and sends the invites.
// Returns the new room id; per-invitee store failures are logged, not fatal.
func (s *InviteSender) Start(ctx context.Context, from domain.User, invitees []domain.UserID, mediaRef string) (domain.RoomID, error) {
	if mediaRef == "" {
		return "", ErrEmptyMediaRef
	}
	seen := make(map[domain.UserID]struct{}, len(invitees))
	targets := invitees[:0]
	for _, to := range invitees {
		if to == "" {
			continue
		}
		if to == from.ID {
			return "", ErrSelfInvite
		}
		if _, dup := seen[to]; dup {
			continue
		}
		seen[to] = struct{}{}
		targets = append(targets, to)
	}
	if len(targets) == 0 {
		return "", ErrNoInvitees
	}
	if len(targets) > MaxInvitees {
		return "", ErrTooManyInvitees
	}

	room := domain.NewRoomID()
	for _, to := range targets {
		payload := invite.Build(from.ID, from.DisplayName, to, mediaRef, room)
		body, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("encode invite: %w", err)
		}

		msg, err := s.Messages.Save(ctx, from.ID, to, string(body))
		if err != nil {
			// The recipient loses the durable copy but the live push
			// below still goes out; the caller may retry the start.
			log.Warn().Str("module", "app.invites").Str("to", string(to)).Err(err).Msg("invite persist failed")
			msg = &domain.Message{SenderID: from.ID, ReceiverID: to, Body: string(body)}
		}
		s.Coord.PushMessage(*msg)
	}
	log.Info().Str("module", "app.invites").Str("room", string(room)).Int("invitees", len(targets)).Msg("party started")
	return room, nil
}
