// Package store declares the durable collaborators the engine calls into.
// Coordination correctness never depends on their results: a failed persist
// does not retract an already-delivered real-time relay.
package store

import (
	"context"
	"errors"

	"github.com/vibechat/vibe-server/internal/domain"
)

var ErrNotFound = errors.New("not found")

// Users looks up durable accounts by identity.
type Users interface {
	Find(ctx context.Context, id domain.UserID) (*domain.User, error)
}

// Messages persists and fetches direct messages. Invites ride this channel
// as ordinary message bodies.
type Messages interface {
	Save(ctx context.Context, sender, receiver domain.UserID, body string) (*domain.Message, error)
	Conversation(ctx context.Context, a, b domain.UserID, limit int) ([]domain.Message, error)
}
