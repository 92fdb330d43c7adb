// Package memory backs the store interfaces with process memory. Used in
// dev mode and by tests; nothing survives a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vibechat/vibe-server/internal/domain"
	"github.com/vibechat/vibe-server/internal/store"
)

type Store struct {
	mu       sync.RWMutex
	users    map[domain.UserID]domain.User
	messages []domain.Message
}

func New() *Store {
	return &Store{users: make(map[domain.UserID]domain.User)}
}

func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) Find(_ context.Context, id domain.UserID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) Save(_ context.Context, sender, receiver domain.UserID, body string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := domain.Message{
		ID:         uuid.NewString(),
		SenderID:   sender,
		ReceiverID: receiver,
		Body:       body,
		CreatedAt:  time.Now(),
	}
	s.messages = append(s.messages, m)
	return &m, nil
}

func (s *Store) Conversation(_ context.Context, a, b domain.UserID, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Message
	for i := len(s.messages) - 1; i >= 0 && len(out) < limit; i-- {
		m := s.messages[i]
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}
