package domain

import "time"

// Message is a durable direct message. Persistence belongs to the external
// message store; the engine only produces messages (invites) and pushes
// freshly persisted ones to live recipients.
type Message struct {
	ID         string    `json:"id"`
	SenderID   UserID    `json:"sender_id"`
	ReceiverID UserID    `json:"receiver_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}
