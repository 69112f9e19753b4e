package model

import (
	"time"

	"github.com/google/uuid"
)

// ConversationType discriminates private pair chats from named group chats.
type ConversationType string

const (
	ConversationPrivate ConversationType = "PRIVATE"
	ConversationGroup   ConversationType = "GROUP"
)

// Conversation is a persistent chat thread with a fixed participant set.
// A PRIVATE conversation has exactly two distinct participants and no
// stored title; the display title is derived per viewer.
type Conversation struct {
	ID           uuid.UUID
	Type         ConversationType
	Title        string
	Participants []uuid.UUID
	CreatedAt    time.Time
}

// HasParticipant reports whether the user belongs to the conversation.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not the viewer.
// Meaningful for PRIVATE conversations only.
func (c *Conversation) OtherParticipant(viewerID uuid.UUID) (uuid.UUID, bool) {
	for _, p := range c.Participants {
		if p != viewerID {
			return p, true
		}
	}
	return uuid.Nil, false
}

// Message is an immutable entry in a conversation's append-only history.
// The snowflake id is strictly increasing per node, so id order equals
// send order.
type Message struct {
	ID             int64
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Content        string
	SentAt         time.Time
}
