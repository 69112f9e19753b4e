package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/Margiorno/todo-app-sub000/internal/model"
)

// SenderView is the public profile shape embedded in messages and
// conversation participant lists.
type SenderView struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	AvatarPath  string    `json:"avatarPath"`
}

// ConversationView is a per-viewer rendering of a conversation. For
// PRIVATE conversations the title is derived from the other participant.
type ConversationView struct {
	ID           uuid.UUID              `json:"id"`
	Type         model.ConversationType `json:"type"`
	Title        string                 `json:"title"`
	Participants []SenderView           `json:"participants"`
}

// MessageView is a per-viewer rendering of a message; only
// SentByCurrentUser differs between recipients.
type MessageView struct {
	ID                string     `json:"id"`
	ConversationID    uuid.UUID  `json:"conversationId"`
	Sender            SenderView `json:"sender"`
	Content           string     `json:"content"`
	SentAt            time.Time  `json:"sentAt"`
	SentByCurrentUser bool       `json:"sentByCurrentUser"`
}

// NotificationView is the transport form of a notification. Type is the
// variant discriminator; the friend-request fields are present only for
// that variant.
type NotificationView struct {
	ID        uuid.UUID              `json:"id"`
	Type      model.NotificationKind `json:"type"`
	Message   string                 `json:"message"`
	CreatedAt time.Time              `json:"createdAt"`
	IsRead    bool                   `json:"isRead"`

	SenderID  *uuid.UUID `json:"senderId,omitempty"`
	RequestID *uuid.UUID `json:"requestId,omitempty"`
	Resolved  *bool      `json:"resolved,omitempty"`
}

// ProfileStatusView reports the social relation between viewer and
// profile. RequestID is set for the two INVITATION_* statuses.
type ProfileStatusView struct {
	Status    model.ProfileStatus `json:"status"`
	RequestID *uuid.UUID          `json:"requestId,omitempty"`
}

func toSenderView(u *model.User) SenderView {
	return SenderView{
		ID:          u.ID,
		DisplayName: u.DisplayName(),
		AvatarPath:  u.AvatarPath,
	}
}

func toNotificationView(n *model.Notification) NotificationView {
	return NotificationView{
		ID:        n.ID,
		Type:      n.Kind,
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
		IsRead:    n.IsRead,
		SenderID:  n.SenderID,
		RequestID: n.RequestID,
		Resolved:  n.Resolved,
	}
}
