package model

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind discriminates notification variants. The friend-request
// variant carries the extra sender/request/resolved fields; there is no
// subtype hierarchy, just the tag.
type NotificationKind string

const (
	KindFriendRequest         NotificationKind = "FRIEND_REQUEST"
	KindFriendRequestAccepted NotificationKind = "FRIEND_REQUEST_ACCEPTED"
)

// Notification is a persisted per-receiver notification record.
// SenderID, RequestID and Resolved are set only for KindFriendRequest.
type Notification struct {
	ID         uuid.UUID
	ReceiverID uuid.UUID
	Kind       NotificationKind
	Message    string
	CreatedAt  time.Time
	IsRead     bool

	SenderID  *uuid.UUID
	RequestID *uuid.UUID
	Resolved  *bool
}
