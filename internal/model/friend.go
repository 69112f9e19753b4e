package model

import (
	"time"

	"github.com/google/uuid"
)

// FriendRequest is a pending directional invitation. The record's
// existence is the pending state; accepting, declining or cancelling
// deletes it.
type FriendRequest struct {
	ID         uuid.UUID
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	CreatedAt  time.Time
}

// ProfileStatus is the social relationship between a viewer and a profile.
type ProfileStatus string

const (
	StatusOwner              ProfileStatus = "OWNER"
	StatusFriend             ProfileStatus = "FRIEND"
	StatusInvitationSent     ProfileStatus = "INVITATION_SENT"
	StatusInvitationReceived ProfileStatus = "INVITATION_RECEIVED"
	StatusNotFriends         ProfileStatus = "NOT_FRIENDS"
)
