package events

import "github.com/google/uuid"

// Event is a domain event dispatched through the Bus.
type Event interface {
	Name() string
}

const (
	FriendRequestSentName     = "friend_request.sent"
	FriendRequestAcceptedName = "friend_request.accepted"
	FriendRequestResolvedName = "friend_request.resolved"
)

// FriendRequestSent fires when a new friend request has been persisted.
type FriendRequestSent struct {
	RequestID  uuid.UUID
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
}

func (FriendRequestSent) Name() string { return FriendRequestSentName }

// FriendRequestAccepted fires when the receiver accepts a request.
// SenderID is the original sender of the request.
type FriendRequestAccepted struct {
	AcceptorID uuid.UUID
	SenderID   uuid.UUID
}

func (FriendRequestAccepted) Name() string { return FriendRequestAcceptedName }

// FriendRequestResolved fires whenever a request leaves the pending state,
// whatever the outcome.
type FriendRequestResolved struct {
	RequestID uuid.UUID
}

func (FriendRequestResolved) Name() string { return FriendRequestResolvedName }
