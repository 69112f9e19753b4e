package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Margiorno/todo-app-sub000/internal/events"
	"github.com/Margiorno/todo-app-sub000/internal/fanout"
	"github.com/Margiorno/todo-app-sub000/internal/model"
)

// TxRunner runs a function inside one transaction; events published
// within it are dispatched only after the transaction commits.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher publishes domain events into the current transaction scope.
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event)
}

// PushChannel is the addressable per-user fan-out channel. Delivery is
// best-effort; implementations never surface errors to the caller.
type PushChannel interface {
	PushToUser(userID uuid.UUID, env fanout.Envelope)
}

// UserDirectory resolves user ids to profiles. Consumed, not owned.
type UserDirectory interface {
	ResolveUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ResolveUsers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.User, error)
	UsersExist(ctx context.Context, ids []uuid.UUID) (bool, error)
}

// ConversationStore is the conversation aggregate persistence surface.
type ConversationStore interface {
	Create(ctx context.Context, conv *model.Conversation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error)
	FindByParticipant(ctx context.Context, userID uuid.UUID) ([]*model.Conversation, error)
	FindPrivateBetween(ctx context.Context, a, b uuid.UUID) (*model.Conversation, error)
	Messages(ctx context.Context, conversationID uuid.UUID) ([]*model.Message, error)
	AppendMessage(ctx context.Context, msg *model.Message) error
}

// FriendStore persists friend requests and the symmetric friendship relation.
type FriendStore interface {
	CreateRequest(ctx context.Context, request *model.FriendRequest) error
	RequestByID(ctx context.Context, id uuid.UUID) (*model.FriendRequest, error)
	RequestBetween(ctx context.Context, senderID, receiverID uuid.UUID) (*model.FriendRequest, error)
	DeleteRequest(ctx context.Context, id uuid.UUID) error
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)
	CreateFriendship(ctx context.Context, a, b uuid.UUID) error
	DeleteFriendship(ctx context.Context, a, b uuid.UUID) error
	FriendsOf(ctx context.Context, userID uuid.UUID) ([]*model.User, error)
}

// NotificationStore persists notification records.
type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByReceiver(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Resolve(ctx context.Context, requestID uuid.UUID) error
}
