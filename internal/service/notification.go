package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Margiorno/todo-app-sub000/internal/events"
	"github.com/Margiorno/todo-app-sub000/internal/fanout"
	"github.com/Margiorno/todo-app-sub000/internal/model"
	"github.com/Margiorno/todo-app-sub000/internal/repository"
	"github.com/Margiorno/todo-app-sub000/pkg/apperrors"
)

// NotificationService builds, persists and pushes notification records.
// The On* methods are event handlers: they are invoked by the bus after
// the publishing transaction committed, and each runs in its own
// transaction so a failure here cannot touch the triggering operation.
type NotificationService struct {
	store         TxRunner
	notifications NotificationStore
	users         UserDirectory
	channel       PushChannel
	logger        *slog.Logger
}

func NewNotificationService(
	store TxRunner,
	notifications NotificationStore,
	users UserDirectory,
	channel PushChannel,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{
		store:         store,
		notifications: notifications,
		users:         users,
		channel:       channel,
		logger:        logger,
	}
}

// RegisterHandlers subscribes the service to the friend-request lifecycle
// events. Controllers never call the On* methods directly.
func (s *NotificationService) RegisterHandlers(bus *events.Bus) {
	bus.Subscribe(events.FriendRequestSentName, func(ctx context.Context, e events.Event) error {
		ev, ok := e.(events.FriendRequestSent)
		if !ok {
			return fmt.Errorf("unexpected event payload for %s", e.Name())
		}
		return s.OnFriendRequestSent(ctx, ev.RequestID, ev.SenderID, ev.ReceiverID)
	})
	bus.Subscribe(events.FriendRequestAcceptedName, func(ctx context.Context, e events.Event) error {
		ev, ok := e.(events.FriendRequestAccepted)
		if !ok {
			return fmt.Errorf("unexpected event payload for %s", e.Name())
		}
		return s.OnFriendRequestAccepted(ctx, ev.AcceptorID, ev.SenderID)
	})
	bus.Subscribe(events.FriendRequestResolvedName, func(ctx context.Context, e events.Event) error {
		ev, ok := e.(events.FriendRequestResolved)
		if !ok {
			return fmt.Errorf("unexpected event payload for %s", e.Name())
		}
		return s.OnFriendRequestResolved(ctx, ev.RequestID)
	})
}

// ListForUser returns the user's notifications, oldest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]NotificationView, error) {
	notifications, err := s.notifications.ListByReceiver(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]NotificationView, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, toNotificationView(n))
	}
	return views, nil
}

// MarkAllRead flips every notification of the user to read. Idempotent.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.store.InTx(ctx, func(ctx context.Context) error {
		return s.notifications.MarkAllRead(ctx, userID)
	})
}

// OnFriendRequestSent persists a friend-request notification for the
// receiver and pushes it.
func (s *NotificationService) OnFriendRequestSent(ctx context.Context, requestID, senderID, receiverID uuid.UUID) error {
	sender, err := s.users.ResolveUser(ctx, senderID)
	if err != nil {
		return err
	}

	resolved := false
	notification := &model.Notification{
		ID:         uuid.New(),
		ReceiverID: receiverID,
		Kind:       model.KindFriendRequest,
		Message:    fmt.Sprintf("%s has sent you a friend request", sender.DisplayName()),
		SenderID:   &senderID,
		RequestID:  &requestID,
		Resolved:   &resolved,
	}
	err = s.store.InTx(ctx, func(ctx context.Context) error {
		return s.notifications.Create(ctx, notification)
	})
	if err != nil {
		return err
	}

	s.channel.PushToUser(receiverID, fanout.Envelope{
		Event: fanout.EventNotification,
		Data:  toNotificationView(notification),
	})
	return nil
}

// OnFriendRequestAccepted notifies the original sender that the request
// was accepted.
func (s *NotificationService) OnFriendRequestAccepted(ctx context.Context, acceptorID, originalSenderID uuid.UUID) error {
	acceptor, err := s.users.ResolveUser(ctx, acceptorID)
	if err != nil {
		return err
	}

	notification := &model.Notification{
		ID:         uuid.New(),
		ReceiverID: originalSenderID,
		Kind:       model.KindFriendRequestAccepted,
		Message:    fmt.Sprintf("%s accepted your friend request", acceptor.DisplayName()),
	}
	err = s.store.InTx(ctx, func(ctx context.Context) error {
		return s.notifications.Create(ctx, notification)
	})
	if err != nil {
		return err
	}

	s.channel.PushToUser(originalSenderID, fanout.Envelope{
		Event: fanout.EventNotification,
		Data:  toNotificationView(notification),
	})
	return nil
}

// OnFriendRequestResolved marks the correlated friend-request
// notification as resolved.
func (s *NotificationService) OnFriendRequestResolved(ctx context.Context, requestID uuid.UUID) error {
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		return s.notifications.Resolve(ctx, requestID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return apperrors.Wrap(apperrors.KindNotFound, "notification not found", err)
		}
		return err
	}
	return nil
}
