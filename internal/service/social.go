package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Margiorno/todo-app-sub000/internal/events"
	"github.com/Margiorno/todo-app-sub000/internal/model"
	"github.com/Margiorno/todo-app-sub000/internal/repository"
	"github.com/Margiorno/todo-app-sub000/pkg/apperrors"
)

// SocialService owns the friend-request lifecycle. A request record's
// existence is its pending state; accept, decline and cancel all delete
// the record and publish the corresponding events inside the mutating
// transaction, so notification side effects only fire on commit.
type SocialService struct {
	store   TxRunner
	friends FriendStore
	users   UserDirectory
	bus     EventPublisher
	logger  *slog.Logger
}

func NewSocialService(
	store TxRunner,
	friends FriendStore,
	users UserDirectory,
	bus EventPublisher,
	logger *slog.Logger,
) *SocialService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SocialService{
		store:   store,
		friends: friends,
		users:   users,
		bus:     bus,
		logger:  logger,
	}
}

// SendRequest creates a pending request and publishes FriendRequestSent.
func (s *SocialService) SendRequest(ctx context.Context, senderID, receiverID uuid.UUID) error {
	if senderID == receiverID {
		return apperrors.InvalidInvite("you cannot invite yourself")
	}
	if err := s.ensureUsersExist(ctx, senderID, receiverID); err != nil {
		return err
	}

	return s.store.InTx(ctx, func(ctx context.Context) error {
		areFriends, err := s.friends.AreFriends(ctx, senderID, receiverID)
		if err != nil {
			return err
		}
		if areFriends {
			return apperrors.InvalidInvite("users are already friends")
		}

		request := &model.FriendRequest{
			ID:         uuid.New(),
			SenderID:   senderID,
			ReceiverID: receiverID,
		}
		if err := s.friends.CreateRequest(ctx, request); err != nil {
			if errors.Is(err, repository.ErrDuplicateRequest) {
				return apperrors.Wrap(apperrors.KindInvalidInvite, "friend request already exists", err)
			}
			return err
		}

		s.bus.Publish(ctx, events.FriendRequestSent{
			RequestID:  request.ID,
			SenderID:   senderID,
			ReceiverID: receiverID,
		})
		return nil
	})
}

// Accept resolves a request in the receiver's favor: the pair becomes
// friends, the record is deleted, and both the accepted and resolved
// events are published.
func (s *SocialService) Accept(ctx context.Context, requestID, actingUserID uuid.UUID) error {
	return s.store.InTx(ctx, func(ctx context.Context) error {
		request, err := s.findRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if request.ReceiverID != actingUserID {
			return apperrors.Unauthorized("you must be the receiver to accept a friend request")
		}

		if err := s.friends.CreateFriendship(ctx, request.SenderID, request.ReceiverID); err != nil {
			return err
		}
		if err := s.friends.DeleteRequest(ctx, requestID); err != nil {
			return err
		}

		s.bus.Publish(ctx, events.FriendRequestAccepted{
			AcceptorID: actingUserID,
			SenderID:   request.SenderID,
		})
		s.bus.Publish(ctx, events.FriendRequestResolved{RequestID: requestID})
		return nil
	})
}

// Decline deletes the request; only the receiver may decline.
func (s *SocialService) Decline(ctx context.Context, requestID, actingUserID uuid.UUID) error {
	return s.store.InTx(ctx, func(ctx context.Context) error {
		request, err := s.findRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if request.ReceiverID != actingUserID {
			return apperrors.Unauthorized("you must be the receiver to decline a friend request")
		}

		if err := s.friends.DeleteRequest(ctx, requestID); err != nil {
			return err
		}

		s.bus.Publish(ctx, events.FriendRequestResolved{RequestID: requestID})
		return nil
	})
}

// Cancel deletes the request; only the original sender may cancel.
func (s *SocialService) Cancel(ctx context.Context, requestID, actingUserID uuid.UUID) error {
	return s.store.InTx(ctx, func(ctx context.Context) error {
		request, err := s.findRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if request.SenderID != actingUserID {
			return apperrors.Unauthorized("you must be the sender to cancel a friend request")
		}

		if err := s.friends.DeleteRequest(ctx, requestID); err != nil {
			return err
		}

		s.bus.Publish(ctx, events.FriendRequestResolved{RequestID: requestID})
		return nil
	})
}

// DetermineStatus classifies the relation between viewer and profile and,
// for a pending invitation, returns the correlated request id.
func (s *SocialService) DetermineStatus(ctx context.Context, viewerID, profileID uuid.UUID) (ProfileStatusView, error) {
	if viewerID == profileID {
		return ProfileStatusView{Status: model.StatusOwner}, nil
	}
	if err := s.ensureUsersExist(ctx, viewerID, profileID); err != nil {
		return ProfileStatusView{}, err
	}

	areFriends, err := s.friends.AreFriends(ctx, viewerID, profileID)
	if err != nil {
		return ProfileStatusView{}, err
	}
	if areFriends {
		return ProfileStatusView{Status: model.StatusFriend}, nil
	}

	if request, err := s.friends.RequestBetween(ctx, viewerID, profileID); err != nil {
		return ProfileStatusView{}, err
	} else if request != nil {
		return ProfileStatusView{Status: model.StatusInvitationSent, RequestID: &request.ID}, nil
	}

	if request, err := s.friends.RequestBetween(ctx, profileID, viewerID); err != nil {
		return ProfileStatusView{}, err
	} else if request != nil {
		return ProfileStatusView{Status: model.StatusInvitationReceived, RequestID: &request.ID}, nil
	}

	return ProfileStatusView{Status: model.StatusNotFriends}, nil
}

// Friends lists the user's friends as profile views.
func (s *SocialService) Friends(ctx context.Context, userID uuid.UUID) ([]SenderView, error) {
	friends, err := s.friends.FriendsOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]SenderView, 0, len(friends))
	for _, friend := range friends {
		views = append(views, toSenderView(friend))
	}
	return views, nil
}

// RemoveFriend deletes the symmetric friendship between the two users.
func (s *SocialService) RemoveFriend(ctx context.Context, currentUserID, otherUserID uuid.UUID) error {
	areFriends, err := s.friends.AreFriends(ctx, currentUserID, otherUserID)
	if err != nil {
		return err
	}
	if !areFriends {
		return apperrors.InvalidInvite("you are not friends with this user")
	}

	return s.store.InTx(ctx, func(ctx context.Context) error {
		return s.friends.DeleteFriendship(ctx, currentUserID, otherUserID)
	})
}

func (s *SocialService) findRequest(ctx context.Context, requestID uuid.UUID) (*model.FriendRequest, error) {
	request, err := s.friends.RequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrFriendRequestNotFound) {
			return nil, apperrors.Wrap(apperrors.KindNotFound, "friend request not found", err)
		}
		return nil, err
	}
	return request, nil
}

func (s *SocialService) ensureUsersExist(ctx context.Context, ids ...uuid.UUID) error {
	ok, err := s.users.UsersExist(ctx, ids)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("user not found")
	}
	return nil
}
