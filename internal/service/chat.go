package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Margiorno/todo-app-sub000/internal/fanout"
	"github.com/Margiorno/todo-app-sub000/internal/model"
	"github.com/Margiorno/todo-app-sub000/internal/repository"
	"github.com/Margiorno/todo-app-sub000/pkg/apperrors"
	"github.com/Margiorno/todo-app-sub000/pkg/snowflake"
)

// unknownUserTitle is the fallback title for a private conversation whose
// other participant cannot be resolved.
const unknownUserTitle = "unknown user"

// ChatService orchestrates conversation lookup and creation, message
// append, participant authorization and personalized view construction.
type ChatService struct {
	store         TxRunner
	conversations ConversationStore
	users         UserDirectory
	channel       PushChannel
	ids           *snowflake.Node
	logger        *slog.Logger
}

func NewChatService(
	store TxRunner,
	conversations ConversationStore,
	users UserDirectory,
	channel PushChannel,
	ids *snowflake.Node,
	logger *slog.Logger,
) *ChatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{
		store:         store,
		conversations: conversations,
		users:         users,
		channel:       channel,
		ids:           ids,
		logger:        logger,
	}
}

// FindConversationsForUser returns every conversation of the user, most
// recently active first. The repository does the ordering; conversations
// without messages come last.
func (s *ChatService) FindConversationsForUser(ctx context.Context, userID uuid.UUID) ([]ConversationView, error) {
	if err := s.ensureUsersExist(ctx, userID); err != nil {
		return nil, err
	}

	conversations, err := s.conversations.FindByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]ConversationView, 0, len(conversations))
	for _, conv := range conversations {
		view, err := s.toConversationView(ctx, conv, userID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// FindOrCreatePrivateConversation returns the PRIVATE conversation for the
// pair, creating it when absent. Idempotent and order-independent: a lost
// creation race falls back to the concurrently created conversation.
func (s *ChatService) FindOrCreatePrivateConversation(ctx context.Context, currentUserID, otherUserID uuid.UUID) (ConversationView, error) {
	if currentUserID == otherUserID {
		// The pair lookup degenerates for a == b and would match any
		// private conversation of the user.
		return ConversationView{}, apperrors.InvalidParams("cannot open a conversation with yourself")
	}
	if err := s.ensureUsersExist(ctx, currentUserID, otherUserID); err != nil {
		return ConversationView{}, err
	}

	conv, err := s.conversations.FindPrivateBetween(ctx, currentUserID, otherUserID)
	if err != nil {
		return ConversationView{}, err
	}

	if conv == nil {
		conv = &model.Conversation{
			ID:           uuid.New(),
			Type:         model.ConversationPrivate,
			Participants: []uuid.UUID{currentUserID, otherUserID},
		}
		err := s.store.InTx(ctx, func(ctx context.Context) error {
			return s.conversations.Create(ctx, conv)
		})
		if err != nil {
			// Lost the creation race: take the winner.
			existing, lookupErr := s.conversations.FindPrivateBetween(ctx, currentUserID, otherUserID)
			if lookupErr != nil || existing == nil {
				return ConversationView{}, err
			}
			conv = existing
		}
	}

	return s.toConversationView(ctx, conv, currentUserID)
}

// GetMessages returns the full history of a conversation in send order,
// annotated relative to the requesting user.
func (s *ChatService) GetMessages(ctx context.Context, conversationID, userID uuid.UUID) ([]MessageView, error) {
	conv, err := s.findConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if !conv.HasParticipant(userID) {
		return nil, apperrors.Unauthorized("you do not have permission to access this conversation")
	}

	messages, err := s.conversations.Messages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	senderIDs := make([]uuid.UUID, 0, len(messages))
	for _, msg := range messages {
		senderIDs = append(senderIDs, msg.SenderID)
	}
	senders, err := s.users.ResolveUsers(ctx, senderIDs)
	if err != nil {
		return nil, err
	}

	views := make([]MessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, s.toMessageView(msg, senders[msg.SenderID], userID))
	}
	return views, nil
}

// CreateGroupConversation persists a GROUP conversation whose participant
// set is participantIDs plus the creator.
func (s *ChatService) CreateGroupConversation(ctx context.Context, title string, participantIDs []uuid.UUID, creatorID uuid.UUID) (ConversationView, error) {
	if err := s.ensureUsersExist(ctx, append(participantIDs, creatorID)...); err != nil {
		return ConversationView{}, err
	}

	participants := participantIDs
	hasCreator := false
	for _, id := range participants {
		if id == creatorID {
			hasCreator = true
			break
		}
	}
	if !hasCreator {
		participants = append(participants, creatorID)
	}

	conv := &model.Conversation{
		ID:           uuid.New(),
		Type:         model.ConversationGroup,
		Title:        title,
		Participants: dedupe(participants),
	}
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		return s.conversations.Create(ctx, conv)
	})
	if err != nil {
		return ConversationView{}, err
	}

	return s.toConversationView(ctx, conv, creatorID)
}

// AppendMessageAndFanOut appends a message and pushes a personalized view
// to every participant. The message is durably committed before any push
// is attempted: a push failure can drop a delivery but never unsend a
// message. The returned map holds one view per participant, each with
// SentByCurrentUser computed relative to its key.
func (s *ChatService) AppendMessageAndFanOut(ctx context.Context, conversationID, senderID uuid.UUID, content string) (map[uuid.UUID]MessageView, error) {
	conv, err := s.findConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	sender, err := s.users.ResolveUser(ctx, senderID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.Wrap(apperrors.KindNotFound, "user not found", err)
		}
		return nil, err
	}

	msg := &model.Message{
		ID:             s.ids.Generate().Int64(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content,
	}
	err = s.store.InTx(ctx, func(ctx context.Context) error {
		return s.conversations.AppendMessage(ctx, msg)
	})
	if err != nil {
		return nil, err
	}

	// From here on the message is committed; fan-out is best-effort.
	personalized := make(map[uuid.UUID]MessageView, len(conv.Participants))
	for _, participant := range conv.Participants {
		view := s.toMessageView(msg, sender, participant)
		personalized[participant] = view
		s.channel.PushToUser(participant, fanout.Envelope{
			Event: fanout.EventMessage,
			Data:  view,
		})
	}
	return personalized, nil
}

func (s *ChatService) findConversation(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, apperrors.Wrap(apperrors.KindNotFound, "conversation not found", err)
		}
		return nil, err
	}
	return conv, nil
}

func (s *ChatService) ensureUsersExist(ctx context.Context, ids ...uuid.UUID) error {
	ok, err := s.users.UsersExist(ctx, ids)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("user not found")
	}
	return nil
}

// toConversationView derives the viewer-relative title: the other
// participant's display name for PRIVATE, the stored title for GROUP.
func (s *ChatService) toConversationView(ctx context.Context, conv *model.Conversation, viewerID uuid.UUID) (ConversationView, error) {
	profiles, err := s.users.ResolveUsers(ctx, conv.Participants)
	if err != nil {
		return ConversationView{}, err
	}

	participants := make([]SenderView, 0, len(conv.Participants))
	for _, id := range conv.Participants {
		if u, ok := profiles[id]; ok {
			participants = append(participants, toSenderView(u))
		}
	}

	title := conv.Title
	if conv.Type == model.ConversationPrivate {
		title = unknownUserTitle
		if otherID, ok := conv.OtherParticipant(viewerID); ok {
			if other, ok := profiles[otherID]; ok {
				title = other.DisplayName()
			}
		}
	}

	return ConversationView{
		ID:           conv.ID,
		Type:         conv.Type,
		Title:        title,
		Participants: participants,
	}, nil
}

func (s *ChatService) toMessageView(msg *model.Message, sender *model.User, viewerID uuid.UUID) MessageView {
	senderView := SenderView{ID: msg.SenderID}
	if sender != nil {
		senderView = toSenderView(sender)
	}
	return MessageView{
		ID:                snowflake.ID(msg.ID).String(),
		ConversationID:    msg.ConversationID,
		Sender:            senderView,
		Content:           msg.Content,
		SentAt:            msg.SentAt,
		SentByCurrentUser: msg.SenderID == viewerID,
	}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
