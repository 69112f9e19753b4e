package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Margiorno/todo-app-sub000/internal/middleware"
	"github.com/Margiorno/todo-app-sub000/internal/service"
	"github.com/Margiorno/todo-app-sub000/pkg/apperrors"
	"github.com/Margiorno/todo-app-sub000/pkg/response"
)

// ChatService is the slice of the chat service the HTTP layer needs.
type ChatService interface {
	FindConversationsForUser(ctx context.Context, userID uuid.UUID) ([]service.ConversationView, error)
	FindOrCreatePrivateConversation(ctx context.Context, currentUserID, otherUserID uuid.UUID) (service.ConversationView, error)
	GetMessages(ctx context.Context, conversationID, userID uuid.UUID) ([]service.MessageView, error)
	CreateGroupConversation(ctx context.Context, title string, participantIDs []uuid.UUID, creatorID uuid.UUID) (service.ConversationView, error)
}

// ChatHandler serves the conversation endpoints.
type ChatHandler struct {
	chatService ChatService
}

func NewChatHandler(chatService ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// NewConversationRequest is the body of POST /chat/new.
type NewConversationRequest struct {
	ConversationName string   `json:"conversationName" binding:"required"`
	ParticipantIDs   []string `json:"participantIds" binding:"required,min=1"`
}

// GetConversations handles GET /chat/conversations.
func (h *ChatHandler) GetConversations(c *gin.Context) {
	userID := middleware.GetUserID(c)

	conversations, err := h.chatService.FindConversationsForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, conversations)
}

// GetMessages handles GET /chat/:chatId/messages.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	userID := middleware.GetUserID(c)

	chatID, err := uuid.Parse(c.Param("chatId"))
	if err != nil {
		response.Error(c, apperrors.InvalidParams("invalid conversation id"))
		return
	}

	messages, err := h.chatService.GetMessages(c.Request.Context(), chatID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, messages)
}

// Create handles POST /chat/new.
func (h *ChatHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req NewConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.Wrap(apperrors.KindInvalidParams, "invalid request body", err))
		return
	}

	participantIDs := make([]uuid.UUID, 0, len(req.ParticipantIDs))
	for _, raw := range req.ParticipantIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, apperrors.InvalidParams("invalid participant id"))
			return
		}
		participantIDs = append(participantIDs, id)
	}

	conversation, err := h.chatService.CreateGroupConversation(c.Request.Context(), req.ConversationName, participantIDs, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, conversation)
}

// GetPrivateChat handles GET /chat/get-chat/:userId. The conversation is
// created when it does not exist yet.
func (h *ChatHandler) GetPrivateChat(c *gin.Context) {
	userID := middleware.GetUserID(c)

	otherUserID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.Error(c, apperrors.InvalidParams("invalid user id"))
		return
	}

	conversation, err := h.chatService.FindOrCreatePrivateConversation(c.Request.Context(), userID, otherUserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, conversation)
}
