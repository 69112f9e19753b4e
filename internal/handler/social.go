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

// SocialService is the slice of the social service the HTTP layer needs.
type SocialService interface {
	SendRequest(ctx context.Context, senderID, receiverID uuid.UUID) error
	Accept(ctx context.Context, requestID, actingUserID uuid.UUID) error
	Decline(ctx context.Context, requestID, actingUserID uuid.UUID) error
	Cancel(ctx context.Context, requestID, actingUserID uuid.UUID) error
	DetermineStatus(ctx context.Context, viewerID, profileID uuid.UUID) (service.ProfileStatusView, error)
	Friends(ctx context.Context, userID uuid.UUID) ([]service.SenderView, error)
	RemoveFriend(ctx context.Context, currentUserID, otherUserID uuid.UUID) error
}

// SocialHandler serves the friend-request lifecycle endpoints.
type SocialHandler struct {
	socialService SocialService
}

func NewSocialHandler(socialService SocialService) *SocialHandler {
	return &SocialHandler{socialService: socialService}
}

// Invite handles POST /social/:id/invite.
func (h *SocialHandler) Invite(c *gin.Context) {
	senderID := middleware.GetUserID(c)

	receiverID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperrors.InvalidParams("invalid receiver id"))
		return
	}

	if err := h.socialService.SendRequest(c.Request.Context(), senderID, receiverID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Accept handles POST /social/:id/accept.
func (h *SocialHandler) Accept(c *gin.Context) {
	h.resolve(c, h.socialService.Accept)
}

// Decline handles POST /social/:id/decline.
func (h *SocialHandler) Decline(c *gin.Context) {
	h.resolve(c, h.socialService.Decline)
}

// Cancel handles POST /social/:id/cancel.
func (h *SocialHandler) Cancel(c *gin.Context) {
	h.resolve(c, h.socialService.Cancel)
}

func (h *SocialHandler) resolve(c *gin.Context, op func(ctx context.Context, requestID, actingUserID uuid.UUID) error) {
	userID := middleware.GetUserID(c)

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperrors.InvalidParams("invalid request id"))
		return
	}

	if err := op(c.Request.Context(), requestID, userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Status handles GET /social/:id/status.
func (h *SocialHandler) Status(c *gin.Context) {
	viewerID := middleware.GetUserID(c)

	profileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperrors.InvalidParams("invalid user id"))
		return
	}

	status, err := h.socialService.DetermineStatus(c.Request.Context(), viewerID, profileID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, status)
}

// Friends handles GET /social/friends.
func (h *SocialHandler) Friends(c *gin.Context) {
	userID := middleware.GetUserID(c)

	friends, err := h.socialService.Friends(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, friends)
}

// Remove handles POST /social/:id/remove.
func (h *SocialHandler) Remove(c *gin.Context) {
	userID := middleware.GetUserID(c)

	otherUserID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperrors.InvalidParams("invalid user id"))
		return
	}

	if err := h.socialService.RemoveFriend(c.Request.Context(), userID, otherUserID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
