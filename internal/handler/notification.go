package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Margiorno/todo-app-sub000/internal/middleware"
	"github.com/Margiorno/todo-app-sub000/internal/service"
	"github.com/Margiorno/todo-app-sub000/pkg/response"
)

// NotificationService is the slice of the notification service the HTTP
// layer needs. The event-driven side stays out of reach of controllers.
type NotificationService interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]service.NotificationView, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

// NotificationHandler serves the notification endpoints.
type NotificationHandler struct {
	notificationService NotificationService
}

func NewNotificationHandler(notificationService NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// GetAll handles GET /notifications/getAll: it returns the list and then
// marks everything read as a side effect of the fetch.
func (h *NotificationHandler) GetAll(c *gin.Context) {
	userID := middleware.GetUserID(c)

	notifications, err := h.notificationService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.notificationService.MarkAllRead(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, notifications)
}
