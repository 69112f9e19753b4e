package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Margiorno/todo-app-sub000/pkg/apperrors"
)

// Response is the envelope for every JSON reply.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Success writes a 200 reply with the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

// Error translates an application error to its HTTP status.
func Error(c *gin.Context, err error) {
	status := statusOf(apperrors.KindOf(err))
	c.JSON(status, Response{
		Code:    status,
		Message: apperrors.MessageOf(err),
		Data:    nil,
	})
}

// Unauthenticated writes a 401 reply for a missing or invalid session.
func Unauthenticated(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, Response{
		Code:    http.StatusUnauthorized,
		Message: "missing or invalid session",
		Data:    nil,
	})
}

func statusOf(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindUnauthorized:
		return http.StatusForbidden
	case apperrors.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.KindInvalidInvite:
		return http.StatusConflict
	case apperrors.KindInvalidParams:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
