package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Margiorno/todo-app-sub000/pkg/jwt"
	"github.com/Margiorno/todo-app-sub000/pkg/response"
)

const (
	// tokenCookie is where the browser client carries the session token.
	tokenCookie = "token"

	userIDKey = "user_id"
)

// SessionResolver checks a token against the live-session store.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (uuid.UUID, error)
}

// Auth extracts the session token from the token cookie (or a bearer
// header for non-browser clients), validates the JWT and cross-checks the
// live-session store. The resolved user id becomes the request principal.
func Auth(jwtService *jwt.Service, sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthenticated(c)
			c.Abort()
			return
		}

		userID, err := jwtService.Validate(token)
		if err != nil {
			response.Unauthenticated(c)
			c.Abort()
			return
		}

		sessionUserID, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil || sessionUserID != userID {
			response.Unauthenticated(c)
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(tokenCookie); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// GetUserID returns the authenticated principal set by Auth.
func GetUserID(c *gin.Context) uuid.UUID {
	v, exists := c.Get(userIDKey)
	if !exists {
		return uuid.Nil
	}
	return v.(uuid.UUID)
}
