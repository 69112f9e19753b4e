package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Margiorno/todo-app-sub000/internal/fanout"
	"github.com/Margiorno/todo-app-sub000/internal/middleware"
	"github.com/Margiorno/todo-app-sub000/internal/service"
)

// MessageSender appends a message and fans it out to the participants.
type MessageSender interface {
	AppendMessageAndFanOut(ctx context.Context, conversationID, senderID uuid.UUID, content string) (map[uuid.UUID]service.MessageView, error)
}

// sendMessageCommand is the client-to-server frame. The sender is always
// the session principal; a sender field in the payload would be ignored.
type sendMessageCommand struct {
	ConversationID uuid.UUID `json:"conversationId"`
	Content        string    `json:"content"`
}

// WSHandler upgrades authenticated clients to the push channel and reads
// their send-message commands.
type WSHandler struct {
	hub    *fanout.Hub
	chat   MessageSender
	logger *slog.Logger

	upgrader websocket.Upgrader
}

func NewWSHandler(hub *fanout.Hub, chat MessageSender, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		hub:    hub,
		chat:   chat,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin is enforced by the CORS middleware in front of the
			// upgrade; cookies do not cross origins anyway.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws.
func (h *WSHandler) Serve(c *gin.Context) {
	userID := middleware.GetUserID(c)

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "user", userID, "error", err)
		return
	}

	conn := fanout.NewConnection(userID, ws, h.logger)
	h.hub.Register(conn)
	h.logger.Info("websocket connected", "user", userID, "conn", conn.ID())

	go h.readLoop(ws, conn)
}

func (h *WSHandler) readLoop(ws *websocket.Conn, conn *fanout.Connection) {
	defer func() {
		h.hub.Unregister(conn)
		conn.Close()
		h.logger.Info("websocket disconnected", "user", conn.UserID(), "conn", conn.ID())
	}()

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var cmd sendMessageCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			h.logger.Debug("invalid websocket command", "conn", conn.ID(), "error", err)
			continue
		}
		if cmd.ConversationID == uuid.Nil || cmd.Content == "" {
			continue
		}

		// The command response travels through the per-user queue like
		// every other push; failures only affect the sender's view.
		if _, err := h.chat.AppendMessageAndFanOut(context.Background(), cmd.ConversationID, conn.UserID(), cmd.Content); err != nil {
			h.logger.Warn("send message failed", "user", conn.UserID(), "conversation", cmd.ConversationID, "error", err)
		}
	}
}
