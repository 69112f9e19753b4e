package fanout

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Session is one live client connection addressable by user id.
type Session interface {
	ID() string
	UserID() uuid.UUID
	Send(payload []byte) error
	Close()
}

// Envelope frames every payload pushed to a client so consumers can
// switch on the event type.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

const (
	EventMessage      = "message"
	EventNotification = "notification"
)

// Hub is the per-user push registry: user id -> set of live sessions.
// Pushing to a user with no sessions is a silent no-op; delivery is
// best-effort, at-most-once per connected session.
type Hub struct {
	mu           sync.RWMutex
	sessions     map[string]Session
	userSessions map[uuid.UUID]map[string]Session
	logger       *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		sessions:     make(map[string]Session),
		userSessions: make(map[uuid.UUID]map[string]Session),
		logger:       logger,
	}
}

// Register tracks a session under its user id.
func (h *Hub) Register(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[s.ID()] = s
	if _, ok := h.userSessions[s.UserID()]; !ok {
		h.userSessions[s.UserID()] = make(map[string]Session)
	}
	h.userSessions[s.UserID()][s.ID()] = s
}

// Unregister drops a session. Safe to call for an unknown session.
func (h *Hub) Unregister(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[s.ID()]; !ok {
		return
	}
	delete(h.sessions, s.ID())

	if userConns, ok := h.userSessions[s.UserID()]; ok {
		delete(userConns, s.ID())
		if len(userConns) == 0 {
			delete(h.userSessions, s.UserID())
		}
	}
}

// PushToUser delivers the envelope to every open session of the user.
// Send failures are logged and swallowed; they never reach the caller.
func (h *Hub) PushToUser(userID uuid.UUID, env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("failed to marshal push payload", "user", userID, "error", err)
		return
	}

	h.mu.RLock()
	userConns := h.userSessions[userID]
	sessions := make([]Session, 0, len(userConns))
	for _, s := range userConns {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		if err := s.Send(payload); err != nil {
			h.logger.Debug("push dropped", "user", userID, "conn", s.ID(), "error", err)
		}
	}
}

// SessionCount reports how many sessions are currently connected.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
