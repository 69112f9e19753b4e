package service

// In-memory fakes for the ports the services consume. The notification
// handlers run on bus goroutines, so every fake is safe for concurrent use.

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Margiorno/todo-app-sub000/internal/events"
	"github.com/Margiorno/todo-app-sub000/internal/fanout"
	"github.com/Margiorno/todo-app-sub000/internal/model"
	"github.com/Margiorno/todo-app-sub000/internal/repository"
)

// memoryTx mimics the transaction runner's commit gating: events published
// inside fn are buffered and dispatched only when fn and the simulated
// commit both succeed.
type memoryTx struct {
	bus       *events.Bus
	commitErr error
}

func (m *memoryTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, buf := events.WithBuffer(ctx)
	if err := fn(ctx); err != nil {
		return err
	}
	if m.commitErr != nil {
		return m.commitErr
	}
	if m.bus != nil {
		m.bus.Dispatch(ctx, buf.Drain()...)
	}
	return nil
}

type push struct {
	userID uuid.UUID
	env    fanout.Envelope
}

type pushRecorder struct {
	mu     sync.Mutex
	pushes []push
}

func (r *pushRecorder) PushToUser(userID uuid.UUID, env fanout.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, push{userID: userID, env: env})
}

func (r *pushRecorder) all() []push {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]push, len(r.pushes))
	copy(out, r.pushes)
	return out
}

func (r *pushRecorder) forUser(userID uuid.UUID) []push {
	var out []push
	for _, p := range r.all() {
		if p.userID == userID {
			out = append(out, p)
		}
	}
	return out
}

type memoryUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newMemoryUsers(users ...*model.User) *memoryUsers {
	m := &memoryUsers{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memoryUsers) ResolveUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *memoryUsers) ResolveUsers(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]*model.User)
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (m *memoryUsers) UsersExist(_ context.Context, ids []uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if _, ok := m.users[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

type memoryConversations struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*model.Conversation
	messages      map[uuid.UUID][]*model.Message
	createErr     error

	// missNextPrivateLookup makes the next FindPrivateBetween miss once,
	// simulating a lookup that raced a concurrent creation.
	missNextPrivateLookup bool
}

func newMemoryConversations() *memoryConversations {
	return &memoryConversations{
		conversations: make(map[uuid.UUID]*model.Conversation),
		messages:      make(map[uuid.UUID][]*model.Message),
	}
}

func (m *memoryConversations) Create(_ context.Context, conv *model.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	stored := *conv
	stored.CreatedAt = time.Now()
	m.conversations[conv.ID] = &stored
	return nil
}

func (m *memoryConversations) FindByID(_ context.Context, id uuid.UUID) (*model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.conversations[id]
	if !ok {
		return nil, repository.ErrConversationNotFound
	}
	return conv, nil
}

func (m *memoryConversations) FindByParticipant(_ context.Context, userID uuid.UUID) ([]*model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Conversation
	for _, conv := range m.conversations {
		if conv.HasParticipant(userID) {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (m *memoryConversations) FindPrivateBetween(_ context.Context, a, b uuid.UUID) (*model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.missNextPrivateLookup {
		m.missNextPrivateLookup = false
		return nil, nil
	}
	for _, conv := range m.conversations {
		if conv.Type == model.ConversationPrivate && conv.HasParticipant(a) && conv.HasParticipant(b) {
			return conv, nil
		}
	}
	return nil, nil
}

func (m *memoryConversations) Messages(_ context.Context, conversationID uuid.UUID) ([]*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.messages[conversationID], nil
}

func (m *memoryConversations) AppendMessage(_ context.Context, msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], msg)
	return nil
}

type pairKey struct{ a, b uuid.UUID }

func orderedKey(a, b uuid.UUID) pairKey {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

type memoryFriends struct {
	mu          sync.Mutex
	requests    map[uuid.UUID]*model.FriendRequest
	friendships map[pairKey]struct{}
	users       *memoryUsers
}

func newMemoryFriends(users *memoryUsers) *memoryFriends {
	return &memoryFriends{
		requests:    make(map[uuid.UUID]*model.FriendRequest),
		friendships: make(map[pairKey]struct{}),
		users:       users,
	}
}

func (m *memoryFriends) CreateRequest(_ context.Context, request *model.FriendRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.requests {
		if existing.SenderID == request.SenderID && existing.ReceiverID == request.ReceiverID {
			return repository.ErrDuplicateRequest
		}
	}
	stored := *request
	stored.CreatedAt = time.Now()
	m.requests[request.ID] = &stored
	return nil
}

func (m *memoryFriends) RequestByID(_ context.Context, id uuid.UUID) (*model.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.requests[id]
	if !ok {
		return nil, repository.ErrFriendRequestNotFound
	}
	return request, nil
}

func (m *memoryFriends) RequestBetween(_ context.Context, senderID, receiverID uuid.UUID) (*model.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, request := range m.requests {
		if request.SenderID == senderID && request.ReceiverID == receiverID {
			return request, nil
		}
	}
	return nil, nil
}

func (m *memoryFriends) DeleteRequest(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[id]; !ok {
		return repository.ErrFriendRequestNotFound
	}
	delete(m.requests, id)
	return nil
}

func (m *memoryFriends) AreFriends(_ context.Context, a, b uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.friendships[orderedKey(a, b)]
	return ok, nil
}

func (m *memoryFriends) CreateFriendship(_ context.Context, a, b uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.friendships[orderedKey(a, b)] = struct{}{}
	return nil
}

func (m *memoryFriends) DeleteFriendship(_ context.Context, a, b uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.friendships, orderedKey(a, b))
	return nil
}

func (m *memoryFriends) FriendsOf(ctx context.Context, userID uuid.UUID) ([]*model.User, error) {
	m.mu.Lock()
	var friendIDs []uuid.UUID
	for key := range m.friendships {
		switch userID {
		case key.a:
			friendIDs = append(friendIDs, key.b)
		case key.b:
			friendIDs = append(friendIDs, key.a)
		}
	}
	m.mu.Unlock()

	var out []*model.User
	for _, id := range friendIDs {
		if u, err := m.users.ResolveUser(ctx, id); err == nil {
			out = append(out, u)
		}
	}
	return out, nil
}

type memoryNotifications struct {
	mu            sync.Mutex
	notifications []*model.Notification
}

func (m *memoryNotifications) Create(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *n
	stored.CreatedAt = time.Now()
	m.notifications = append(m.notifications, &stored)
	return nil
}

func (m *memoryNotifications) ListByReceiver(_ context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Notification
	for _, n := range m.notifications {
		if n.ReceiverID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memoryNotifications) MarkAllRead(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ReceiverID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (m *memoryNotifications) Resolve(_ context.Context, requestID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.RequestID != nil && *n.RequestID == requestID {
			resolved := true
			n.Resolved = &resolved
			return nil
		}
	}
	return repository.ErrNotificationNotFound
}

func testUser(first, last string) *model.User {
	return &model.User{
		ID:        uuid.New(),
		FirstName: first,
		LastName:  last,
		Email:     first + "@example.com",
	}
}
