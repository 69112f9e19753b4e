package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Margiorno/todo-app-sub000/internal/model"
	"github.com/Margiorno/todo-app-sub000/pkg/apperrors"
	"github.com/Margiorno/todo-app-sub000/pkg/snowflake"
)

func newChatFixture(t *testing.T, users ...*model.User) (*ChatService, *memoryConversations, *pushRecorder) {
	t.Helper()
	directory := newMemoryUsers(users...)
	conversations := newMemoryConversations()
	pushes := &pushRecorder{}
	svc := NewChatService(&memoryTx{}, conversations, directory, pushes, snowflake.NewNode(1), nil)
	return svc, conversations, pushes
}

func TestFindOrCreatePrivateConversationIsIdempotent(t *testing.T) {
	alice := testUser("alice", "a")
	bob := testUser("bob", "b")
	svc, _, _ := newChatFixture(t, alice, bob)
	ctx := context.Background()

	first, err := svc.FindOrCreatePrivateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	second, err := svc.FindOrCreatePrivateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Order of the pair must not matter.
	reversed, err := svc.FindOrCreatePrivateConversation(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, reversed.ID)
}

func TestPrivateConversationTitleIsTheOtherParticipant(t *testing.T) {
	alice := testUser("alice", "smith")
	bob := testUser("bob", "jones")
	svc, _, _ := newChatFixture(t, alice, bob)
	ctx := context.Background()

	view, err := svc.FindOrCreatePrivateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob jones", view.Title)

	view, err = svc.FindOrCreatePrivateConversation(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice smith", view.Title)
}

func TestFindOrCreatePrivateConversationFallsBackToRaceWinner(t *testing.T) {
	alice := testUser("alice", "a")
	bob := testUser("bob", "b")
	directory := newMemoryUsers(alice, bob)
	conversations := newMemoryConversations()
	svc := NewChatService(&memoryTx{}, conversations, directory, &pushRecorder{}, snowflake.NewNode(1), nil)
	ctx := context.Background()

	winner := &model.Conversation{
		ID:           uuid.New(),
		Type:         model.ConversationPrivate,
		Participants: []uuid.UUID{alice.ID, bob.ID},
	}

	// The first lookup misses, the insert fails as a unique violation
	// would, and by then the concurrent caller's row is visible.
	conversations.mu.Lock()
	conversations.conversations[winner.ID] = winner
	conversations.missNextPrivateLookup = true
	conversations.createErr = errors.New("duplicate key")
	conversations.mu.Unlock()

	view, err := svc.FindOrCreatePrivateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, view.ID)
}

func TestFindOrCreatePrivateConversationRejectsSelf(t *testing.T) {
	alice := testUser("alice", "a")
	bob := testUser("bob", "b")
	svc, _, _ := newChatFixture(t, alice, bob)
	ctx := context.Background()

	// An existing private conversation must not be returned for the
	// degenerate self pair.
	_, err := svc.FindOrCreatePrivateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = svc.FindOrCreatePrivateConversation(ctx, alice.ID, alice.ID)
	assert.Equal(t, apperrors.KindInvalidParams, apperrors.KindOf(err))
}

func TestFindOrCreatePrivateConversationUnknownUser(t *testing.T) {
	alice := testUser("alice", "a")
	svc, _, _ := newChatFixture(t, alice)

	_, err := svc.FindOrCreatePrivateConversation(context.Background(), alice.ID, uuid.New())
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestCreateGroupConversationAlwaysIncludesCreator(t *testing.T) {
	alice := testUser("alice", "a")
	bob := testUser("bob", "b")
	carol := testUser("carol", "c")
	svc, conversations, _ := newChatFixture(t, alice, bob, carol)

	view, err := svc.CreateGroupConversation(context.Background(), "trip", []uuid.UUID{bob.ID, carol.ID}, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "trip", view.Title)
	assert.Len(t, view.Participants, 3)

	stored, err := conversations.FindByID(context.Background(), view.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasParticipant(alice.ID))
}

func TestCreateGroupConversationDeduplicatesParticipants(t *testing.T) {
	alice := testUser("alice", "a")
	bob := testUser("bob", "b")
	svc, conversations, _ := newChatFixture(t, alice, bob)

	view, err := svc.CreateGroupConversation(context.Background(), "pair", []uuid.UUID{bob.ID, bob.ID, alice.ID}, alice.ID)
	require.NoError(t, err)

	stored, err := conversations.FindByID(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Participants, 2)
}

func TestGetMessagesRejectsNonParticipant(t *testing.T) {
	alice := testUser("alice", "a")
	bob := testUser("bob", "b")
	eve := testUser("eve", "e")
	svc, _, _ := newChatFixture(t, alice, bob, eve)
	ctx := context.Background()

	conv, err := svc.FindOrCreatePrivateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = svc.GetMessages(ctx, conv.ID, eve.ID)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestGetMessagesUnknownConversation(t *testing.T) {
	alice := testUser("alice", "a")
	svc, _, _ := newChatFixture(t, alice)

	_, err := svc.GetMessages(context.Background(), uuid.New(), alice.ID)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestAppendMessageFansOutPersonalizedViews(t *testing.T) {
	alice := testUser("alice", "a")
	bob := testUser("bob", "b")
	carol := testUser("carol", "c")
	svc, _, pushes := newChatFixture(t, alice, bob, carol)
	ctx := context.Background()

	conv, err := svc.CreateGroupConversation(ctx, "trip", []uuid.UUID{bob.ID, carol.ID}, alice.ID)
	require.NoError(t, err)

	views, err := svc.AppendMessageAndFanOut(ctx, conv.ID, alice.ID, "hello")
	require.NoError(t, err)
	require.Len(t, views, 3)

	assert.True(t, views[alice.ID].SentByCurrentUser)
	assert.False(t, views[bob.ID].SentByCurrentUser)
	assert.False(t, views[carol.ID].SentByCurrentUser)
	for _, id := range []uuid.UUID{alice.ID, bob.ID, carol.ID} {
		assert.Equal(t, "hello", views[id].Content)
		assert.Equal(t, alice.ID, views[id].Sender.ID)
	}

	// Every participant, sender included, gets exactly one push.
	for _, id := range []uuid.UUID{alice.ID, bob.ID, carol.ID} {
		require.Len(t, pushes.forUser(id), 1, "participant %s", id)
	}
}

func TestAppendMessageNotPushedWhenCommitFails(t *testing.T) {
	alice := testUser("alice", "a")
	bob := testUser("bob", "b")
	directory := newMemoryUsers(alice, bob)
	conversations := newMemoryConversations()
	pushes := &pushRecorder{}
	tx := &memoryTx{}
	svc := NewChatService(tx, conversations, directory, pushes, snowflake.NewNode(1), nil)
	ctx := context.Background()

	conv, err := svc.FindOrCreatePrivateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	tx.commitErr = errors.New("connection reset")
	_, err = svc.AppendMessageAndFanOut(ctx, conv.ID, alice.ID, "hello")
	require.Error(t, err)
	assert.Empty(t, pushes.all())
}

func TestMessageHistoryKeepsSendOrder(t *testing.T) {
	alice := testUser("alice", "a")
	bob := testUser("bob", "b")
	svc, _, _ := newChatFixture(t, alice, bob)
	ctx := context.Background()

	conv, err := svc.FindOrCreatePrivateConversation(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	for _, content := range []string{"one", "two", "three"} {
		_, err := svc.AppendMessageAndFanOut(ctx, conv.ID, alice.ID, content)
		require.NoError(t, err)
	}

	history, err := svc.GetMessages(ctx, conv.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "one", history[0].Content)
	assert.Equal(t, "two", history[1].Content)
	assert.Equal(t, "three", history[2].Content)
	for _, view := range history {
		assert.False(t, view.SentByCurrentUser)
	}
}
