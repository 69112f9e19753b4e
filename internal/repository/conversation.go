package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Margiorno/todo-app-sub000/internal/model"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository persists conversations, their participant sets
// and their append-only message history.
type ConversationRepository struct {
	store *Store
}

func NewConversationRepository(store *Store) *ConversationRepository {
	return &ConversationRepository{store: store}
}

// Create persists a conversation and its participant set.
func (r *ConversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	query := `
		INSERT INTO conversations (id, conversation_type, title, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at
	`
	err := r.store.db(ctx).QueryRow(ctx, query,
		conv.ID,
		conv.Type,
		conv.Title,
	).Scan(&conv.CreatedAt)
	if err != nil {
		return err
	}

	for _, participant := range conv.Participants {
		_, err := r.store.db(ctx).Exec(ctx,
			`INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2)`,
			conv.ID, participant,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// FindByID loads a conversation together with its participant set.
func (r *ConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	query := `
		SELECT id, conversation_type, title, created_at
		FROM conversations WHERE id = $1
	`
	conv := &model.Conversation{}
	err := r.store.db(ctx).QueryRow(ctx, query, id).Scan(
		&conv.ID,
		&conv.Type,
		&conv.Title,
		&conv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	if conv.Participants, err = r.participants(ctx, conv.ID); err != nil {
		return nil, err
	}
	return conv, nil
}

// FindByParticipant returns every conversation containing the user, sorted
// descending by the timestamp of the most recent message. A conversation
// without messages sorts last.
func (r *ConversationRepository) FindByParticipant(ctx context.Context, userID uuid.UUID) ([]*model.Conversation, error) {
	query := `
		SELECT c.id, c.conversation_type, c.title, c.created_at
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id
		LEFT JOIN messages m ON m.conversation_id = c.id
		WHERE cp.user_id = $1
		GROUP BY c.id
		ORDER BY COALESCE(MAX(m.sent_at), '-infinity'::timestamptz) DESC
	`
	rows, err := r.store.db(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []*model.Conversation
	for rows.Next() {
		conv := &model.Conversation{}
		if err := rows.Scan(&conv.ID, &conv.Type, &conv.Title, &conv.CreatedAt); err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, conv := range conversations {
		if conv.Participants, err = r.participants(ctx, conv.ID); err != nil {
			return nil, err
		}
	}
	return conversations, nil
}

// FindPrivateBetween looks up the PRIVATE conversation whose participant
// set is exactly {a, b}. Returns (nil, nil) when none exists.
func (r *ConversationRepository) FindPrivateBetween(ctx context.Context, a, b uuid.UUID) (*model.Conversation, error) {
	query := `
		SELECT c.id FROM conversations c
		WHERE c.conversation_type = $1
		  AND EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = c.id AND user_id = $2)
		  AND EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = c.id AND user_id = $3)
		LIMIT 1
	`
	var id uuid.UUID
	err := r.store.db(ctx).QueryRow(ctx, query, model.ConversationPrivate, a, b).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Messages returns the full history in send order.
func (r *ConversationRepository) Messages(ctx context.Context, conversationID uuid.UUID) ([]*model.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, content, sent_at
		FROM messages WHERE conversation_id = $1
		ORDER BY id ASC
	`
	rows, err := r.store.db(ctx).Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		msg := &model.Message{}
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.SentAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// AppendMessage inserts a new message at the end of the history.
func (r *ConversationRepository) AppendMessage(ctx context.Context, msg *model.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, content, sent_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING sent_at
	`
	return r.store.db(ctx).QueryRow(ctx, query,
		msg.ID,
		msg.ConversationID,
		msg.SenderID,
		msg.Content,
	).Scan(&msg.SentAt)
}

func (r *ConversationRepository) participants(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.store.db(ctx).Query(ctx,
		`SELECT user_id FROM conversation_participants WHERE conversation_id = $1`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		participants = append(participants, id)
	}
	return participants, rows.Err()
}
