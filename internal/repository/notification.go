package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Margiorno/todo-app-sub000/internal/model"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository persists notification records. The kind column
// discriminates the friend-request variant; its extra fields live in
// nullable columns instead of a subtype table.
type NotificationRepository struct {
	store *Store
}

func NewNotificationRepository(store *Store) *NotificationRepository {
	return &NotificationRepository{store: store}
}

// Create persists a new notification record.
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (id, receiver_id, kind, message, created_at, is_read, sender_id, request_id, resolved)
		VALUES ($1, $2, $3, $4, NOW(), FALSE, $5, $6, $7)
		RETURNING created_at
	`
	return r.store.db(ctx).QueryRow(ctx, query,
		n.ID,
		n.ReceiverID,
		n.Kind,
		n.Message,
		n.SenderID,
		n.RequestID,
		n.Resolved,
	).Scan(&n.CreatedAt)
}

// ListByReceiver returns the user's notifications, oldest first.
func (r *NotificationRepository) ListByReceiver(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	query := `
		SELECT id, receiver_id, kind, message, created_at, is_read, sender_id, request_id, resolved
		FROM notifications WHERE receiver_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.store.db(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*model.Notification
	for rows.Next() {
		n := &model.Notification{}
		err := rows.Scan(
			&n.ID,
			&n.ReceiverID,
			&n.Kind,
			&n.Message,
			&n.CreatedAt,
			&n.IsRead,
			&n.SenderID,
			&n.RequestID,
			&n.Resolved,
		)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkAllRead flips is_read for every notification of the user. Idempotent.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.store.db(ctx).Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE receiver_id = $1 AND is_read = FALSE`,
		userID,
	)
	return err
}

// Resolve marks the friend-request notification correlated with requestID.
func (r *NotificationRepository) Resolve(ctx context.Context, requestID uuid.UUID) error {
	result, err := r.store.db(ctx).Exec(ctx,
		`UPDATE notifications SET resolved = TRUE WHERE request_id = $1`,
		requestID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
