package repository

import (
	"bytes"
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Margiorno/todo-app-sub000/internal/model"
)

var (
	ErrFriendRequestNotFound = errors.New("friend request not found")
	ErrDuplicateRequest      = errors.New("friend request already exists")
)

// FriendRepository persists pending friend requests and the symmetric
// friendship relation. A friendship is one row keyed by the ordered pair,
// so both directions are updated atomically by a single statement.
type FriendRepository struct {
	store *Store
}

func NewFriendRepository(store *Store) *FriendRepository {
	return &FriendRepository{store: store}
}

// orderedPair normalizes an unordered user pair to a stable column order.
func orderedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) < 0 {
		return a, b
	}
	return b, a
}

// CreateRequest inserts a pending request. The unique constraint on
// (sender_id, receiver_id) turns a concurrent duplicate into
// ErrDuplicateRequest.
func (r *FriendRepository) CreateRequest(ctx context.Context, request *model.FriendRequest) error {
	query := `
		INSERT INTO friend_requests (id, sender_id, receiver_id, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING created_at
	`
	err := r.store.db(ctx).QueryRow(ctx, query,
		request.ID,
		request.SenderID,
		request.ReceiverID,
	).Scan(&request.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRequest
		}
		return err
	}
	return nil
}

// RequestByID loads a pending request.
func (r *FriendRepository) RequestByID(ctx context.Context, id uuid.UUID) (*model.FriendRequest, error) {
	query := `
		SELECT id, sender_id, receiver_id, created_at
		FROM friend_requests WHERE id = $1
	`
	request := &model.FriendRequest{}
	err := r.store.db(ctx).QueryRow(ctx, query, id).Scan(
		&request.ID,
		&request.SenderID,
		&request.ReceiverID,
		&request.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFriendRequestNotFound
		}
		return nil, err
	}
	return request, nil
}

// RequestBetween finds the pending request for the directional
// (sender, receiver) pair. Returns (nil, nil) when none exists.
func (r *FriendRepository) RequestBetween(ctx context.Context, senderID, receiverID uuid.UUID) (*model.FriendRequest, error) {
	query := `
		SELECT id, sender_id, receiver_id, created_at
		FROM friend_requests WHERE sender_id = $1 AND receiver_id = $2
	`
	request := &model.FriendRequest{}
	err := r.store.db(ctx).QueryRow(ctx, query, senderID, receiverID).Scan(
		&request.ID,
		&request.SenderID,
		&request.ReceiverID,
		&request.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return request, nil
}

// DeleteRequest removes the request record; its absence is the resolved state.
func (r *FriendRepository) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	result, err := r.store.db(ctx).Exec(ctx, `DELETE FROM friend_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrFriendRequestNotFound
	}
	return nil
}

// AreFriends reports whether the symmetric relation contains the pair.
func (r *FriendRepository) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	first, second := orderedPair(a, b)

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM friendships WHERE user_a = $1 AND user_b = $2)`
	err := r.store.db(ctx).QueryRow(ctx, query, first, second).Scan(&exists)
	return exists, err
}

// CreateFriendship adds the pair to the symmetric relation. Idempotent.
func (r *FriendRepository) CreateFriendship(ctx context.Context, a, b uuid.UUID) error {
	first, second := orderedPair(a, b)

	_, err := r.store.db(ctx).Exec(ctx, `
		INSERT INTO friendships (user_a, user_b, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_a, user_b) DO NOTHING
	`, first, second)
	return err
}

// DeleteFriendship removes the pair from the symmetric relation.
func (r *FriendRepository) DeleteFriendship(ctx context.Context, a, b uuid.UUID) error {
	first, second := orderedPair(a, b)

	_, err := r.store.db(ctx).Exec(ctx,
		`DELETE FROM friendships WHERE user_a = $1 AND user_b = $2`,
		first, second,
	)
	return err
}

// FriendsOf returns the profiles of every friend of the user.
func (r *FriendRepository) FriendsOf(ctx context.Context, userID uuid.UUID) ([]*model.User, error) {
	query := `
		SELECT u.id, u.first_name, u.last_name, u.email, u.avatar_path
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.user_a = $1 THEN f.user_b ELSE f.user_a END
		WHERE f.user_a = $1 OR f.user_b = $1
		ORDER BY f.created_at DESC
	`
	rows, err := r.store.db(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []*model.User
	for rows.Next() {
		u := &model.User{}
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.AvatarPath); err != nil {
			return nil, err
		}
		friends = append(friends, u)
	}
	return friends, rows.Err()
}
