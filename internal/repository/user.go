package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Margiorno/todo-app-sub000/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository is the identity directory adapter: it resolves user ids
// to profile attributes and checks existence. This core never writes to it.
type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// ResolveUser fetches a single profile by id.
func (r *UserRepository) ResolveUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, first_name, last_name, email, avatar_path
		FROM users WHERE id = $1
	`
	u := &model.User{}
	err := r.store.db(ctx).QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.AvatarPath,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// ResolveUsers fetches profiles for the given ids, keyed by id. Ids that
// do not resolve are simply absent from the result.
func (r *UserRepository) ResolveUsers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.User, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*model.User{}, nil
	}

	query := `
		SELECT id, first_name, last_name, email, avatar_path
		FROM users WHERE id = ANY($1)
	`
	rows, err := r.store.db(ctx).Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make(map[uuid.UUID]*model.User, len(ids))
	for rows.Next() {
		u := &model.User{}
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.AvatarPath); err != nil {
			return nil, err
		}
		users[u.ID] = u
	}
	return users, rows.Err()
}

// UsersExist reports whether every id resolves to an existing user.
func (r *UserRepository) UsersExist(ctx context.Context, ids []uuid.UUID) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}

	var count int
	query := `SELECT COUNT(*) FROM users WHERE id = ANY($1)`
	if err := r.store.db(ctx).QueryRow(ctx, query, ids).Scan(&count); err != nil {
		return false, err
	}
	return count == len(uniqueIDs(ids)), nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
