package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

const sessionTokenPrefix = "session:token:"

// SessionStore tracks active sessions in Redis. A token present in the
// store is a live session; expiry and logout both drop the key, which
// invalidates the token regardless of its JWT lifetime.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func sessionKey(token string) string {
	return sessionTokenPrefix + token
}

// Save registers a live session for the user.
func (s *SessionStore) Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	return s.rdb.Set(ctx, sessionKey(token), userID.String(), ttl).Err()
}

// Resolve returns the user a live session token belongs to.
func (s *SessionStore) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.rdb.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrSessionNotFound
		}
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrSessionNotFound
	}
	return userID, nil
}

// Delete invalidates a session.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}
