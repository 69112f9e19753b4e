package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// These tests need a running Redis instance and are skipped otherwise.

func getTestRedisClient(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Skipping: cannot connect to Redis: %v", err)
	}

	client.FlushDB(ctx)
	return client
}

func TestSessionStore_SaveAndResolve(t *testing.T) {
	client := getTestRedisClient(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	userID := uuid.New()
	token := "test-token"

	if err := store.Save(ctx, token, userID, time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != userID {
		t.Errorf("Expected user %s, got %s", userID, got)
	}
}

func TestSessionStore_ResolveUnknownToken(t *testing.T) {
	client := getTestRedisClient(t)
	defer client.Close()

	store := NewSessionStore(client)

	if _, err := store.Resolve(context.Background(), "never-saved"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionStore_DeleteInvalidatesToken(t *testing.T) {
	client := getTestRedisClient(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	userID := uuid.New()
	token := "delete-me"

	if err := store.Save(ctx, token, userID, time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(ctx, token); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.Resolve(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after delete, got %v", err)
	}
}

func TestSessionStore_TTLExpiry(t *testing.T) {
	client := getTestRedisClient(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	token := "short-lived"
	if err := store.Save(ctx, token, uuid.New(), 50*time.Millisecond); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if _, err := store.Resolve(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after expiry, got %v", err)
	}
}
