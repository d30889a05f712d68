package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Get when no live entry exists for the user:
// never stored, explicitly revoked, or expired by TTL.
var ErrNotFound = errors.New("refresh token not found")

// ErrUnavailable wraps Redis transport failures so callers can separate
// "token rejected" from "backend down".
var ErrUnavailable = errors.New("registry unavailable")

const defaultPrefix = "rt"

// Store maps a user id to that user's single currently valid refresh token.
// Put overwrites unconditionally, so a second login invalidates the first
// login's refresh token (last writer wins); entries expire via Redis TTL
// without explicit cleanup.
type Store struct {
	redis  *redis.Client
	prefix string
}

// New returns a Store using the given key prefix, or "rt" when empty.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(userID string) string {
	return s.prefix + ":" + userID
}

// Put stores token as the user's current refresh token with the given TTL,
// replacing any previous entry.
func (s *Store) Put(ctx context.Context, userID, token string, ttl time.Duration) error {
	if userID == "" || token == "" {
		return errors.New("registry: empty user id or token")
	}
	if ttl <= 0 {
		return errors.New("registry: ttl must be > 0")
	}

	if err := s.redis.Set(ctx, s.key(userID), token, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get returns the user's current refresh token, or ErrNotFound.
func (s *Store) Get(ctx context.Context, userID string) (string, error) {
	token, err := s.redis.Get(ctx, s.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return token, nil
}

// Revoke deletes the user's entry immediately. Revoking an absent entry is
// not an error.
func (s *Store) Revoke(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
