package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/producelens/backend/internal/domain"
)

// RedisStore keeps each user's memory as a JSON string under <prefix><userID>.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to the Redis server at url (redis://host:port/db).
func NewRedisStore(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis ping failed: %v", domain.ErrMemoryStore, err)
	}

	if prefix == "" {
		prefix = "producelens:memory:"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

// Read returns the stored memory, or domain.ErrUserNotFound when the key is absent.
func (s *RedisStore) Read(ctx context.Context, userID string) (*domain.UserMemory, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, s.prefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var memory domain.UserMemory
	if err := json.Unmarshal(data, &memory); err != nil {
		return nil, fmt.Errorf("decode memory for %s: %w", userID, err)
	}
	return &memory, nil
}

// Write stores the user's memory without expiry.
func (s *RedisStore) Write(ctx context.Context, userID string, memory *domain.UserMemory) error {
	if err := validateUserID(userID); err != nil {
		return err
	}

	data, err := json.Marshal(memory)
	if err != nil {
		return fmt.Errorf("encode memory: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+userID, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
