package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amail-io/amail-ce/internal/models"
)

// RedisSessionRepository stores conversation histories in Redis so that
// multiple service instances share session state. Turn histories are
// JSON-encoded under a prefixed key with an optional TTL.
type RedisSessionRepository struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisSessionRepository creates a Redis-backed session store. A zero
// ttl keeps sessions until explicitly reset.
func NewRedisSessionRepository(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisSessionRepository {
	if keyPrefix == "" {
		keyPrefix = "amail:session:"
	}
	return &RedisSessionRepository{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (r *RedisSessionRepository) key(sessionID string) string {
	return r.keyPrefix + sessionID
}

// Get returns the session's turns, or nil if the session does not exist.
func (r *RedisSessionRepository) Get(ctx context.Context, sessionID string) ([]models.ChatTurn, error) {
	data, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, &models.UpstreamError{Service: "session store", Retryable: true, Err: err}
	}
	var turns []models.ChatTurn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return turns, nil
}

// Save replaces the session's turn history.
func (r *RedisSessionRepository) Save(ctx context.Context, sessionID string, turns []models.ChatTurn) error {
	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}
	if err := r.client.Set(ctx, r.key(sessionID), data, r.ttl).Err(); err != nil {
		return &models.UpstreamError{Service: "session store", Retryable: true, Err: err}
	}
	return nil
}

// Delete discards the session. Deleting an absent session is a no-op.
func (r *RedisSessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return &models.UpstreamError{Service: "session store", Retryable: true, Err: err}
	}
	return nil
}
