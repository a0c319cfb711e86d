package fallback

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound reports that the fallback store has no entry for the
// requested agent either.
var ErrNotFound = errors.New("fallback: not found")

// RedisFallback reads legacy agent configurations from the key-value
// store used by the prior storage scheme. It is consulted only when
// the relational store reports not-found for an external agent id,
// and only during the migration window.
type RedisFallback struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, redisURL string) (*RedisFallback, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisFallback{client: client}, nil
}

// Close closes the Redis connection.
func (f *RedisFallback) Close() error {
	return f.client.Close()
}

// GetAgentConfig returns the legacy configuration document stored
// under the external agent id, decoded from JSON.
func (f *RedisFallback) GetAgentConfig(ctx context.Context, agentID string) (map[string]interface{}, error) {
	raw, err := f.client.Get(ctx, agentID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	config := map[string]interface{}{}
	if err := json.Unmarshal([]byte(raw), &config); err != nil {
		return nil, err
	}
	return config, nil
}
