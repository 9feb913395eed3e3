// Package redisstore keeps view preferences in a Redis hash.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultHashKey = "salesboard:preferences"

// PreferenceStore stores preference values as fields of one hash.
type PreferenceStore struct {
	client  redis.UniversalClient
	hashKey string
}

// NewPreferenceStore wraps an existing client. An empty hashKey uses
// "salesboard:preferences".
func NewPreferenceStore(client redis.UniversalClient, hashKey string) *PreferenceStore {
	if hashKey == "" {
		hashKey = defaultHashKey
	}
	return &PreferenceStore{client: client, hashKey: hashKey}
}

// Get reads a preference value.
func (s *PreferenceStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.HGet(ctx, s.hashKey, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis hget %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes a preference value.
func (s *PreferenceStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.HSet(ctx, s.hashKey, key, value).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}
