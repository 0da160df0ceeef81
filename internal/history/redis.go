package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/trustcheck/internal/types"
)

// DefaultRedisKey is the list key used when Config.Key is empty.
const DefaultRedisKey = "trustcheck:history"

// RedisStore keeps history in a capped Redis list shared between processes.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore connects to url and verifies the connection.
func NewRedisStore(ctx context.Context, url, key string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisStoreFromClient(rdb, key), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

// Append pushes result to the head of the list and trims it to Limit in one
// transaction.
func (s *RedisStore) Append(ctx context.Context, result types.VerificationResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal verification: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, s.key, raw)
		pipe.LTrim(ctx, s.key, 0, Limit-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append verification: %w", err)
	}
	return nil
}

// List returns the stored results, most recent first.
func (s *RedisStore) List(ctx context.Context) ([]types.VerificationResult, error) {
	items, err := s.rdb.LRange(ctx, s.key, 0, Limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list verifications: %w", err)
	}
	results := make([]types.VerificationResult, 0, len(items))
	for _, item := range items {
		var r types.VerificationResult
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("failed to decode verification: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}

// Clear deletes the list.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
