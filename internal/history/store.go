// Package history keeps the most recent verification results and derives
// statistics, search and export documents from them.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/trustcheck/internal/types"
)

// Limit is the number of results a store retains.
const Limit = 100

// Store persists verification results. List returns at most Limit results,
// most recent first.
type Store interface {
	Append(ctx context.Context, result types.VerificationResult) error
	List(ctx context.Context) ([]types.VerificationResult, error)
	Clear(ctx context.Context) error
	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
)

// ParseBackend parses a backend name; empty means memory.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendMemory, nil
	case BackendMemory, BackendRedis, BackendPostgres:
		return b, nil
	default:
		return "", fmt.Errorf("unknown history backend %q (want memory, redis or postgres)", s)
	}
}

// Config selects and configures the history backend.
type Config struct {
	Backend     Backend
	DatabaseURL string
	RedisURL    string
	// Key is the Redis list key
	Key string
}

// Open creates the configured Store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("redis history backend requires REDIS_URL")
		}
		return NewRedisStore(ctx, cfg.RedisURL, cfg.Key)
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres history backend requires DATABASE_URL")
		}
		return OpenPostgresStore(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
