package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyConfig holds connection settings for a Valkey (or Redis) server.
type ValkeyConfig struct {
	Address  string
	Password string
	DB       int
	TLS      bool
	// Retries is the number of attempts per command; zero means 3
	Retries int
}

// ValkeyStore is a Store backed by Valkey.
type ValkeyStore struct {
	client  valkey.Client
	retries int
}

// NewValkeyStore connects to Valkey and verifies the connection with PING.
func NewValkeyStore(ctx context.Context, cfg ValkeyConfig) (*ValkeyStore, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("valkey address is required")
	}
	opts := valkey.ClientOption{
		InitAddress:      []string{cfg.Address},
		Password:         cfg.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         cfg.DB,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Do(pingCtx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping valkey: %w", err)
	}

	retries := cfg.Retries
	if retries <= 0 {
		retries = 3
	}
	slog.Info("connected to valkey", slog.String("address", cfg.Address))
	return &ValkeyStore{client: client, retries: retries}, nil
}

// Get implements Store.
func (s *ValkeyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res := s.doWithRetry(ctx, func() valkey.Completed { return s.client.B().Get().Key(key).Build() })
	data, err := res.AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("valkey get %s: %w", key, err)
	}
	return data, true, nil
}

// Set implements Store.
func (s *ValkeyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	build := func() []valkey.Completed {
		cmds := []valkey.Completed{
			s.client.B().Set().Key(key).Value(valkey.BinaryString(value)).Build(),
		}
		if seconds := int64(ttl / time.Second); seconds > 0 {
			cmds = append(cmds, s.client.B().Expire().Key(key).Seconds(seconds).Build())
		}
		return cmds
	}

	for _, res := range s.doMultiWithRetry(ctx, build) {
		if err := res.Error(); err != nil {
			return fmt.Errorf("valkey set %s: %w", key, err)
		}
	}
	return nil
}

// Delete implements Store.
func (s *ValkeyStore) Delete(ctx context.Context, key string) error {
	if err := s.doWithRetry(ctx, func() valkey.Completed { return s.client.B().Del().Key(key).Build() }).Error(); err != nil {
		return fmt.Errorf("valkey del %s: %w", key, err)
	}
	return nil
}

// Close implements Store.
func (s *ValkeyStore) Close() error {
	s.client.Close()
	return nil
}

// Commands are rebuilt per attempt since the client recycles them after use.
func (s *ValkeyStore) doWithRetry(ctx context.Context, build func() valkey.Completed) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < s.retries; i++ {
		result = s.client.Do(ctx, build())
		err := result.Error()
		if err == nil || valkey.IsValkeyNil(err) || ctx.Err() != nil {
			break
		}
		slog.Warn("valkey command failed", slog.Int("attempt", i+1), slog.String("error", err.Error()))
		time.Sleep(250 * time.Millisecond)
	}
	return result
}

func (s *ValkeyStore) doMultiWithRetry(ctx context.Context, build func() []valkey.Completed) []valkey.ValkeyResult {
	var results []valkey.ValkeyResult
	for i := 0; i < s.retries; i++ {
		results = s.client.DoMulti(ctx, build()...)
		failed := false
		for _, r := range results {
			if err := r.Error(); err != nil {
				failed = true
				slog.Warn("valkey multi command failed", slog.Int("attempt", i+1), slog.String("error", err.Error()))
				break
			}
		}
		if !failed || ctx.Err() != nil {
			break
		}
		time.Sleep(250 * time.Millisecond)
	}
	return results
}
