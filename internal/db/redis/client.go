// Package redis backs the shared embedding cache with Redis or Valkey through rueidis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/lawbot/internal/db"
)

var _ db.Store = (*Store)(nil)

const (
	readyBackoffStart = 50 * time.Millisecond
	readyBackoffMax   = time.Second
)

// Config holds connection parameters.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// ClientCacheTTL enables rueidis client-side caching of GET replies.
	// Cached embeddings never change under a key, so server-assisted
	// invalidation only fires on expiry. Zero disables it.
	ClientCacheTTL time.Duration
}

// Store is a rueidis-backed db.Store.
type Store struct {
	client   rueidis.Client
	cacheTTL time.Duration
}

// NewStore connects to the configured nodes.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("redis: at least one address is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: cfg.ClientCacheTTL <= 0,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: connect %v: %w", cfg.Addrs, err)
	}

	return &Store{client: client, cacheTTL: cfg.ClientCacheTTL}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings with exponential backoff until the server answers or
// timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	wait := readyBackoffStart
	for {
		err := s.Ping(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("redis not ready after %s (last error: %v): %w", timeout, err, ctx.Err())
		case <-time.After(wait):
		}
		wait = min(wait*2, readyBackoffMax)
	}
}
