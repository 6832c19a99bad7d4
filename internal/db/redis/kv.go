package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/lawbot/internal/db"
)

// Get returns the value under key, served from the client-side cache when enabled.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var res rueidis.RedisResult
	if s.cacheTTL > 0 {
		res = s.client.DoCache(ctx, s.client.B().Get().Key(key).Cache(), s.cacheTTL)
	} else {
		res = s.client.Do(ctx, s.client.B().Get().Key(key).Build())
	}

	data, err := res.AsBytes()
	switch {
	case err == nil:
		return data, nil
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	default:
		return nil, &db.Error{Op: db.OpGet, Key: key, Err: err}
	}
}

// SetWithTTL stores value under key. A ttl under one second means no expiry.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	set := s.client.B().Set().Key(key).Value(rueidis.BinaryString(value))
	var cmd rueidis.Completed
	if ttl >= time.Second {
		cmd = set.Ex(ttl).Build()
	} else {
		cmd = set.Build()
	}
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Key: key, Err: err}
	}
	return nil
}
