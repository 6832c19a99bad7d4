package redis

import (
	"time"

	"github.com/redis/rueidis"
)

// NewStoreForTest wraps a (mock) client.
func NewStoreForTest(c rueidis.Client, cacheTTL time.Duration) *Store {
	return &Store{client: c, cacheTTL: cacheTTL}
}
