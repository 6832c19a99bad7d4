// Package embcache caches question embeddings in front of the provider.
// Two tiers exist: a shared Redis tier (RedisEmbedder) and a process-local
// LRU (MemoryEmbedder). Both count hits and misses under the "tier" label.
package embcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lawbot/internal/db"
	"github.com/kailas-cloud/lawbot/internal/domain"
)

// Cache tiers, used as the "tier" label value.
const (
	TierRedis  = "redis"
	TierMemory = "memory"
)

// Options configures a RedisEmbedder.
type Options struct {
	// Model scopes keys, so switching models never serves stale vectors.
	Model string
	TTL   time.Duration
	// Dimensions > 0 drops cached vectors of any other size.
	Dimensions int
	// CacheTotal carries the "tier" and "result" labels. Optional.
	CacheTotal *prometheus.CounterVec
	Logger     *zap.Logger
}

// RedisEmbedder stores embeddings in a shared blob store.
type RedisEmbedder struct {
	inner domain.Embedder
	blobs db.BlobStore
	opts  Options
}

// New wraps inner with the shared cache tier.
func New(inner domain.Embedder, blobs db.BlobStore, opts Options) *RedisEmbedder {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &RedisEmbedder{inner: inner, blobs: blobs, opts: opts}
}

// Embed serves from the store when possible. A hit reports zero tokens.
// Store failures and unreadable entries are treated as misses.
func (r *RedisEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := CacheKey(r.opts.Model, text)

	if vec := r.lookup(ctx, key); vec != nil {
		count(r.opts.CacheTotal, TierRedis, true)
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	count(r.opts.CacheTotal, TierRedis, false)

	res, err := r.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	if len(res.Embedding) > 0 {
		if err := r.blobs.SetWithTTL(ctx, key, encodeEntry(res.Embedding), r.opts.TTL); err != nil {
			r.opts.Logger.Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return res, nil
}

func (r *RedisEmbedder) lookup(ctx context.Context, key string) []float32 {
	data, err := r.blobs.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil
	case err != nil:
		r.opts.Logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	vec, err := decodeEntry(data, r.opts.Dimensions)
	if err != nil {
		r.opts.Logger.Debug("Ignoring cached embedding", zap.String("key", key), zap.Error(err))
		return nil
	}
	return vec
}

func count(counter *prometheus.CounterVec, tier string, hit bool) {
	if counter == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	counter.WithLabelValues(tier, result).Inc()
}
