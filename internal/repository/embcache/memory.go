package embcache

import (
	"context"
	"fmt"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

// DefaultMemorySize bounds the in-process cache.
const DefaultMemorySize = 1024

// MemoryEmbedder keeps recent question embeddings in a process-local LRU.
// Concurrent misses for the same text share one inner call.
type MemoryEmbedder struct {
	inner      domain.Embedder
	cache      *lru.Cache[string, []float32]
	flight     singleflight.Group
	model      string
	cacheTotal *prometheus.CounterVec
}

// NewMemory wraps inner with an LRU of the given size (DefaultMemorySize if <= 0).
func NewMemory(inner domain.Embedder, model string, size int, cacheTotal *prometheus.CounterVec) (*MemoryEmbedder, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &MemoryEmbedder{
		inner:      inner,
		cache:      cache,
		model:      model,
		cacheTotal: cacheTotal,
	}, nil
}

// Embed returns a copy of the cached vector or delegates on a miss.
// Callers that joined another caller's in-flight request get the vector
// with zero tokens, so usage is reported once.
func (m *MemoryEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := CacheKey(m.model, text)

	if vec, ok := m.cache.Get(key); ok {
		count(m.cacheTotal, TierMemory, true)
		return domain.EmbeddingResult{Embedding: slices.Clone(vec)}, nil
	}
	count(m.cacheTotal, TierMemory, false)

	var led bool
	v, err, _ := m.flight.Do(key, func() (any, error) {
		led = true
		res, err := m.inner.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		if len(res.Embedding) > 0 {
			m.cache.Add(key, slices.Clone(res.Embedding))
		}
		return res, nil
	})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	res := v.(domain.EmbeddingResult)
	out := domain.EmbeddingResult{Embedding: slices.Clone(res.Embedding)}
	if led {
		out.PromptTokens, out.TotalTokens = res.PromptTokens, res.TotalTokens
	}
	return out, nil
}

// Len reports the number of cached entries.
func (m *MemoryEmbedder) Len() int {
	return m.cache.Len()
}
