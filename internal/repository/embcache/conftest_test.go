package embcache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/lawbot/internal/db"
	"github.com/kailas-cloud/lawbot/internal/domain"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

// gatedEmbedder blocks every call until release is closed.
type gatedEmbedder struct {
	release chan struct{}
	entered chan struct{}
	once    sync.Once
	calls   atomic.Int32
}

func newGatedEmbedder() *gatedEmbedder {
	return &gatedEmbedder{release: make(chan struct{}), entered: make(chan struct{})}
}

func (g *gatedEmbedder) Embed(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
	g.calls.Add(1)
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return domain.EmbeddingResult{}, ctx.Err()
	}
	return domain.EmbeddingResult{Embedding: []float32{0.5, 0.5}, TotalTokens: 7}, nil
}

// memBlobs is an in-memory db.BlobStore with optional failure injection.
type memBlobs struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	gets    int
	setKeys []string
}

var _ db.BlobStore = (*memBlobs)(nil)

func newMemBlobs() *memBlobs {
	return &memBlobs{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memBlobs) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setKeys = append(m.setKeys, key)
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func newTestRedisEmbedder(t *testing.T, inner domain.Embedder, opts Options) (*RedisEmbedder, *memBlobs) {
	t.Helper()
	blobs := newMemBlobs()
	if opts.Model == "" {
		opts.Model = "text-embedding-3-small"
	}
	return New(inner, blobs, opts), blobs
}
