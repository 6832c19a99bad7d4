// Package vector is the dense passage index: an HNSW graph (coder/hnsw) for
// approximate nearest neighbours plus a sqlite table holding the passages and
// their embeddings. Indexes are built offline and loaded whole at startup.
package vector

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/coder/hnsw"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

// Index is a loaded, read-only vector index.
type Index struct {
	// coder/hnsw makes no concurrency promise for Search.
	mu       sync.Mutex
	graph    *hnsw.Graph[uint64]
	docs     map[uint64]storedDoc
	manifest Manifest
	dir      string
}

// Load opens the index directory. Any missing file, count disagreement or
// dimension problem is an index-load failure. expectDims > 0 must equal the
// manifest dimension, so a query embedder of another size is caught at startup.
func Load(ctx context.Context, dir string, expectDims int) (*Index, error) {
	idx, err := load(ctx, dir, expectDims)
	if err != nil {
		return nil, domain.NewFailure(domain.KindIndexLoad, "load vector index", fmt.Errorf("%s: %w", dir, err))
	}
	return idx, nil
}

func load(ctx context.Context, dir string, expectDims int) (*Index, error) {
	manifest, err := readManifest(dir)
	if err != nil {
		return nil, err
	}
	if expectDims > 0 && manifest.Dimensions != expectDims {
		return nil, fmt.Errorf("%w: index built with %d, embedder configured for %d",
			domain.ErrDimensionMismatch, manifest.Dimensions, expectDims)
	}

	docsPath := filepath.Join(dir, DocsFile)
	if _, err := os.Stat(docsPath); err != nil {
		return nil, fmt.Errorf("docs db: %w", err)
	}
	db, err := openDocStore(docsPath, true)
	if err != nil {
		return nil, err
	}
	docs, err := loadDocs(ctx, db, manifest.Dimensions)
	_ = db.Close()
	if err != nil {
		return nil, err
	}

	graph := newGraph(manifest.M, manifest.EfSearch)
	f, err := os.Open(filepath.Join(dir, GraphFile))
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	defer f.Close()
	// Import needs an io.ByteReader.
	if err := graph.Import(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("import graph: %w", err)
	}
	graph.Distance = hnsw.CosineDistance

	if graph.Len() != len(docs) || len(docs) != manifest.Count {
		return nil, fmt.Errorf("count mismatch: manifest=%d graph=%d docs=%d",
			manifest.Count, graph.Len(), len(docs))
	}

	return &Index{graph: graph, docs: docs, manifest: manifest, dir: dir}, nil
}

func newGraph(m, efSearch int) *hnsw.Graph[uint64] {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	if m > 0 {
		g.M = m
	}
	if efSearch > 0 {
		g.EfSearch = efSearch
	}
	g.Ml = 0.25
	return g
}

// Search returns up to k passages nearest to query, most similar first.
// Similarity is cosine similarity in [-1, 1].
func (i *Index) Search(_ context.Context, query []float32, k int) ([]domain.Neighbor, error) {
	if len(query) != i.manifest.Dimensions {
		return nil, fmt.Errorf("%w: index has %d, query has %d",
			domain.ErrDimensionMismatch, i.manifest.Dimensions, len(query))
	}
	if k <= 0 || len(i.docs) == 0 {
		return []domain.Neighbor{}, nil
	}

	q := Normalize(query)

	i.mu.Lock()
	nodes := i.graph.Search(q, k)
	i.mu.Unlock()

	out := make([]domain.Neighbor, 0, len(nodes))
	for _, n := range nodes {
		d, ok := i.docs[n.Key]
		if !ok {
			continue
		}
		out = append(out, domain.Neighbor{
			Document:   d.doc,
			Vector:     d.vector,
			Similarity: Cosine(q, d.vector),
		})
	}
	slices.SortStableFunc(out, func(a, b domain.Neighbor) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

// Len returns the number of indexed passages.
func (i *Index) Len() int { return len(i.docs) }

// DocCount mirrors the lexical index for health reporting.
func (i *Index) DocCount() (uint64, error) { return uint64(len(i.docs)), nil }

// Manifest returns the build manifest.
func (i *Index) Manifest() Manifest { return i.manifest }

// Close is a no-op; everything lives in memory after Load.
func (i *Index) Close() error { return nil }

// Normalize returns a unit-length copy of v. A zero vector is returned as-is.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	var sum float64
	for _, x := range out {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}
	inv := float32(1 / math.Sqrt(sum))
	for j := range out {
		out[j] *= inv
	}
	return out
}

// Cosine is the cosine similarity of a and b; 0 if either is a zero vector.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for j := range a {
		if j >= len(b) {
			break
		}
		dot += float64(a[j]) * float64(b[j])
		na += float64(a[j]) * float64(a[j])
		nb += float64(b[j]) * float64(b[j])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
