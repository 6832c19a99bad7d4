package vector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coder/hnsw"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

// BuildOptions tunes the graph written by Build.
type BuildOptions struct {
	Model    string
	M        int
	EfSearch int
}

// Build writes a complete index for docs into dir, which must not exist.
// vectors[i] is the embedding of docs[i]; every vector must share one dimension.
func Build(ctx context.Context, dir string, docs []domain.Document, vectors [][]float32, opts BuildOptions) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("docs and vectors length mismatch: %d vs %d", len(docs), len(vectors))
	}
	dims := 0
	if len(vectors) > 0 {
		dims = len(vectors[0])
	}
	if dims == 0 {
		return fmt.Errorf("cannot build vector index without vectors")
	}

	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%s already exists", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	graph := newGraph(opts.M, opts.EfSearch)
	stored := make([]storedDoc, 0, len(docs))
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(vectors[i]) != dims {
			return fmt.Errorf("document %s: %w: expected %d, got %d",
				doc.ID, domain.ErrDimensionMismatch, dims, len(vectors[i]))
		}
		// Keys start at 1; sqlite treats 0 as a valid rowid but it reads badly in dumps.
		key := uint64(i + 1)
		vec := Normalize(vectors[i])
		graph.Add(hnsw.MakeNode(key, vec))
		stored = append(stored, storedDoc{key: key, doc: doc, vector: vec})
	}

	db, err := openDocStore(filepath.Join(dir, DocsFile), false)
	if err != nil {
		return err
	}
	if err := insertDocs(ctx, db, stored); err != nil {
		_ = db.Close()
		return err
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close docs db: %w", err)
	}

	if err := exportGraph(graph, filepath.Join(dir, GraphFile)); err != nil {
		return err
	}

	return writeManifest(dir, Manifest{
		Version:    manifestVersion,
		Model:      opts.Model,
		Dimensions: dims,
		Count:      len(stored),
		Metric:     "cosine",
		M:          graph.M,
		EfSearch:   graph.EfSearch,
		CreatedAt:  time.Now().UTC(),
	})
}

func exportGraph(g *hnsw.Graph[uint64], path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create graph file: %w", err)
	}
	if err := g.Export(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("export graph: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close graph file: %w", err)
	}
	return nil
}
