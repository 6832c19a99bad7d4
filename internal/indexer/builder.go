// Package indexer builds the lexical and vector indexes from a corpus.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lawbot/internal/domain"
	"github.com/kailas-cloud/lawbot/internal/index/lexical"
	"github.com/kailas-cloud/lawbot/internal/index/vector"
)

// Directory names under the output root; the server config points at them.
const (
	LexicalDir = "index_bm25"
	VectorDir  = "index_vector"
	lockFile   = ".build.lock"
)

// ErrLocked is returned when another build holds the output directory.
var ErrLocked = errors.New("output directory is locked by another build")

// Options configures a Builder.
type Options struct {
	Model    string
	M        int
	EfSearch int
}

// Result summarizes a finished build.
type Result struct {
	Documents   int
	Dimensions  int
	TotalTokens int
	Elapsed     time.Duration
}

// Builder embeds documents and writes both indexes.
type Builder struct {
	embedder domain.Embedder
	opts     Options
	logger   *zap.Logger
}

// New creates a Builder. embedder should chunk large batches itself.
func New(embedder domain.Embedder, opts Options, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{embedder: embedder, opts: opts, logger: logger}
}

// Build writes <outDir>/index_bm25 and <outDir>/index_vector for docs.
// Both indexes are staged next to their final location and swapped in only
// after everything succeeded, so a failed build leaves the old ones intact.
func (b *Builder) Build(ctx context.Context, outDir string, docs []domain.Document) (Result, error) {
	if len(docs) == 0 {
		return Result{}, errors.New("no documents to index")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output dir: %w", err)
	}

	lock := flock.New(filepath.Join(outDir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return Result{}, fmt.Errorf("acquire build lock: %w", err)
	}
	if !locked {
		return Result{}, ErrLocked
	}
	defer func() { _ = lock.Unlock() }()

	start := time.Now()

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	b.logger.Info("Embedding corpus", zap.Int("documents", len(docs)), zap.String("model", b.opts.Model))
	emb, err := domain.BatchEmbed(ctx, b.embedder, texts)
	if err != nil {
		return Result{}, fmt.Errorf("embed corpus: %w", err)
	}
	if len(emb.Embeddings) != len(docs) {
		return Result{}, fmt.Errorf("embedder returned %d vectors for %d documents", len(emb.Embeddings), len(docs))
	}
	dims, err := emb.Dimensions()
	if err != nil {
		return Result{}, fmt.Errorf("embed corpus: %w", err)
	}

	staging, err := os.MkdirTemp(outDir, ".staging-")
	if err != nil {
		return Result{}, fmt.Errorf("create staging dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	lexTmp := filepath.Join(staging, LexicalDir)
	if err := lexical.Build(ctx, lexTmp, docs); err != nil {
		return Result{}, fmt.Errorf("build lexical index: %w", err)
	}
	b.logger.Info("Lexical index built", zap.String("path", lexTmp))

	vecTmp := filepath.Join(staging, VectorDir)
	err = vector.Build(ctx, vecTmp, docs, emb.Embeddings, vector.BuildOptions{
		Model:    b.opts.Model,
		M:        b.opts.M,
		EfSearch: b.opts.EfSearch,
	})
	if err != nil {
		return Result{}, fmt.Errorf("build vector index: %w", err)
	}
	b.logger.Info("Vector index built", zap.String("path", vecTmp))

	if err := install(staging, outDir, LexicalDir, VectorDir); err != nil {
		return Result{}, err
	}

	return Result{
		Documents:   len(docs),
		Dimensions:  dims,
		TotalTokens: emb.TotalTokens,
		Elapsed:     time.Since(start),
	}, nil
}

// rename is swapped out in tests to simulate a failing install.
var rename = os.Rename

// install moves each named directory from staging into outDir. Either all of
// them are replaced or, on failure, the previous ones are put back: the two
// indexes must always come from the same build.
func install(staging, outDir string, names ...string) error {
	var installed []swapped
	for _, name := range names {
		sw, err := swap(filepath.Join(staging, name), filepath.Join(outDir, name))
		if err != nil {
			for i := len(installed) - 1; i >= 0; i-- {
				installed[i].rollback()
			}
			return err
		}
		installed = append(installed, sw)
	}
	for _, sw := range installed {
		sw.commit()
	}
	return nil
}

// swapped is a directory replaced by swap whose previous version is still
// kept next to it.
type swapped struct {
	dst    string
	hadOld bool
}

func (s swapped) old() string { return s.dst + ".old" }

// rollback removes the new directory and puts the previous one back.
func (s swapped) rollback() {
	_ = os.RemoveAll(s.dst)
	if s.hadOld {
		_ = rename(s.old(), s.dst)
	}
}

// commit drops the previous version.
func (s swapped) commit() {
	if s.hadOld {
		_ = os.RemoveAll(s.old())
	}
}

// swap moves dst aside to dst.old and src into dst.
func swap(src, dst string) (swapped, error) {
	sw := swapped{dst: dst, hadOld: true}
	_ = os.RemoveAll(sw.old())

	if err := rename(dst, sw.old()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return swapped{}, fmt.Errorf("move aside %s: %w", dst, err)
		}
		sw.hadOld = false
	}
	if err := rename(src, dst); err != nil {
		if sw.hadOld {
			_ = rename(sw.old(), dst)
		}
		return swapped{}, fmt.Errorf("install %s: %w", dst, err)
	}
	return sw, nil
}
