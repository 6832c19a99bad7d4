package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lawbot/internal/corpus"
	"github.com/kailas-cloud/lawbot/internal/domain"
	"github.com/kailas-cloud/lawbot/internal/indexer"
	openaiTransport "github.com/kailas-cloud/lawbot/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/lawbot/internal/usecase/embedding"
)

const embeddingProvider = "openai"

func newBuildCmd(rt *runtime) *cobra.Command {
	var (
		corpusPath string
		outDir     string
		batchSize  int
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the BM25 and vector indexes from a JSONL corpus",
		Long: `Read one precedent chunk per line ({"page_content": ..., "metadata": {...}}),
embed every chunk and write index_bm25/ and index_vector/ under --out.

Existing indexes are replaced only after both new ones were written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if outDir == "" {
				outDir = filepath.Dir(rt.cfg.Index.LexicalPath)
			}
			logger := rt.logger

			docs, skipped, err := corpus.ReadFile(corpusPath)
			if err != nil {
				return err
			}
			logger.Info("Corpus loaded",
				zap.String("path", corpusPath),
				zap.Int("documents", len(docs)),
				zap.Int("skipped", skipped),
			)

			ec := rt.cfg.Embedding
			base := openaiTransport.NewEmbedder(&openaiTransport.Config{
				APIKey:     ec.APIKey,
				BaseURL:    ec.BaseURL,
				Model:      ec.Model,
				Dimensions: ec.Dimensions,
				Provider:   embeddingProvider,
				Logger:     logger,
			})
			var embedder domain.Embedder = embeddinguc.NewInstrumentedEmbedder(base, embeddingProvider, ec.Model, logger,
				embeddinguc.WithBatchSize(batchSize),
				embeddinguc.WithProgress(func(done, total int) {
					logger.Info("Embedding progress", zap.Int("done", done), zap.Int("total", total))
				}),
			)
			if ec.PassageInstruction != "" {
				embedder = domain.NewInstructionEmbedder(embedder, domain.Instructions{Passage: ec.PassageInstruction})
			}

			b := indexer.New(embedder, indexer.Options{
				Model:    ec.Model,
				M:        rt.cfg.Index.HNSW.M,
				EfSearch: rt.cfg.Index.HNSW.EfSearch,
			}, logger)
			res, err := b.Build(ctx, outDir, docs)
			if err != nil {
				return fmt.Errorf("build indexes: %w", err)
			}

			logger.Info("Indexes written",
				zap.String("out", outDir),
				zap.Int("documents", res.Documents),
				zap.Int("dimensions", res.Dimensions),
				zap.Int("total_tokens", res.TotalTokens),
				zap.Duration("elapsed", res.Elapsed),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "", "JSONL corpus file")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default: parent of index.lexical_path)")
	cmd.Flags().IntVar(&batchSize, "batch-size", embeddinguc.DefaultMaxAPIBatchSize, "Texts per embedding request")
	_ = cmd.MarkFlagRequired("corpus")

	return cmd
}
