package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lawbot/internal/config"
	dbRedis "github.com/kailas-cloud/lawbot/internal/db/redis"
	"github.com/kailas-cloud/lawbot/internal/domain"
	"github.com/kailas-cloud/lawbot/internal/index/lexical"
	"github.com/kailas-cloud/lawbot/internal/index/vector"
	logpkg "github.com/kailas-cloud/lawbot/internal/logger"
	"github.com/kailas-cloud/lawbot/internal/metrics"
	"github.com/kailas-cloud/lawbot/internal/repository/embcache"
	"github.com/kailas-cloud/lawbot/internal/snapshot"
	chiTransport "github.com/kailas-cloud/lawbot/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/lawbot/internal/transport/openai"
	answeruc "github.com/kailas-cloud/lawbot/internal/usecase/answer"
	embeddinguc "github.com/kailas-cloud/lawbot/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/lawbot/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/lawbot/internal/usecase/retrieval"
	"github.com/kailas-cloud/lawbot/internal/version"
)

const embeddingProvider = "openai"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic("failed to load .env: " + err.Error())
	}

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, "lawbot")
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()
	logpkg.SetDefault(logger)

	logger.Info("Starting lawbot API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("lexical_index", cfg.Index.LexicalPath),
		zap.String("vector_index", cfg.Index.VectorPath),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	ctx := context.Background()

	if cfg.Index.Snapshot.Enabled() {
		if err := fetchSnapshots(ctx, cfg, logger); err != nil {
			logger.Fatal("Failed to fetch index snapshot", zap.Error(err))
		}
	}

	// Both indexes are required; a missing one is fatal rather than a lexical-only fallback.
	lexIndex, err := lexical.Open(cfg.Index.LexicalPath)
	if err != nil {
		logger.Fatal("Failed to open lexical index", zap.Error(err))
	}
	defer func() { _ = lexIndex.Close() }()

	vecIndex, err := vector.Load(ctx, cfg.Index.VectorPath, cfg.Embedding.Dimensions)
	if err != nil {
		logger.Fatal("Failed to load vector index", zap.Error(err))
	}
	defer func() { _ = vecIndex.Close() }()

	lexCount, _ := lexIndex.DocCount()
	manifest := vecIndex.Manifest()
	logger.Info("Indexes loaded",
		zap.Uint64("lexical_documents", lexCount),
		zap.Int("vector_documents", vecIndex.Len()),
		zap.String("vector_model", manifest.Model),
		zap.Int("vector_dimensions", manifest.Dimensions),
	)
	if manifest.Model != "" && manifest.Model != cfg.Embedding.Model {
		logger.Warn("Vector index was built with a different embedding model",
			zap.String("index_model", manifest.Model),
			zap.String("config_model", cfg.Embedding.Model),
		)
	}

	// Optional shared embedding cache
	var cacheStore *dbRedis.Store
	if cfg.Embedding.Redis.Enabled() {
		cacheStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Embedding.Redis.Addrs,
			Username: cfg.Embedding.Redis.Username,
			Password: cfg.Embedding.Redis.Password,
			DB:       cfg.Embedding.Redis.DB,

			ClientCacheTTL: cfg.Embedding.Redis.ClientCacheTTL(),
		})
		if err != nil {
			logger.Fatal("Failed to create embedding cache store", zap.Error(err))
		}
		defer cacheStore.Close()

		timeout := time.Duration(cfg.Embedding.Redis.ReadinessTimeout) * time.Second
		if err := cacheStore.WaitForReady(ctx, timeout); err != nil {
			logger.Fatal("Embedding cache not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Embedding.Redis.Addrs))
	}

	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   embeddingProvider,
		Logger:     logger,
	})
	queryEmbedder, err := buildEmbedder(baseEmbedder, cfg.Embedding, manifest.Dimensions, cacheStore, logger)
	if err != nil {
		logger.Fatal("Failed to build embedder", zap.Error(err))
	}

	var echo io.Writer
	if cfg.Generation.EchoStream {
		echo = os.Stdout
	}
	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:      cfg.Generation.APIKey,
		BaseURL:     cfg.Generation.BaseURL,
		Model:       cfg.Generation.Model,
		Temperature: cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
		Stream:      cfg.Generation.Stream,
		Echo:        echo,
		Timeout:     time.Duration(cfg.Generation.TimeoutSec) * time.Second,
		Logger:      logger,
	})

	rc := cfg.Retrieval
	retriever := retrievaluc.New(
		retrievaluc.NewLexicalRetriever(lexIndex, rc.LexicalK),
		retrievaluc.NewVectorRetriever(queryEmbedder, vecIndex, retrievaluc.MMROptions{
			K:      rc.VectorK,
			FetchK: rc.FetchK,
			Lambda: rc.Lambda(),
		}),
		retrievaluc.Config{
			LexicalWeight: rc.LexicalWeight,
			VectorWeight:  rc.VectorWeight,
			RRFConstant:   rc.RRFConstant,
			Sequential:    rc.Sequential,
		},
	)

	answerOpts := []answeruc.Option{}
	if cfg.Generation.PromptPath != "" {
		prompt, err := answeruc.LoadPrompt(cfg.Generation.PromptPath)
		if err != nil {
			logger.Fatal("Failed to load prompt", zap.Error(err))
		}
		answerOpts = append(answerOpts, answeruc.WithPrompt(prompt))
	}
	answerSvc := answeruc.New(retriever, generator, answerOpts...)

	healthOpts := []healthuc.Option{healthuc.WithEmbedding(baseEmbedder)}
	if cacheStore != nil {
		healthOpts = append(healthOpts, healthuc.WithCache(cacheStore))
	}
	healthSvc := healthuc.New(lexIndex, vecIndex, healthOpts...)

	server := chiTransport.NewServer(answerSvc, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.HTTP.AllowOrigin),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain:
// OpenAI -> Redis cache -> LRU cache -> Instrumented -> Instruction.
func buildEmbedder(
	base domain.Embedder,
	cfg config.EmbeddingConfig,
	dims int,
	cacheStore *dbRedis.Store,
	logger *zap.Logger,
) (domain.Embedder, error) {
	embedder := base

	if cacheStore != nil {
		embedder = embcache.New(embedder, cacheStore, embcache.Options{
			Model:      cfg.Model,
			TTL:        cfg.Redis.TTL(),
			Dimensions: dims,
			CacheTotal: metrics.EmbeddingCacheTotal,
			Logger:     logger,
		})
	}

	if cfg.CacheSize > 0 {
		mem, err := embcache.NewMemory(embedder, cfg.Model, cfg.CacheSize, metrics.EmbeddingCacheTotal)
		if err != nil {
			return nil, fmt.Errorf("memory cache: %w", err)
		}
		embedder = mem
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, embeddingProvider, cfg.Model, logger)

	// Instruction prefix (outermost, so cache keys include the instruction)
	if cfg.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, domain.Instructions{Query: cfg.QueryInstruction})
	}
	return embedder, nil
}

// fetchSnapshots mirrors both index directories from S3 before they are opened.
func fetchSnapshots(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	sc := cfg.Index.Snapshot
	client, err := snapshot.NewClient(ctx, snapshot.ClientConfig{
		Region:          sc.Region,
		Endpoint:        sc.Endpoint,
		AccessKeyID:     sc.AccessKeyID,
		SecretAccessKey: sc.SecretAccessKey,
		UsePathStyle:    sc.UsePathStyle,
	})
	if err != nil {
		return err
	}
	syncer := snapshot.New(client, sc.Bucket, sc.Prefix, logger)

	if _, err := syncer.Fetch(ctx, snapshot.LexicalName, cfg.Index.LexicalPath); err != nil {
		return fmt.Errorf("lexical: %w", err)
	}
	if _, err := syncer.Fetch(ctx, snapshot.VectorName, cfg.Index.VectorPath); err != nil {
		return fmt.Errorf("vector: %w", err)
	}
	return nil
}
