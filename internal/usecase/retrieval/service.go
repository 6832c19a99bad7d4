package retrieval

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/lawbot/internal/domain"
	"github.com/kailas-cloud/lawbot/internal/logger"
	"github.com/kailas-cloud/lawbot/internal/metrics"
)

// Config holds the fusion weights.
type Config struct {
	LexicalWeight float64
	VectorWeight  float64
	RRFConstant   float64
	// Sequential disables running the two retrievers concurrently.
	Sequential bool
}

// DefaultConfig favours literal term matches (statutes, case numbers) 0.7 to 0.3.
func DefaultConfig() Config {
	return Config{LexicalWeight: 0.7, VectorWeight: 0.3, RRFConstant: DefaultRRFConstant}
}

// Service is the hybrid retriever: lexical and vector rankings merged by
// weighted rank fusion. It never degrades to a single retriever; if either
// one fails the whole call fails.
type Service struct {
	lexical Ranker
	vector  Ranker
	cfg     Config
}

// New creates a hybrid retrieval Service.
func New(lexical, vector Ranker, cfg Config) *Service {
	return &Service{lexical: lexical, vector: vector, cfg: cfg}
}

// Retrieve returns the merged, deduplicated documents for query.
func (s *Service) Retrieve(ctx context.Context, query string) ([]domain.Document, error) {
	fused, err := s.RetrieveScored(ctx, query)
	if err != nil {
		return nil, err
	}
	return Documents(fused), nil
}

// RetrieveScored is Retrieve with fusion scores and provenance kept.
func (s *Service) RetrieveScored(ctx context.Context, query string) ([]Fused, error) {
	start := time.Now()

	var lexHits, vecHits []domain.ScoredDocument
	var err error
	if s.cfg.Sequential {
		lexHits, err = s.rank(ctx, ctx, s.lexical, domain.SourceLexical, query)
		if err == nil {
			vecHits, err = s.rank(ctx, ctx, s.vector, domain.SourceVector, query)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var rerr error
			lexHits, rerr = s.rank(ctx, gctx, s.lexical, domain.SourceLexical, query)
			return rerr
		})
		g.Go(func() error {
			var rerr error
			vecHits, rerr = s.rank(ctx, gctx, s.vector, domain.SourceVector, query)
			return rerr
		})
		err = g.Wait()
	}
	if err != nil {
		return nil, err
	}

	fused := Fuse([]WeightedList{
		{Source: domain.SourceLexical, Weight: s.cfg.LexicalWeight, Results: lexHits},
		{Source: domain.SourceVector, Weight: s.cfg.VectorWeight, Results: vecHits},
	}, s.cfg.RRFConstant)

	metrics.RetrievalDuration.WithLabelValues("hybrid").Observe(time.Since(start).Seconds())
	metrics.RetrievalDocuments.WithLabelValues("hybrid").Observe(float64(len(fused)))

	logger.FromContext(ctx).Debug("Hybrid retrieval completed",
		zap.Int("lexical", len(lexHits)),
		zap.Int("vector", len(vecHits)),
		zap.Int("merged", len(fused)),
		zap.Duration("duration", time.Since(start)),
	)

	return fused, nil
}

// rank runs one retriever under ctx. parent is the caller's context: a
// cancellation that did not come from parent was caused by the sibling
// retriever failing and is not counted as a failure of its own.
func (s *Service) rank(parent, ctx context.Context, r Ranker, source domain.Source, query string) ([]domain.ScoredDocument, error) {
	start := time.Now()
	hits, err := r.Rank(ctx, query)
	metrics.RetrievalDuration.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.Canceled) && parent.Err() == nil {
			return nil, domain.NewFailure(domain.KindRetrieval, string(source)+" retrieve", err)
		}
		metrics.RetrievalErrorsTotal.WithLabelValues(string(source)).Inc()
		logger.FromContext(ctx).Error("Retriever failed",
			zap.String("source", string(source)),
			zap.Error(err),
		)
		return nil, domain.NewFailure(domain.KindRetrieval, string(source)+" retrieve", err)
	}
	metrics.RetrievalDocuments.WithLabelValues(string(source)).Observe(float64(len(hits)))
	return hits, nil
}
