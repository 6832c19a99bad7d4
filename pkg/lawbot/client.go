package lawbot

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/lawbot/internal/domain"
	"github.com/kailas-cloud/lawbot/internal/index/lexical"
	"github.com/kailas-cloud/lawbot/internal/index/vector"
	"github.com/kailas-cloud/lawbot/internal/repository/embcache"
	answeruc "github.com/kailas-cloud/lawbot/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/lawbot/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/lawbot/internal/usecase/retrieval"
)

// Внутренние интерфейсы для подмены в тестах.
type retrievalUseCase interface {
	RetrieveScored(ctx context.Context, query string) ([]retrievaluc.Fused, error)
}

type answerUseCase interface {
	Answer(ctx context.Context, question string) (answeruc.Result, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the embedded lawbot entry point. It is safe for concurrent use.
type Client struct {
	closers      []func() error
	retrievalSvc retrievalUseCase
	answerSvc    answerUseCase
	healthSvc    healthUseCase
	obs          *observer
}

type lexicalIndex interface {
	retrievaluc.LexicalIndex
	healthuc.DocCounter
}

type vectorIndex interface {
	retrievaluc.VectorIndex
	healthuc.DocCounter
}

// Open loads both indexes and wires the pipeline. The context bounds index loading.
func Open(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}
	cfg.applyOpenAI()

	if cfg.lexicalPath == "" || cfg.vectorPath == "" {
		return nil, errors.New("lawbot: index location required (use WithIndexDir or WithIndexes)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("lawbot: embedder required (use WithEmbedder or WithOpenAI)")
	}

	lex, err := lexical.Open(cfg.lexicalPath)
	if err != nil {
		return nil, fmt.Errorf("lawbot: %w", err)
	}
	vec, err := vector.Load(ctx, cfg.vectorPath, 0)
	if err != nil {
		_ = lex.Close()
		return nil, fmt.Errorf("lawbot: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		_ = lex.Close()
		_ = vec.Close()
		return nil, err
	}

	c, err := wireClient(lex, vec, cfg, obs)
	if err != nil {
		_ = lex.Close()
		_ = vec.Close()
		return nil, err
	}
	c.closers = []func() error{lex.Close, vec.Close}
	return c, nil
}

func wireClient(lex lexicalIndex, vec vectorIndex, cfg *clientConfig, obs *observer) (*Client, error) {
	embedder := cfg.embedder
	if cfg.cacheSize > 0 {
		mem, err := embcache.NewMemory(embedder, "", cfg.cacheSize, nil)
		if err != nil {
			return nil, fmt.Errorf("lawbot: query cache: %w", err)
		}
		embedder = mem
	}

	retrievalSvc := retrievaluc.New(
		retrievaluc.NewLexicalRetriever(lex, cfg.lexicalK),
		retrievaluc.NewVectorRetriever(embedder, vec, retrievaluc.MMROptions{
			K:      cfg.vectorK,
			FetchK: cfg.fetchK,
			Lambda: cfg.mmrLambda,
		}),
		retrievaluc.Config{
			LexicalWeight: cfg.lexicalWeight,
			VectorWeight:  cfg.vectorWeight,
			RRFConstant:   retrievaluc.DefaultRRFConstant,
			Sequential:    cfg.sequential,
		},
	)

	var answerOpts []answeruc.Option
	if cfg.prompt != "" {
		p, err := answeruc.ParsePrompt(cfg.prompt)
		if err != nil {
			return nil, fmt.Errorf("lawbot: %w", err)
		}
		answerOpts = append(answerOpts, answeruc.WithPrompt(p))
	}
	var generator domain.Generator = noopGenerator{}
	if cfg.generator != nil {
		generator = cfg.generator
	}
	answerSvc := answeruc.New(retrievalSvc, generator, answerOpts...)

	var healthOpts []healthuc.Option
	if cfg.healthy != nil {
		healthOpts = append(healthOpts, healthuc.WithEmbedding(cfg.healthy))
	}
	healthSvc := healthuc.New(lex, vec, healthOpts...)

	return &Client{
		retrievalSvc: retrievalSvc,
		answerSvc:    answerSvc,
		healthSvc:    healthSvc,
		obs:          obs,
	}, nil
}

// Close releases the indexes.
func (c *Client) Close() error {
	var errs []error
	for _, fn := range c.closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

// Ask retrieves precedents for question and generates an answer from them.
func (c *Client) Ask(ctx context.Context, question string) (_ Answer, err error) {
	done := c.obs.begin("ask")
	defer func() { done(err) }()

	res, err := c.answerSvc.Answer(ctx, question)
	if err != nil {
		return Answer{}, err
	}
	return Answer{Text: res.Answer, Sources: toSources(res.Sources)}, nil
}

// Retrieve returns the fused passages for query without generating an answer.
func (c *Client) Retrieve(ctx context.Context, query string) (_ []Passage, err error) {
	done := c.obs.begin("retrieve")
	defer func() { done(err) }()

	fused, err := c.retrievalSvc.RetrieveScored(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return toPassages(fused), nil
}
