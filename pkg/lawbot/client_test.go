package lawbot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

func TestOpen_NoIndexes(t *testing.T) {
	_, err := Open(context.Background(), WithEmbedder(keywordEmbedder()))
	if err == nil {
		t.Fatal("expected error when no index location provided")
	}
}

func TestOpen_NoEmbedder(t *testing.T) {
	_, err := Open(context.Background(), WithIndexDir(t.TempDir()))
	if err == nil {
		t.Fatal("expected error when no embedder provided")
	}
}

func TestOpen_MissingIndex(t *testing.T) {
	_, err := Open(context.Background(),
		WithIndexDir(t.TempDir()),
		WithEmbedder(keywordEmbedder()),
	)
	if !errors.Is(err, ErrIndexLoad) {
		t.Fatalf("expected ErrIndexLoad, got %v", err)
	}
}

func TestAsk(t *testing.T) {
	c, gen := openFixture(t)

	ans, err := c.Ask(context.Background(), "음주운전 처벌 기준은?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ans.Text != "혈중알코올농도에 따라 처벌됩니다." {
		t.Errorf("answer = %q", ans.Text)
	}
	if len(ans.Sources) == 0 {
		t.Fatal("expected sources")
	}
	top := ans.Sources[0]
	if top.CaseNumber != "2019도1234" || top.Court != "대법원" {
		t.Errorf("unexpected top source: %+v", top)
	}
	if top.URL != "https://www.law.go.kr/LSW/precInfoP.do?precSeq=1001" {
		t.Errorf("url = %q", top.URL)
	}

	if len(gen.got) == 0 {
		t.Fatal("generator was not called")
	}
	if !strings.Contains(gen.got[0].Content, "음주운전") {
		t.Error("system prompt should carry the retrieved passage")
	}
	last := gen.got[len(gen.got)-1]
	if last.Role != "user" || !strings.Contains(last.Content, "음주운전 처벌 기준은?") {
		t.Errorf("last message should be the question, got %+v", last)
	}
}

func TestAsk_EmptyQuestion(t *testing.T) {
	c, gen := openFixture(t)

	_, err := c.Ask(context.Background(), "   ")
	if !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}
	if gen.got != nil {
		t.Error("generator must not be called for an empty question")
	}
}

func TestAsk_GeneratorError(t *testing.T) {
	gen := &mockGenerator{fn: func(context.Context, []Message) (Generation, error) {
		return Generation{}, errors.New("rate limited")
	}}
	c, _ := openFixture(t, WithGenerator(gen))

	_, err := c.Ask(context.Background(), "보증금 반환")
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestAsk_EmbedderError(t *testing.T) {
	failing := &mockEmbedder{fn: func(context.Context, string) (EmbeddingResult, error) {
		return EmbeddingResult{}, errors.New("provider down")
	}}
	c, _ := openFixture(t, WithEmbedder(failing))

	_, err := c.Ask(context.Background(), "보증금 반환")
	if !errors.Is(err, ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
}

func TestAsk_NoGenerator(t *testing.T) {
	c, err := Open(context.Background(),
		WithIndexDir(buildIndexDir(t)),
		WithEmbedder(keywordEmbedder()),
	)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close()

	if _, err := c.Ask(context.Background(), "절도"); err == nil {
		t.Fatal("expected error without a generator")
	}
	if _, err := c.Retrieve(context.Background(), "절도"); err != nil {
		t.Fatalf("retrieve must work without a generator: %v", err)
	}
}

func TestRetrieve(t *testing.T) {
	c, gen := openFixture(t, WithSequentialRetrieval(), WithQueryCache(16))

	passages, err := c.Retrieve(context.Background(), "절도죄")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) == 0 {
		t.Fatal("expected passages")
	}
	if passages[0].PrecSeq != "1003" {
		t.Errorf("top passage = %s, want 1003", passages[0].PrecSeq)
	}
	if len(passages[0].Retrievers) != 2 {
		t.Errorf("top passage should come from both retrievers, got %v", passages[0].Retrievers)
	}
	for i := 1; i < len(passages); i++ {
		if passages[i].Score > passages[i-1].Score {
			t.Errorf("passages not sorted by score at %d", i)
		}
	}
	if gen.got != nil {
		t.Error("Retrieve must not call the generator")
	}
}

func TestWithPrompt(t *testing.T) {
	c, gen := openFixture(t, WithPrompt("판례:\n{{.Context}}\n질문: {{.Question}}"))

	if _, err := c.Ask(context.Background(), "보증금"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(gen.got[0].Content, "판례:") {
		t.Errorf("custom prompt not used: %q", gen.got[0].Content)
	}
}

func TestWithPrompt_Invalid(t *testing.T) {
	_, err := Open(context.Background(),
		WithIndexDir(buildIndexDir(t)),
		WithEmbedder(keywordEmbedder()),
		WithPrompt("{{.Context"),
	)
	if err == nil {
		t.Fatal("expected error for malformed prompt")
	}
}

func TestHealth(t *testing.T) {
	c, _ := openFixture(t)

	h := c.Health(context.Background())
	if h.Status != "ok" || !h.Ready() {
		t.Errorf("status = %q, want ready ok", h.Status)
	}
	if h.Checks["lexical_index"] != "ok" || h.Checks["vector_index"] != "ok" {
		t.Errorf("unexpected checks: %v", h.Checks)
	}
	if h.Documents["vector_index"] != 3 {
		t.Errorf("vector documents = %d, want 3", h.Documents["vector_index"])
	}
}

func TestHealthStatus_Ready(t *testing.T) {
	for status, want := range map[string]bool{"ok": true, "degraded": false, "error": false} {
		if got := (HealthStatus{Status: status}).Ready(); got != want {
			t.Errorf("Ready(%q) = %v, want %v", status, got, want)
		}
	}
}

func TestObserver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, _ := openFixture(t, WithPrometheus(reg), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	_, _ = c.Ask(context.Background(), "음주운전")
	_, _ = c.Ask(context.Background(), "")

	m := c.obs.metrics
	if got := testutil.ToFloat64(m.operations.WithLabelValues("ask", "ok")); got != 1 {
		t.Errorf("ask ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("ask", "invalid_question")); got != 1 {
		t.Errorf("ask invalid_question = %v, want 1", got)
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("first observer: %v", err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second observer: %v", err)
	}
	if first.metrics.operations != second.metrics.operations {
		t.Error("second observer should reuse the registered counter")
	}
}

func TestObserver_Nil(t *testing.T) {
	var o *observer
	o.begin("ask")(errors.New("ignored"))
}

func TestOutcome(t *testing.T) {
	tests := map[string]struct {
		err  error
		want string
	}{
		"ok":         {nil, "ok"},
		"invalid":    {fmt.Errorf("ask: %w", ErrInvalidQuestion), "invalid_question"},
		"canceled":   {context.Canceled, "canceled"},
		"generation": {domain.NewFailure(domain.KindGeneration, "generate", errors.New("429")), "generation"},
		"retrieval":  {domain.NewFailure(domain.KindRetrieval, "vector", errors.New("x")), "retrieval"},
		"other":      {errors.New("x"), "unhandled"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := outcome(tt.err); got != tt.want {
				t.Errorf("outcome = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEmbedderAdapter_Error(t *testing.T) {
	a := &embedderAdapter{inner: &mockEmbedder{fn: func(context.Context, string) (EmbeddingResult, error) {
		return EmbeddingResult{}, errors.New("boom")
	}}}
	if _, err := a.Embed(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
