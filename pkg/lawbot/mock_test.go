package lawbot

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/lawbot/internal/domain"
	"github.com/kailas-cloud/lawbot/internal/index/lexical"
	"github.com/kailas-cloud/lawbot/internal/index/vector"
)

// --- Embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// keywordEmbedder points texts mentioning a keyword along that keyword's axis.
func keywordEmbedder() *mockEmbedder {
	axes := []string{"음주", "보증금", "절도"}
	return &mockEmbedder{fn: func(_ context.Context, text string) (EmbeddingResult, error) {
		v := make([]float32, len(axes))
		for i, kw := range axes {
			if strings.Contains(text, kw) {
				v[i] = 1
			}
		}
		v[0] += 0.01
		return EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
	}}
}

// --- Generator mock ---

type mockGenerator struct {
	got []Message
	fn  func(ctx context.Context, msgs []Message) (Generation, error)
}

func (m *mockGenerator) Generate(ctx context.Context, msgs []Message) (Generation, error) {
	m.got = msgs
	if m.fn != nil {
		return m.fn(ctx, msgs)
	}
	return Generation{Text: "혈중알코올농도에 따라 처벌됩니다.", PromptTokens: 10, CompletionTokens: 5}, nil
}

// --- index fixture ---

func fixtureDocs() []domain.Document {
	return []domain.Document{
		domain.NewDocument("피고인이 음주운전을 하여 도로교통법위반으로 기소되었다.", map[string]string{
			"판례일련번호": "1001", "사건명": "도로교통법위반(음주운전)", "사건번호": "2019도1234", "법원명": "대법원",
		}),
		domain.NewDocument("임차인이 임대인에게 보증금 반환을 청구하였다.", map[string]string{
			"판례일련번호": "1002", "사건명": "보증금반환", "사건번호": "2020다5678",
		}),
		domain.NewDocument("피고인이 타인의 재물을 절취하여 절도죄로 기소되었다.", map[string]string{
			"판례일련번호": "1003", "사건명": "절도", "사건번호": "2021도9999",
		}),
	}
}

// buildIndexDir writes both indexes the way lawbot-index lays them out.
func buildIndexDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	docs := fixtureDocs()
	ctx := context.Background()

	if err := lexical.Build(ctx, filepath.Join(dir, "index_bm25"), docs); err != nil {
		t.Fatalf("build lexical: %v", err)
	}

	emb := keywordEmbedder()
	vectors := make([][]float32, len(docs))
	for i, d := range docs {
		r, _ := emb.Embed(ctx, d.Content)
		vectors[i] = r.Embedding
	}
	if err := vector.Build(ctx, filepath.Join(dir, "index_vector"), docs, vectors, vector.BuildOptions{Model: "test"}); err != nil {
		t.Fatalf("build vector: %v", err)
	}
	return dir
}

func openFixture(t *testing.T, opts ...Option) (*Client, *mockGenerator) {
	t.Helper()
	gen := &mockGenerator{}
	base := []Option{
		WithIndexDir(buildIndexDir(t)),
		WithEmbedder(keywordEmbedder()),
		WithGenerator(gen),
	}
	c, err := Open(context.Background(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, gen
}
