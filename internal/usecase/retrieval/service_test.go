package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/lawbot/internal/domain"
	"github.com/kailas-cloud/lawbot/internal/metrics"
)

func TestRetrieve_MergesBothRetrievers(t *testing.T) {
	lex := &mockRanker{hits: scored(domain.SourceLexical, "DocA", "DocB")}
	vec := &mockRanker{hits: scored(domain.SourceVector, "DocB", "DocC")}
	svc := New(lex, vec, DefaultConfig())

	docs, err := svc.Retrieve(context.Background(), "절도죄의 처벌은 어떻게 되나요?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := ids(docs)
	want := []string{"DocB", "DocA", "DocC"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRetrieve_SequentialMatchesParallel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sequential = true
	lex := &mockRanker{hits: scored(domain.SourceLexical, "DocA", "DocB")}
	vec := &mockRanker{hits: scored(domain.SourceVector, "DocB", "DocC")}

	docs, err := New(lex, vec, cfg).Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(docs); got[0] != "DocB" || got[1] != "DocA" || got[2] != "DocC" {
		t.Errorf("unexpected order %v", got)
	}
}

func TestRetrieve_EitherFailureFailsCall(t *testing.T) {
	boom := errors.New("index unreadable")

	tests := []struct {
		name string
		lex  *mockRanker
		vec  *mockRanker
	}{
		{
			name: "lexical fails",
			lex:  &mockRanker{err: boom},
			vec:  &mockRanker{hits: scored(domain.SourceVector, "DocB")},
		},
		{
			name: "vector fails",
			lex:  &mockRanker{hits: scored(domain.SourceLexical, "DocA")},
			vec:  &mockRanker{err: boom},
		},
	}

	for _, tt := range tests {
		for _, sequential := range []bool{false, true} {
			t.Run(tt.name, func(t *testing.T) {
				cfg := DefaultConfig()
				cfg.Sequential = sequential

				docs, err := New(tt.lex, tt.vec, cfg).Retrieve(context.Background(), "q")
				if err == nil {
					t.Fatalf("expected error, got docs %v", ids(docs))
				}
				if !errors.Is(err, domain.ErrRetrieval) {
					t.Errorf("expected ErrRetrieval, got %v", err)
				}
				if !errors.Is(err, boom) {
					t.Errorf("expected cause preserved, got %v", err)
				}
				if docs != nil {
					t.Errorf("expected no partial result, got %v", ids(docs))
				}
			})
		}
	}
}

func TestRetrieve_FailureCancelsSibling(t *testing.T) {
	lex := &mockRanker{err: errors.New("boom")}
	vec := &mockRanker{block: make(chan struct{})}
	svc := New(lex, vec, DefaultConfig())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Retrieve(context.Background(), "q")
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, domain.ErrRetrieval) {
			t.Errorf("expected ErrRetrieval, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("blocked retriever was not cancelled")
	}
}

func TestRetrieve_CancelledSiblingNotCountedAsFailure(t *testing.T) {
	lexErrors := metrics.RetrievalErrorsTotal.WithLabelValues(string(domain.SourceLexical))
	vecErrors := metrics.RetrievalErrorsTotal.WithLabelValues(string(domain.SourceVector))
	lexBefore, vecBefore := testutil.ToFloat64(lexErrors), testutil.ToFloat64(vecErrors)

	lex := &mockRanker{err: errors.New("boom")}
	vec := &mockRanker{block: make(chan struct{})}
	_, err := New(lex, vec, DefaultConfig()).Retrieve(context.Background(), "q")
	if !errors.Is(err, domain.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}

	if got := testutil.ToFloat64(lexErrors) - lexBefore; got != 1 {
		t.Errorf("lexical errors += %v, want 1", got)
	}
	if got := testutil.ToFloat64(vecErrors) - vecBefore; got != 0 {
		t.Errorf("cancelled vector retriever counted %v errors, want 0", got)
	}
}

func TestRetrieve_CallerCancelCountsAsFailure(t *testing.T) {
	vecErrors := metrics.RetrievalErrorsTotal.WithLabelValues(string(domain.SourceVector))
	before := testutil.ToFloat64(vecErrors)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := DefaultConfig()
	cfg.Sequential = true
	vec := &mockRanker{block: make(chan struct{})}
	_, err := New(&mockRanker{}, vec, cfg).Retrieve(ctx, "q")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := testutil.ToFloat64(vecErrors) - before; got != 1 {
		t.Errorf("vector errors += %v, want 1", got)
	}
}

func TestRetrieve_BothEmpty(t *testing.T) {
	svc := New(&mockRanker{}, &mockRanker{}, DefaultConfig())

	docs, err := svc.Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no documents, got %v", ids(docs))
	}
}

func TestVectorRetriever_RanksWithMMR(t *testing.T) {
	index := &mockVectorIndex{neighbors: []domain.Neighbor{
		neighbor("a", 1, 0.05),
		neighbor("a-dup", 1, 0),
		neighbor("b", 0, 1),
	}}
	r := NewVectorRetriever(&mockEmbedder{vec: []float32{1, 0.5}}, index, MMROptions{K: 2, FetchK: 20, Lambda: 0.5})

	hits, err := r.Rank(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index.gotK != 20 {
		t.Errorf("expected fetch_k 20, got %d", index.gotK)
	}
	if len(hits) != 2 || hits[0].Document.ID != "a" || hits[1].Document.ID != "b" {
		t.Errorf("unexpected hits %+v", hits)
	}
	for _, h := range hits {
		if h.Source != domain.SourceVector {
			t.Errorf("expected vector source, got %s", h.Source)
		}
	}
}

func TestVectorRetriever_FetchKRaisedToK(t *testing.T) {
	index := &mockVectorIndex{}
	r := NewVectorRetriever(&mockEmbedder{vec: []float32{1}}, index, MMROptions{K: 5, FetchK: 2})

	if _, err := r.Rank(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index.gotK != 5 {
		t.Errorf("expected fetch_k raised to 5, got %d", index.gotK)
	}
}

func TestVectorRetriever_EmbedError(t *testing.T) {
	embErr := errors.New("provider down")
	r := NewVectorRetriever(&mockEmbedder{err: embErr}, &mockVectorIndex{}, MMROptions{K: 3})

	if _, err := r.Rank(context.Background(), "q"); !errors.Is(err, embErr) {
		t.Errorf("expected embed error, got %v", err)
	}
}

func TestLexicalRetriever_PassesK(t *testing.T) {
	index := &mockLexicalIndex{hits: scored(domain.SourceLexical, "x")}
	hits, err := NewLexicalRetriever(index, 3).Rank(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index.gotK != 3 || len(hits) != 1 {
		t.Errorf("expected k=3 and one hit, got k=%d hits=%d", index.gotK, len(hits))
	}
}
