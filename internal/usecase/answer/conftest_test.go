package answer

import (
	"context"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

type mockRetriever struct {
	docs []domain.Document
	err  error
	got  string
}

func (m *mockRetriever) Retrieve(_ context.Context, query string) ([]domain.Document, error) {
	m.got = query
	return m.docs, m.err
}

type mockGenerator struct {
	result domain.GenerationResult
	err    error
	calls  int
	got    []domain.ChatMessage
}

func (m *mockGenerator) Generate(_ context.Context, msgs []domain.ChatMessage) (domain.GenerationResult, error) {
	m.calls++
	m.got = msgs
	return m.result, m.err
}
