package lawbot

import (
	"github.com/kailas-cloud/lawbot/internal/domain"
	retrievaluc "github.com/kailas-cloud/lawbot/internal/usecase/retrieval"
)

// Source is a precedent an answer was grounded on.
type Source struct {
	ID           string
	PrecSeq      string
	CaseName     string
	CaseNumber   string
	Court        string
	DecisionDate string
	URL          string
	Content      string
}

// Answer is a generated answer with its sources in retrieval order.
type Answer struct {
	Text    string
	Sources []Source
}

// Passage is one fused retrieval hit.
type Passage struct {
	Source
	// Score is the weighted reciprocal-rank score; only comparable within one call.
	Score float64
	// Retrievers lists "lexical" and/or "vector".
	Retrievers []string
}

func toSource(d domain.Document) Source {
	return Source{
		ID:           d.ID,
		PrecSeq:      d.Meta(domain.MetaPrecSeq),
		CaseName:     d.Meta(domain.MetaCaseName),
		CaseNumber:   d.Meta(domain.MetaCaseNumber),
		Court:        d.Meta(domain.MetaCourt),
		DecisionDate: d.Meta(domain.MetaDecisionDate),
		URL:          d.SourceURL(),
		Content:      d.Content,
	}
}

func toSources(docs []domain.Document) []Source {
	out := make([]Source, len(docs))
	for i, d := range docs {
		out[i] = toSource(d)
	}
	return out
}

func toPassages(fused []retrievaluc.Fused) []Passage {
	out := make([]Passage, len(fused))
	for i, f := range fused {
		retrievers := make([]string, len(f.Sources))
		for j, s := range f.Sources {
			retrievers[j] = string(s)
		}
		out[i] = Passage{Source: toSource(f.Document), Score: f.Score, Retrievers: retrievers}
	}
	return out
}
