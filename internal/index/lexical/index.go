// Package lexical is the BM25 keyword index over precedent passages, backed
// by a bleve index built offline and opened read-only at startup.
package lexical

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

// Field boosts for the disjunction query. Case numbers are near-unique so a
// hit there outweighs body text.
const (
	boostContent    = 1.0
	boostCaseName   = 1.5
	boostCaseNumber = 3.0
)

// Index is a read-only BM25 index. Safe for concurrent use.
type Index struct {
	idx  bleve.Index
	path string
}

// Open loads the index at path. A missing or unreadable index is an
// index-load failure.
func Open(path string) (*Index, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, domain.NewFailure(domain.KindIndexLoad, "open lexical index", err)
	}
	idx, err := bleve.OpenUsing(path, map[string]interface{}{"read_only": true})
	if err != nil {
		return nil, domain.NewFailure(domain.KindIndexLoad, "open lexical index",
			fmt.Errorf("%s: %w", path, err))
	}
	return &Index{idx: idx, path: path}, nil
}

// Search returns up to k passages ranked by BM25 relevance, best first.
// A blank query yields no hits.
func (i *Index) Search(ctx context.Context, q string, k int) ([]domain.ScoredDocument, error) {
	q = strings.TrimSpace(q)
	if q == "" || k <= 0 {
		return []domain.ScoredDocument{}, nil
	}

	req := bleve.NewSearchRequestOptions(buildQuery(q), k, 0, false)
	req.Fields = storedFields
	req.SortBy([]string{"-_score", "_id"})

	res, err := i.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bm25 search: %w", err)
	}

	out := make([]domain.ScoredDocument, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out = append(out, domain.ScoredDocument{
			Document: hitToDocument(hit),
			Score:    hit.Score,
			Source:   domain.SourceLexical,
		})
	}
	return out, nil
}

// DocCount returns the number of indexed passages.
func (i *Index) DocCount() (uint64, error) {
	return i.idx.DocCount()
}

// Path returns the on-disk location.
func (i *Index) Path() string { return i.path }

// Close releases the underlying index.
func (i *Index) Close() error {
	return i.idx.Close()
}

func buildQuery(q string) query.Query {
	match := func(field string, boost float64) query.Query {
		m := bleve.NewMatchQuery(q)
		m.SetField(field)
		m.SetBoost(boost)
		return m
	}
	return bleve.NewDisjunctionQuery(
		match(fieldContent, boostContent),
		match(fieldCaseName, boostCaseName),
		match(fieldCaseNumber, boostCaseNumber),
	)
}

func hitToDocument(hit *search.DocumentMatch) domain.Document {
	str := func(name string) string {
		s, _ := hit.Fields[name].(string)
		return s
	}

	meta := map[string]string{}
	if raw := str(fieldMetadata); raw != "" {
		// Corrupt metadata only costs citations, not the passage.
		_ = json.Unmarshal([]byte(raw), &meta)
	}

	return domain.Document{
		ID:       hit.ID,
		Content:  str(fieldContent),
		Metadata: meta,
	}
}
