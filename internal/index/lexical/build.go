package lexical

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blevesearch/bleve/v2"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

const buildBatchSize = 500

// Build writes a new index for docs at path, which must not exist yet.
// Documents sharing an ID overwrite each other; the last one wins.
func Build(ctx context.Context, path string, docs []domain.Document) (err error) {
	idx, err := bleve.New(path, newIndexMapping())
	if err != nil {
		return fmt.Errorf("create lexical index: %w", err)
	}
	defer func() {
		if cerr := idx.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close lexical index: %w", cerr)
		}
	}()

	batch := idx.NewBatch()
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := toRecord(doc)
		if err != nil {
			return err
		}
		if err := batch.Index(doc.ID, rec); err != nil {
			return fmt.Errorf("index document %s: %w", doc.ID, err)
		}
		if batch.Size() >= buildBatchSize {
			if err := idx.Batch(batch); err != nil {
				return fmt.Errorf("flush batch: %w", err)
			}
			batch.Reset()
		}
	}
	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			return fmt.Errorf("flush batch: %w", err)
		}
	}
	return nil
}

func toRecord(doc domain.Document) (record, error) {
	rec := record{
		Content:    doc.Content,
		CaseName:   doc.Meta(domain.MetaCaseName),
		CaseNumber: doc.Meta(domain.MetaCaseNumber),
		PrecSeq:    doc.Meta(domain.MetaPrecSeq),
	}
	if len(doc.Metadata) > 0 {
		raw, err := json.Marshal(doc.Metadata)
		if err != nil {
			return record{}, fmt.Errorf("marshal metadata %s: %w", doc.ID, err)
		}
		rec.Metadata = string(raw)
	}
	return rec, nil
}
