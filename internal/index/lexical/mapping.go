package lexical

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/kailas-cloud/lawbot/internal/analysis/korean"
)

// Stored field names.
const (
	fieldContent    = "content"
	fieldCaseName   = "case_name"
	fieldCaseNumber = "case_number"
	fieldPrecSeq    = "prec_seq"
	fieldMetadata   = "metadata"
)

var storedFields = []string{fieldContent, fieldCaseName, fieldCaseNumber, fieldPrecSeq, fieldMetadata}

// record is the bleve document shape. Metadata is kept as a JSON blob that is
// stored but never indexed.
type record struct {
	Content    string `json:"content"`
	CaseName   string `json:"case_name,omitempty"`
	CaseNumber string `json:"case_number,omitempty"`
	PrecSeq    string `json:"prec_seq,omitempty"`
	Metadata   string `json:"metadata,omitempty"`
}

func newIndexMapping() *mapping.IndexMappingImpl {
	text := func() *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = korean.AnalyzerName
		f.Store = true
		f.IncludeInAll = false
		return f
	}

	seq := bleve.NewTextFieldMapping()
	seq.Analyzer = keyword.Name
	seq.Store = true
	seq.IncludeInAll = false

	meta := bleve.NewTextFieldMapping()
	meta.Index = false
	meta.Store = true
	meta.IncludeInAll = false
	meta.IncludeTermVectors = false

	doc := bleve.NewDocumentStaticMapping()
	doc.AddFieldMappingsAt(fieldContent, text())
	doc.AddFieldMappingsAt(fieldCaseName, text())
	doc.AddFieldMappingsAt(fieldCaseNumber, text())
	doc.AddFieldMappingsAt(fieldPrecSeq, seq)
	doc.AddFieldMappingsAt(fieldMetadata, meta)

	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = korean.AnalyzerName
	im.DefaultMapping = doc
	return im
}
