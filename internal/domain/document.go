package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"strings"
)

// Metadata keys carried by every precedent document.
const (
	MetaPrecSeq      = "prec_seq"
	MetaCaseName     = "case_name"
	MetaCaseNumber   = "case_number"
	MetaDecisionDate = "decision_date"
	MetaCourt        = "court"
	MetaCaseType     = "case_type"
)

// SourceURLBase is the public precedent viewer; the precedent serial number is appended.
const SourceURLBase = "https://www.law.go.kr/LSW/precInfoP.do?precSeq="

// corpusKeys maps the column names of the national law information corpus
// onto the normalized metadata keys.
var corpusKeys = map[string]string{
	"판례일련번호": MetaPrecSeq,
	"사건명": MetaCaseName,
	"사건번호": MetaCaseNumber,
	"선고일자": MetaDecisionDate,
	"법원명": MetaCourt,
	"사건종류명": MetaCaseType,
}

// Document is one retrievable precedent passage (immutable after construction).
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// NewDocument builds a Document with normalized metadata. The ID is the
// precedent serial number when present, else a content hash.
func NewDocument(content string, metadata map[string]string) Document {
	meta := NormalizeMetadata(metadata)
	id := meta[MetaPrecSeq]
	if id == "" {
		sum := sha256.Sum256([]byte(content))
		id = hex.EncodeToString(sum[:16])
	}
	return Document{ID: id, Content: content, Metadata: meta}
}

// Meta returns a metadata value or "" if absent.
func (d Document) Meta(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}

// SourceURL returns the precedent viewer URL, or "" when the serial number is unknown.
func (d Document) SourceURL() string {
	seq := d.Meta(MetaPrecSeq)
	if seq == "" {
		return ""
	}
	return SourceURLBase + seq
}

// NormalizeMetadata copies metadata, renaming corpus column names to the
// normalized keys and trimming whitespace. Unknown keys are kept as-is.
func NormalizeMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if norm, ok := corpusKeys[strings.TrimSpace(k)]; ok {
			k = norm
		}
		out[k] = v
	}
	return out
}

// CloneMetadata returns a copy safe to hand to callers.
func CloneMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// Source identifies which retriever produced a ranked list.
type Source string

const (
	// SourceLexical is the BM25 keyword retriever.
	SourceLexical Source = "lexical"
	// SourceVector is the embedding MMR retriever.
	SourceVector Source = "vector"
)

// ScoredDocument is a ranked retriever hit. Score is retriever-specific
// (BM25 relevance or cosine similarity) and only comparable within one list.
type ScoredDocument struct {
	Document Document
	Score    float64
	Source   Source
}

// Neighbor is a nearest-neighbour hit from the vector index. Vector is the
// stored unit embedding, needed for diversity re-ranking.
type Neighbor struct {
	Document   Document
	Vector     []float32
	Similarity float64
}
