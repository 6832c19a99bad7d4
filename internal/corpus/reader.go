// Package corpus reads precedent documents from JSON Lines exports.
//
// Each line is one object with the passage under "content" (or LangChain's
// "page_content"), an optional "id" and a flat "metadata" object. Metadata
// keys may use the Korean column names of the national law corpus; they are
// normalized on read.
package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

// maxLineBytes bounds a single JSONL record; full judgments can be long.
const maxLineBytes = 16 << 20

// ErrMalformedRecord is returned for a line that is not a JSON object.
var ErrMalformedRecord = errors.New("malformed corpus record")

// Reader yields Documents one line at a time.
type Reader struct {
	sc      *bufio.Scanner
	line    int
	skipped int
	seen    map[string]int
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	return &Reader{sc: sc, seen: make(map[string]int)}
}

// Next returns the next document, or io.EOF. Records without content are
// skipped. Repeated IDs (several chunks of one precedent) get a "-N" suffix
// so every passage stays addressable.
func (r *Reader) Next() (domain.Document, error) {
	for r.sc.Scan() {
		r.line++
		raw := r.sc.Bytes()
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}
		if !gjson.ValidBytes(raw) {
			return domain.Document{}, fmt.Errorf("line %d: %w: invalid json", r.line, ErrMalformedRecord)
		}
		rec := gjson.ParseBytes(raw)
		if !rec.IsObject() {
			return domain.Document{}, fmt.Errorf("line %d: %w: not an object", r.line, ErrMalformedRecord)
		}

		content := strings.TrimSpace(firstString(rec, "content", "page_content"))
		if content == "" {
			r.skipped++
			continue
		}

		doc := domain.NewDocument(content, metadataOf(rec.Get("metadata")))
		if id := strings.TrimSpace(rec.Get("id").String()); id != "" {
			doc.ID = id
		}
		doc.ID = r.unique(doc.ID)
		return doc, nil
	}
	if err := r.sc.Err(); err != nil {
		return domain.Document{}, fmt.Errorf("line %d: %w", r.line+1, err)
	}
	return domain.Document{}, io.EOF
}

// Skipped reports how many records had no content.
func (r *Reader) Skipped() int { return r.skipped }

// unique returns id, or id-N with the smallest N >= 2 not yet handed out.
// Every returned ID is recorded, so a later explicit "77-2" cannot collide
// with a generated one.
func (r *Reader) unique(id string) string {
	n, taken := r.seen[id]
	if !taken {
		r.seen[id] = 1
		return id
	}
	for {
		n++
		candidate := id + "-" + strconv.Itoa(n)
		if _, dup := r.seen[candidate]; !dup {
			r.seen[id] = n
			r.seen[candidate] = 1
			return candidate
		}
	}
}

func firstString(rec gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := rec.Get(p); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

func metadataOf(m gjson.Result) map[string]string {
	if !m.IsObject() {
		return nil
	}
	out := make(map[string]string)
	m.ForEach(func(key, value gjson.Result) bool {
		switch {
		case value.Type == gjson.Null:
		case value.IsObject(), value.IsArray():
			out[key.String()] = value.Raw
		default:
			out[key.String()] = value.String()
		}
		return true
	})
	return out
}

// ReadAll drains r.
func ReadAll(r io.Reader) ([]domain.Document, int, error) {
	rd := NewReader(r)
	var docs []domain.Document
	for {
		doc, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return docs, rd.Skipped(), nil
		}
		if err != nil {
			return nil, rd.Skipped(), err
		}
		docs = append(docs, doc)
	}
}

// ReadFile reads a JSONL corpus file.
func ReadFile(path string) ([]domain.Document, int, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, 0, fmt.Errorf("open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()

	docs, skipped, err := ReadAll(f)
	if err != nil {
		return nil, skipped, fmt.Errorf("read corpus %s: %w", path, err)
	}
	return docs, skipped, nil
}
