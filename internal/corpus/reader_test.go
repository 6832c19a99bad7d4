package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/lawbot/internal/domain"
)

func TestReadAll_NormalizesKoreanKeys(t *testing.T) {
	in := `{"page_content":"피고인은 타인의 재물을 절취하였다.","metadata":{"판례일련번호":228541,"사건명":"절도","사건번호":"2019도1234","선고일자":"2020.01.09","법원명":"대법원","비고":null}}`

	docs, skipped, err := ReadAll(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 0, skipped)

	d := docs[0]
	assert.Equal(t, "228541", d.ID)
	assert.Equal(t, "228541", d.Meta(domain.MetaPrecSeq))
	assert.Equal(t, "절도", d.Meta(domain.MetaCaseName))
	assert.Equal(t, "2019도1234", d.Meta(domain.MetaCaseNumber))
	assert.Equal(t, "대법원", d.Meta(domain.MetaCourt))
	assert.NotContains(t, d.Metadata, "비고")
	assert.Equal(t, "피고인은 타인의 재물을 절취하였다.", d.Content)
}

func TestReadAll_ContentField(t *testing.T) {
	in := `{"id":"custom-1","content":"  본문  ","metadata":{"prec_seq":"1"}}`

	docs, _, err := ReadAll(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "custom-1", docs[0].ID)
	assert.Equal(t, "본문", docs[0].Content)
}

func TestReadAll_DuplicateIDsSuffixed(t *testing.T) {
	in := strings.Join([]string{
		`{"content":"첫째 문단","metadata":{"prec_seq":"77"}}`,
		`{"content":"둘째 문단","metadata":{"prec_seq":"77"}}`,
		`{"content":"셋째 문단","metadata":{"prec_seq":"77"}}`,
	}, "\n")

	docs, _, err := ReadAll(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"77", "77-2", "77-3"}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
	assert.Equal(t, "77", docs[2].Meta(domain.MetaPrecSeq), "metadata keeps the precedent number")
}

func TestReadAll_SuffixNeverCollidesWithExplicitID(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{
			name: "explicit id after generated suffix",
			lines: []string{
				`{"content":"첫째","metadata":{"prec_seq":"77"}}`,
				`{"content":"둘째","metadata":{"prec_seq":"77"}}`,
				`{"id":"77-2","content":"셋째"}`,
			},
			want: []string{"77", "77-2", "77-2-2"},
		},
		{
			name: "explicit id before generated suffix",
			lines: []string{
				`{"id":"77-2","content":"첫째"}`,
				`{"content":"둘째","metadata":{"prec_seq":"77"}}`,
				`{"content":"셋째","metadata":{"prec_seq":"77"}}`,
			},
			want: []string{"77-2", "77", "77-3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, _, err := ReadAll(strings.NewReader(strings.Join(tt.lines, "\n")))
			require.NoError(t, err)
			require.Len(t, docs, len(tt.want))

			got := make([]string, len(docs))
			seen := make(map[string]bool, len(docs))
			for i, d := range docs {
				got[i] = d.ID
				assert.False(t, seen[d.ID], "duplicate id %q", d.ID)
				seen[d.ID] = true
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadAll_SkipsBlankAndEmpty(t *testing.T) {
	in := "\n" + `{"content":"","metadata":{}}` + "\n   \n" + `{"content":"내용"}` + "\n"

	docs, skipped, err := ReadAll(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, 1, skipped)
}

func TestReadAll_HashIDWithoutPrecSeq(t *testing.T) {
	docs, _, err := ReadAll(strings.NewReader(`{"content":"같은 내용"}`))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Len(t, docs[0].ID, 32)
}

func TestReadAll_Malformed(t *testing.T) {
	in := `{"content":"ok"}` + "\n" + `{"content":` + "\n"

	_, _, err := ReadAll(strings.NewReader(in))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRecord))
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadAll_NotObject(t *testing.T) {
	_, _, err := ReadAll(strings.NewReader(`["content"]`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRecord))
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"content":"a"}`+"\n"+`{"content":"b"}`+"\n"), 0o600))

	docs, _, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, _, err = ReadFile(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}
