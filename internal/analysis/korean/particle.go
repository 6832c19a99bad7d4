package korean

import (
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"
)

// particles are common postpositions, longest first so that "으로부터" wins over "로".
var particles = []string{
	"으로부터", "에서부터",
	"에게서", "으로써", "으로서", "이라는", "에서는", "에게는", "으로는", "에서도",
	"까지", "부터", "에서", "에게", "한테", "으로", "로써", "로서", "라는", "이나",
	"이며", "과의", "와의", "에는", "에도", "보다", "처럼", "마다", "조차",
	"의", "을", "를", "이", "가", "은", "는", "에", "와", "과", "도", "만", "로",
}

// minStemRunes is the shortest stem kept when a single-syllable particle is
// cut. One-syllable stems are too ambiguous ("사기" is not "사" + "기").
const minStemRunes = 2

func particleFilterConstructor(_ map[string]interface{}, _ *registry.Cache) (analysis.TokenFilter, error) {
	return &ParticleFilter{}, nil
}

// ParticleFilter emits, after each Hangul token ending in a particle, an extra
// token holding the bare stem at the same position. The surface form is kept
// so exact phrases still match.
type ParticleFilter struct{}

// Filter implements analysis.TokenFilter.
func (f *ParticleFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	out := make(analysis.TokenStream, 0, len(input))
	for _, tok := range input {
		out = append(out, tok)
		stem, ok := StripParticle(string(tok.Term))
		if !ok {
			continue
		}
		out = append(out, &analysis.Token{
			Term:     []byte(stem),
			Start:    tok.Start,
			End:      tok.Start + len(stem),
			Position: tok.Position,
			Type:     tok.Type,
		})
	}
	return out
}

// StripParticle removes a trailing particle from a Hangul word. It reports
// false when the word has no particle or the stem would be too short.
func StripParticle(word string) (string, bool) {
	for _, p := range particles {
		if len(word) <= len(p) || word[len(word)-len(p):] != p {
			continue
		}
		stem := word[:len(word)-len(p)]
		last, _ := utf8.DecodeLastRuneInString(stem)
		if !isHangulSyllable(last) {
			return "", false
		}
		n := utf8.RuneCountInString(stem)
		if utf8.RuneCountInString(p) == 1 && n < minStemRunes {
			return "", false
		}
		return stem, true
	}
	return "", false
}

func isHangulSyllable(r rune) bool {
	return r >= 0xAC00 && r <= 0xD7A3
}
