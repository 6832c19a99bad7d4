// Package korean provides the bleve analyzer used for precedent text: UAX#29
// word segmentation, width folding, lowercasing and particle (josa) stripping.
package korean

import (
	"fmt"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/registry"
)

const (
	// AnalyzerName is the registered name of the Korean analyzer.
	AnalyzerName = "lawbot_korean"
	// ParticleFilterName is the registered name of the josa stripping filter.
	ParticleFilterName = "lawbot_korean_particle"
)

func init() {
	registry.RegisterTokenFilter(ParticleFilterName, particleFilterConstructor)
	registry.RegisterAnalyzer(AnalyzerName, analyzerConstructor)
}

func analyzerConstructor(_ map[string]interface{}, cache *registry.Cache) (analysis.Analyzer, error) {
	tokenizer, err := cache.TokenizerNamed(unicode.Name)
	if err != nil {
		return nil, fmt.Errorf("tokenizer %s: %w", unicode.Name, err)
	}

	names := []string{cjk.WidthName, lowercase.Name, ParticleFilterName}
	filters := make([]analysis.TokenFilter, 0, len(names))
	for _, name := range names {
		f, err := cache.TokenFilterNamed(name)
		if err != nil {
			return nil, fmt.Errorf("token filter %s: %w", name, err)
		}
		filters = append(filters, f)
	}

	return &analysis.DefaultAnalyzer{Tokenizer: tokenizer, TokenFilters: filters}, nil
}

// Analyzer returns a fresh instance of the Korean analyzer.
func Analyzer() (analysis.Analyzer, error) {
	return registry.NewCache().AnalyzerNamed(AnalyzerName)
}

// Tokenize runs text through the Korean analyzer and returns the terms in
// stream order. Particle stems follow the surface form they were cut from.
func Tokenize(text string) ([]string, error) {
	a, err := Analyzer()
	if err != nil {
		return nil, err
	}
	stream := a.Analyze([]byte(text))
	terms := make([]string, 0, len(stream))
	for _, tok := range stream {
		terms = append(terms, string(tok.Term))
	}
	return terms, nil
}
