package vectorspace

import (
	"regexp"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/porter"
	"github.com/blevesearch/bleve/v2/analysis/token/stop"
	regexptokenizer "github.com/blevesearch/bleve/v2/analysis/tokenizer/regexp"
)

// tokenPattern matches runs of two or more word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Analyzer turns text into index terms: tokens of two or more word
// characters, lowercased, with English stop words removed and, when
// stemming is enabled, reduced by the Porter stemmer.
type Analyzer struct {
	analyzer *analysis.DefaultAnalyzer
}

// NewAnalyzer builds the analysis chain for opts.
func NewAnalyzer(opts Options) (*Analyzer, error) {
	stopWords := analysis.NewTokenMap()
	if err := stopWords.LoadBytes(en.EnglishStopWords); err != nil {
		return nil, err
	}

	filters := []analysis.TokenFilter{
		lowercase.NewLowerCaseFilter(),
		stop.NewStopTokensFilter(stopWords),
	}
	if opts.Stemming {
		filters = append(filters, porter.NewPorterStemmer())
	}

	return &Analyzer{
		analyzer: &analysis.DefaultAnalyzer{
			Tokenizer:    regexptokenizer.NewRegexpTokenizer(tokenPattern),
			TokenFilters: filters,
		},
	}, nil
}

// Terms returns the index terms of text in order of appearance.
func (a *Analyzer) Terms(text string) []string {
	if text == "" {
		return nil
	}
	stream := a.analyzer.Analyze([]byte(text))
	terms := make([]string, 0, len(stream))
	for _, tok := range stream {
		if len(tok.Term) == 0 {
			continue
		}
		terms = append(terms, string(tok.Term))
	}
	return terms
}
