// Package vectorspace fits and applies the TF-IDF model that turns text
// into fixed-dimension sparse vectors.
package vectorspace

import (
	"fmt"
	"math"
	"sort"

	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
)

// Options are the analyzer settings a model is fitted with. They are part
// of the model: transforming with different options than fitting would put
// query terms in a different space.
type Options struct {
	// Stemming enables the Porter stemmer so that "namespace" and
	// "namespaces" share a column.
	Stemming bool `json:"stemming"`
}

// DefaultOptions returns the options used by `docqa build`.
func DefaultOptions() Options {
	return Options{Stemming: true}
}

// Model is a fitted TF-IDF vocabulary with smoothed inverse document
// frequencies. A Model is immutable and safe for concurrent use.
type Model struct {
	vocabulary []string
	columns    map[string]int32
	idf        []float64
	docCount   int
	options    Options
	analyzer   *Analyzer
}

// Fit builds a model over texts. The vocabulary is every term that
// survives analysis, sorted lexically so column numbers are reproducible.
// idf(t) = ln((1+N)/(1+df(t))) + 1.
func Fit(texts []string, opts Options) (*Model, error) {
	if len(texts) == 0 {
		return nil, qaerrors.EmptyCorpusError()
	}

	analyzer, err := NewAnalyzer(opts)
	if err != nil {
		return nil, qaerrors.New(qaerrors.ErrCodeVectorizeFailed, "failed to build analyzer", err)
	}

	df := make(map[string]int)
	for _, text := range texts {
		seen := make(map[string]struct{})
		for _, term := range analyzer.Terms(text) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	if len(df) == 0 {
		return nil, qaerrors.New(qaerrors.ErrCodeEmptyCorpus,
			fmt.Sprintf("corpus of %d documents has no indexable terms", len(texts)), nil).
			WithSuggestion("Documents contain only stop words or single characters")
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(texts))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	return newModel(terms, idf, len(texts), opts, analyzer), nil
}

// Restore rebuilds a model from persisted vocabulary and idf weights.
func Restore(terms []string, idf []float64, docCount int, opts Options) (*Model, error) {
	if len(terms) != len(idf) {
		return nil, qaerrors.InconsistentSnapshotError(
			fmt.Sprintf("vocabulary has %d terms but %d idf weights", len(terms), len(idf)))
	}
	for i := 1; i < len(terms); i++ {
		if terms[i-1] >= terms[i] {
			return nil, qaerrors.InconsistentSnapshotError(
				fmt.Sprintf("vocabulary is not sorted at column %d", i))
		}
	}

	analyzer, err := NewAnalyzer(opts)
	if err != nil {
		return nil, qaerrors.New(qaerrors.ErrCodeVectorizeFailed, "failed to build analyzer", err)
	}

	return newModel(append([]string(nil), terms...), append([]float64(nil), idf...), docCount, opts, analyzer), nil
}

func newModel(terms []string, idf []float64, docCount int, opts Options, analyzer *Analyzer) *Model {
	columns := make(map[string]int32, len(terms))
	for i, term := range terms {
		columns[term] = int32(i)
	}
	return &Model{
		vocabulary: terms,
		columns:    columns,
		idf:        idf,
		docCount:   docCount,
		options:    opts,
		analyzer:   analyzer,
	}
}

// Dim returns the vocabulary size, which is the dimension of every vector
// the model produces.
func (m *Model) Dim() int {
	return len(m.vocabulary)
}

// DocCount returns the number of documents the model was fitted on.
func (m *Model) DocCount() int {
	return m.docCount
}

// Options returns the analyzer settings of the model.
func (m *Model) Options() Options {
	return m.options
}

// Vocabulary returns a copy of the sorted vocabulary.
func (m *Model) Vocabulary() []string {
	return append([]string(nil), m.vocabulary...)
}

// IDF returns a copy of the idf weights, aligned with Vocabulary.
func (m *Model) IDF() []float64 {
	return append([]float64(nil), m.idf...)
}

// Terms returns the analyzed terms of text, including out-of-vocabulary ones.
func (m *Model) Terms(text string) []string {
	return m.analyzer.Terms(text)
}

// Transform projects text into the model's space as raw term count times
// idf. Out-of-vocabulary terms are ignored; text with no known terms yields
// the zero vector. The result is not normalized.
func (m *Model) Transform(text string) Vector {
	counts := make(map[int32]int)
	for _, term := range m.analyzer.Terms(text) {
		if col, ok := m.columns[term]; ok {
			counts[col]++
		}
	}

	v := Vector{
		Dim:     len(m.vocabulary),
		Indices: make([]int32, 0, len(counts)),
		Values:  make([]float32, 0, len(counts)),
	}
	for col := range counts {
		v.Indices = append(v.Indices, col)
	}
	sort.Slice(v.Indices, func(i, j int) bool { return v.Indices[i] < v.Indices[j] })
	for _, col := range v.Indices {
		v.Values = append(v.Values, float32(float64(counts[col])*m.idf[col]))
	}
	return v
}

// TransformAll transforms each text in order.
func (m *Model) TransformAll(texts []string) []Vector {
	out := make([]Vector, len(texts))
	for i, text := range texts {
		out[i] = m.Transform(text)
	}
	return out
}
