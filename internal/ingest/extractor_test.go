package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicDetector_IsHeader(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "short all caps", text: "INTRODUCTION", want: true},
		{name: "all caps with digits", text: "GETTING STARTED WITH Q 4", want: true},
		{name: "long all caps", text: "THIS IS A VERY LONG ALL CAPS LINE RIGHT HERE", want: false},
		{name: "chapter prefix", text: "Chapter 3 Tables and keyed tables", want: true},
		{name: "section prefix any case", text: "SECTION 1.2 lists", want: true},
		{name: "kdb prefix", text: "kdb+ - Overview", want: true},
		{name: "short trailing colon", text: "Examples:", want: true},
		{name: "long trailing colon", text: "Here is a long sentence that ends with a colon:", want: false},
		{name: "prose", text: "Namespaces group related functions.", want: false},
		{name: "digits only", text: "123", want: false},
		{name: "accented caps", text: "ÉTUDE", want: true},
		{name: "titlecase letter", text: "ǅ", want: false},
		{name: "titlecase among caps", text: "ǅURNAL", want: false},
	}

	d := NewHeuristicDetector()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.IsHeader(tt.text))
		})
	}
}

func TestExtractor_HeaderStartsSection(t *testing.T) {
	// Given: an extractor with default settings
	x := NewExtractor(nil, 0, "")

	// When: text blocks arrive with two headers
	x.Text("INTRO")
	x.Text("Body one.")
	x.Text("Body two.")
	x.Text("CHAPTER 2")
	x.Text("More.")

	// Then: each header owns the body that follows it
	assert.Equal(t, []Section{
		{Header: "INTRO", Body: "Body one. Body two."},
		{Header: "CHAPTER 2", Body: "More."},
	}, x.Finish())
}

func TestExtractor_BodyBeforeFirstHeader(t *testing.T) {
	x := NewExtractor(nil, 0, "")

	x.Text("Preamble text.")
	x.Text("INTRO")
	x.Text("After.")

	assert.Equal(t, []Section{
		{Header: "", Body: "Preamble text."},
		{Header: "INTRO", Body: "After."},
	}, x.Finish())
}

func TestExtractor_SizeFlushCarriesHeader(t *testing.T) {
	// Given: a small size limit
	x := NewExtractor(nil, 20, "")
	x.Header("H")

	// When: the body grows past the limit
	x.Body("aaaaaaaaaa")
	x.Body("bbbbbbbbbb")
	x.Body("cc")

	// Then: the body is split and the header carries over
	assert.Equal(t, []Section{
		{Header: "H", Body: "aaaaaaaaaa bbbbbbbbbb"},
		{Header: "H", Body: "cc"},
	}, x.Finish())
}

func TestExtractor_FigureMarker(t *testing.T) {
	x := NewExtractor(nil, 0, "")
	x.Header("Data")
	x.Body("See below.")
	x.Figure()

	assert.Equal(t, []Section{
		{Header: "Data", Body: "See below. [FIGURE_OR_TABLE]"},
	}, x.Finish())

	custom := NewExtractor(nil, 0, "<fig>")
	custom.Figure()
	assert.Equal(t, []Section{{Body: "<fig>"}}, custom.Finish())
}

func TestExtractor_ConsecutiveHeadersKeepLast(t *testing.T) {
	x := NewExtractor(nil, 0, "")
	x.Header("A")
	x.Header("B")
	x.Body("x")

	assert.Equal(t, []Section{{Header: "B", Body: "x"}}, x.Finish())
}

func TestExtractor_EmptyInput(t *testing.T) {
	x := NewExtractor(nil, 0, "")
	x.Text("   ")
	x.Body("")

	assert.Empty(t, x.Finish())
}
