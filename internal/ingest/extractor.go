package ingest

import (
	"strings"
	"unicode/utf8"
)

// Extractor defaults.
const (
	DefaultMaxChunkChars = 1000
	DefaultFigureMarker  = "[FIGURE_OR_TABLE]"
)

// Section is one extracted (header, body) pair.
type Section struct {
	Header string `json:"header"`
	Body   string `json:"body"`
}

// Extractor turns a stream of layout elements into sections. Text blocks
// that look like headers start a new section; everything else accumulates
// into the body, which is flushed once it grows past maxChars. The header
// carries over to the continuation.
type Extractor struct {
	detector     HeaderDetector
	maxChars     int
	figureMarker string

	header   string
	body     strings.Builder
	bodyLen  int // runes in body
	sections []Section
}

// NewExtractor returns an extractor. Zero values select the defaults.
func NewExtractor(detector HeaderDetector, maxChars int, figureMarker string) *Extractor {
	if detector == nil {
		detector = NewHeuristicDetector()
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}
	if figureMarker == "" {
		figureMarker = DefaultFigureMarker
	}
	return &Extractor{
		detector:     detector,
		maxChars:     maxChars,
		figureMarker: figureMarker,
	}
}

// Text adds a text block, classifying it with the header detector.
func (x *Extractor) Text(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if x.detector.IsHeader(text) {
		x.Header(text)
		return
	}
	x.Body(text)
}

// Header starts a new section, flushing the current body.
func (x *Extractor) Header(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	x.flush()
	x.header = text
}

// Body appends text to the current section without header detection.
func (x *Extractor) Body(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	x.append(text)
	if x.bodyLen > x.maxChars {
		x.flush()
	}
}

// Figure records a figure or table in the current body.
func (x *Extractor) Figure() {
	x.append(x.figureMarker)
}

func (x *Extractor) append(s string) {
	x.body.WriteString(s)
	x.body.WriteByte(' ')
	x.bodyLen += utf8.RuneCountInString(s) + 1
}

func (x *Extractor) flush() {
	body := strings.TrimSpace(x.body.String())
	x.body.Reset()
	x.bodyLen = 0
	if body == "" {
		return
	}
	x.sections = append(x.sections, Section{Header: x.header, Body: body})
}

// Finish flushes the pending body and returns every section in order.
func (x *Extractor) Finish() []Section {
	x.flush()
	out := x.sections
	x.sections = nil
	return out
}
