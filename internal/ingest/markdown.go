package ingest

import (
	"context"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
)

// MarkdownSource reads CommonMark with GFM tables. Headings always start a
// section. Images and tables become figure markers. Code blocks are body
// text.
type MarkdownSource struct {
	opts Options
	md   goldmark.Markdown
}

func newMarkdownSource(opts Options) *MarkdownSource {
	return &MarkdownSource{
		opts: opts,
		md:   goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

// Format implements Source.
func (s *MarkdownSource) Format() Format { return FormatMarkdown }

// Sections implements Source.
func (s *MarkdownSource) Sections(ctx context.Context, r io.Reader) ([]Section, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, qaerrors.IOError("failed to read markdown input", err)
	}

	doc := s.md.Parser().Parse(text.NewReader(src))
	x := s.opts.newExtractor()
	if err := walkBlocks(ctx, doc, src, x); err != nil {
		return nil, err
	}
	return x.Finish(), nil
}

// walkBlocks feeds the block children of parent to x in document order.
func walkBlocks(ctx context.Context, parent ast.Node, src []byte, x *Extractor) error {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch node := n.(type) {
		case *ast.Heading:
			content, _ := inlineText(node, src)
			x.Header(content)
		case *ast.Paragraph, *ast.TextBlock:
			content, figures := inlineText(node, src)
			x.Text(content)
			for i := 0; i < figures; i++ {
				x.Figure()
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			x.Body(blockLines(node, src))
		case *extast.Table:
			x.Figure()
		case *ast.List, *ast.ListItem, *ast.Blockquote:
			if err := walkBlocks(ctx, node, src, x); err != nil {
				return err
			}
		}
	}
	return nil
}

// inlineText flattens the inline content of n and counts its images.
// Image alt text is dropped; the image itself becomes a figure marker.
func inlineText(n ast.Node, src []byte) (string, int) {
	var b strings.Builder
	figures := 0

	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := c.(type) {
		case *ast.Image:
			figures++
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.AutoLink:
			b.Write(node.Label(src))
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String()), figures
}

// blockLines joins the raw lines of a code block with spaces.
func blockLines(n ast.Node, src []byte) string {
	lines := n.Lines()
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if line := strings.TrimSpace(string(seg.Value(src))); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
