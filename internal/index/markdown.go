package index

import (
	"bytes"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
)

// SearchableText flattens Markdown-formatted snippet content into a single line of
// plain text for indexing. Code spans and blocks are kept since snippets are often code;
// link targets, images and raw HTML are dropped.
func SearchableText(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}

	doc := markdown.Parse([]byte(md), nil)

	var buf bytes.Buffer
	ast.Walk(doc, &textExtractor{buf: &buf})

	return strings.Join(strings.Fields(buf.String()), " ")
}

// textExtractor is an AST visitor that collects literal text
type textExtractor struct {
	buf *bytes.Buffer
}

// Visit implements ast.NodeVisitor interface
func (te *textExtractor) Visit(node ast.Node, entering bool) ast.WalkStatus {
	switch n := node.(type) {
	case *ast.Text:
		if entering {
			te.buf.Write(n.Literal)
		}

	case *ast.Code:
		if entering {
			te.buf.WriteString(" ")
			te.buf.Write(n.Literal)
			te.buf.WriteString(" ")
		}

	case *ast.CodeBlock:
		if entering {
			te.buf.WriteString(" ")
			te.buf.Write(n.Literal)
			te.buf.WriteString(" ")
		}
		return ast.SkipChildren

	case *ast.Softbreak, *ast.Hardbreak:
		te.buf.WriteString(" ")

	case *ast.Heading, *ast.Paragraph, *ast.ListItem, *ast.List:
		te.buf.WriteString(" ")

	case *ast.Image, *ast.HTMLBlock, *ast.HTMLSpan:
		return ast.SkipChildren
	}

	return ast.GoToNext
}
