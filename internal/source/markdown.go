package source

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	blankRuns  = regexp.MustCompile(`[ \t]+`)
	blankLines = regexp.MustCompile(`\n{2,}`)
)

// PlainText reduces a markdown document to the text a listener should
// hear. Code blocks and HTML are dropped, link targets are dropped and
// blocks end on their own line so the segmenter can cut between them.
func PlainText(markdown []byte) string {
	reader := text.NewReader(markdown)
	doc := goldmark.New().Parser().Parse(reader)

	var buf bytes.Buffer
	walkNode(doc, reader.Source(), &buf)

	out := blankRuns.ReplaceAllString(buf.String(), " ")
	out = blankLines.ReplaceAllString(out, "\n")
	return strings.TrimSpace(strings.ReplaceAll(out, " \n", "\n"))
}

func walkNode(node ast.Node, source []byte, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock, *ast.RawHTML:
		return

	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			buf.WriteByte(' ')
		}
		return

	case *ast.String:
		buf.Write(n.Value)
		return

	case *ast.CodeSpan:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return

	case *ast.Image:
		// Alt text only
		walkChildren(n, source, buf)
		return

	case *ast.Heading, *ast.Paragraph, *ast.ListItem:
		walkChildren(n, source, buf)
		endSentence(buf)
		return

	case *ast.ThematicBreak:
		buf.WriteByte('\n')
		return
	}

	walkChildren(node, source, buf)
}

func walkChildren(node ast.Node, source []byte, buf *bytes.Buffer) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		walkNode(c, source, buf)
	}
}

// endSentence closes a block with a period unless it already ends in
// punctuation, then starts a new line.
func endSentence(buf *bytes.Buffer) {
	trimmed := bytes.TrimRight(buf.Bytes(), " ")
	buf.Truncate(len(trimmed))

	if n := len(trimmed); n > 0 && trimmed[n-1] != '\n' {
		switch trimmed[n-1] {
		case '.', '!', '?', ':', ';':
		default:
			buf.WriteByte('.')
		}
	}
	buf.WriteByte('\n')
}
