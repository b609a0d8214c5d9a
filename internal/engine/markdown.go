package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/gafniasaf/bookgen/internal/layout"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// CalloutStory holds block quotes, which the layout places in separate
// frames next to the body text.
const CalloutStory = "Callouts"

// MarkdownLoader handles Markdown files using goldmark.
//
// Headings become "Heading N" paragraphs, list items "Bullet" or "Numbered
// List" with a " lvlN" suffix below the top level, thematic breaks start a
// new page and strong emphasis is bold.
type MarkdownLoader struct{}

func (l *MarkdownLoader) Load(r io.Reader, filename string) (*layout.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	w := &mdWalker{b: newBuilder(docName(filename)), src: src}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n, BodyStory)
	}
	return w.b.finish()
}

type mdWalker struct {
	b   *builder
	src []byte
}

func (w *mdWalker) block(n ast.Node, story string) {
	switch node := n.(type) {
	case *ast.Heading:
		w.b.add(story, fmt.Sprintf("Heading %d", node.Level), w.inline(node))
	case *ast.Paragraph, *ast.TextBlock:
		style := "Body"
		if story == CalloutStory {
			style = "Callout"
		}
		w.b.add(story, style, w.inline(n))
	case *ast.List:
		w.list(node, story, 1)
	case *ast.Blockquote:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			w.block(c, CalloutStory)
		}
	case *ast.ThematicBreak:
		w.b.pageBreak()
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		w.b.add(story, "Code", plain(w.lines(n)))
	}
}

func (w *mdWalker) list(l *ast.List, story string, depth int) {
	style := listStyle(l.IsOrdered(), depth)
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		if item.FirstChild() == nil {
			w.b.add(story, style, &paragraphText{})
			continue
		}
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch node := c.(type) {
			case *ast.List:
				w.list(node, story, depth+1)
			case *ast.Paragraph, *ast.TextBlock:
				w.b.add(story, style, w.inline(node))
			default:
				w.block(node, story)
			}
		}
	}
}

func listStyle(ordered bool, depth int) string {
	name := "Bullet"
	if ordered {
		name = "Numbered List"
	}
	if depth > 1 {
		name += fmt.Sprintf(" lvl%d", depth)
	}
	return name
}

func (w *mdWalker) inline(n ast.Node) *paragraphText {
	t := &paragraphText{}
	w.collect(t, n, false)
	return t
}

func (w *mdWalker) collect(t *paragraphText, n ast.Node, bold bool) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			t.write(string(node.Segment.Value(w.src)), bold)
			if node.HardLineBreak() {
				t.write("\n", bold)
			} else if node.SoftLineBreak() {
				t.write(" ", bold)
			}
		case *ast.String:
			t.write(string(node.Value), bold)
		case *ast.Emphasis:
			w.collect(t, node, bold || node.Level >= 2)
		case *ast.AutoLink:
			t.write(string(node.URL(w.src)), bold)
		case *ast.RawHTML:
		default:
			w.collect(t, c, bold)
		}
	}
}

// lines joins a code block's lines with forced line breaks.
func (w *mdWalker) lines(n ast.Node) string {
	var buf strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(w.src))
	}
	return strings.TrimRight(buf.String(), "\n")
}
