package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/gafniasaf/bookgen/internal/layout"
	"golang.org/x/net/html"
)

// HTMLLoader handles HTML exports. The first class of a block element names
// its paragraph style; elements without one get a default per tag. <aside>
// and <figcaption> content goes to separate stories, and <hr>, class
// "page-break" or a "page" container starts a new page.
type HTMLLoader struct{}

func (l *HTMLLoader) Load(r io.Reader, filename string) (*layout.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	name := docName(filename)
	if title := findTitle(root); title != "" {
		name = title
	}
	h := &htmlWalker{b: newBuilder(name)}
	if body := findBody(root); body != nil {
		h.walk(body, BodyStory)
	} else {
		h.walk(root, BodyStory)
	}
	return h.b.finish()
}

type htmlWalker struct {
	b *builder
}

func (h *htmlWalker) walk(n *html.Node, story string) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			h.element(c, story)
		}
	}
}

func (h *htmlWalker) element(n *html.Node, story string) {
	if hasClass(n, "page-break") || hasClass(n, "page") ||
		strings.Contains(attr(n, "style"), "page-break-before") {
		h.b.pageBreak()
	}
	switch n.Data {
	case "script", "style", "nav", "head", "template":
	case "hr":
		h.b.pageBreak()
	case "aside":
		s := attr(n, "data-story")
		if s == "" {
			s = "Sidebar"
		}
		h.walk(n, s)
	case "figcaption":
		h.para(n, "Captions", "Caption")
	case "blockquote":
		h.walk(n, CalloutStory)
	case "p":
		def := "Body"
		if story == CalloutStory {
			def = "Callout"
		}
		h.para(n, story, def)
	case "h1", "h2", "h3", "h4", "h5", "h6":
		h.para(n, story, "Heading "+n.Data[1:])
	case "ul", "ol":
		h.list(n, story, 1)
	case "td", "th":
		h.para(n, story, "Table")
	default:
		h.walk(n, story)
	}
}

func (h *htmlWalker) para(n *html.Node, story, def string) {
	t := &paragraphText{}
	h.inline(t, n, false)
	h.b.add(story, styleOf(n, def), trimRight(t))
}

func (h *htmlWalker) list(n *html.Node, story string, depth int) {
	ordered := n.Data == "ol"
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		t := &paragraphText{}
		h.inline(t, li, false)
		h.b.add(story, styleOf(li, listStyle(ordered, depth)), trimRight(t))
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
				h.list(c, story, depth+1)
			}
		}
	}
}

// inline collects the text of n with HTML whitespace collapsing. Nested
// lists are left to the caller.
func (h *htmlWalker) inline(t *paragraphText, n *html.Node, bold bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			writeCollapsed(t, c.Data, bold)
		case html.ElementNode:
			switch c.Data {
			case "br":
				t.write("\n", bold)
			case "ul", "ol", "script", "style":
			case "b", "strong":
				h.inline(t, c, true)
			default:
				h.inline(t, c, bold)
			}
		}
	}
}

func writeCollapsed(t *paragraphText, s string, bold bool) {
	last := byte(' ')
	if t.Len() > 0 {
		last = t.String()[t.Len()-1]
	}
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isHTMLSpace(c) {
			if last == ' ' || last == '\n' {
				continue
			}
			c = ' '
		}
		out.WriteByte(c)
		last = c
	}
	t.write(out.String(), bold)
}

func isHTMLSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func trimRight(t *paragraphText) *paragraphText {
	out := &paragraphText{bold: t.bold}
	out.WriteString(strings.TrimRight(t.String(), " "))
	return out
}

func styleOf(n *html.Node, def string) string {
	if fields := strings.Fields(attr(n, "class")); len(fields) > 0 {
		return fields[0]
	}
	return def
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
