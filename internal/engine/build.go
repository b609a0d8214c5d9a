package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gafniasaf/bookgen/internal/layout"
)

// BodyStory is the name loaders give the main text flow.
const BodyStory = "Body"

// builder lays out a flow of paragraphs onto pages. Each story gets one
// frame per page it touches.
type builder struct {
	doc     *layout.Document
	page    int
	pending bool
	frames  map[*layout.Story]int
	err     error // First paragraph write that failed
}

func newBuilder(name string) *builder {
	b := &builder{
		doc:     layout.New(name),
		page:    -1,
		pending: true,
		frames:  make(map[*layout.Story]int),
	}
	b.doc.AddStory(BodyStory)
	return b
}

// startPage adds a named page now and makes it current.
func (b *builder) startPage(name string) {
	b.page = b.doc.AddPage(name).Offset
	b.pending = false
}

// pageBreak makes the next paragraph start a new page. Consecutive breaks
// collapse into one.
func (b *builder) pageBreak() {
	if b.page >= 0 {
		b.pending = true
	}
}

func (b *builder) story(name string) *layout.Story {
	for _, s := range b.doc.Stories {
		if s.Name == name {
			return s
		}
	}
	return b.doc.AddStory(name)
}

// add appends a paragraph to the named story on the current page.
func (b *builder) add(story, style string, text *paragraphText) *layout.Paragraph {
	if b.pending {
		b.startPage(strconv.Itoa(len(b.doc.Pages) + 1))
	}
	s := b.story(story)
	frame, ok := b.frames[s]
	if !ok || s.Frames()[frame].Page != b.page {
		frame = s.AddFrame(b.page)
		b.frames[s] = frame
	}
	b.doc.Style(style)
	p := s.AddParagraph(frame, style, text.String())
	for _, r := range text.bold {
		if r.End > len(p.Contents()) {
			r.End = len(p.Contents())
		}
		if r.Start >= r.End {
			continue
		}
		if err := p.SetBold(r); err != nil && b.err == nil {
			b.err = fmt.Errorf("story %q paragraph %d: %w", story, p.Index(), err)
		}
	}
	return p
}

// finish returns the built document, or the first write error.
func (b *builder) finish() (*layout.Document, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.doc.MarkClean()
	return b.doc, nil
}

// paragraphText accumulates paragraph contents with bold spans.
type paragraphText struct {
	strings.Builder
	bold []layout.Range
}

func (t *paragraphText) write(s string, bold bool) {
	start := t.Len()
	t.WriteString(s)
	if bold && len(s) > 0 {
		t.bold = append(t.bold, layout.Range{Start: start, End: t.Len()})
	}
}

func plain(s string) *paragraphText {
	t := &paragraphText{}
	t.write(s, false)
	return t
}
