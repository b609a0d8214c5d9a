package layout

import "fmt"

// Frame is a text frame of a story. A frame that is not placed sits on the
// pasteboard or is anchored inline and therefore has no page.
type Frame struct {
	Page   int
	Placed bool
}

// Story is a text container threaded through zero or more frames.
type Story struct {
	Index int
	Name  string

	doc         *Document
	frames      []Frame
	paragraphs  []*Paragraph
	unavailable error
}

// Document returns the owning document.
func (s *Story) Document() *Document { return s.doc }

// AddFrame threads a new frame placed on the page at offset and returns its
// index within the story.
func (s *Story) AddFrame(page int) int {
	s.frames = append(s.frames, Frame{Page: page, Placed: true})
	return len(s.frames) - 1
}

// AddUnplacedFrame threads a frame that has no page.
func (s *Story) AddUnplacedFrame() int {
	s.frames = append(s.frames, Frame{})
	return len(s.frames) - 1
}

// Frames returns a copy of the story's frames.
func (s *Story) Frames() []Frame {
	return append([]Frame(nil), s.frames...)
}

// AddParagraph appends a paragraph whose first character sits in the given
// frame. A negative frame means the text is overset or otherwise not
// composed into any frame.
func (s *Story) AddParagraph(frame int, style, contents string) *Paragraph {
	if frame >= len(s.frames) {
		frame = -1
	}
	p := &Paragraph{
		story:    s,
		index:    len(s.paragraphs),
		frame:    frame,
		style:    style,
		contents: contents,
	}
	s.paragraphs = append(s.paragraphs, p)
	return p
}

// Paragraphs returns the story's paragraphs in order. The returned slice is
// a copy; removing a paragraph does not disturb it.
func (s *Story) Paragraphs() ([]*Paragraph, error) {
	if s.unavailable != nil {
		return nil, fmt.Errorf("story %d: %w: %v", s.Index, ErrStoryUnavailable, s.unavailable)
	}
	return append([]*Paragraph(nil), s.paragraphs...), nil
}

// Len returns the number of paragraphs.
func (s *Story) Len() int { return len(s.paragraphs) }

// SetUnavailable makes every subsequent Paragraphs call fail with reason.
func (s *Story) SetUnavailable(reason error) { s.unavailable = reason }

// Unavailable returns the reason set by SetUnavailable, or nil.
func (s *Story) Unavailable() error { return s.unavailable }

func (s *Story) remove(p *Paragraph) {
	i := p.index
	copy(s.paragraphs[i:], s.paragraphs[i+1:])
	s.paragraphs[len(s.paragraphs)-1] = nil
	s.paragraphs = s.paragraphs[:len(s.paragraphs)-1]
	for j := i; j < len(s.paragraphs); j++ {
		s.paragraphs[j].index = j
	}
	p.index = -1
	p.story = nil
	s.doc.touch()
}

// PageOffsetOf resolves the page holding the paragraph's first character.
// The second result is false when the paragraph is not composed into a
// frame placed on a page.
func PageOffsetOf(p *Paragraph) (int, bool) {
	if p == nil || p.story == nil || p.frame < 0 || p.frame >= len(p.story.frames) {
		return 0, false
	}
	f := p.story.frames[p.frame]
	if !f.Placed {
		return 0, false
	}
	return f.Page, true
}
