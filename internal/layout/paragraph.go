package layout

import (
	"fmt"
	"sort"
)

// Range is a half-open byte range within a paragraph's contents.
type Range struct {
	Start, End int
}

// Quirks reproduces engine behavior where a write is accepted but has no
// visible effect.
type Quirks struct {
	IgnoreDirect     bool // Direct property assignment is silently dropped
	IgnoreProperties bool // Bulk property application is silently dropped
}

// Properties is a bulk property record applied with ApplyProperties.
type Properties struct {
	SingleWordJustification *Justification
}

// Paragraph is one paragraph of a story. Contents excludes the paragraph
// separator.
type Paragraph struct {
	story    *Story
	index    int
	frame    int
	style    string
	contents string
	bold     []Range
	justify  *Justification
	locked   bool
	quirks   Quirks
}

// Story returns the owning story, or nil once the paragraph was removed.
func (p *Paragraph) Story() *Story { return p.story }

// Index returns the paragraph's position within its story, or -1 once removed.
func (p *Paragraph) Index() int { return p.index }

// Frame returns the index of the frame holding the first character, or -1.
func (p *Paragraph) Frame() int { return p.frame }

// Contents returns the raw paragraph text.
func (p *Paragraph) Contents() string { return p.contents }

// StyleName returns the applied paragraph style name.
func (p *Paragraph) StyleName() string { return p.style }

// Style returns the applied paragraph style.
func (p *Paragraph) Style() *ParagraphStyle {
	if p.story == nil {
		return nil
	}
	return p.story.doc.Style(p.style)
}

// Lock makes the paragraph reject every write.
func (p *Paragraph) Lock() { p.locked = true }

// Locked reports whether the paragraph rejects writes.
func (p *Paragraph) Locked() bool { return p.locked }

// SetQuirks configures silent write failures.
func (p *Paragraph) SetQuirks(q Quirks) { p.quirks = q }

// Quirks returns the configured silent write failures.
func (p *Paragraph) Quirks() Quirks { return p.quirks }

func (p *Paragraph) writable() error {
	if p.story == nil {
		return ErrDetached
	}
	if p.locked {
		return ErrWriteRejected
	}
	return nil
}

func (p *Paragraph) doc() *Document {
	if p.story == nil {
		return nil
	}
	return p.story.doc
}

// SetContents replaces the paragraph text. Only the span that differs is
// rewritten so character formatting outside it survives.
func (p *Paragraph) SetContents(s string) error {
	if err := p.writable(); err != nil {
		return err
	}
	old := p.contents
	if s == old {
		return nil
	}
	pre := commonPrefix(old, s)
	suf := commonSuffix(old[pre:], s[pre:])
	return p.ReplaceRange(pre, len(old)-suf, s[pre:len(s)-suf])
}

// ReplaceRange replaces contents[start:end] with text. Bold spans after the
// edit shift with it; spans overlapping it are clipped.
func (p *Paragraph) ReplaceRange(start, end int, text string) error {
	if err := p.writable(); err != nil {
		return err
	}
	if start < 0 || end > len(p.contents) || start > end {
		return fmt.Errorf("layout: range [%d,%d) outside paragraph of length %d", start, end, len(p.contents))
	}
	p.contents = p.contents[:start] + text + p.contents[end:]
	p.bold = shiftRanges(p.bold, start, end, len(text))
	p.doc().touch()
	return nil
}

// BoldRanges returns the bold spans in ascending order.
func (p *Paragraph) BoldRanges() []Range {
	return append([]Range(nil), p.bold...)
}

// IsBold reports whether every byte of r is bold.
func (p *Paragraph) IsBold(r Range) bool {
	if r.Start >= r.End {
		return false
	}
	for _, b := range p.bold {
		if b.Start <= r.Start && r.End <= b.End {
			return true
		}
	}
	return false
}

// SetBold makes r bold.
func (p *Paragraph) SetBold(r Range) error {
	if err := p.writable(); err != nil {
		return err
	}
	if r.Start < 0 || r.End > len(p.contents) || r.Start >= r.End {
		return fmt.Errorf("layout: bold range [%d,%d) outside paragraph of length %d", r.Start, r.End, len(p.contents))
	}
	if p.IsBold(r) {
		return nil
	}
	p.bold = mergeRanges(append(p.bold, r))
	p.doc().touch()
	return nil
}

// Remove deletes the paragraph, including its separator, from its story.
func (p *Paragraph) Remove() error {
	if err := p.writable(); err != nil {
		return err
	}
	p.story.remove(p)
	return nil
}

// LocalJustification returns the paragraph's own single-word justification
// override, if any.
func (p *Paragraph) LocalJustification() (Justification, bool) {
	if p.justify == nil {
		return 0, false
	}
	return *p.justify, true
}

// SingleWordJustification returns the effective value: the local override
// when present, otherwise the style's.
func (p *Paragraph) SingleWordJustification() Justification {
	if p.justify != nil {
		return *p.justify
	}
	if p.story == nil {
		return LeftAligned
	}
	if s, ok := p.story.doc.LookupStyle(p.style); ok {
		return s.justify
	}
	return LeftAligned
}

// SetSingleWordJustification overrides the value on this paragraph.
func (p *Paragraph) SetSingleWordJustification(j Justification) error {
	if err := p.writable(); err != nil {
		return err
	}
	if p.quirks.IgnoreDirect {
		return nil
	}
	p.setLocal(j)
	return nil
}

// ApplyProperties applies a bulk property record.
func (p *Paragraph) ApplyProperties(props Properties) error {
	if err := p.writable(); err != nil {
		return err
	}
	if p.quirks.IgnoreProperties {
		return nil
	}
	if props.SingleWordJustification != nil {
		p.setLocal(*props.SingleWordJustification)
	}
	return nil
}

func (p *Paragraph) setLocal(j Justification) {
	if p.justify != nil && *p.justify == j {
		return
	}
	p.justify = &j
	p.doc().touch()
}

func shiftRanges(rs []Range, start, end, n int) []Range {
	delta := n - (end - start)
	out := make([]Range, 0, len(rs))
	for _, r := range rs {
		switch {
		case r.End <= start:
			out = append(out, r)
		case r.Start >= end:
			out = append(out, Range{r.Start + delta, r.End + delta})
		default:
			if r.Start < start {
				out = append(out, Range{r.Start, start})
			}
			if r.End > end {
				out = append(out, Range{end + delta, r.End + delta})
			}
		}
	}
	return mergeRanges(out)
}

func mergeRanges(rs []Range) []Range {
	sort.Slice(rs, func(i, j int) bool { return rs[i].Start < rs[j].Start })
	out := rs[:0]
	for _, r := range rs {
		if r.Start >= r.End {
			continue
		}
		if n := len(out); n > 0 && r.Start <= out[n-1].End {
			if r.End > out[n-1].End {
				out[n-1].End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func commonSuffix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-1-n] == b[len(b)-1-n] {
		n++
	}
	return n
}
