// Package layout models an open publishing document the way the document
// engine exposes it: pages, stories threaded through text frames, and
// paragraphs carrying a style name and raw contents.
package layout

import (
	"errors"
	"sort"
)

var (
	// ErrWriteRejected is returned when a container refuses a mutation.
	ErrWriteRejected = errors.New("layout: write rejected by container")

	// ErrStoryUnavailable is returned when a story's paragraphs cannot be
	// enumerated at all.
	ErrStoryUnavailable = errors.New("layout: story unavailable")

	// ErrNoFindPreferences is returned by the engine find/change primitives
	// when they are invoked with neutral preferences.
	ErrNoFindPreferences = errors.New("layout: find preferences not set")

	// ErrDetached is returned when operating on a paragraph that was removed.
	ErrDetached = errors.New("layout: paragraph removed from story")
)

// Document is an open document.
type Document struct {
	Name     string // Display name (usually the file name without extension)
	Path     string // Source path, empty for in-memory documents
	Format   string // Extension of the loader that produced it, e.g. ".json"
	Checksum string // SHA-256 of the loaded bytes

	Pages   []*Page
	Stories []*Story

	styles     map[string]*ParagraphStyle
	findChange FindChangePreferences
	modified   bool
}

// Page is a positional page. Name is the printed folio and need not be
// numeric or contiguous.
type Page struct {
	Name   string
	Offset int
}

// New returns an empty document.
func New(name string) *Document {
	return &Document{
		Name:   name,
		styles: make(map[string]*ParagraphStyle),
	}
}

// AddPage appends a page and returns it.
func (d *Document) AddPage(name string) *Page {
	p := &Page{Name: name, Offset: len(d.Pages)}
	d.Pages = append(d.Pages, p)
	return p
}

// AddStory appends an empty story and returns it.
func (d *Document) AddStory(name string) *Story {
	s := &Story{Index: len(d.Stories), Name: name, doc: d}
	d.Stories = append(d.Stories, s)
	return s
}

// LastPage returns the offset of the last page, or -1 for a document
// without pages.
func (d *Document) LastPage() int {
	return len(d.Pages) - 1
}

// PageName returns the printed name of the page at offset.
func (d *Document) PageName(offset int) string {
	if offset < 0 || offset >= len(d.Pages) {
		return ""
	}
	return d.Pages[offset].Name
}

// Style returns the named paragraph style, creating it with engine defaults
// when the document does not define it yet.
func (d *Document) Style(name string) *ParagraphStyle {
	if s, ok := d.styles[name]; ok {
		return s
	}
	s := &ParagraphStyle{Name: name, doc: d}
	d.styles[name] = s
	return s
}

// LookupStyle returns the named style if the document defines it.
func (d *Document) LookupStyle(name string) (*ParagraphStyle, bool) {
	s, ok := d.styles[name]
	return s, ok
}

// StyleNames returns every defined style name in sorted order.
func (d *Document) StyleNames() []string {
	names := make([]string, 0, len(d.styles))
	for name := range d.styles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindChange returns the engine-wide find/change preferences. They are
// shared by every query against this document.
func (d *Document) FindChange() *FindChangePreferences {
	return &d.findChange
}

// Modified reports whether anything changed since the document was loaded
// or last marked clean.
func (d *Document) Modified() bool { return d.modified }

// MarkClean clears the modified flag, typically after a save.
func (d *Document) MarkClean() { d.modified = false }

func (d *Document) touch() {
	if d != nil {
		d.modified = true
	}
}

// ParagraphStyle is a named paragraph style.
type ParagraphStyle struct {
	Name string

	justify Justification
	locked  bool
	doc     *Document
}

// SingleWordJustification returns the style's single-word justification.
func (s *ParagraphStyle) SingleWordJustification() Justification { return s.justify }

// SetSingleWordJustification changes the style and thereby every paragraph
// that does not override the value locally.
func (s *ParagraphStyle) SetSingleWordJustification(j Justification) error {
	if s.locked {
		return ErrWriteRejected
	}
	if s.justify != j {
		s.justify = j
		s.doc.touch()
	}
	return nil
}

// Lock makes the style reject writes.
func (s *ParagraphStyle) Lock() { s.locked = true }

// Locked reports whether the style rejects writes.
func (s *ParagraphStyle) Locked() bool { return s.locked }
