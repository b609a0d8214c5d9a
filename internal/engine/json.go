package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gafniasaf/bookgen/internal/layout"
)

// snapshot is the JSON export of an open document. It is the only format
// that keeps frames, write locks and engine quirks.
type snapshot struct {
	Name    string          `json:"name,omitempty"`
	Pages   []string        `json:"pages"`
	Styles  []styleSnapshot `json:"styles,omitempty"`
	Stories []storySnapshot `json:"stories"`
}

type styleSnapshot struct {
	Name                    string `json:"name"`
	SingleWordJustification string `json:"single_word_justification,omitempty"`
	Locked                  bool   `json:"locked,omitempty"`
}

type storySnapshot struct {
	Name        string              `json:"name"`
	Unavailable string              `json:"unavailable,omitempty"`
	Frames      []frameSnapshot     `json:"frames,omitempty"`
	Paragraphs  []paragraphSnapshot `json:"paragraphs"`
}

// frameSnapshot has a nil Page for frames not placed on any page.
type frameSnapshot struct {
	Page *int `json:"page"`
}

type paragraphSnapshot struct {
	Frame                   *int     `json:"frame"` // nil when overset
	Style                   string   `json:"style"`
	Contents                string   `json:"contents"`
	Bold                    [][2]int `json:"bold,omitempty"`
	SingleWordJustification string   `json:"single_word_justification,omitempty"`
	Locked                  bool     `json:"locked,omitempty"`
	IgnoreDirect            bool     `json:"ignore_direct,omitempty"`
	IgnoreProperties        bool     `json:"ignore_properties,omitempty"`
}

// JSONLoader reads document snapshots.
type JSONLoader struct{}

func (l *JSONLoader) Load(r io.Reader, filename string) (*layout.Document, error) {
	var snap snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	name := snap.Name
	if name == "" {
		name = docName(filename)
	}
	doc := layout.New(name)
	for _, p := range snap.Pages {
		doc.AddPage(p)
	}

	var locked []*layout.ParagraphStyle
	for _, ss := range snap.Styles {
		st := doc.Style(ss.Name)
		if ss.SingleWordJustification != "" {
			j, err := layout.ParseJustification(ss.SingleWordJustification)
			if err != nil {
				return nil, fmt.Errorf("style %q: %w", ss.Name, err)
			}
			if err := st.SetSingleWordJustification(j); err != nil {
				return nil, fmt.Errorf("style %q: %w", ss.Name, err)
			}
		}
		if ss.Locked {
			locked = append(locked, st)
		}
	}

	for si, ss := range snap.Stories {
		story := doc.AddStory(ss.Name)
		for fi, fs := range ss.Frames {
			if fs.Page == nil {
				story.AddUnplacedFrame()
				continue
			}
			if *fs.Page < 0 || *fs.Page >= len(doc.Pages) {
				return nil, fmt.Errorf("story %d frame %d: page %d out of range", si, fi, *fs.Page)
			}
			story.AddFrame(*fs.Page)
		}
		for pi, ps := range ss.Paragraphs {
			if err := restoreParagraph(doc, story, ps); err != nil {
				return nil, fmt.Errorf("story %d paragraph %d: %w", si, pi, err)
			}
		}
		if ss.Unavailable != "" {
			story.SetUnavailable(errors.New(ss.Unavailable))
		}
	}

	for _, st := range locked {
		st.Lock()
	}
	doc.MarkClean()
	return doc, nil
}

func restoreParagraph(doc *layout.Document, story *layout.Story, ps paragraphSnapshot) error {
	frame := -1
	if ps.Frame != nil {
		frame = *ps.Frame
	}
	doc.Style(ps.Style)
	p := story.AddParagraph(frame, ps.Style, ps.Contents)
	for _, b := range ps.Bold {
		if err := p.SetBold(layout.Range{Start: b[0], End: b[1]}); err != nil {
			return err
		}
	}
	if ps.SingleWordJustification != "" {
		j, err := layout.ParseJustification(ps.SingleWordJustification)
		if err != nil {
			return err
		}
		if err := p.SetSingleWordJustification(j); err != nil {
			return err
		}
	}
	p.SetQuirks(layout.Quirks{IgnoreDirect: ps.IgnoreDirect, IgnoreProperties: ps.IgnoreProperties})
	if ps.Locked {
		p.Lock()
	}
	return nil
}

// JSONSaver writes document snapshots.
type JSONSaver struct{}

func (s *JSONSaver) Save(w io.Writer, doc *layout.Document) error {
	snap := snapshot{
		Name:    doc.Name,
		Pages:   make([]string, 0, len(doc.Pages)),
		Stories: make([]storySnapshot, 0, len(doc.Stories)),
	}
	for _, p := range doc.Pages {
		snap.Pages = append(snap.Pages, p.Name)
	}
	for _, name := range doc.StyleNames() {
		st, _ := doc.LookupStyle(name)
		ss := styleSnapshot{Name: name, Locked: st.Locked()}
		if j := st.SingleWordJustification(); j != layout.LeftAligned {
			ss.SingleWordJustification = j.String()
		}
		snap.Styles = append(snap.Styles, ss)
	}
	for _, story := range doc.Stories {
		snap.Stories = append(snap.Stories, storyToSnapshot(story))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(snap)
}

func storyToSnapshot(story *layout.Story) storySnapshot {
	ss := storySnapshot{Name: story.Name, Paragraphs: []paragraphSnapshot{}}
	for _, f := range story.Frames() {
		if !f.Placed {
			ss.Frames = append(ss.Frames, frameSnapshot{})
			continue
		}
		page := f.Page
		ss.Frames = append(ss.Frames, frameSnapshot{Page: &page})
	}

	// An unavailable story is exported with its contents so that a reload
	// reproduces it exactly.
	reason := story.Unavailable()
	if reason != nil {
		ss.Unavailable = reason.Error()
		story.SetUnavailable(nil)
		defer story.SetUnavailable(reason)
	}
	paras, _ := story.Paragraphs()
	for _, p := range paras {
		ps := paragraphSnapshot{
			Style:            p.StyleName(),
			Contents:         p.Contents(),
			Locked:           p.Locked(),
			IgnoreDirect:     p.Quirks().IgnoreDirect,
			IgnoreProperties: p.Quirks().IgnoreProperties,
		}
		if f := p.Frame(); f >= 0 {
			ps.Frame = &f
		}
		for _, b := range p.BoldRanges() {
			ps.Bold = append(ps.Bold, [2]int{b.Start, b.End})
		}
		if j, ok := p.LocalJustification(); ok {
			ps.SingleWordJustification = j.String()
		}
		ss.Paragraphs = append(ss.Paragraphs, ps)
	}
	return ss
}
