package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gafniasaf/bookgen/internal/layout"
)

// CSVLoader handles paragraph dumps: one row per paragraph with a header
// naming the columns story, page, style and contents (or text). Only the
// contents column is required. Stories and pages are created in order of
// first appearance; an empty page leaves the paragraph unplaced.
type CSVLoader struct{}

func (l *CSVLoader) Load(r io.Reader, filename string) (*layout.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := layout.New(docName(filename))
	if len(records) == 0 {
		return doc, nil
	}

	cols := map[string]int{"story": -1, "page": -1, "style": -1, "contents": -1}
	for i, h := range records[0] {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "text" {
			h = "contents"
		}
		if _, ok := cols[h]; ok {
			cols[h] = i
		}
	}
	if cols["contents"] < 0 {
		return nil, fmt.Errorf("parse csv: missing contents column")
	}

	type frameKey struct {
		story *layout.Story
		page  string
	}
	stories := make(map[string]*layout.Story)
	pages := make(map[string]int)
	frames := make(map[frameKey]int)

	cell := func(row []string, col string) string {
		i := cols[col]
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}

	for _, row := range records[1:] {
		storyName := strings.TrimSpace(cell(row, "story"))
		if storyName == "" {
			storyName = BodyStory
		}
		story, ok := stories[storyName]
		if !ok {
			story = doc.AddStory(storyName)
			stories[storyName] = story
		}

		pageName := strings.TrimSpace(cell(row, "page"))
		key := frameKey{story, pageName}
		frame, ok := frames[key]
		if !ok {
			if pageName == "" {
				frame = story.AddUnplacedFrame()
			} else {
				off, seen := pages[pageName]
				if !seen {
					off = doc.AddPage(pageName).Offset
					pages[pageName] = off
				}
				frame = story.AddFrame(off)
			}
			frames[key] = frame
		}

		style := strings.TrimSpace(cell(row, "style"))
		if style == "" {
			style = "Body"
		}
		doc.Style(style)
		story.AddParagraph(frame, style, cell(row, "contents"))
	}
	doc.MarkClean()
	return doc, nil
}
