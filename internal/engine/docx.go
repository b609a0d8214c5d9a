package engine

import (
	"fmt"
	"io"
	"os"

	"github.com/fumiama/go-docx"
	"github.com/gafniasaf/bookgen/internal/layout"
)

// DefaultDOCXStyle is applied to paragraphs without a paragraph style.
const DefaultDOCXStyle = "Normal"

// DOCXLoader handles .docx files. Body paragraphs become the body story;
// explicit page breaks start new pages.
type DOCXLoader struct{}

func (l *DOCXLoader) Load(r io.Reader, filename string) (*layout.Document, error) {
	// go-docx needs a ReaderAt+size, so write to temp file.
	tmp, err := os.CreateTemp("", "bookgen-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	d, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	b := newBuilder(docName(filename))
	for _, item := range d.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := &paragraphText{}
		breakAfter := false
		for _, child := range para.Children {
			var run *docx.Run
			switch c := child.(type) {
			case *docx.Run:
				run = c
			case *docx.Hyperlink:
				run = &c.Run
			default:
				continue
			}
			bold := run.RunProperties != nil && run.RunProperties.Bold != nil
			for _, rc := range run.Children {
				switch v := rc.(type) {
				case *docx.Text:
					text.write(v.Text, bold)
				case *docx.Tab:
					text.write("\t", bold)
				case *docx.BarterRabbet:
					if v.Type != "page" {
						text.write("\n", bold)
						continue
					}
					// A break before any text moves the paragraph itself.
					if text.Len() == 0 {
						b.pageBreak()
					} else {
						breakAfter = true
					}
				}
			}
		}
		b.add(BodyStory, docxStyle(para), text)
		if breakAfter {
			b.pageBreak()
		}
	}
	return b.finish()
}

func docxStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil || para.Properties.Style.Val == "" {
		return DefaultDOCXStyle
	}
	return para.Properties.Style.Val
}

// DOCXSaver writes every story in document order. A paragraph on a later
// page than its predecessor starts with a page break.
type DOCXSaver struct{}

func (s *DOCXSaver) Save(w io.Writer, doc *layout.Document) error {
	out := docx.New().WithDefaultTheme()
	last := -1
	for _, story := range doc.Stories {
		paras, err := story.Paragraphs()
		if err != nil {
			return err
		}
		for _, p := range paras {
			dp := out.AddParagraph()
			if name := p.StyleName(); name != "" && name != DefaultDOCXStyle {
				dp.Style(name)
			}
			if page, ok := layout.PageOffsetOf(p); ok {
				if last >= 0 && page > last {
					dp.AddPageBreaks()
				}
				last = page
			}
			writeRuns(dp, p)
		}
	}
	if _, err := out.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

// writeRuns splits the contents at bold boundaries into runs.
func writeRuns(dp *docx.Paragraph, p *layout.Paragraph) {
	text := p.Contents()
	pos := 0
	for _, r := range p.BoldRanges() {
		if r.Start > pos {
			dp.AddText(text[pos:r.Start])
		}
		dp.AddText(text[r.Start:r.End]).Bold()
		pos = r.End
	}
	if pos < len(text) {
		dp.AddText(text[pos:])
	}
}
