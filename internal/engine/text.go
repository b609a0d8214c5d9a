package engine

import (
	"bufio"
	"io"
	"strings"

	"github.com/gafniasaf/bookgen/internal/layout"
)

// TextLoader handles plain text files. Blank lines separate paragraphs,
// line breaks inside a paragraph are kept as forced line breaks and form
// feeds start a new page.
type TextLoader struct{}

func (l *TextLoader) Load(r io.Reader, filename string) (*layout.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	b := newBuilder(docName(filename))
	for i, page := range strings.Split(string(src), "\f") {
		if i > 0 {
			b.pageBreak()
		}
		paras, err := splitParagraphs(page, "\n")
		if err != nil {
			return nil, err
		}
		for _, p := range paras {
			b.add(BodyStory, "Body", plain(p))
		}
	}
	return b.finish()
}

// splitParagraphs splits text on blank lines and joins the lines of each
// paragraph with sep.
func splitParagraphs(text, sep string) ([]string, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString(sep)
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return paragraphs, nil
}
