// Package passes holds the normalization passes and QA scans run over a
// chapter's body story. Normalization passes mutate the story and must be
// idempotent; QA scans only read.
package passes

import (
	"context"
	"fmt"

	"github.com/gafniasaf/bookgen/internal/layout"
	"github.com/gafniasaf/bookgen/internal/report"
	"github.com/gafniasaf/bookgen/internal/styles"
	"github.com/gafniasaf/bookgen/internal/textutil"
)

// Pass names, as they appear in the run report.
const (
	NameHeadingLabels  = "heading-labels"
	NameHeadingBold    = "heading-bold"
	NameTrailingEmpty  = "trailing-empty"
	NameSoftHyphens    = "soft-hyphens"
	NameJustification  = "single-word-justification"
	NameNestedLists    = "nested-lists"
	NameEmptyListItems = "empty-list-items"
)

// DefaultHeadingLabels are the inline heading labels used across the books.
var DefaultHeadingLabels = []string{"In de praktijk", "Verdieping"}

// DefaultSnippetLength bounds violation snippets.
const DefaultSnippetLength = 120

// Target is what a pass runs against.
type Target struct {
	Doc   *layout.Document
	Story *layout.Story
	Scope layout.Scope
	Roles *styles.Map
}

// Options are pass parameters.
type Options struct {
	HeadingLabels []string
	SampleLimit   int
	SnippetLength int
}

func (o Options) labels() []string {
	if len(o.HeadingLabels) == 0 {
		return DefaultHeadingLabels
	}
	return o.HeadingLabels
}

func (o Options) snippet(s string) string {
	n := o.SnippetLength
	if n <= 0 {
		n = DefaultSnippetLength
	}
	return textutil.Snippet(s, n)
}

// Func is the signature shared by every pass.
type Func func(ctx context.Context, t Target, opts Options) *report.PassResult

// paragraphs returns the story's paragraphs, optionally only those whose
// page lies in scope.
func (t Target) paragraphs(scoped bool) ([]*layout.Paragraph, error) {
	if t.Story == nil {
		return nil, fmt.Errorf("no body story")
	}
	all, err := t.Story.Paragraphs()
	if err != nil {
		return nil, err
	}
	if !scoped {
		return all, nil
	}
	var in []*layout.Paragraph
	for _, p := range all {
		if t.Scope.Includes(p) {
			in = append(in, p)
		}
	}
	return in, nil
}

func (t Target) pageName(p *layout.Paragraph) string {
	off, ok := layout.PageOffsetOf(p)
	if !ok {
		return ""
	}
	return t.Doc.PageName(off)
}
