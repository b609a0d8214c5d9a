// Package search runs literal and regular-expression queries through the
// document engine's find/change primitive.
//
// The engine keeps one global set of find/change preferences per document.
// Every call here resets them, configures them for its own query and resets
// them again on every exit path, so a query can never observe settings left
// behind by another.
package search

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/gafniasaf/bookgen/internal/layout"
)

// Pattern is a query. Expr is literal text unless Regexp is set.
type Pattern struct {
	Expr          string
	Regexp        bool
	CaseSensitive bool
}

// Literal returns a case-sensitive literal pattern.
func Literal(s string) Pattern {
	return Pattern{Expr: s, CaseSensitive: true}
}

// Grep returns a case-sensitive regular-expression pattern.
func Grep(expr string) Pattern {
	return Pattern{Expr: expr, Regexp: true, CaseSensitive: true}
}

// IgnoreCase returns a copy of p that matches case-insensitively.
func (p Pattern) IgnoreCase() Pattern {
	p.CaseSensitive = false
	return p
}

// Validate reports whether the pattern can be compiled.
func (p Pattern) Validate() error {
	if p.Expr == "" {
		return fmt.Errorf("search: empty pattern")
	}
	if p.Regexp {
		if _, err := regexp.Compile(p.Expr); err != nil {
			return fmt.Errorf("search: invalid expression %q: %w", p.Expr, err)
		}
	}
	return nil
}

// Target selects what a query runs over.
type Target struct {
	Doc   *layout.Document
	Story *layout.Story // nil searches every story
	Scope *layout.Scope // nil disables page filtering
}

// Match is one hit.
type Match struct {
	Story     int               // Story index
	Paragraph int               // Paragraph index within the story
	Position  int               // Rune offset of the hit within the story text
	Page      int               // Page offset, valid when OnPage
	OnPage    bool              // Whether the paragraph resolves to a page
	Start     int               // Byte offset within the paragraph
	End       int               // Byte end offset within the paragraph
	Text      string            // Matched text
	Groups    []string          // Capture groups, excluding the whole match
	Para      *layout.Paragraph // The paragraph holding the hit
}

// Outcome summarizes a ReplaceAll.
type Outcome struct {
	Changed int
	Failed  int
	Errors  []error
}

// acquire configures the document's preferences for p and returns the
// release func. Preferences are reset before configuring so nothing leaks in.
func acquire(doc *layout.Document, p Pattern, changeTo string) func() {
	fc := doc.FindChange()
	fc.Reset()
	fc.Mode = layout.FindText
	if p.Regexp {
		fc.Mode = layout.FindGrep
	}
	fc.FindWhat = p.Expr
	fc.ChangeTo = changeTo
	fc.CaseSensitive = p.CaseSensitive
	return fc.Reset
}

// paragraphsOf collects the paragraphs the target covers, per story.
func paragraphsOf(t Target) ([]storyParas, error) {
	if t.Doc == nil {
		return nil, fmt.Errorf("search: no document")
	}
	stories := t.Doc.Stories
	if t.Story != nil {
		stories = []*layout.Story{t.Story}
	}
	out := make([]storyParas, 0, len(stories))
	for _, s := range stories {
		paras, err := s.Paragraphs()
		if err != nil {
			if t.Story != nil {
				return nil, err
			}
			// Unreadable stories are skipped in a document-wide search.
			continue
		}
		out = append(out, storyParas{story: s, all: paras})
	}
	return out, nil
}

type storyParas struct {
	story *layout.Story
	all   []*layout.Paragraph
}

func (sp storyParas) inScope(scope *layout.Scope) []*layout.Paragraph {
	if scope == nil {
		return sp.all
	}
	var in []*layout.Paragraph
	for _, p := range sp.all {
		if scope.Includes(p) {
			in = append(in, p)
		}
	}
	return in
}

// FindAll returns every match of p in the target, in story and paragraph
// order.
func FindAll(ctx context.Context, t Target, p Pattern) ([]Match, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	sets, err := paragraphsOf(t)
	if err != nil {
		return nil, err
	}
	release := acquire(t.Doc, p, "")
	defer release()

	var matches []Match
	for _, sp := range sets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		paras := sp.inScope(t.Scope)
		if len(paras) == 0 {
			continue
		}
		hits, err := t.Doc.FindIn(paras)
		if err != nil {
			return nil, fmt.Errorf("search: story %d: %w", sp.story.Index, err)
		}
		offsets := runeOffsets(sp.all)
		for _, h := range hits {
			matches = append(matches, newMatch(sp.story, h, offsets))
		}
	}
	return matches, nil
}

// ReplaceAll replaces every match of p in the target with replacement.
// Regular-expression replacements may reference groups as ${1}. Text that
// already equals its replacement is not counted, so repeating a call over
// normalized content reports zero changes.
func ReplaceAll(ctx context.Context, t Target, p Pattern, replacement string) (Outcome, error) {
	var out Outcome
	if err := p.Validate(); err != nil {
		return out, err
	}
	sets, err := paragraphsOf(t)
	if err != nil {
		return out, err
	}
	release := acquire(t.Doc, p, replacement)
	defer release()

	for _, sp := range sets {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		paras := sp.inScope(t.Scope)
		if len(paras) == 0 {
			continue
		}
		rep, err := t.Doc.ChangeIn(paras)
		if err != nil {
			return out, fmt.Errorf("search: story %d: %w", sp.story.Index, err)
		}
		out.Changed += rep.Changed
		out.Failed += rep.Failed
		out.Errors = append(out.Errors, rep.Errors...)
	}
	return out, nil
}

// runeOffsets maps paragraph index to the rune offset at which the
// paragraph starts within the story. Paragraph separators count as one.
func runeOffsets(paras []*layout.Paragraph) map[int]int {
	offsets := make(map[int]int, len(paras))
	pos := 0
	for _, p := range paras {
		offsets[p.Index()] = pos
		pos += utf8.RuneCountInString(p.Contents()) + 1
	}
	return offsets
}

func newMatch(s *layout.Story, h layout.Hit, offsets map[int]int) Match {
	p := h.Paragraph
	text := p.Contents()
	m := Match{
		Story:     s.Index,
		Paragraph: p.Index(),
		Start:     h.Loc[0],
		End:       h.Loc[1],
		Text:      text[h.Loc[0]:h.Loc[1]],
		Para:      p,
	}
	m.Position = offsets[p.Index()] + utf8.RuneCountInString(text[:h.Loc[0]])
	m.Page, m.OnPage = layout.PageOffsetOf(p)
	for i := 2; i+1 < len(h.Loc); i += 2 {
		if h.Loc[i] < 0 {
			m.Groups = append(m.Groups, "")
			continue
		}
		m.Groups = append(m.Groups, text[h.Loc[i]:h.Loc[i+1]])
	}
	return m
}
