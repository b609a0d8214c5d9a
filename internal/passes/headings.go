package passes

import (
	"context"
	"fmt"
	"regexp"

	"github.com/gafniasaf/bookgen/internal/layout"
	"github.com/gafniasaf/bookgen/internal/report"
	"github.com/gafniasaf/bookgen/internal/search"
)

// labelRule is one heading-label shape. Expr holds %s for the quoted label.
// Rules are tried in order; each later rule is written so that it cannot
// match text an earlier rule produced or accepted.
type labelRule struct {
	name string
	expr string
	repl string // Empty for the accept-only rule
}

var labelRules = []labelRule{
	// Start of paragraph, or exactly one blank line before, then ": ".
	{"already-correct", `(?:^|(?:^|[^\n])\n\n)(%s): `, ""},
	{"excess-breaks", `\n{3,}[ \t]*(%s)[ \t]*:[ \t]*`, "\n\n${1}: "},
	{"single-break", `(^|[^\n])\n[ \t]*(%s)[ \t]*:[ \t]*`, "${1}\n\n${2}: "},
	{"glued", `([^\s])[ \t]*(%s)[ \t]*:[ \t]*`, "${1}\n\n${2}: "},
	{"loose-colon", `(^|\n\n)[ \t]*(%s)[ \t]*:[ \t]*`, "${1}${2}: "},
}

// HeadingLabels makes every in-scope "Label:" occurrence start after exactly
// one blank line (or at paragraph start) and end in ": ". Matching is
// case-sensitive, so "in de praktijk:" inside a sentence is body text.
func HeadingLabels(ctx context.Context, t Target, opts Options) *report.PassResult {
	res := report.NewPassResult(NameHeadingLabels, report.Normalize, opts.SampleLimit)
	paras, err := t.paragraphs(true)
	if err != nil {
		res.Aborted(err)
		return res
	}
	st := search.Target{Doc: t.Doc, Story: t.Story, Scope: &t.Scope}

	for _, label := range opts.labels() {
		quoted := regexp.QuoteMeta(label)

		occurrences, err := search.FindAll(ctx, st, search.Grep(fmt.Sprintf(`(%s)[ \t]*:`, quoted)))
		if err != nil {
			res.Aborted(err)
			return res
		}
		res.Found += len(occurrences)

		for _, rule := range labelRules {
			pattern := search.Grep(fmt.Sprintf(rule.expr, quoted))
			if rule.repl == "" {
				ok, err := search.FindAll(ctx, st, pattern)
				if err != nil {
					res.Aborted(err)
					return res
				}
				res.Add(rule.name, len(ok))
				continue
			}

			before := contentsOf(paras)
			out, err := search.ReplaceAll(ctx, st, pattern, rule.repl)
			if err != nil {
				res.Aborted(err)
				return res
			}
			res.Changed += out.Changed
			res.Failed += out.Failed
			res.Add(rule.name, out.Changed)
			for _, e := range out.Errors {
				res.Sample("%s %q: %v", rule.name, label, e)
			}
			for _, p := range paras {
				if after := p.Contents(); after != before[p] {
					res.Sample("%s p%d: %s -> %s", rule.name, p.Index(), opts.snippet(before[p]), opts.snippet(after))
				}
			}
		}
	}
	return res
}

// HeadingBold sets the exact, case-sensitive label text of every in-scope
// "Label:" occurrence bold. The colon and following text are left alone.
func HeadingBold(ctx context.Context, t Target, opts Options) *report.PassResult {
	res := report.NewPassResult(NameHeadingBold, report.Normalize, opts.SampleLimit)
	if _, err := t.paragraphs(true); err != nil {
		res.Aborted(err)
		return res
	}
	st := search.Target{Doc: t.Doc, Story: t.Story, Scope: &t.Scope}

	for _, label := range opts.labels() {
		ms, err := search.FindAll(ctx, st, search.Grep(`(`+regexp.QuoteMeta(label)+`):`))
		if err != nil {
			res.Aborted(err)
			return res
		}
		for _, m := range ms {
			res.Found++
			r := layout.Range{Start: m.Start, End: m.Start + len(m.Groups[0])}
			if m.Para.IsBold(r) {
				res.Add("already-bold", 1)
				continue
			}
			if err := m.Para.SetBold(r); err != nil {
				res.Failed++
				res.Sample("p%d %q: %v", m.Paragraph, label, err)
				continue
			}
			res.Changed++
			res.Sample("p%d: bold %q at %d", m.Paragraph, label, m.Start)
		}
	}
	return res
}

func contentsOf(paras []*layout.Paragraph) map[*layout.Paragraph]string {
	m := make(map[*layout.Paragraph]string, len(paras))
	for _, p := range paras {
		m[p] = p.Contents()
	}
	return m
}
