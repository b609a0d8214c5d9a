package passes

import (
	"context"
	"strings"

	"github.com/gafniasaf/bookgen/internal/report"
	"github.com/gafniasaf/bookgen/internal/search"
	"github.com/gafniasaf/bookgen/internal/textutil"
)

// TrailingEmpty removes the run of blank paragraphs at the end of the story,
// scanning backwards and stopping at the first paragraph with text. Blank
// paragraphs before that one are never touched. Trailing paragraphs are
// often overset, so the pass ignores scope.
func TrailingEmpty(ctx context.Context, t Target, opts Options) *report.PassResult {
	res := report.NewPassResult(NameTrailingEmpty, report.Normalize, opts.SampleLimit)
	paras, err := t.paragraphs(false)
	if err != nil {
		res.Aborted(err)
		return res
	}
	for i := len(paras) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			break
		}
		p := paras[i]
		if !textutil.IsBlank(p.Contents()) {
			break
		}
		res.Found++
		idx := p.Index()
		if err := p.Remove(); err != nil {
			// A kept blank paragraph ends the trailing run.
			res.Failed++
			res.Sample("p%d: %v", idx, err)
			break
		}
		res.Removed++
		res.Sample("p%d removed (%q)", idx, p.Contents())
	}
	return res
}

// SoftHyphens removes every discretionary hyphen from the whole body story.
// Occurrences found and occurrences removed are counted separately so
// rejected writes show up as the difference.
func SoftHyphens(ctx context.Context, t Target, opts Options) *report.PassResult {
	res := report.NewPassResult(NameSoftHyphens, report.Normalize, opts.SampleLimit)
	if _, err := t.paragraphs(false); err != nil {
		res.Aborted(err)
		return res
	}
	st := search.Target{Doc: t.Doc, Story: t.Story}
	pattern := search.Literal(textutil.SoftHyphen)

	ms, err := search.FindAll(ctx, st, pattern)
	if err != nil {
		res.Aborted(err)
		return res
	}
	res.Found = len(ms)
	seen := make(map[int]bool)
	for _, m := range ms {
		if seen[m.Paragraph] {
			continue
		}
		seen[m.Paragraph] = true
		text := m.Para.Contents()
		res.Sample("p%d: %d in %s", m.Paragraph, strings.Count(text, textutil.SoftHyphen), opts.snippet(text))
	}
	res.Add("paragraphs", len(seen))
	if len(ms) == 0 {
		return res
	}

	out, err := search.ReplaceAll(ctx, st, pattern, "")
	if err != nil {
		res.Aborted(err)
		return res
	}
	res.Removed = out.Changed
	res.Failed = out.Failed
	for _, e := range out.Errors {
		res.Sample("%v", e)
	}
	return res
}
