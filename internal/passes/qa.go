package passes

import (
	"context"

	"github.com/gafniasaf/bookgen/internal/layout"
	"github.com/gafniasaf/bookgen/internal/report"
	"github.com/gafniasaf/bookgen/internal/styles"
	"github.com/gafniasaf/bookgen/internal/textutil"
)

// NestedLists reports every in-scope paragraph with a nested list style.
func NestedLists(ctx context.Context, t Target, opts Options) *report.PassResult {
	return scan(ctx, t, opts, NameNestedLists, func(role styles.Role, _ *layout.Paragraph) bool {
		return role == styles.NestedList
	})
}

// EmptyListItems reports every in-scope list paragraph without text.
func EmptyListItems(ctx context.Context, t Target, opts Options) *report.PassResult {
	return scan(ctx, t, opts, NameEmptyListItems, func(role styles.Role, p *layout.Paragraph) bool {
		return role.IsList() && textutil.IsBlank(p.Contents())
	})
}

// scan visits every in-scope paragraph and records all violations; it never
// stops at the first.
func scan(ctx context.Context, t Target, opts Options, name string, violates func(styles.Role, *layout.Paragraph) bool) *report.PassResult {
	res := report.NewPassResult(name, report.QA, opts.SampleLimit)
	paras, err := t.paragraphs(true)
	if err != nil {
		res.Aborted(err)
		return res
	}
	for _, p := range paras {
		if err := ctx.Err(); err != nil {
			res.Aborted(err)
			return res
		}
		if !violates(t.Roles.Of(p), p) {
			continue
		}
		res.Violate(report.Violation{
			Paragraph: p.Index(),
			Style:     p.StyleName(),
			Page:      t.pageName(p),
			Snippet:   opts.snippet(p.Contents()),
		})
	}
	res.Add("scanned", len(paras))
	return res
}
