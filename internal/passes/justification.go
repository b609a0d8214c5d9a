package passes

import (
	"context"
	"fmt"

	"github.com/gafniasaf/bookgen/internal/layout"
	"github.com/gafniasaf/bookgen/internal/report"
)

// Justification resets every in-scope paragraph whose single-word
// justification is not left aligned. Writes that are accepted but have no
// effect are common, so each tier reads the value back before falling
// through to the next: paragraph override, bulk properties, named style.
func Justification(ctx context.Context, t Target, opts Options) *report.PassResult {
	res := report.NewPassResult(NameJustification, report.Normalize, opts.SampleLimit)
	paras, err := t.paragraphs(true)
	if err != nil {
		res.Aborted(err)
		return res
	}
	for _, p := range paras {
		if ctx.Err() != nil {
			break
		}
		before := p.SingleWordJustification()
		if before == layout.LeftAligned {
			continue
		}
		res.Found++
		tier, err := resetJustification(p)
		after := p.SingleWordJustification()
		if tier == "" {
			res.Failed++
			res.Add("no-effect", 1)
			reason := "no effect"
			if err != nil {
				reason = err.Error()
			}
			res.Sample("p%d style=%s: %s -> %s (%s)", p.Index(), p.StyleName(), before, after, reason)
			continue
		}
		res.Changed++
		res.Add(tier, 1)
		res.Sample("p%d style=%s: %s -> %s (%s)", p.Index(), p.StyleName(), before, after, tier)
	}
	return res
}

// resetJustification returns the tier that took effect, or "" with the last
// write error when none did.
func resetJustification(p *layout.Paragraph) (string, error) {
	left := layout.LeftAligned
	var lastErr error
	tiers := []struct {
		name  string
		write func() error
	}{
		{"direct", func() error { return p.SetSingleWordJustification(left) }},
		{"properties", func() error {
			return p.ApplyProperties(layout.Properties{SingleWordJustification: &left})
		}},
		{"style", func() error {
			st := p.Style()
			if st == nil {
				return fmt.Errorf("paragraph has no style")
			}
			return st.SetSingleWordJustification(left)
		}},
	}
	for _, tier := range tiers {
		if err := tier.write(); err != nil {
			lastErr = err
			continue
		}
		if p.SingleWordJustification() == left {
			return tier.name, nil
		}
	}
	return "", lastErr
}
