package layout

import (
	"fmt"
	"regexp"
)

// FindMode selects how FindWhat is interpreted.
type FindMode int

const (
	FindNone FindMode = iota
	FindText
	FindGrep
)

// FindChangePreferences is the engine-wide find/change state. Every query
// reads it, so callers must configure it immediately before use and reset
// it afterwards.
type FindChangePreferences struct {
	Mode          FindMode
	FindWhat      string
	ChangeTo      string
	CaseSensitive bool
}

// Reset restores the neutral state.
func (p *FindChangePreferences) Reset() {
	*p = FindChangePreferences{}
}

// Neutral reports whether the preferences are in the reset state.
func (p *FindChangePreferences) Neutral() bool {
	return *p == FindChangePreferences{}
}

func (p *FindChangePreferences) compile() (*regexp.Regexp, error) {
	if p.Mode == FindNone || p.FindWhat == "" {
		return nil, ErrNoFindPreferences
	}
	expr := p.FindWhat
	if p.Mode == FindText {
		expr = regexp.QuoteMeta(expr)
	}
	if !p.CaseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("layout: compile find expression: %w", err)
	}
	return re, nil
}

// Hit is one match reported by FindIn. Loc holds submatch byte index pairs
// relative to the paragraph contents, with -1 for groups that did not
// participate.
type Hit struct {
	Paragraph *Paragraph
	Loc       []int
}

// FindIn runs the current find preferences over paragraphs, in order.
func (d *Document) FindIn(paras []*Paragraph) ([]Hit, error) {
	re, err := d.findChange.compile()
	if err != nil {
		return nil, err
	}
	var hits []Hit
	for _, p := range paras {
		for _, loc := range re.FindAllStringSubmatchIndex(p.contents, -1) {
			hits = append(hits, Hit{Paragraph: p, Loc: loc})
		}
	}
	return hits, nil
}

// ChangeReport summarizes one ChangeIn invocation.
type ChangeReport struct {
	Changed int     // Matches whose replacement was written
	Failed  int     // Matches whose replacement was rejected
	Errors  []error // One entry per rejecting paragraph
}

// ChangeIn replaces every match of the current preferences within
// paragraphs. In grep mode ChangeTo may reference groups as $1 or ${1}.
// Matches whose replacement equals the matched text are left alone and not
// counted.
func (d *Document) ChangeIn(paras []*Paragraph) (ChangeReport, error) {
	var rep ChangeReport
	re, err := d.findChange.compile()
	if err != nil {
		return rep, err
	}
	grep := d.findChange.Mode == FindGrep
	for _, p := range paras {
		src := p.contents
		type edit struct {
			start, end int
			text       string
		}
		var edits []edit
		for _, loc := range re.FindAllStringSubmatchIndex(src, -1) {
			repl := d.findChange.ChangeTo
			if grep {
				repl = string(re.ExpandString(nil, repl, src, loc))
			}
			if repl == src[loc[0]:loc[1]] {
				continue
			}
			edits = append(edits, edit{loc[0], loc[1], repl})
		}
		// Apply back to front so earlier offsets stay valid.
		for i := len(edits) - 1; i >= 0; i-- {
			e := edits[i]
			if err := p.ReplaceRange(e.start, e.end, e.text); err != nil {
				rep.Failed += i + 1
				rep.Errors = append(rep.Errors, fmt.Errorf("paragraph %d: %w", p.index, err))
				break
			}
			rep.Changed++
		}
	}
	return rep, nil
}
